package evaluate

import (
	"testing"

	"github.com/silent9669/chucamo-sub001/internal/content"
)

func choiceQ(opts ...content.Option) content.Question {
	return content.Question{ID: "q1", Kind: content.KindChoice, Prompt: "pick one", Options: opts}
}

func TestEvaluateEmptySubmissionNeverMatches(t *testing.T) {
	q := choiceQ(content.Option{Content: "", Correct: true})
	if Evaluate(q, "") {
		t.Fatalf("empty submission matched a flagged empty option")
	}
	free := content.Question{Kind: content.KindFreeResponse, AcceptableAnswers: []string{""}}
	if Evaluate(free, "   ") {
		t.Fatalf("whitespace-only submission matched an empty acceptable answer")
	}
}

func TestEvaluateChoiceFlaggedOption(t *testing.T) {
	q := choiceQ(
		content.Option{Content: "Paris"},
		content.Option{Content: "Lyon", Correct: true},
	)
	if !Evaluate(q, "Lyon") {
		t.Fatalf("flagged option content did not match")
	}
	if Evaluate(q, "Paris") {
		t.Fatalf("unflagged option matched")
	}
}

func TestEvaluateChoiceCanonicalString(t *testing.T) {
	q := choiceQ(content.Option{Content: "A"}, content.Option{Content: "B"})
	q.CorrectAnswer = "B"
	if !Evaluate(q, "B") {
		t.Fatalf("canonical string answer did not match")
	}
	if Evaluate(q, "b") {
		t.Fatalf("choice comparison is exact; case-folded submission matched")
	}
}

func TestEvaluateChoiceNumericIndex(t *testing.T) {
	q := choiceQ(
		content.Option{Content: "red"},
		content.Option{Content: "green"},
		content.Option{Content: "blue"},
	)
	// JSON decoding yields float64 for numbers.
	q.CorrectAnswer = float64(2)

	if !Evaluate(q, "blue") {
		t.Fatalf("option content at the numeric index did not match")
	}
	if !Evaluate(q, "2") {
		t.Fatalf("stringified index did not match")
	}
	if Evaluate(q, "green") {
		t.Fatalf("wrong option matched")
	}
}

func TestEvaluateChoiceFractionalIndexIgnored(t *testing.T) {
	q := choiceQ(content.Option{Content: "x"}, content.Option{Content: "y"})
	q.CorrectAnswer = 1.5
	if Evaluate(q, "y") || Evaluate(q, "1") {
		t.Fatalf("fractional correct-answer value produced a match")
	}
}

func TestEvaluateFreeResponse(t *testing.T) {
	q := content.Question{
		Kind:              content.KindFreeResponse,
		CorrectAnswer:     "1/2",
		AcceptableAnswers: []string{"0.5", "one half"},
	}
	cases := []struct {
		submitted string
		want      bool
	}{
		{"1/2", true},
		{"0.5", true},
		{"  One Half  ", true}, // trim + case-fold
		{"0.50", false},        // no numeric equivalence
		{"2/4", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Evaluate(q, tc.submitted); got != tc.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tc.submitted, got, tc.want)
		}
	}
}

func TestEvaluateNoNumericEquivalence(t *testing.T) {
	q := content.Question{Kind: content.KindFreeResponse, AcceptableAnswers: []string{"3.5"}}
	if Evaluate(q, "3.50") {
		t.Fatalf(`"3.50" matched "3.5"; equality must be textual`)
	}
}

func TestEvaluateIsPure(t *testing.T) {
	q := choiceQ(content.Option{Content: "A", Correct: true})
	for i := 0; i < 3; i++ {
		if !Evaluate(q, "A") {
			t.Fatalf("repeat call %d changed the verdict", i)
		}
	}
	if q.Options[0].Content != "A" || !q.Options[0].Correct {
		t.Fatalf("Evaluate mutated the question")
	}
}
