package content

type SectionType string

const (
	SectionVerbal       SectionType = "verbal"
	SectionQuantitative SectionType = "quantitative"
)

type QuestionKind string

const (
	KindChoice       QuestionKind = "choice"
	KindFreeResponse QuestionKind = "free-response"
)

type Option struct {
	Content string `json:"content"`
	Correct bool   `json:"correct,omitempty"`
}

type Question struct {
	ID      string       `json:"id"`
	Kind    QuestionKind `json:"kind"`
	Prompt  string       `json:"prompt"`
	Passage string       `json:"passage,omitempty"`

	Options []Option `json:"options,omitempty"` // choice only

	// CorrectAnswer carries whatever the authoring pipeline populated:
	// a string (canonical answer text) or a number (option index).
	// Evaluation resolves the representations in a fixed precedence order.
	CorrectAnswer interface{} `json:"correct_answer,omitempty"`

	// AcceptableAnswers lists free-response matches verbatim (normalized
	// equality only; no numeric equivalence).
	AcceptableAnswers []string `json:"acceptable_answers,omitempty"`
}

type Section struct {
	Type         SectionType `json:"type"`
	Title        string      `json:"title,omitempty"`
	TimeLimitSec int         `json:"time_limit_sec"`
	Questions    []Question  `json:"questions"`
}

// Test is immutable once loaded for a session; the engine never writes to it.
type Test struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Sections  []Section `json:"sections"`
	CreatedAt int64     `json:"created_at,omitempty"`
}

func (t Test) QuestionCount() int {
	n := 0
	for _, s := range t.Sections {
		n += len(s.Questions)
	}
	return n
}

func (t Test) QuestionAt(sectionIndex, ordinal int) (Question, bool) {
	if sectionIndex < 0 || sectionIndex >= len(t.Sections) {
		return Question{}, false
	}
	qs := t.Sections[sectionIndex].Questions
	if ordinal < 0 || ordinal >= len(qs) {
		return Question{}, false
	}
	return qs[ordinal], true
}

// Locate returns the positional key for a question's stable ID. The stable
// ID is canonical everywhere; positions exist for result-review payloads.
func (t Test) Locate(questionID string) (sectionIndex, ordinal int, ok bool) {
	for si, s := range t.Sections {
		for qi, q := range s.Questions {
			if q.ID == questionID {
				return si, qi, true
			}
		}
	}
	return 0, 0, false
}
