// Package report aggregates a finished session into a score and drives the
// idempotent handoff to the external results service.
package report

import (
	"math"

	"github.com/silent9669/chucamo-sub001/internal/content"
	"github.com/silent9669/chucamo-sub001/internal/evaluate"
	"github.com/silent9669/chucamo-sub001/internal/session"
)

// SubmissionItem enumerates one question's verdict. Answer is nil when the
// question was never answered; unanswered always counts as incorrect.
type SubmissionItem struct {
	QuestionID   string  `json:"question_id"`
	SectionIndex int     `json:"section_index"`
	Ordinal      int     `json:"ordinal"`
	Answer       *string `json:"answer"`
	Correct      bool    `json:"correct"`
}

type Submission struct {
	TestID        string           `json:"test_id"`
	CorrelationID string           `json:"correlation_id,omitempty"`
	Items         []SubmissionItem `json:"items"`
}

type Outcome struct {
	Score          int
	CorrectCount   int
	IncorrectCount int
	TotalQuestions int
	CoinsEarned    int
	Submission     Submission
}

// BuildOutcome walks every question in every section, not only answered
// ones, and computes score = round(correct/total*100). Pure.
func BuildOutcome(s *session.Session, test content.Test) Outcome {
	out := Outcome{Submission: Submission{TestID: test.ID, CorrelationID: s.CorrelationID}}
	for si, sec := range test.Sections {
		for qi, q := range sec.Questions {
			item := SubmissionItem{QuestionID: q.ID, SectionIndex: si, Ordinal: qi}
			if v, ok := s.Answer(q.ID); ok {
				answer := v
				item.Answer = &answer
				item.Correct = evaluate.Evaluate(q, v)
			}
			if item.Correct {
				out.CorrectCount++
			} else {
				out.IncorrectCount++
			}
			out.TotalQuestions++
			out.Submission.Items = append(out.Submission.Items, item)
		}
	}
	if out.TotalQuestions > 0 {
		out.Score = int(math.Round(float64(out.CorrectCount) / float64(out.TotalQuestions) * 100))
	}
	return out
}
