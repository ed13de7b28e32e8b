// Package session is the single source of truth for test-taking progress.
// One Session aggregate is passed by reference to every component; the
// Store is its only persistence boundary.
package session

import (
	"time"

	"github.com/silent9669/chucamo-sub001/internal/highlight"
)

type Status string

const (
	StatusInProgress     Status = "in-progress"
	StatusIncompleteExit Status = "incomplete-exit"
	// StatusCompletedPending marks a finished session whose remote
	// submission has not been acknowledged yet; retryable without
	// re-answering.
	StatusCompletedPending Status = "completed-pending"
	StatusCompleted        Status = "completed"
)

// Session aggregates everything a reload must reproduce. Answers and
// highlights are keyed by the stable question ID; the positional
// (section, ordinal) key is derived at serialization time only.
type Session struct {
	TestID string
	UserID string

	SectionIndex    int
	QuestionOrdinal int
	RemainingSec    int
	Paused          bool
	Status          Status
	CorrelationID   string

	Answers    map[string]string
	Review     map[string]struct{}
	Highlights map[string][]highlight.Highlight

	UpdatedAt int64
}

// New opens a fresh session positioned at the first question of the first
// section with that section's full time budget.
func New(userID, testID string, firstSectionLimitSec int) *Session {
	return &Session{
		TestID:       testID,
		UserID:       userID,
		RemainingSec: firstSectionLimitSec,
		Status:       StatusInProgress,
		Answers:      map[string]string{},
		Review:       map[string]struct{}{},
		Highlights:   map[string][]highlight.Highlight{},
		UpdatedAt:    time.Now().Unix(),
	}
}

// Clone returns a deep copy. Callers hand copies across goroutine
// boundaries; mutating either side never affects the other.
func (s *Session) Clone() *Session {
	c := *s
	c.Answers = make(map[string]string, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	c.Review = make(map[string]struct{}, len(s.Review))
	for k := range s.Review {
		c.Review[k] = struct{}{}
	}
	c.Highlights = make(map[string][]highlight.Highlight, len(s.Highlights))
	for k, v := range s.Highlights {
		c.Highlights[k] = append([]highlight.Highlight(nil), v...)
	}
	return &c
}

// SetAnswer records the raw submitted answer; the latest write wins.
func (s *Session) SetAnswer(questionID, value string) {
	if s.Answers == nil {
		s.Answers = map[string]string{}
	}
	s.Answers[questionID] = value
}

func (s *Session) Answer(questionID string) (string, bool) {
	v, ok := s.Answers[questionID]
	return v, ok
}

// ToggleReview flips the advisory mark-for-review flag and returns the new
// state. The flag never affects scoring.
func (s *Session) ToggleReview(questionID string) bool {
	if s.Review == nil {
		s.Review = map[string]struct{}{}
	}
	if _, ok := s.Review[questionID]; ok {
		delete(s.Review, questionID)
		return false
	}
	s.Review[questionID] = struct{}{}
	return true
}

func (s *Session) Marked(questionID string) bool {
	_, ok := s.Review[questionID]
	return ok
}

func (s *Session) SetHighlights(questionID string, items []highlight.Highlight) {
	if s.Highlights == nil {
		s.Highlights = map[string][]highlight.Highlight{}
	}
	if len(items) == 0 {
		delete(s.Highlights, questionID)
		return
	}
	s.Highlights[questionID] = append([]highlight.Highlight(nil), items...)
}

func (s *Session) QuestionHighlights(questionID string) []highlight.Highlight {
	return append([]highlight.Highlight(nil), s.Highlights[questionID]...)
}
