package session

import (
	"sort"
	"time"

	"github.com/silent9669/chucamo-sub001/internal/highlight"
)

// Locator maps a stable question ID to its positional key. Positions appear
// in the wire form only, for result-review features that still read them.
type Locator func(questionID string) (sectionIndex, ordinal int, ok bool)

// answerRecord is dual-keyed: the stable question ID is canonical, the
// positional pair rides along for backward compatibility.
type answerRecord struct {
	QuestionID   string `json:"question_id"`
	SectionIndex int    `json:"section_index"`
	Ordinal      int    `json:"ordinal"`
	Value        string `json:"value"`
}

type questionHighlights struct {
	QuestionID string                `json:"question_id"`
	Items      []highlight.Highlight `json:"items"`
}

// sessionDoc is the serialized form: every map/set flattened to a sorted
// array so the payload is deterministic and portable.
type sessionDoc struct {
	TestID          string `json:"test_id"`
	UserID          string `json:"user_id"`
	SectionIndex    int    `json:"section_index"`
	QuestionOrdinal int    `json:"question_ordinal"`
	RemainingSec    int    `json:"remaining_sec"`
	Paused          bool   `json:"paused"`
	Status          Status `json:"status"`
	CorrelationID   string `json:"correlation_id,omitempty"`
	UpdatedAt       int64  `json:"updated_at"`

	Answers    []answerRecord       `json:"answers,omitempty"`
	Review     []string             `json:"review,omitempty"`
	Highlights []questionHighlights `json:"highlights,omitempty"`
}

func buildDoc(s *Session, loc Locator) sessionDoc {
	doc := sessionDoc{
		TestID:          s.TestID,
		UserID:          s.UserID,
		SectionIndex:    s.SectionIndex,
		QuestionOrdinal: s.QuestionOrdinal,
		RemainingSec:    s.RemainingSec,
		Paused:          s.Paused,
		Status:          s.Status,
		CorrelationID:   s.CorrelationID,
		UpdatedAt:       time.Now().Unix(),
	}

	for qid, v := range s.Answers {
		rec := answerRecord{QuestionID: qid, SectionIndex: -1, Ordinal: -1, Value: v}
		if loc != nil {
			if si, qi, ok := loc(qid); ok {
				rec.SectionIndex, rec.Ordinal = si, qi
			}
		}
		doc.Answers = append(doc.Answers, rec)
	}
	sort.Slice(doc.Answers, func(i, j int) bool { return doc.Answers[i].QuestionID < doc.Answers[j].QuestionID })

	for qid := range s.Review {
		doc.Review = append(doc.Review, qid)
	}
	sort.Strings(doc.Review)

	for qid, items := range s.Highlights {
		if len(items) == 0 {
			continue
		}
		doc.Highlights = append(doc.Highlights, questionHighlights{
			QuestionID: qid,
			Items:      append([]highlight.Highlight(nil), items...),
		})
	}
	sort.Slice(doc.Highlights, func(i, j int) bool { return doc.Highlights[i].QuestionID < doc.Highlights[j].QuestionID })

	return doc
}

// minimalDoc keeps only what is needed to land the user back on the right
// question with the right clock: the last-resort persistence tier.
func minimalDoc(s *Session) sessionDoc {
	return sessionDoc{
		TestID:          s.TestID,
		UserID:          s.UserID,
		SectionIndex:    s.SectionIndex,
		QuestionOrdinal: s.QuestionOrdinal,
		RemainingSec:    s.RemainingSec,
		Paused:          s.Paused,
		Status:          s.Status,
		CorrelationID:   s.CorrelationID,
		UpdatedAt:       time.Now().Unix(),
	}
}

func (doc sessionDoc) restore() *Session {
	s := &Session{
		TestID:          doc.TestID,
		UserID:          doc.UserID,
		SectionIndex:    doc.SectionIndex,
		QuestionOrdinal: doc.QuestionOrdinal,
		RemainingSec:    doc.RemainingSec,
		Paused:          doc.Paused,
		Status:          doc.Status,
		CorrelationID:   doc.CorrelationID,
		UpdatedAt:       doc.UpdatedAt,
		Answers:         map[string]string{},
		Review:          map[string]struct{}{},
		Highlights:      map[string][]highlight.Highlight{},
	}
	if s.Status == "" {
		s.Status = StatusInProgress
	}
	for _, rec := range doc.Answers {
		s.Answers[rec.QuestionID] = rec.Value
	}
	for _, qid := range doc.Review {
		s.Review[qid] = struct{}{}
	}
	for _, qh := range doc.Highlights {
		if len(qh.Items) > 0 {
			s.Highlights[qh.QuestionID] = append([]highlight.Highlight(nil), qh.Items...)
		}
	}
	return s
}
