// Package highlight manages user-created text highlights over a question's
// displayed text. Highlights anchor to rune offsets into a stable text
// snapshot, never to the live render, so they survive any redraw.
package highlight

// Anchor is a serializable span over the question's source text snapshot.
// Start is inclusive, End exclusive, both in runes.
type Anchor struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (a Anchor) Len() int { return a.End - a.Start }

type Highlight struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	Color      string `json:"color"`
	Anchor     Anchor `json:"anchor"`
}

// Span is a run of rendered text. Marks carries inline formatting tags from
// the source content (e.g. "b", "i", "u"); wrapping a highlight around a run
// never disturbs them. HighlightID and Color are set on wrapped runs only.
type Span struct {
	Text        string   `json:"text"`
	Marks       []string `json:"marks,omitempty"`
	HighlightID string   `json:"highlight_id,omitempty"`
	Color       string   `json:"color,omitempty"`
}

func cloneSpans(in []Span) []Span {
	out := make([]Span, len(in))
	for i, sp := range in {
		out[i] = sp
		if sp.Marks != nil {
			out[i].Marks = append([]string(nil), sp.Marks...)
		}
	}
	return out
}

func marksEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SpansEqual compares two renders segment by segment.
func SpansEqual(a, b []Span) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Text != b[i].Text || a[i].HighlightID != b[i].HighlightID ||
			a[i].Color != b[i].Color || !marksEqual(a[i].Marks, b[i].Marks) {
			return false
		}
	}
	return true
}
