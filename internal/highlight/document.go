package highlight

import "fmt"

// Document is one question's rendered text: the pristine source spans plus
// the current render with highlight wrapping applied. The text content is
// identical in both; wrapping only splits runs and tags them.
type Document struct {
	source []Span
	spans  []Span
}

func NewDocument(source []Span) *Document {
	return &Document{
		source: cloneSpans(source),
		spans:  cloneSpans(source),
	}
}

// PlainDocument wraps unformatted text in a single source span.
func PlainDocument(text string) *Document {
	return NewDocument([]Span{{Text: text}})
}

func (d *Document) Text() string {
	var out []rune
	for _, sp := range d.spans {
		out = append(out, []rune(sp.Text)...)
	}
	return string(out)
}

func (d *Document) SourceText() string {
	var out []rune
	for _, sp := range d.source {
		out = append(out, []rune(sp.Text)...)
	}
	return string(out)
}

func (d *Document) Spans() []Span { return cloneSpans(d.spans) }

// Reset restores the pristine render; indistinguishable from a document
// that was never highlighted.
func (d *Document) Reset() { d.spans = cloneSpans(d.source) }

// Pristine reports whether the current render equals the source render.
func (d *Document) Pristine() bool { return SpansEqual(d.spans, d.source) }

// Apply wraps exactly the anchored span in a tagged region. Runs straddling
// the boundary are split; their formatting marks are carried onto every
// fragment, so nested bold/italic/underline survives.
func (d *Document) Apply(h Highlight) error {
	total := 0
	for _, sp := range d.spans {
		total += len([]rune(sp.Text))
	}
	if h.Anchor.Start < 0 || h.Anchor.End > total || h.Anchor.Start >= h.Anchor.End {
		return fmt.Errorf("highlight %s: anchor [%d,%d) out of range 0..%d", h.ID, h.Anchor.Start, h.Anchor.End, total)
	}

	out := make([]Span, 0, len(d.spans)+2)
	pos := 0
	for _, sp := range d.spans {
		r := []rune(sp.Text)
		segStart, segEnd := pos, pos+len(r)
		pos = segEnd

		if segEnd <= h.Anchor.Start || segStart >= h.Anchor.End {
			out = append(out, sp)
			continue
		}
		a := maxInt(h.Anchor.Start, segStart) - segStart
		b := minInt(h.Anchor.End, segEnd) - segStart
		if a > 0 {
			pre := sp
			pre.Text = string(r[:a])
			pre.Marks = append([]string(nil), sp.Marks...)
			out = append(out, pre)
		}
		mid := sp
		mid.Text = string(r[a:b])
		mid.Marks = append([]string(nil), sp.Marks...)
		mid.HighlightID = h.ID
		mid.Color = h.Color
		out = append(out, mid)
		if b < len(r) {
			post := sp
			post.Text = string(r[b:])
			post.Marks = append([]string(nil), sp.Marks...)
			out = append(out, post)
		}
	}
	d.spans = out
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
