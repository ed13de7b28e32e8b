package highlight

import (
	"testing"
)

func discardLogf(string, ...interface{}) {}

func newShown(t *testing.T, text string) *Manager {
	t.Helper()
	m := NewManager()
	m.SetLogf(discardLogf)
	m.SetEnabled(true)
	m.ShowQuestion("q1", []Span{{Text: text}}, nil)
	return m
}

func TestSelectionBelowMinimumRejected(t *testing.T) {
	m := newShown(t, "hello world")
	m.BeginSelection(3, 4) // one rune
	m.Release()
	if m.Phase() != PhaseIdle {
		t.Fatalf("phase = %v after short selection, want idle", m.Phase())
	}
	if _, ok := m.Commit("yellow"); ok {
		t.Fatalf("commit succeeded with no pending selection")
	}
}

func TestSelectCommitFlow(t *testing.T) {
	m := newShown(t, "hello world")
	m.BeginSelection(6, 11)
	m.Release()
	if m.Phase() != PhaseColorPending {
		t.Fatalf("phase = %v, want color-pending", m.Phase())
	}
	h, ok := m.Commit("yellow")
	if !ok {
		t.Fatalf("commit failed")
	}
	if h.Text != "world" || h.Color != "yellow" || h.ID == "" {
		t.Fatalf("unexpected highlight: %+v", h)
	}
	if m.Phase() != PhaseIdle {
		t.Fatalf("phase not idle after commit")
	}
	if m.Text() != "hello world" {
		t.Fatalf("wrapping changed text content: %q", m.Text())
	}

	spans := m.Spans()
	want := []Span{
		{Text: "hello "},
		{Text: "world", HighlightID: h.ID, Color: "yellow"},
	}
	if !SpansEqual(spans, want) {
		t.Fatalf("spans = %+v, want %+v", spans, want)
	}
}

func TestReversedAndClampedSelection(t *testing.T) {
	m := newShown(t, "abcdef")
	m.BeginSelection(99, 2) // reversed and out of bounds
	m.Release()
	h, ok := m.Commit("green")
	if !ok {
		t.Fatalf("commit failed")
	}
	if h.Text != "cdef" {
		t.Fatalf("highlight text = %q, want %q", h.Text, "cdef")
	}
}

func TestCancelDismissesPendingSelection(t *testing.T) {
	m := newShown(t, "hello world")
	m.BeginSelection(0, 5)
	m.Release()
	m.Cancel()
	if m.Phase() != PhaseIdle {
		t.Fatalf("phase = %v after cancel, want idle", m.Phase())
	}
	if len(m.Highlights()) != 0 {
		t.Fatalf("cancel created a highlight")
	}
}

func TestDisablingAbandonsSelection(t *testing.T) {
	m := newShown(t, "hello world")
	m.BeginSelection(0, 5)
	m.SetEnabled(false)
	if m.Phase() != PhaseIdle {
		t.Fatalf("disable did not reset the state machine")
	}
	m.BeginSelection(0, 5)
	m.Release()
	if m.Phase() != PhaseIdle {
		t.Fatalf("selection progressed while mode disabled")
	}
}

func TestRemoveRestoresPristineRender(t *testing.T) {
	source := []Span{{Text: "The quick "}, {Text: "brown fox", Marks: []string{"b"}}, {Text: " jumps"}}
	m := NewManager()
	m.SetLogf(discardLogf)
	m.SetEnabled(true)
	m.ShowQuestion("q1", source, nil)

	m.BeginSelection(4, 15) // "quick brown", straddles the bold run
	m.Release()
	h, ok := m.Commit("pink")
	if !ok {
		t.Fatalf("commit failed")
	}

	// Formatting marks must survive on wrapped fragments.
	for _, sp := range m.Spans() {
		if sp.Text == "brown" && (sp.HighlightID != h.ID || len(sp.Marks) != 1 || sp.Marks[0] != "b") {
			t.Fatalf("bold fragment lost its mark or tag: %+v", sp)
		}
	}

	if !m.Remove(h.ID) {
		t.Fatalf("remove failed")
	}
	if !SpansEqual(m.Spans(), source) {
		t.Fatalf("render after removal differs from pristine source:\n got %+v\nwant %+v", m.Spans(), source)
	}
	if m.Remove(h.ID) {
		t.Fatalf("second remove of the same id succeeded")
	}
}

func TestRemoveKeepsOtherHighlights(t *testing.T) {
	m := newShown(t, "one two three four")
	m.BeginSelection(0, 3)
	m.Release()
	first, _ := m.Commit("yellow")
	m.BeginSelection(8, 13)
	m.Release()
	second, _ := m.Commit("blue")

	if !m.Remove(first.ID) {
		t.Fatalf("remove failed")
	}
	hs := m.Highlights()
	if len(hs) != 1 || hs[0].ID != second.ID {
		t.Fatalf("remaining highlights = %+v, want just %s", hs, second.ID)
	}
	// The survivor must still be rendered.
	found := false
	for _, sp := range m.Spans() {
		if sp.HighlightID == second.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("surviving highlight missing from render")
	}
}

func TestClearAll(t *testing.T) {
	m := newShown(t, "hello world")
	m.BeginSelection(0, 5)
	m.Release()
	m.Commit("yellow")
	m.ClearAll()
	if len(m.Highlights()) != 0 {
		t.Fatalf("highlights remain after clear")
	}
	if !SpansEqual(m.Spans(), []Span{{Text: "hello world"}}) {
		t.Fatalf("render not pristine after clear: %+v", m.Spans())
	}
}

func TestShowQuestionReappliesStored(t *testing.T) {
	stored := []Highlight{
		{ID: "h1", QuestionID: "q1", Text: "world", Color: "yellow", Anchor: Anchor{Start: 6, End: 11}},
	}
	m := NewManager()
	m.SetLogf(discardLogf)
	surviving := m.ShowQuestion("q1", []Span{{Text: "hello world"}}, stored)
	if len(surviving) != 1 || surviving[0].ID != "h1" {
		t.Fatalf("stored highlight did not survive: %+v", surviving)
	}
	if m.Text() != "hello world" {
		t.Fatalf("reapply changed text: %q", m.Text())
	}
}

func TestShowQuestionReanchorsByUniqueOccurrence(t *testing.T) {
	// Anchor points at the wrong place but the text occurs exactly once.
	stored := []Highlight{
		{ID: "h1", QuestionID: "q1", Text: "world", Color: "yellow", Anchor: Anchor{Start: 0, End: 5}},
	}
	m := NewManager()
	m.SetLogf(discardLogf)
	surviving := m.ShowQuestion("q1", []Span{{Text: "hello world"}}, stored)
	if len(surviving) != 1 {
		t.Fatalf("unique-occurrence re-anchor failed: %+v", surviving)
	}
	if a := surviving[0].Anchor; a.Start != 6 || a.End != 11 {
		t.Fatalf("re-anchored to [%d,%d), want [6,11)", a.Start, a.End)
	}
}

func TestShowQuestionSkipsAmbiguousAndMissing(t *testing.T) {
	stored := []Highlight{
		{ID: "ambiguous", Text: "ab", Anchor: Anchor{Start: 90, End: 92}},
		{ID: "missing", Text: "zzz", Anchor: Anchor{Start: 0, End: 3}},
	}
	m := NewManager()
	m.SetLogf(discardLogf)
	surviving := m.ShowQuestion("q1", []Span{{Text: "ab ab ab"}}, stored)
	if len(surviving) != 0 {
		t.Fatalf("ambiguous or missing highlight survived: %+v", surviving)
	}
}

func TestShowQuestionAnchorWinsOverAmbiguity(t *testing.T) {
	// Text occurs twice but the stored anchor still matches; no skip.
	stored := []Highlight{
		{ID: "h1", Text: "ab", Anchor: Anchor{Start: 3, End: 5}},
	}
	m := NewManager()
	m.SetLogf(discardLogf)
	surviving := m.ShowQuestion("q1", []Span{{Text: "ab ab"}}, stored)
	if len(surviving) != 1 || surviving[0].Anchor.Start != 3 {
		t.Fatalf("valid anchor was not honored: %+v", surviving)
	}
}

func TestDocumentApplyOutOfRange(t *testing.T) {
	d := PlainDocument("short")
	err := d.Apply(Highlight{ID: "h", Anchor: Anchor{Start: 2, End: 99}})
	if err == nil {
		t.Fatalf("out-of-range apply succeeded")
	}
	if !d.Pristine() {
		t.Fatalf("failed apply modified the render")
	}
}

func TestRuneOffsetsNotBytes(t *testing.T) {
	// Multibyte text: anchors count runes, not bytes.
	m := newShown(t, "héllo wörld")
	m.BeginSelection(6, 11)
	m.Release()
	h, ok := m.Commit("yellow")
	if !ok {
		t.Fatalf("commit failed")
	}
	if h.Text != "wörld" {
		t.Fatalf("highlight text = %q, want %q", h.Text, "wörld")
	}
}
