package highlight

import (
	"log"
	"strings"

	"github.com/google/uuid"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSelecting
	PhaseColorPending
)

// MinSelectionRunes rejects accidental taps; anything shorter never becomes
// a highlight.
const MinSelectionRunes = 2

// Manager runs the per-question selection state machine:
// idle -> selecting -> color-pending -> idle. One Manager tracks one
// displayed question at a time; highlight lists for other questions live in
// the session and are swapped in via ShowQuestion.
type Manager struct {
	enabled bool
	phase   Phase

	questionID string
	doc        *Document
	items      []Highlight
	pending    *Anchor

	logf func(format string, args ...interface{})
}

func NewManager() *Manager {
	return &Manager{logf: log.Printf}
}

func (m *Manager) SetLogf(logf func(string, ...interface{})) {
	if logf != nil {
		m.logf = logf
	}
}

// SetEnabled toggles highlight mode. Disabling mid-selection abandons it.
func (m *Manager) SetEnabled(on bool) {
	m.enabled = on
	if !on {
		m.phase = PhaseIdle
		m.pending = nil
	}
}

func (m *Manager) Enabled() bool { return m.enabled }
func (m *Manager) Phase() Phase  { return m.phase }

// ShowQuestion rebuilds the render for a question from its pristine source
// and reapplies the stored highlights in recorded order. Highlights whose
// text can no longer be located are skipped (see locate) and absent from
// the returned list, which callers persist as the question's new list.
func (m *Manager) ShowQuestion(questionID string, source []Span, stored []Highlight) []Highlight {
	m.questionID = questionID
	m.doc = NewDocument(source)
	m.items = nil
	m.phase = PhaseIdle
	m.pending = nil

	srcText := m.doc.SourceText()
	for _, h := range stored {
		anchor, ok := locate(srcText, h)
		if !ok {
			m.logf("highlight %s on question %s: span not located, skipping", h.ID, questionID)
			continue
		}
		h.Anchor = anchor
		if err := m.doc.Apply(h); err != nil {
			m.logf("highlight %s on question %s: %v", h.ID, questionID, err)
			continue
		}
		m.items = append(m.items, h)
	}
	return m.Highlights()
}

// BeginSelection starts tracking a selection. No-op unless highlight mode is
// on, a question is displayed, and the range is non-empty within bounds.
func (m *Manager) BeginSelection(start, end int) {
	if !m.enabled || m.doc == nil {
		return
	}
	if start > end {
		start, end = end, start
	}
	total := len([]rune(m.doc.SourceText()))
	if start < 0 {
		start = 0
	}
	if end > total {
		end = total
	}
	if start >= end {
		m.phase = PhaseIdle
		m.pending = nil
		return
	}
	m.pending = &Anchor{Start: start, End: end}
	m.phase = PhaseSelecting
}

// Release ends the selection gesture. Short selections are rejected and the
// machine returns to idle; otherwise a color choice is pending.
func (m *Manager) Release() {
	if m.phase != PhaseSelecting || m.pending == nil || m.pending.Len() < MinSelectionRunes {
		m.phase = PhaseIdle
		m.pending = nil
		return
	}
	m.phase = PhaseColorPending
}

// Commit wraps the captured span in the chosen color and records the
// highlight on the current question's list.
func (m *Manager) Commit(color string) (Highlight, bool) {
	if m.phase != PhaseColorPending || m.pending == nil || m.doc == nil {
		return Highlight{}, false
	}
	runes := []rune(m.doc.SourceText())
	h := Highlight{
		ID:         uuid.NewString(),
		QuestionID: m.questionID,
		Text:       string(runes[m.pending.Start:m.pending.End]),
		Color:      color,
		Anchor:     *m.pending,
	}
	if err := m.doc.Apply(h); err != nil {
		m.logf("highlight commit on question %s: %v", m.questionID, err)
		m.phase = PhaseIdle
		m.pending = nil
		return Highlight{}, false
	}
	m.items = append(m.items, h)
	m.phase = PhaseIdle
	m.pending = nil
	return h, true
}

// Cancel dismisses the pending color choice without creating a highlight.
func (m *Manager) Cancel() {
	m.phase = PhaseIdle
	m.pending = nil
}

// Remove unwraps an existing highlight: its contents rejoin the surrounding
// text at their original position, formatting intact. The render is rebuilt
// from source so removal of the last highlight is byte-identical to a
// question that was never highlighted.
func (m *Manager) Remove(id string) bool {
	if m.doc == nil {
		return false
	}
	idx := -1
	for i, h := range m.items {
		if h.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	m.items = append(m.items[:idx], m.items[idx+1:]...)
	m.doc.Reset()
	for _, h := range m.items {
		if err := m.doc.Apply(h); err != nil {
			m.logf("highlight %s reapply after removal: %v", h.ID, err)
		}
	}
	return true
}

// ClearAll restores the pristine render and empties the question's list.
func (m *Manager) ClearAll() {
	m.items = nil
	if m.doc != nil {
		m.doc.Reset()
	}
	m.phase = PhaseIdle
	m.pending = nil
}

func (m *Manager) Highlights() []Highlight {
	return append([]Highlight(nil), m.items...)
}

func (m *Manager) Spans() []Span {
	if m.doc == nil {
		return nil
	}
	return m.doc.Spans()
}

func (m *Manager) Text() string {
	if m.doc == nil {
		return ""
	}
	return m.doc.Text()
}

// locate resolves where a stored highlight belongs on the source snapshot.
// Policy (deterministic): the stored anchor wins when the text at its
// offsets still equals the captured text; otherwise a unique exact
// occurrence of the text re-anchors it; zero or ambiguous occurrences skip
// the highlight rather than corrupt the render.
func locate(sourceText string, h Highlight) (Anchor, bool) {
	if h.Text == "" {
		return Anchor{}, false
	}
	runes := []rune(sourceText)
	a := h.Anchor
	if a.Start >= 0 && a.End <= len(runes) && a.Start < a.End && string(runes[a.Start:a.End]) == h.Text {
		return a, true
	}
	occ := runeOccurrences(sourceText, h.Text)
	if len(occ) != 1 {
		return Anchor{}, false
	}
	start := occ[0]
	return Anchor{Start: start, End: start + len([]rune(h.Text))}, true
}

// runeOccurrences returns the rune offsets of every occurrence of needle.
func runeOccurrences(haystack, needle string) []int {
	var out []int
	runeOff := 0
	rest := haystack
	for {
		i := strings.Index(rest, needle)
		if i < 0 {
			return out
		}
		runeOff += len([]rune(rest[:i]))
		out = append(out, runeOff)
		// step past this occurrence's first rune to find overlapping matches
		_, sz := firstRune(rest[i:])
		runeOff++
		rest = rest[i+sz:]
	}
}

func firstRune(s string) (rune, int) {
	for _, r := range s {
		return r, len(string(r))
	}
	return 0, 0
}
