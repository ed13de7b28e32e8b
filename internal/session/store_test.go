package session

import (
	"context"
	"errors"
	"testing"

	"github.com/silent9669/chucamo-sub001/internal/highlight"
)

// fakeKV is an in-memory KV with injectable Put failures.
type fakeKV struct {
	data     map[string][]byte
	failPuts int // fail this many Put calls, then succeed
	puts     int
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string][]byte{}} }

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	b, ok := f.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (f *fakeKV) Put(_ context.Context, key string, value []byte) error {
	f.puts++
	if f.failPuts > 0 {
		f.failPuts--
		return errors.New("disk full")
	}
	f.data[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func testLocator(questionID string) (int, int, bool) {
	switch questionID {
	case "q1":
		return 0, 0, true
	case "q2":
		return 0, 1, true
	}
	return 0, 0, false
}

func sampleSession() *Session {
	s := New("alice", "sat-1", 1800)
	s.SectionIndex = 0
	s.QuestionOrdinal = 1
	s.RemainingSec = 1234
	s.Paused = true
	s.SetAnswer("q1", "B")
	s.SetAnswer("q2", "42")
	s.ToggleReview("q2")
	s.SetHighlights("q1", []highlight.Highlight{
		{ID: "h1", QuestionID: "q1", Text: "key phrase", Color: "yellow", Anchor: highlight.Anchor{Start: 4, End: 14}},
	})
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	st := NewStore(kv)
	st.SetLogf(t.Logf)

	tier, err := st.Save(ctx, sampleSession(), testLocator)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if tier != TierFull {
		t.Fatalf("tier = %s, want full", tier)
	}

	got, err := st.Load(ctx, "alice", "sat-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatalf("load returned nil for saved session")
	}
	if got.SectionIndex != 0 || got.QuestionOrdinal != 1 || got.RemainingSec != 1234 || !got.Paused {
		t.Fatalf("position/timer mismatch: %+v", got)
	}
	if got.Status != StatusInProgress {
		t.Fatalf("status = %s, want in-progress", got.Status)
	}
	if v, ok := got.Answer("q1"); !ok || v != "B" {
		t.Fatalf("answer q1 = %q,%v", v, ok)
	}
	if v, ok := got.Answer("q2"); !ok || v != "42" {
		t.Fatalf("answer q2 = %q,%v", v, ok)
	}
	if !got.Marked("q2") || got.Marked("q1") {
		t.Fatalf("review marks mismatch")
	}
	hs := got.QuestionHighlights("q1")
	if len(hs) != 1 || hs[0].ID != "h1" || hs[0].Anchor.Start != 4 {
		t.Fatalf("highlights mismatch: %+v", hs)
	}
}

func TestLoadMissingReturnsNilNil(t *testing.T) {
	st := NewStore(newFakeKV())
	s, err := st.Load(context.Background(), "nobody", "none")
	if err != nil || s != nil {
		t.Fatalf("Load missing = %v, %v; want nil, nil", s, err)
	}
}

func TestLoadCorruptRecord(t *testing.T) {
	kv := newFakeKV()
	kv.data[sessionKey("alice", "sat-1")] = []byte("{not json")
	st := NewStore(kv)
	if _, err := st.Load(context.Background(), "alice", "sat-1"); err == nil {
		t.Fatalf("corrupt record loaded without error")
	}
}

func TestSaveDegradesToNoHighlights(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.failPuts = 1
	st := NewStore(kv)
	st.SetLogf(t.Logf)

	tier, err := st.Save(ctx, sampleSession(), testLocator)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if tier != TierNoHighlights {
		t.Fatalf("tier = %s, want no-highlights", tier)
	}

	got, err := st.Load(ctx, "alice", "sat-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.QuestionHighlights("q1")) != 0 {
		t.Fatalf("highlights survived a degraded save")
	}
	if v, ok := got.Answer("q1"); !ok || v != "B" {
		t.Fatalf("answers lost in no-highlights tier")
	}
}

func TestSaveDegradesToMinimal(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.failPuts = 2
	st := NewStore(kv)
	st.SetLogf(t.Logf)

	tier, err := st.Save(ctx, sampleSession(), testLocator)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if tier != TierMinimal {
		t.Fatalf("tier = %s, want minimal", tier)
	}

	got, err := st.Load(ctx, "alice", "sat-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Minimal keeps position and clock only.
	if got.QuestionOrdinal != 1 || got.RemainingSec != 1234 {
		t.Fatalf("minimal tier lost position/timer: %+v", got)
	}
	if len(got.Answers) != 0 || len(got.Review) != 0 {
		t.Fatalf("minimal tier kept answers/review")
	}
}

func TestSaveAllTiersFail(t *testing.T) {
	kv := newFakeKV()
	kv.failPuts = 3
	st := NewStore(kv)
	st.SetLogf(t.Logf)

	tier, err := st.Save(context.Background(), sampleSession(), testLocator)
	if err == nil {
		t.Fatalf("save succeeded with every tier failing")
	}
	if tier != TierFailed {
		t.Fatalf("tier = %s, want failed", tier)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	st := NewStore(newFakeKV())
	if _, err := st.Save(ctx, sampleSession(), testLocator); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.Clear(ctx, "alice", "sat-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	s, err := st.Load(ctx, "alice", "sat-1")
	if err != nil || s != nil {
		t.Fatalf("session survived clear: %v, %v", s, err)
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := NewStore(newFakeKV())
	want := Summary{
		TestID: "sat-1", UserID: "alice",
		Score: 67, CorrectCount: 2, IncorrectCount: 1, TotalQuestions: 3,
		CoinsEarned: 15, CompletedAt: 1700000000,
	}
	if err := st.PutSummary(ctx, want); err != nil {
		t.Fatalf("put summary: %v", err)
	}
	got, err := st.GetSummary(ctx, "alice", "sat-1")
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if got != want {
		t.Fatalf("summary = %+v, want %+v", got, want)
	}
	if _, err := st.GetSummary(ctx, "alice", "other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing summary err = %v, want ErrNotFound", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := sampleSession()
	c := s.Clone()
	c.SetAnswer("q1", "changed")
	c.ToggleReview("q1")
	c.SetHighlights("q1", nil)
	c.Paused = false

	if v, _ := s.Answer("q1"); v != "B" {
		t.Fatalf("clone write leaked into the original answer map")
	}
	if s.Marked("q1") {
		t.Fatalf("clone write leaked into the original review set")
	}
	if len(s.QuestionHighlights("q1")) != 1 {
		t.Fatalf("clone write leaked into the original highlights")
	}
	if !s.Paused {
		t.Fatalf("clone write leaked into a scalar field")
	}
}

func TestDocRestoreDefaultsStatus(t *testing.T) {
	s := sessionDoc{TestID: "t", UserID: "u"}.restore()
	if s.Status != StatusInProgress {
		t.Fatalf("restored status = %s, want in-progress", s.Status)
	}
	if s.Answers == nil || s.Review == nil || s.Highlights == nil {
		t.Fatalf("restore left nil maps")
	}
}
