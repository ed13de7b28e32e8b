// Package nav drives a live test-taking session: question/section movement,
// the per-section countdown, pause, save&exit, and the handoff to scoring.
package nav

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/silent9669/chucamo-sub001/internal/audit"
	"github.com/silent9669/chucamo-sub001/internal/content"
	"github.com/silent9669/chucamo-sub001/internal/highlight"
	"github.com/silent9669/chucamo-sub001/internal/report"
	"github.com/silent9669/chucamo-sub001/internal/session"
)

type State string

const (
	StateAnswering     State = "answering"
	StateSectionReview State = "section-review"
	StateCompleted     State = "completed"
)

var (
	ErrNotAnswering = errors.New("nav: not on a question")
	ErrNotInReview  = errors.New("nav: not in section review")
	ErrCompleted    = errors.New("nav: session already completed")
	ErrBadOrdinal   = errors.New("nav: question ordinal out of range")
)

const DefaultAutosaveEvery = 30 * time.Second

type Config struct {
	Test     content.Test
	Session  *session.Session
	Store    *session.Store
	Reporter *report.Reporter
	Events   *audit.Repo // optional

	AutosaveEvery time.Duration
	Logf          func(format string, args ...interface{})
}

// Controller owns one Session. All mutations run under its lock and are
// followed by a persistence attempt before control returns, bounding data
// loss to one unsaved micro-action. The countdown and the autosave sweep
// are the only autonomous activities; Stop cancels both.
type Controller struct {
	mu sync.Mutex

	test     content.Test
	sess     *session.Session
	store    *session.Store
	reporter *report.Reporter
	events   *audit.Repo
	logf     func(format string, args ...interface{})

	autosaveEvery time.Duration
	positions     map[string][2]int

	state State
	hl    *highlight.Manager

	// transient per-question UI state, reset on every navigation
	selected   string
	eliminated map[string]struct{}

	lastOutcome *report.Outcome
	cancel      context.CancelFunc
}

func New(cfg Config) (*Controller, error) {
	if len(cfg.Test.Sections) == 0 {
		return nil, errors.New("nav: test has no sections")
	}
	if cfg.Session == nil || cfg.Store == nil || cfg.Reporter == nil {
		return nil, errors.New("nav: session, store and reporter are required")
	}
	c := &Controller{
		test:          cfg.Test,
		sess:          cfg.Session,
		store:         cfg.Store,
		reporter:      cfg.Reporter,
		events:        cfg.Events,
		logf:          cfg.Logf,
		autosaveEvery: cfg.AutosaveEvery,
		positions:     map[string][2]int{},
		hl:            highlight.NewManager(),
		eliminated:    map[string]struct{}{},
	}
	if c.logf == nil {
		c.logf = log.Printf
	}
	if c.autosaveEvery <= 0 {
		c.autosaveEvery = DefaultAutosaveEvery
	}
	c.hl.SetLogf(c.logf)
	for si, sec := range cfg.Test.Sections {
		for qi, q := range sec.Questions {
			c.positions[q.ID] = [2]int{si, qi}
		}
	}

	s := c.sess
	if s.SectionIndex < 0 || s.SectionIndex >= len(c.test.Sections) {
		s.SectionIndex = 0
	}
	if s.QuestionOrdinal < 0 || s.QuestionOrdinal >= len(c.test.Sections[s.SectionIndex].Questions) {
		s.QuestionOrdinal = 0
	}
	switch s.Status {
	case session.StatusCompleted:
		c.state = StateCompleted
	case session.StatusCompletedPending:
		// finished but unacknowledged: land on the final review so the
		// user can retry finalize without re-answering
		c.state = StateSectionReview
	case session.StatusIncompleteExit:
		s.Status = session.StatusInProgress
		c.state = StateAnswering
	default:
		c.state = StateAnswering
	}
	c.showCurrent()
	return c, nil
}

// Start launches the 1 s countdown and the periodic persistence sweep.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil || c.state == StateCompleted {
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	go c.countdownLoop(ctx)
	go c.autosaveLoop(ctx)
}

// Stop cancels the countdown and autosave goroutines.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) countdownLoop(ctx context.Context) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Tick()
		}
	}
}

func (c *Controller) autosaveLoop(ctx context.Context) {
	t := time.NewTicker(c.autosaveEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.mu.Lock()
			if c.state != StateCompleted {
				c.persist(ctx)
			}
			c.mu.Unlock()
		}
	}
}

// Tick advances the countdown by one second. The internal ticker calls it;
// it is exported so hosts with their own clock can drive it instead.
// Reaching zero stops the decrement; the session does not auto-submit.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCompleted || c.sess.Paused {
		return
	}
	if c.sess.RemainingSec > 0 {
		c.sess.RemainingSec--
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) current() (content.Question, bool) {
	return c.test.QuestionAt(c.sess.SectionIndex, c.sess.QuestionOrdinal)
}

// showCurrent loads the stored answer and highlight set for the question
// now displayed and resets the transient UI state.
func (c *Controller) showCurrent() {
	c.selected = ""
	c.eliminated = map[string]struct{}{}
	q, ok := c.current()
	if !ok {
		return
	}
	if v, ok := c.sess.Answer(q.ID); ok {
		c.selected = v
	}
	surviving := c.hl.ShowQuestion(q.ID, sourceSpans(q), c.sess.QuestionHighlights(q.ID))
	c.sess.SetHighlights(q.ID, surviving)
}

// sourceSpans builds the stable text snapshot the highlight anchors index
// into: passage (when present) then prompt.
func sourceSpans(q content.Question) []highlight.Span {
	if q.Passage != "" {
		return []highlight.Span{{Text: q.Passage + "\n\n"}, {Text: q.Prompt}}
	}
	return []highlight.Span{{Text: q.Prompt}}
}

// SelectAnswer records the raw submitted answer for the displayed question.
func (c *Controller) SelectAnswer(ctx context.Context, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAnswering {
		return ErrNotAnswering
	}
	q, ok := c.current()
	if !ok {
		return ErrNotAnswering
	}
	c.sess.SetAnswer(q.ID, value)
	c.selected = value
	c.persist(ctx)
	c.emit(ctx, audit.EventAnswerSaved, map[string]interface{}{"question_id": q.ID})
	return nil
}

// EliminateOption toggles the crossed-out state of a choice option.
// Transient: not part of the Session, reset on navigation.
func (c *Controller) EliminateOption(option string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAnswering {
		return ErrNotAnswering
	}
	if _, ok := c.eliminated[option]; ok {
		delete(c.eliminated, option)
	} else {
		c.eliminated[option] = struct{}{}
	}
	return nil
}

func (c *Controller) ToggleReview(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCompleted {
		return false, ErrCompleted
	}
	q, ok := c.current()
	if !ok {
		return false, ErrNotAnswering
	}
	marked := c.sess.ToggleReview(q.ID)
	c.persist(ctx)
	c.emit(ctx, audit.EventReviewToggled, map[string]interface{}{"question_id": q.ID, "marked": marked})
	return marked, nil
}

// Next moves forward within the section; on the last question it enters
// section review instead.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAnswering {
		return ErrNotAnswering
	}
	last := len(c.test.Sections[c.sess.SectionIndex].Questions) - 1
	if c.sess.QuestionOrdinal < last {
		c.sess.QuestionOrdinal++
		c.showCurrent()
	} else {
		c.state = StateSectionReview
	}
	c.persist(ctx)
	c.emit(ctx, audit.EventNavigated, c.positionData())
	return nil
}

// Prev moves back one question; from section review it returns to the
// question the review was entered from.
func (c *Controller) Prev(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateSectionReview:
		c.state = StateAnswering
		c.showCurrent()
	case StateAnswering:
		if c.sess.QuestionOrdinal > 0 {
			c.sess.QuestionOrdinal--
			c.showCurrent()
		}
	default:
		return ErrCompleted
	}
	c.persist(ctx)
	c.emit(ctx, audit.EventNavigated, c.positionData())
	return nil
}

// Goto jumps to a question in the current section; usable from review.
func (c *Controller) Goto(ctx context.Context, ordinal int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCompleted {
		return ErrCompleted
	}
	if ordinal < 0 || ordinal >= len(c.test.Sections[c.sess.SectionIndex].Questions) {
		return ErrBadOrdinal
	}
	c.sess.QuestionOrdinal = ordinal
	c.state = StateAnswering
	c.showCurrent()
	c.persist(ctx)
	c.emit(ctx, audit.EventNavigated, c.positionData())
	return nil
}

// EnterReview is the direct review shortcut.
func (c *Controller) EnterReview(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAnswering {
		return ErrNotAnswering
	}
	c.state = StateSectionReview
	c.persist(ctx)
	c.emit(ctx, audit.EventNavigated, c.positionData())
	return nil
}

type ReviewRow struct {
	Ordinal    int    `json:"ordinal"`
	QuestionID string `json:"question_id"`
	Answered   bool   `json:"answered"`
	Marked     bool   `json:"marked"`
}

// ReviewRows lists every question of the current section with its
// answered/marked indicators.
func (c *Controller) ReviewRows() []ReviewRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	qs := c.test.Sections[c.sess.SectionIndex].Questions
	rows := make([]ReviewRow, len(qs))
	for i, q := range qs {
		_, answered := c.sess.Answer(q.ID)
		rows[i] = ReviewRow{Ordinal: i, QuestionID: q.ID, Answered: answered, Marked: c.sess.Marked(q.ID)}
	}
	return rows
}

// AdvanceSection leaves section review. With sections remaining it resets
// the countdown to the next section's limit and returns nil; on the final
// section it finalizes and returns the outcome. Answers and highlights from
// prior sections are retained either way.
func (c *Controller) AdvanceSection(ctx context.Context) (*report.Outcome, error) {
	c.mu.Lock()
	if c.state != StateSectionReview {
		c.mu.Unlock()
		return nil, ErrNotInReview
	}
	if c.sess.SectionIndex < len(c.test.Sections)-1 {
		c.sess.SectionIndex++
		c.sess.QuestionOrdinal = 0
		c.sess.RemainingSec = c.test.Sections[c.sess.SectionIndex].TimeLimitSec
		c.state = StateAnswering
		c.showCurrent()
		c.persist(ctx)
		c.emit(ctx, audit.EventNavigated, c.positionData())
		c.mu.Unlock()
		return nil, nil
	}
	c.mu.Unlock()

	out, err := c.Finalize(ctx)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Finalize scores the session and submits it. Repeat calls after success
// return the cached outcome; concurrent calls are coalesced by the
// reporter. The lock is released around the network call so the session
// stays responsive while a submission is in flight; the reporter works on
// a snapshot so concurrent user actions and the timer goroutines never
// touch the same Session, and the correlation id and status are written
// back under the lock afterwards.
func (c *Controller) Finalize(ctx context.Context) (report.Outcome, error) {
	c.mu.Lock()
	if c.state == StateCompleted && c.lastOutcome != nil {
		out := *c.lastOutcome
		c.mu.Unlock()
		return out, nil
	}
	outcome := report.BuildOutcome(c.sess, c.test)
	snap := c.sess.Clone()
	c.mu.Unlock()

	out, err := c.reporter.Finalize(ctx, snap, outcome, c.locate)
	c.mu.Lock()
	defer c.mu.Unlock()
	// Coalesced callers get an untouched snapshot back; the outcome carries
	// the id once StartAttempt has succeeded.
	if id := out.Submission.CorrelationID; id != "" {
		c.sess.CorrelationID = id
	}
	if err != nil {
		// retryable without re-answering
		c.sess.Status = session.StatusCompletedPending
		c.state = StateSectionReview
		c.persist(ctx)
		return out, err
	}
	c.sess.Status = session.StatusCompleted
	c.state = StateCompleted
	c.lastOutcome = &out
	c.emit(ctx, audit.EventFinalized, map[string]interface{}{"score": out.Score, "correlation_id": out.Submission.CorrelationID})
	c.stopLocked()
	return out, nil
}

// TogglePause flips the explicit countdown pause; persisted with the
// session, independent of navigation.
func (c *Controller) TogglePause(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCompleted {
		return false, ErrCompleted
	}
	c.sess.Paused = !c.sess.Paused
	c.persist(ctx)
	c.emit(ctx, audit.EventPauseToggled, map[string]interface{}{"paused": c.sess.Paused})
	return c.sess.Paused, nil
}

// SaveAndExit persists the session as incomplete-exit and releases the
// timers. Scoring is not invoked.
func (c *Controller) SaveAndExit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCompleted {
		return ErrCompleted
	}
	c.sess.Status = session.StatusIncompleteExit
	c.persist(ctx)
	c.emit(ctx, audit.EventSavedExit, c.positionData())
	c.stopLocked()
	return nil
}

/* ------------------------------ highlights ------------------------------ */

func (c *Controller) SetHighlightMode(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hl.SetEnabled(on)
}

// HighlightSelect runs the selection gesture over the displayed text and
// reports whether a color choice is now pending.
func (c *Controller) HighlightSelect(start, end int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAnswering {
		return false
	}
	c.hl.BeginSelection(start, end)
	c.hl.Release()
	return c.hl.Phase() == highlight.PhaseColorPending
}

func (c *Controller) HighlightCommit(ctx context.Context, color string) (highlight.Highlight, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAnswering {
		return highlight.Highlight{}, ErrNotAnswering
	}
	h, ok := c.hl.Commit(color)
	if !ok {
		return highlight.Highlight{}, errors.New("nav: no pending highlight selection")
	}
	q, _ := c.current()
	c.sess.SetHighlights(q.ID, c.hl.Highlights())
	c.persist(ctx)
	c.emit(ctx, audit.EventHighlightAdded, map[string]interface{}{"question_id": q.ID, "highlight_id": h.ID})
	return h, nil
}

func (c *Controller) HighlightCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hl.Cancel()
}

func (c *Controller) HighlightRemove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAnswering {
		return ErrNotAnswering
	}
	if !c.hl.Remove(id) {
		return errors.New("nav: highlight not found")
	}
	q, _ := c.current()
	c.sess.SetHighlights(q.ID, c.hl.Highlights())
	c.persist(ctx)
	c.emit(ctx, audit.EventHighlightRemoved, map[string]interface{}{"question_id": q.ID, "highlight_id": id})
	return nil
}

func (c *Controller) HighlightClear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAnswering {
		return ErrNotAnswering
	}
	c.hl.ClearAll()
	q, ok := c.current()
	if !ok {
		return ErrNotAnswering
	}
	c.sess.SetHighlights(q.ID, nil)
	c.persist(ctx)
	return nil
}

/* ------------------------------- snapshot ------------------------------- */

// Snapshot is the student-facing view of the live session; answer keys are
// stripped from the question.
type Snapshot struct {
	TestID          string                `json:"test_id"`
	State           State                 `json:"state"`
	Status          session.Status        `json:"status"`
	SectionIndex    int                   `json:"section_index"`
	QuestionOrdinal int                   `json:"question_ordinal"`
	RemainingSec    int                   `json:"remaining_sec"`
	Paused          bool                  `json:"paused"`
	Question        *content.Question     `json:"question,omitempty"`
	Answer          string                `json:"answer,omitempty"`
	Marked          bool                  `json:"marked"`
	Eliminated      []string              `json:"eliminated,omitempty"`
	Highlights      []highlight.Highlight `json:"highlights,omitempty"`
	Spans           []highlight.Span      `json:"spans,omitempty"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		TestID:          c.sess.TestID,
		State:           c.state,
		Status:          c.sess.Status,
		SectionIndex:    c.sess.SectionIndex,
		QuestionOrdinal: c.sess.QuestionOrdinal,
		RemainingSec:    c.sess.RemainingSec,
		Paused:          c.sess.Paused,
	}
	if q, ok := c.current(); ok && c.state == StateAnswering {
		safe := q
		safe.CorrectAnswer = nil
		safe.AcceptableAnswers = nil
		safe.Options = append([]content.Option(nil), q.Options...)
		for i := range safe.Options {
			safe.Options[i].Correct = false
		}
		snap.Question = &safe
		snap.Answer = c.selected
		snap.Marked = c.sess.Marked(q.ID)
		for opt := range c.eliminated {
			snap.Eliminated = append(snap.Eliminated, opt)
		}
		snap.Highlights = c.hl.Highlights()
		snap.Spans = c.hl.Spans()
	}
	return snap
}

/* -------------------------------- helpers ------------------------------- */

func (c *Controller) locate(questionID string) (int, int, bool) {
	p, ok := c.positions[questionID]
	return p[0], p[1], ok
}

func (c *Controller) persist(ctx context.Context) {
	tier, err := c.store.Save(ctx, c.sess, c.locate)
	if err != nil {
		c.logf("session %s/%s: %v", c.sess.UserID, c.sess.TestID, err)
		return
	}
	if tier != session.TierFull {
		c.logf("session %s/%s: saved degraded (%s)", c.sess.UserID, c.sess.TestID, tier)
	}
}

func (c *Controller) positionData() map[string]interface{} {
	return map[string]interface{}{
		"state":   string(c.state),
		"section": c.sess.SectionIndex,
		"ordinal": c.sess.QuestionOrdinal,
	}
}

func (c *Controller) emit(ctx context.Context, typ string, data map[string]interface{}) {
	if c.events == nil {
		return
	}
	b, _ := json.Marshal(data)
	e := audit.Event{Type: typ, Key: c.sess.UserID + ":" + c.sess.TestID, DataJSON: string(b)}
	if err := c.events.Append(ctx, e); err != nil {
		c.logf("audit append %s: %v", typ, err)
	}
}
