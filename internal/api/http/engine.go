package http

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/silent9669/chucamo-sub001/internal/audit"
	"github.com/silent9669/chucamo-sub001/internal/content"
	"github.com/silent9669/chucamo-sub001/internal/nav"
	"github.com/silent9669/chucamo-sub001/internal/report"
	"github.com/silent9669/chucamo-sub001/internal/session"
)

// Engine keeps at most one live Controller per (user, test) pair and
// opens-or-resumes sessions from the persistence layer on demand.
type Engine struct {
	tests    content.Service // full view, answer keys included; grading needs them
	store    *session.Store
	reporter *report.Reporter
	events   *audit.Repo
	autosave time.Duration
	logf     func(format string, args ...interface{})

	mu     sync.Mutex
	active map[string]*nav.Controller
}

func NewEngine(tests content.Service, store *session.Store, reporter *report.Reporter, events *audit.Repo, autosave time.Duration) *Engine {
	return &Engine{
		tests:    tests,
		store:    store,
		reporter: reporter,
		events:   events,
		autosave: autosave,
		logf:     log.Printf,
		active:   map[string]*nav.Controller{},
	}
}

// Open returns the live controller for the pair, resuming a persisted
// session or creating a fresh one. Content load is the only fatal failure.
func (e *Engine) Open(ctx context.Context, userID, testID string) (*nav.Controller, error) {
	key := userID + ":" + testID

	e.mu.Lock()
	if c, ok := e.active[key]; ok {
		e.mu.Unlock()
		return c, nil
	}
	e.mu.Unlock()

	test, err := e.tests.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}

	sess, err := e.store.Load(ctx, userID, testID)
	if err != nil {
		// corrupt record: start over rather than block the user
		e.logf("session %s: unreadable record, starting fresh: %v", key, err)
		sess = nil
	}
	if sess == nil || sess.Status == session.StatusCompleted {
		limit := 0
		if len(test.Sections) > 0 {
			limit = test.Sections[0].TimeLimitSec
		}
		sess = session.New(userID, testID, limit)
	}

	ctrl, err := nav.New(nav.Config{
		Test:          test,
		Session:       sess,
		Store:         e.store,
		Reporter:      e.reporter,
		Events:        e.events,
		AutosaveEvery: e.autosave,
		Logf:          e.logf,
	})
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if existing, ok := e.active[key]; ok {
		// lost the race; use the winner
		e.mu.Unlock()
		ctrl.Stop()
		return existing, nil
	}
	e.active[key] = ctrl
	e.mu.Unlock()

	// timers outlive the opening request
	ctrl.Start(context.Background())
	return ctrl, nil
}

// Close stops the controller's timers and forgets it; the persisted record
// remains unless completion already cleared it.
func (e *Engine) Close(userID, testID string) {
	key := userID + ":" + testID
	e.mu.Lock()
	c, ok := e.active[key]
	delete(e.active, key)
	e.mu.Unlock()
	if ok {
		c.Stop()
	}
}
