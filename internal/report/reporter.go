package report

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/silent9669/chucamo-sub001/internal/session"
)

// Ack is the results service's answer to a completed attempt.
type Ack struct {
	Accepted    bool `json:"accepted"`
	CoinsEarned int  `json:"coins_earned,omitempty"`
}

// Results binds the session to the external results service. StartAttempt
// issues the correlation ID that makes finalize retries idempotent.
type Results interface {
	StartAttempt(ctx context.Context, testID string) (correlationID string, err error)
	CompleteAttempt(ctx context.Context, correlationID string, sub Submission) (Ack, error)
}

// RewardRefresher pulls updated aggregate stats after a successful finalize.
// Its failures never propagate to the scoring result.
type RewardRefresher interface {
	Refresh(ctx context.Context, userID string) error
}

// SubmissionError marks a remote failure during finalize. The session stays
// in completed-pending state; recorded answers are never lost.
type SubmissionError struct {
	Op  string
	Err error
}

func (e *SubmissionError) Error() string { return fmt.Sprintf("submission %s: %v", e.Op, e.Err) }
func (e *SubmissionError) Unwrap() error { return e.Err }

type call struct {
	done    chan struct{}
	outcome Outcome
	err     error
}

// Reporter finalizes sessions. Concurrent finalize calls for the same
// session are coalesced onto one in-flight submission, never duplicated.
type Reporter struct {
	results Results
	reward  RewardRefresher
	store   *session.Store
	logf    func(format string, args ...interface{})

	mu       sync.Mutex
	inflight map[string]*call
}

func NewReporter(results Results, reward RewardRefresher, store *session.Store) *Reporter {
	return &Reporter{
		results:  results,
		reward:   reward,
		store:    store,
		logf:     log.Printf,
		inflight: map[string]*call{},
	}
}

func (r *Reporter) SetLogf(logf func(string, ...interface{})) {
	if logf != nil {
		r.logf = logf
	}
}

// Finalize submits a precomputed outcome for the session. The correlation
// ID persisted on the session is reused when present; a new one is created
// only when none exists, so a retry after a failed ack cannot open a
// duplicate remote record. On success the session is cleared and the last
// completed summary written; on failure it is left completed-pending.
// The session is mutated and persisted here; callers that share the
// aggregate with other goroutines hand in a Clone and merge the
// correlation id and status back themselves.
func (r *Reporter) Finalize(ctx context.Context, s *session.Session, outcome Outcome, loc session.Locator) (Outcome, error) {
	key := s.UserID + ":" + s.TestID

	r.mu.Lock()
	if c, ok := r.inflight[key]; ok {
		r.mu.Unlock()
		<-c.done
		return c.outcome, c.err
	}
	c := &call{done: make(chan struct{})}
	r.inflight[key] = c
	r.mu.Unlock()

	c.outcome, c.err = r.finalize(ctx, s, outcome, loc)

	r.mu.Lock()
	delete(r.inflight, key)
	r.mu.Unlock()
	close(c.done)
	return c.outcome, c.err
}

func (r *Reporter) finalize(ctx context.Context, s *session.Session, outcome Outcome, loc session.Locator) (Outcome, error) {
	if s.CorrelationID == "" {
		id, err := r.results.StartAttempt(ctx, s.TestID)
		if err != nil {
			r.markPending(ctx, s, loc)
			return outcome, &SubmissionError{Op: "start", Err: err}
		}
		s.CorrelationID = id
		// persist before completing so a crash between the two calls
		// still reuses this id on retry
		r.save(ctx, s, loc)
	}
	outcome.Submission.CorrelationID = s.CorrelationID

	ack, err := r.results.CompleteAttempt(ctx, s.CorrelationID, outcome.Submission)
	if err != nil {
		r.markPending(ctx, s, loc)
		return outcome, &SubmissionError{Op: "complete", Err: err}
	}
	if !ack.Accepted {
		r.markPending(ctx, s, loc)
		return outcome, &SubmissionError{Op: "complete", Err: fmt.Errorf("attempt %s rejected", s.CorrelationID)}
	}
	outcome.CoinsEarned = ack.CoinsEarned

	s.Status = session.StatusCompleted
	if err := r.store.Clear(ctx, s.UserID, s.TestID); err != nil {
		r.logf("finalize %s/%s: clear session: %v", s.UserID, s.TestID, err)
	}
	if err := r.store.PutSummary(ctx, session.Summary{
		TestID:         s.TestID,
		UserID:         s.UserID,
		Score:          outcome.Score,
		CorrectCount:   outcome.CorrectCount,
		IncorrectCount: outcome.IncorrectCount,
		TotalQuestions: outcome.TotalQuestions,
		CoinsEarned:    ack.CoinsEarned,
		CompletedAt:    time.Now().Unix(),
	}); err != nil {
		r.logf("finalize %s/%s: write summary: %v", s.UserID, s.TestID, err)
	}
	if r.reward != nil {
		if err := r.reward.Refresh(ctx, s.UserID); err != nil {
			r.logf("finalize %s/%s: reward refresh: %v", s.UserID, s.TestID, err)
		}
	}
	return outcome, nil
}

func (r *Reporter) markPending(ctx context.Context, s *session.Session, loc session.Locator) {
	s.Status = session.StatusCompletedPending
	r.save(ctx, s, loc)
}

func (r *Reporter) save(ctx context.Context, s *session.Session, loc session.Locator) {
	if _, err := r.store.Save(ctx, s, loc); err != nil {
		r.logf("finalize %s/%s: save: %v", s.UserID, s.TestID, err)
	}
}
