package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

var ErrNotFound = errors.New("session: key not found")

// KV is the durable key-value persistence layer. Keys are namespaced per
// (user, test) so several in-progress tests can coexist.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Tier reports how much of the session a save managed to persist.
type Tier int

const (
	TierFull Tier = iota
	TierNoHighlights
	TierMinimal
	TierFailed
)

func (t Tier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierNoHighlights:
		return "no-highlights"
	case TierMinimal:
		return "minimal"
	default:
		return "failed"
	}
}

type Store struct {
	kv   KV
	logf func(format string, args ...interface{})
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv, logf: log.Printf}
}

func (st *Store) SetLogf(logf func(string, ...interface{})) {
	if logf != nil {
		st.logf = logf
	}
}

func sessionKey(userID, testID string) string { return "session:" + userID + ":" + testID }
func summaryKey(userID, testID string) string { return "summary:" + userID + ":" + testID }

// Save persists the session, degrading rather than failing: full payload,
// then without highlights, then indices+timer only. A persistence problem
// must never block the user's current action, so the error is non-nil only
// when every tier failed; callers log it and move on.
func (st *Store) Save(ctx context.Context, s *Session, loc Locator) (Tier, error) {
	key := sessionKey(s.UserID, s.TestID)

	full := buildDoc(s, loc)
	if err := st.put(ctx, key, full); err == nil {
		return TierFull, nil
	} else {
		st.logf("session %s: full save failed, dropping highlights: %v", key, err)
	}

	slim := full
	slim.Highlights = nil
	if err := st.put(ctx, key, slim); err == nil {
		return TierNoHighlights, nil
	} else {
		st.logf("session %s: reduced save failed, trying minimal: %v", key, err)
	}

	if err := st.put(ctx, key, minimalDoc(s)); err != nil {
		return TierFailed, fmt.Errorf("session %s: all save tiers failed: %w", key, err)
	}
	return TierMinimal, nil
}

func (st *Store) put(ctx context.Context, key string, doc sessionDoc) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return st.kv.Put(ctx, key, b)
}

// Load reconstructs a session from its serialized form, or returns
// (nil, nil) when none is stored for the pair.
func (st *Store) Load(ctx context.Context, userID, testID string) (*Session, error) {
	b, err := st.kv.Get(ctx, sessionKey(userID, testID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc sessionDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("session %s/%s: corrupt record: %w", userID, testID, err)
	}
	return doc.restore(), nil
}

// Clear removes the session record; called on full completion or explicit
// abandonment only.
func (st *Store) Clear(ctx context.Context, userID, testID string) error {
	return st.kv.Delete(ctx, sessionKey(userID, testID))
}

// Summary is the logically distinct "last completed" record consumed by
// review screens after the session itself is gone.
type Summary struct {
	TestID         string `json:"test_id"`
	UserID         string `json:"user_id"`
	Score          int    `json:"score"`
	CorrectCount   int    `json:"correct_count"`
	IncorrectCount int    `json:"incorrect_count"`
	TotalQuestions int    `json:"total_questions"`
	CoinsEarned    int    `json:"coins_earned,omitempty"`
	CompletedAt    int64  `json:"completed_at"`
}

func (st *Store) PutSummary(ctx context.Context, sum Summary) error {
	b, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	return st.kv.Put(ctx, summaryKey(sum.UserID, sum.TestID), b)
}

func (st *Store) GetSummary(ctx context.Context, userID, testID string) (Summary, error) {
	b, err := st.kv.Get(ctx, summaryKey(userID, testID))
	if err != nil {
		return Summary{}, err
	}
	var sum Summary
	if err := json.Unmarshal(b, &sum); err != nil {
		return Summary{}, err
	}
	return sum, nil
}
