// Package audit appends session actions to the event_log table. Writes are
// best-effort: an audit failure never interrupts the user's action.
package audit

import (
	"context"
	"database/sql"
	"time"
)

const (
	EventAnswerSaved      = "AnswerSaved"
	EventNavigated        = "Navigated"
	EventReviewToggled    = "ReviewToggled"
	EventPauseToggled     = "PauseToggled"
	EventHighlightAdded   = "HighlightAdded"
	EventHighlightRemoved = "HighlightRemoved"
	EventSavedExit        = "SavedExit"
	EventFinalized        = "Finalized"
)

type Event struct {
	Seq       int64
	SiteID    string
	Type      string
	Key       string // natural key: userID:testID
	DataJSON  string
	CreatedAt int64
}

type Repo struct {
	db     *sql.DB
	siteID string
}

func NewRepo(db *sql.DB, siteID string) *Repo {
	if siteID == "" {
		siteID = "local"
	}
	return &Repo{db: db, siteID: siteID}
}

func (r *Repo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = r.siteID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}
