package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Service is what the session engine consumes: one fetch at session start.
type Service interface {
	GetTest(ctx context.Context, id string) (Test, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutTest(ctx context.Context, t Test) error {
	sj, err := json.Marshal(t.Sections)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tests (id,title,sections_json,created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, sections_json=EXCLUDED.sections_json`,
		t.ID, t.Title, string(sj), time.Now().Unix())
	return err
}

// GetTest returns the student-safe view: answer keys stripped.
func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	t, err := s.GetTestFull(ctx, id)
	if err != nil {
		return Test{}, err
	}
	for si := range t.Sections {
		for qi := range t.Sections[si].Questions {
			q := &t.Sections[si].Questions[qi]
			q.CorrectAnswer = nil
			q.AcceptableAnswers = nil
			for oi := range q.Options {
				q.Options[oi].Correct = false
			}
		}
	}
	return t, nil
}

// FullView adapts the store's grading view to the Service interface the
// engine consumes.
type FullView struct{ Store *SQLStore }

func (f FullView) GetTest(ctx context.Context, id string) (Test, error) {
	return f.Store.GetTestFull(ctx, id)
}

// GetTestFull keeps answer keys; the session engine grades with this view.
func (s *SQLStore) GetTestFull(ctx context.Context, id string) (Test, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,sections_json,created_at FROM tests WHERE id=$1`, id)
	var t Test
	var sj string
	if err := row.Scan(&t.ID, &t.Title, &sj, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, &LoadError{TestID: id, Err: ErrNotFound}
		}
		return Test{}, &LoadError{TestID: id, Err: err}
	}
	if err := json.Unmarshal([]byte(sj), &t.Sections); err != nil {
		return Test{}, &LoadError{TestID: id, Err: err}
	}
	return t, nil
}
