package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/silent9669/chucamo-sub001/internal/auth/middleware"
	"github.com/silent9669/chucamo-sub001/internal/content"
	"github.com/silent9669/chucamo-sub001/internal/nav"
	"github.com/silent9669/chucamo-sub001/internal/report"
)

func openCtrl(e *Engine, w http.ResponseWriter, r *http.Request) (*nav.Controller, string, bool) {
	userID := auth.SubjectFromContext(r.Context())
	testID := chi.URLParam(r, "testID")
	if userID == "" || testID == "" {
		http.Error(w, "user and testID required", http.StatusBadRequest)
		return nil, "", false
	}
	ctrl, err := e.Open(r.Context(), userID, testID)
	if err != nil {
		var le *content.LoadError
		if errors.As(err, &le) {
			// fatal to session start; client may retry
			http.Error(w, le.Error(), http.StatusBadGateway)
			return nil, "", false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	return ctrl, userID, true
}

// OpenSessionHandler starts or resumes the session and returns its snapshot.
func OpenSessionHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, _, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		_ = json.NewEncoder(w).Encode(ctrl.Snapshot())
	}
}

func GetSessionHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, _, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		_ = json.NewEncoder(w).Encode(ctrl.Snapshot())
	}
}

func AnswerHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, _, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		var req struct {
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := ctrl.SelectAnswer(r.Context(), req.Value); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		_ = json.NewEncoder(w).Encode(ctrl.Snapshot())
	}
}

func EliminateHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, _, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		var req struct {
			Option string `json:"option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := ctrl.EliminateOption(req.Option); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		_ = json.NewEncoder(w).Encode(ctrl.Snapshot())
	}
}

func ReviewMarkHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, _, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		marked, err := ctrl.ToggleReview(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"marked": marked})
	}
}

// NavigateHandler covers question movement and the section transitions:
// next, prev, goto, review, advance.
func NavigateHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, userID, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		var req struct {
			Action  string `json:"action"`
			Ordinal int    `json:"ordinal"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		var err error
		var outcome *report.Outcome
		switch req.Action {
		case "next":
			err = ctrl.Next(r.Context())
		case "prev":
			err = ctrl.Prev(r.Context())
		case "goto":
			err = ctrl.Goto(r.Context(), req.Ordinal)
		case "review":
			err = ctrl.EnterReview(r.Context())
		case "advance":
			outcome, err = ctrl.AdvanceSection(r.Context())
		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if outcome != nil {
			e.Close(userID, chi.URLParam(r, "testID"))
			_ = json.NewEncoder(w).Encode(outcome)
			return
		}
		_ = json.NewEncoder(w).Encode(ctrl.Snapshot())
	}
}

func ReviewRowsHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, _, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		_ = json.NewEncoder(w).Encode(ctrl.ReviewRows())
	}
}

func PauseHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, _, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		paused, err := ctrl.TogglePause(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"paused": paused})
	}
}

// ExitHandler is "Save & exit": persist and hand control back without
// invoking scoring.
func ExitHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, userID, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		if err := ctrl.SaveAndExit(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		e.Close(userID, chi.URLParam(r, "testID"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func FinalizeHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, userID, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		out, err := ctrl.Finalize(r.Context())
		if err != nil {
			var se *report.SubmissionError
			if errors.As(err, &se) {
				// answers are safe; the client retries finalize later
				http.Error(w, se.Error(), http.StatusBadGateway)
				return
			}
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		e.Close(userID, chi.URLParam(r, "testID"))
		_ = json.NewEncoder(w).Encode(out)
	}
}

func SummaryHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		testID := chi.URLParam(r, "testID")
		sum, err := e.store.GetSummary(r.Context(), userID, testID)
		if err != nil {
			http.Error(w, "no completed summary", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(sum)
	}
}
