package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func HighlightModeHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, _, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		ctrl.SetHighlightMode(req.Enabled)
		w.WriteHeader(http.StatusNoContent)
	}
}

// HighlightSelectHandler runs the selection gesture; the response says
// whether a color choice is now pending.
func HighlightSelectHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, _, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		var req struct {
			Start int `json:"start"`
			End   int `json:"end"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		pending := ctrl.HighlightSelect(req.Start, req.End)
		_ = json.NewEncoder(w).Encode(map[string]bool{"color_pending": pending})
	}
}

func HighlightCommitHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, _, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		var req struct {
			Color string `json:"color"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		h, err := ctrl.HighlightCommit(r.Context(), req.Color)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		_ = json.NewEncoder(w).Encode(h)
	}
}

func HighlightCancelHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, _, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		ctrl.HighlightCancel()
		w.WriteHeader(http.StatusNoContent)
	}
}

func HighlightRemoveHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, _, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		if err := ctrl.HighlightRemove(r.Context(), chi.URLParam(r, "highlightID")); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HighlightClearHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, _, ok := openCtrl(e, w, r)
		if !ok {
			return
		}
		if err := ctrl.HighlightClear(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
