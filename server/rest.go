package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"
)

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// feedHandler returns the merged feed with telemetry. A stale-aware
// refresh is kicked off in the background so the snapshot returned here is
// never blocked on nine upstream calls; clients poll telemetry to see
// sources settle.
func (s *Server) feedHandler(w http.ResponseWriter, r *http.Request) {
	go s.feed.Refresh(context.WithoutCancel(r.Context()))
	renderJSON(w, r, http.StatusOK, s.feed.Feed())
}

// feedSourcesHandler returns per-source status telemetry only
func (s *Server) feedSourcesHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, http.StatusOK, s.feed.Feed().Telemetry)
}

// refreshHandler forces a refetch of every source
func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	go s.feed.RefetchAll(context.WithoutCancel(r.Context()))
	if s.summaries != nil {
		go s.summaries.Refresh(context.WithoutCancel(r.Context()))
	}
	renderJSON(w, r, http.StatusAccepted, map[string]string{"status": "refresh started"})
}

// summariesHandler returns the four agency summary slots
func (s *Server) summariesHandler(w http.ResponseWriter, r *http.Request) {
	go s.summaries.Refresh(context.WithoutCancel(r.Context()))
	summaries, isLoading := s.summaries.Summaries()
	renderJSON(w, r, http.StatusOK, map[string]any{
		"summaries": summaries,
		"isLoading": isLoading,
	})
}

// historyHandler returns persisted items, optionally filtered by source key
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		renderError(w, r, errHistoryDisabled, http.StatusNotImplemented)
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			renderError(w, r, errInvalidLimit, http.StatusBadRequest)
			return
		}
		limit = n
	}

	items, err := s.history.GetRecentItems(r.Context(), limit, r.URL.Query().Get("source"))
	if err != nil {
		log.Printf("[ERROR] failed to get history: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]any{"items": items})
}

// syncLogHandler returns recent refresh cycles
func (s *Server) syncLogHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		renderError(w, r, errHistoryDisabled, http.StatusNotImplemented)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			renderError(w, r, errInvalidLimit, http.StatusBadRequest)
			return
		}
		limit = n
	}

	recs, err := s.history.GetSyncLog(r.Context(), limit)
	if err != nil {
		log.Printf("[ERROR] failed to get sync log: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]any{"syncs": recs})
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode response: %v", err)
	}
}

// renderError sends error response in JSON format
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "internal error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
