package http

import (
	"fmt"
	"net/http"
	"time"
)

// handleDashboard serves the home-view aggregates. An optional month query
// parameter ("MM-YYYY") narrows the headline totals and the product ranking.
// Results are cached per user and month until a receipt mutation purges them.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	monthParam := r.URL.Query().Get("month")

	var month *time.Time
	if monthParam != "" {
		m, err := parseMonth(monthParam)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		month = &m
	}

	cacheKey := user + "|" + monthParam
	if dash, ok := s.dashCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, dash)
		return
	}

	dash, err := s.history.Dashboard(r.Context(), user, month)
	if err != nil {
		writeError(w, err)
		return
	}

	s.dashCache.Set(cacheKey, dash)
	writeJSON(w, http.StatusOK, dash)
}

func parseMonth(s string) (time.Time, error) {
	m, err := time.Parse("01-2006", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: expected MM-YYYY", s)
	}
	return m, nil
}
