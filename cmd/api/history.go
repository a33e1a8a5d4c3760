package main

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

func (s *server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit, ok := s.parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		writeError(w, http.StatusBadRequest, "'limit' must be a positive integer")
		return
	}

	results, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to fetch history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// parseLimit applies the default for an empty value and caps at maxLimit.
func (s *server) parseLimit(raw string) (int, bool) {
	if raw == "" {
		return s.defaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	if n > s.maxLimit {
		n = s.maxLimit
	}
	return n, true
}
