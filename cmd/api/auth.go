package main

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireAPIKey validates the Bearer token in the Authorization header. With
// no key configured the API is open.
func (s *server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	if s.apiKey == "" {
		return next
	}

	expected := []byte(s.apiKey)
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)

		// Constant time so latency does not leak matching prefix length.
		if subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
			writeError(w, http.StatusUnauthorized, "Unauthorized: Invalid or missing API Key")
			return
		}

		next(w, r)
	}
}
