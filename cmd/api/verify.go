package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"mailrep/internal/lookup"
)

const maxVerifyBody = 4 << 10

type verifyRequest struct {
	Email string `json:"email"`
}

func (s *server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req verifyRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxVerifyBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be JSON like {\"email\": \"user@example.com\"}")
		return
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.verifier.Verify(r.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, lookup.ErrServiceUnavailable):
			s.logger.Error("Reputation service not configured", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Email reputation service is not configured")
		case errors.Is(err, lookup.ErrUpstream):
			s.logger.Error("Reputation lookup failed", zap.String("email", email), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Email reputation service request failed")
		default:
			s.logger.Error("Verification failed", zap.String("email", email), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Verification failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// normalizeEmail accepts a bare addr-spec only. Display names and
// dotless domains are rejected.
func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", errors.New("email is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return "", errors.New("invalid email address")
	}

	_, domain, _ := strings.Cut(email, "@")
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", errors.New("invalid email address")
	}
	return email, nil
}
