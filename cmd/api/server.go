package main

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"mailrep/internal/models"
	"mailrep/internal/store"
)

type verifier interface {
	Verify(ctx context.Context, email string) (models.VerificationResult, error)
}

type server struct {
	verifier     verifier
	history      store.History
	logger       *zap.Logger
	apiKey       string
	defaultLimit int
	maxLimit     int
}

func (s *server) routes(limiter *ipRateLimiter) http.Handler {
	verify := http.Handler(http.HandlerFunc(s.verifyHandler))
	if limiter != nil {
		verify = limiter.Middleware(verify)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/verify", enableCORS(s.requireAPIKey(verify.ServeHTTP)))
	mux.HandleFunc("/history", enableCORS(s.requireAPIKey(s.historyHandler)))
	mux.HandleFunc("/info", enableCORS(infoHandler))
	return mux
}

// enableCORS middleware sets CORS headers for frontend access.
func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	guide := map[string]interface{}{
		"service": "mailrep",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /verify":       `score an address; body {"email": "..."}`,
			"GET /history?limit": "most recent verifications, newest first",
		},
		"statuses":   []models.VerificationStatus{models.StatusSafe, models.StatusRisky, models.StatusInvalid},
		"riskLevels": []models.RiskLevel{models.RiskLow, models.RiskMedium, models.RiskHigh},
	}
	writeJSON(w, http.StatusOK, guide)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
