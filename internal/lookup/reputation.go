package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultReputationURL is the Abstract Email Reputation endpoint.
const DefaultReputationURL = "https://emailreputation.abstractapi.com/v1/"

// Upper bound on a reputation response body; real payloads are a few KB.
const maxPayloadBytes = 1 << 20

var (
	// ErrServiceUnavailable means no credential is configured. It is
	// returned before any network traffic.
	ErrServiceUnavailable = errors.New("reputation service unavailable: API key not configured")

	// ErrUpstream wraps network failures, non-2xx responses and bodies that
	// cannot be decoded.
	ErrUpstream = errors.New("verification service error")
)

// Fetcher retrieves the reputation payload for one address.
type Fetcher interface {
	Fetch(ctx context.Context, email string) (*Payload, error)
}

// ReputationClient calls the third-party reputation API. It never retries.
type ReputationClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewReputationClient builds a client. A nil httpClient gets a default one
// with the given timeout.
func NewReputationClient(baseURL, apiKey string, timeout time.Duration, httpClient *http.Client, logger *zap.Logger) *ReputationClient {
	if baseURL == "" {
		baseURL = DefaultReputationURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReputationClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  httpClient,
		logger:  logger,
	}
}

func (c *ReputationClient) Fetch(ctx context.Context, email string) (*Payload, error) {
	if c.apiKey == "" {
		return nil, ErrServiceUnavailable
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base URL: %w", ErrUpstream, err)
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	q.Set("email", email)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mailrep-Verifier")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		// *url.Error embeds the request URL, which carries the API key.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Reputation lookup finished",
		zap.String("email", email),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: unexpected status %s", ErrUpstream, resp.Status)
	}

	var payload Payload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrUpstream, err)
	}

	return &payload, nil
}
