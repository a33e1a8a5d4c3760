package validator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mailrep/internal/cache"
	"mailrep/internal/lookup"
	"mailrep/internal/models"
)

// Recorder persists a finished verification. Implementations may write to the
// history store directly or hand the snapshot to a queue.
type Recorder interface {
	Record(ctx context.Context, res models.VerificationResult) error
}

// RecorderFunc adapts a plain function to Recorder.
type RecorderFunc func(ctx context.Context, res models.VerificationResult) error

func (f RecorderFunc) Record(ctx context.Context, res models.VerificationResult) error {
	return f(ctx, res)
}

type ServiceOptions struct {
	// CacheTTL enables the payload cache when positive.
	CacheTTL     time.Duration
	WriteTimeout time.Duration
}

// Service runs one verification end to end: fetch, score, stamp, record.
type Service struct {
	fetcher      lookup.Fetcher
	recorder     Recorder
	cache        *cache.Store[*lookup.Payload]
	cacheTTL     time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger

	wg  sync.WaitGroup
	now func() time.Time
}

func NewService(fetcher lookup.Fetcher, recorder Recorder, payloads *cache.Store[*lookup.Payload], logger *zap.Logger, opts ServiceOptions) *Service {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		fetcher:      fetcher,
		recorder:     recorder,
		cacheTTL:     opts.CacheTTL,
		writeTimeout: opts.WriteTimeout,
		logger:       logger,
		now:          time.Now,
	}
	if opts.CacheTTL > 0 {
		s.cache = payloads
	}
	return s
}

// Verify scores the address. The caller is expected to have validated its
// syntax. Persistence runs in the background and never affects the result.
func (s *Service) Verify(ctx context.Context, email string) (models.VerificationResult, error) {
	payload, err := s.payload(ctx, email)
	if err != nil {
		return models.VerificationResult{}, err
	}

	res := Evaluate(email, payload)
	res.ID = uuid.NewString()
	res.CreatedAt = s.now().UTC()

	s.logger.Info("Verified",
		zap.String("id", res.ID),
		zap.String("email", res.Email),
		zap.Int("score", res.Score),
		zap.String("status", string(res.Status)))

	s.record(ctx, res)
	return res, nil
}

func (s *Service) payload(ctx context.Context, email string) (*lookup.Payload, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if s.cache != nil {
		if p, ok := s.cache.Get(key); ok {
			s.logger.Debug("Payload cache hit", zap.String("email", key))
			return p, nil
		}
	}

	p, err := s.fetcher.Fetch(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("fetch reputation: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(key, p, s.cacheTTL)
	}
	return p, nil
}

func (s *Service) record(ctx context.Context, res models.VerificationResult) {
	if s.recorder == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Detached from the request so the write outlives the response.
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
		defer cancel()

		if err := s.recorder.Record(writeCtx, res); err != nil {
			s.logger.Error("Failed to record verification",
				zap.String("id", res.ID),
				zap.String("email", res.Email),
				zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight writes finish or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
