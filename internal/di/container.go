package di

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"mailrep/internal/cache"
	"mailrep/internal/config"
	"mailrep/internal/logging"
	"mailrep/internal/lookup"
	"mailrep/internal/proxy"
	"mailrep/internal/queue"
	"mailrep/internal/store"
	"mailrep/internal/validator"
	"mailrep/internal/worker"
)

const (
	HistoryModeDirect = "direct"
	HistoryModeQueue  = "queue"

	connectTimeout = 15 * time.Second
)

// Closers collects shutdown hooks for resources opened by providers. They run
// in reverse registration order.
type Closers struct {
	mu  sync.Mutex
	fns []func()
}

func NewClosers() *Closers {
	return &Closers{}
}

func (c *Closers) Add(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns = append(c.fns, fn)
}

func (c *Closers) Close() {
	c.mu.Lock()
	fns := c.fns
	c.fns = nil
	c.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// BuildContainer wires the API process.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register egress proxy manager
	if err := container.Provide(NewProxyManager); err != nil {
		return nil, err
	}

	// Register reputation client
	if err := container.Provide(NewReputationClient); err != nil {
		return nil, err
	}

	// Register payload cache
	if err := container.Provide(cache.New[*lookup.Payload]); err != nil {
		return nil, err
	}

	// Register history recorder
	if err := container.Provide(NewRecorder); err != nil {
		return nil, err
	}

	// Register verification service
	if err := container.Provide(NewService); err != nil {
		return nil, err
	}

	return container, nil
}

// BuildWorkerContainer wires the queue worker process.
func BuildWorkerContainer() (*dig.Container, error) {
	container := dig.New()

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register queue client
	if err := container.Provide(NewQueueClient); err != nil {
		return nil, err
	}

	// Register runner
	if err := container.Provide(func(cfg *config.Config, h store.History, q *queue.Client, logger *zap.Logger) (*worker.Runner, error) {
		timeout, err := cfg.GetDuration("history.write_timeout")
		if err != nil {
			return nil, err
		}
		return worker.NewRunner(q, h, logger, timeout), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}

func provideCommon(container *dig.Container) error {
	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return err
	}

	// Register shutdown hooks
	if err := container.Provide(NewClosers); err != nil {
		return err
	}

	// Register history store
	return container.Provide(NewHistory)
}

func NewHistory(cfg *config.Config, logger *zap.Logger, closers *Closers) (store.History, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	opts := store.Options{
		Driver:      cfg.GetString("store.driver"),
		PostgresURL: cfg.GetString("store.postgres_url"),
		SQLitePath:  cfg.GetString("store.sqlite_path"),
	}
	h, err := store.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	closers.Add(h.Close)

	logger.Info("History store ready", zap.String("driver", opts.Driver))
	return h, nil
}

func NewQueueClient(cfg *config.Config, logger *zap.Logger, closers *Closers) (*queue.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	addr := cfg.GetString("redis.addr")
	q, err := queue.Connect(ctx, addr, cfg.GetString("redis.password"), cfg.GetString("redis.queue"))
	if err != nil {
		return nil, fmt.Errorf("connect queue: %w", err)
	}
	closers.Add(func() { _ = q.Close() })

	logger.Info("Connected to Redis queue", zap.String("addr", addr))
	return q, nil
}

func NewProxyManager(cfg *config.Config, logger *zap.Logger) (*proxy.Manager, error) {
	m, err := proxy.New(cfg.GetStringSlice("proxy.list"), cfg.GetInt("proxy.concurrency"), logger)
	if err != nil {
		return nil, fmt.Errorf("proxy manager: %w", err)
	}
	if m.Enabled() {
		logger.Info("Proxy rotation enabled", zap.Int("max_concurrent", m.Limit()))
	} else {
		logger.Info("No proxies configured, using direct connections")
	}
	return m, nil
}

func NewReputationClient(cfg *config.Config, pm *proxy.Manager, logger *zap.Logger) (lookup.Fetcher, error) {
	timeout, err := cfg.GetDuration("reputation.timeout")
	if err != nil {
		return nil, err
	}

	apiKey := cfg.GetString("reputation.api_key")
	if apiKey == "" {
		logger.Warn("reputation.api_key is not set; /verify will report the service as unavailable")
	}

	httpClient := &http.Client{Timeout: timeout, Transport: pm.Transport()}
	return lookup.NewReputationClient(cfg.GetString("reputation.base_url"), apiKey, timeout, httpClient, logger), nil
}

// NewRecorder picks the persistence path from history.mode. In queue mode the
// API only enqueues and the worker owns the store writes.
func NewRecorder(cfg *config.Config, h store.History, logger *zap.Logger, closers *Closers) (validator.Recorder, error) {
	switch mode := cfg.GetString("history.mode"); mode {
	case "", HistoryModeDirect:
		return validator.RecorderFunc(h.Save), nil
	case HistoryModeQueue:
		q, err := NewQueueClient(cfg, logger, closers)
		if err != nil {
			return nil, err
		}
		return validator.RecorderFunc(q.Enqueue), nil
	default:
		return nil, fmt.Errorf("unknown history.mode %q", mode)
	}
}

func NewService(cfg *config.Config, fetcher lookup.Fetcher, recorder validator.Recorder, payloads *cache.Store[*lookup.Payload], logger *zap.Logger) (*validator.Service, error) {
	ttl, err := cfg.GetDuration("cache.ttl")
	if err != nil {
		return nil, err
	}
	writeTimeout, err := cfg.GetDuration("history.write_timeout")
	if err != nil {
		return nil, err
	}
	return validator.NewService(fetcher, recorder, payloads, logger, validator.ServiceOptions{
		CacheTTL:     ttl,
		WriteTimeout: writeTimeout,
	}), nil
}
