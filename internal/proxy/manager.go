package proxy

import (
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// Manager rotates outbound connections across a fixed list of SOCKS5
// proxies and caps how many may be open at once.
type Manager struct {
	proxies []*url.URL
	counter uint64
	sem     chan struct{}
	logger  *zap.Logger
}

// New parses the proxy list. A limit <= 0 defaults to one slot per proxy.
// An empty list yields a disabled manager that dials directly.
func New(proxyList []string, limit int, logger *zap.Logger) (*Manager, error) {
	var parsed []*url.URL

	for _, p := range proxyList {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		u, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL '%s': %w", p, err)
		}
		if u.Scheme != "socks5" && u.Scheme != "socks5h" {
			return nil, fmt.Errorf("unsupported proxy scheme %q in '%s'", u.Scheme, p)
		}
		parsed = append(parsed, u)
	}

	if limit <= 0 {
		limit = len(parsed)
		if limit == 0 {
			limit = 10 // Failsafe
		}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		proxies: parsed,
		sem:     make(chan struct{}, limit),
		logger:  logger,
	}, nil
}

func (m *Manager) Next() *url.URL {
	if m == nil || len(m.proxies) == 0 {
		return nil
	}
	n := atomic.AddUint64(&m.counter, 1)
	return m.proxies[(n-1)%uint64(len(m.proxies))]
}

func (m *Manager) Enabled() bool {
	return m != nil && len(m.proxies) > 0
}

// Limit returns the maximum number of concurrently open proxied connections.
func (m *Manager) Limit() int {
	if m == nil {
		return 0
	}
	return cap(m.sem)
}
