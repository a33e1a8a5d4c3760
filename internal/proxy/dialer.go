package proxy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	netproxy "golang.org/x/net/proxy"
)

// proxyConn releases its semaphore slot exactly once when closed.
type proxyConn struct {
	net.Conn
	release     func()
	releaseOnce sync.Once
}

func (pc *proxyConn) Close() error {
	pc.releaseOnce.Do(pc.release)
	return pc.Conn.Close()
}

// DialContext opens a connection to addr through the next proxy in the
// rotation. When no proxies are configured it dials directly.
func (m *Manager) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	directDialer := &net.Dialer{Timeout: 10 * time.Second}

	pURL := m.Next()
	if pURL == nil {
		return directDialer.DialContext(ctx, network, addr)
	}

	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("timeout waiting for proxy slot: %w", ctx.Err())
	}
	release := func() { <-m.sem }

	m.logger.Debug("Dialing via proxy", zap.String("addr", addr), zap.String("proxy", pURL.Host))
	start := time.Now()

	pdialer, err := netproxy.FromURL(pURL, directDialer)
	if err != nil {
		release()
		return nil, fmt.Errorf("proxy dialer for %s: %w", pURL.Host, err)
	}

	var conn net.Conn
	if cdialer, ok := pdialer.(netproxy.ContextDialer); ok {
		conn, err = cdialer.DialContext(ctx, network, addr)
	} else {
		conn, err = pdialer.Dial(network, addr)
	}

	if err != nil {
		release()
		m.logger.Warn("Proxy dial failed",
			zap.String("addr", addr),
			zap.String("proxy", pURL.Host),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	return &proxyConn{Conn: conn, release: release}, nil
}

// Transport returns an HTTP transport that routes through the manager when
// proxies are configured.
func (m *Manager) Transport() *http.Transport {
	t := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if m.Enabled() {
		t.DialContext = m.DialContext
	}
	return t
}
