package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
)

// idleTTL is how long an unused peer limiter is kept.
const idleTTL = 10 * time.Minute

type peerLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// WriteLimiter rate-limits write procedures per peer host.
type WriteLimiter struct {
	limit  rate.Limit
	burst  int
	writes map[string]bool

	mu        sync.Mutex
	peers     map[string]*peerLimiter
	lastSweep time.Time
	now       func() time.Time
}

// NewWriteLimiter limits the given procedures to limit requests per second
// with the given burst. A non-positive limit disables limiting.
func NewWriteLimiter(limit float64, burst int, procedures ...string) *WriteLimiter {
	writes := make(map[string]bool, len(procedures))
	for _, p := range procedures {
		writes[p] = true
	}
	return &WriteLimiter{
		limit:  rate.Limit(limit),
		burst:  burst,
		writes: writes,
		peers:  make(map[string]*peerLimiter),
		now:    time.Now,
	}
}

// Interceptor rejects write calls over the limit with CodeResourceExhausted.
func (wl *WriteLimiter) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if wl.limit <= 0 || !wl.writes[req.Spec().Procedure] {
				return next(ctx, req)
			}
			host := peerHost(req.Peer().Addr)
			if !wl.allow(host) {
				slog.Warn("rate limit exceeded",
					"procedure", req.Spec().Procedure,
					"peer", host,
				)
				return nil, connect.NewError(connect.CodeResourceExhausted, errors.New("too many writes, slow down"))
			}
			return next(ctx, req)
		}
	}
}

// PeerCount returns how many peers currently have a limiter.
func (wl *WriteLimiter) PeerCount() int {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	return len(wl.peers)
}

func (wl *WriteLimiter) allow(host string) bool {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	now := wl.now()
	if now.Sub(wl.lastSweep) > idleTTL {
		for h, pl := range wl.peers {
			if now.Sub(pl.lastAccess) > idleTTL {
				delete(wl.peers, h)
			}
		}
		wl.lastSweep = now
	}

	pl, ok := wl.peers[host]
	if !ok {
		pl = &peerLimiter{limiter: rate.NewLimiter(wl.limit, wl.burst)}
		wl.peers[host] = pl
	}
	pl.lastAccess = now
	return pl.limiter.AllowN(now, 1)
}

func peerHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
