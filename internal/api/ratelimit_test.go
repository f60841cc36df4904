package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestIPRateLimiter_ReusesBucketPerIP(t *testing.T) {
	l := newIPRateLimiter(rate.Limit(1), 2)

	first := l.limiterFor("203.0.113.1")
	require.Same(t, first, l.limiterFor("203.0.113.1"))
	require.NotSame(t, first, l.limiterFor("203.0.113.2"))
}

func TestIPRateLimiter_PrunesIdleClients(t *testing.T) {
	l := newIPRateLimiter(rate.Limit(1), 2)

	l.limiterFor("203.0.113.1")
	l.limiterFor("203.0.113.2")
	require.Len(t, l.clients, 2)

	// Backdate both entries past the idle TTL and force the next call to
	// run a prune pass.
	l.mu.Lock()
	for _, c := range l.clients {
		c.lastSeen = time.Now().Add(-2 * limiterIdleTTL)
	}
	l.lastPrune = time.Now().Add(-2 * limiterPruneInterval)
	l.mu.Unlock()

	l.limiterFor("203.0.113.3")

	l.mu.Lock()
	defer l.mu.Unlock()
	require.Len(t, l.clients, 1, "idle buckets must be evicted")
	_, ok := l.clients["203.0.113.3"]
	require.True(t, ok)
}
