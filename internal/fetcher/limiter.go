package fetcher

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HostLimiter paces requests to one host. A 429 halves the rate down to a
// quarter of the initial rate; each success raises it by a fifth up to double.
type HostLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	current rate.Limit
	floor   rate.Limit
	ceiling rate.Limit
}

// NewHostLimiter creates a limiter starting at perSec with the given burst.
func NewHostLimiter(perSec rate.Limit, burst int) *HostLimiter {
	return &HostLimiter{
		limiter: rate.NewLimiter(perSec, burst),
		current: perSec,
		floor:   perSec / 4,
		ceiling: perSec * 2,
	}
}

// Wait blocks until a request may be sent.
func (h *HostLimiter) Wait(ctx context.Context) error {
	return h.limiter.Wait(ctx)
}

// Limit returns the current rate.
func (h *HostLimiter) Limit() rate.Limit {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *HostLimiter) onSuccess() {
	h.set(h.current * 1.2)
}

func (h *HostLimiter) onThrottled(host string) {
	h.set(h.current / 2)
	zap.L().Warn("throttled, lowering request rate",
		zap.String("component", "fetcher"),
		zap.String("host", host),
		zap.Float64("rate", float64(h.Limit())),
	)
}

func (h *HostLimiter) set(r rate.Limit) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r = max(h.floor, min(h.ceiling, r))
	h.current = r
	h.limiter.SetLimit(r)
}

// PortalLimiters returns limiters for the open-data hosts the pipeline talks
// to, each starting at perSec.
func PortalLimiters(perSec float64) map[string]*HostLimiter {
	if perSec <= 0 {
		perSec = 5
	}
	burst := max(1, int(perSec))
	hosts := []string{
		"services1.arcgis.com",
		"data.cityofsydney.nsw.gov.au",
		"data.nsw.gov.au",
	}
	out := make(map[string]*HostLimiter, len(hosts))
	for _, h := range hosts {
		out[h] = NewHostLimiter(rate.Limit(perSec), burst)
	}
	return out
}
