package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/micro2move/segment-cli/internal/resilience"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// Retry overrides the backoff policy. MaxRetries still sets its attempts.
	Retry *resilience.Policy
	// Limiters maps host to limiter. Hosts without one get DefaultRate.
	Limiters    map[string]*HostLimiter
	DefaultRate float64
}

// HTTPFetcher implements Fetcher using net/http.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions
	policy resilience.Policy

	mu       sync.Mutex
	limiters map[string]*HostLimiter
}

// NewHTTPFetcher creates an HTTPFetcher, filling unset options with defaults.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "segment-cli/1.0"
	}
	if opts.DefaultRate <= 0 {
		opts.DefaultRate = 10
	}

	policy := resilience.DefaultPolicy()
	if opts.Retry != nil {
		policy = *opts.Retry
	}
	policy = policy.WithAttempts(opts.MaxRetries)
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.LogRetry("fetcher", "download")
	}

	limiters := make(map[string]*HostLimiter, len(opts.Limiters))
	for host, l := range opts.Limiters {
		limiters[host] = l
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		policy:   policy,
		limiters: limiters,
	}
}

func (f *HTTPFetcher) limiterFor(host string) *HostLimiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		l = NewHostLimiter(rate.Limit(f.opts.DefaultRate), max(1, int(f.opts.DefaultRate)))
		f.limiters[host] = l
	}
	return l
}

// Download fetches rawURL and returns the body of a 200 response. 429, 5xx
// and network failures are retried per the fetcher's policy.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %q", rawURL)
	}
	lim := f.limiterFor(u.Host)

	body, err := resilience.Retry(ctx, f.policy, func(ctx context.Context) (io.ReadCloser, error) {
		if err := lim.Wait(ctx); err != nil {
			return nil, err
		}
		return f.get(ctx, u, lim)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: download %s", u.Redacted())
	}
	zap.L().Debug("download started",
		zap.String("component", "fetcher"),
		zap.String("url", u.Redacted()),
	)
	return body, nil
}

func (f *HTTPFetcher) get(ctx context.Context, u *url.URL, lim *HostLimiter) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "application/json, application/geo+json;q=0.9, */*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusOK {
		lim.onSuccess()
		return resp.Body, nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()

	statusErr := &StatusError{URL: u.Redacted(), Code: resp.StatusCode}
	if resp.StatusCode == http.StatusTooManyRequests {
		lim.onThrottled(u.Host)
	}
	if resilience.RetryableStatus(resp.StatusCode) {
		return nil, resilience.Transient(statusErr, resp.StatusCode)
	}
	return nil, statusErr
}
