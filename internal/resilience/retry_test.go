package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetry_FirstAttempt(t *testing.T) {
	calls := 0
	v, err := Retry(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, calls)
}

func TestRetry_RecoversFromTransient(t *testing.T) {
	calls := 0
	v, err := Retry(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, Transient(errors.New("busy"), 503)
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)
}

func TestRetry_Exhausted(t *testing.T) {
	calls := 0
	v, err := Retry(context.Background(), fastPolicy(2), func(context.Context) (int, error) {
		calls++
		return 7, Transient(errors.New("down"), 500)
	})
	require.Error(t, err)
	assert.Zero(t, v, "zero value on failure")
	assert.Equal(t, 2, calls)
}

func TestRun_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fastPolicy(5), func(context.Context) error {
		calls++
		return errors.New("bad request")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRun_CustomRetryable(t *testing.T) {
	p := fastPolicy(3)
	p.Retryable = func(err error) bool { return err.Error() == "again" }

	calls := 0
	err := Run(context.Background(), p, func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("again")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRun_OnRetry(t *testing.T) {
	p := fastPolicy(3)
	var attempts []int
	p.OnRetry = func(attempt int, _ error) { attempts = append(attempts, attempt) }

	_ = Run(context.Background(), p, func(context.Context) error {
		return Transient(errors.New("x"), 429)
	})
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 10, BaseDelay: 20 * time.Millisecond, MaxDelay: 50 * time.Millisecond}

	calls := 0
	err := Run(ctx, p, func(context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return Transient(errors.New("x"), 500)
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestRun_ZeroPolicy(t *testing.T) {
	calls := 0
	err := Run(context.Background(), Policy{}, func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_WithAttempts(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 5, p.WithAttempts(5).Attempts)
	assert.Equal(t, 3, p.WithAttempts(0).Attempts)
}

func TestPolicy_Delay(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}.normalized()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{9, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestPolicy_DelayJitter(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: 10 * time.Second, Jitter: 0.5}.normalized()

	seen := map[time.Duration]bool{}
	for range 100 {
		d := p.delay(1)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
		seen[d] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestLogRetry(t *testing.T) {
	hook := LogRetry("opendata", "download")
	assert.NotPanics(t, func() { hook(1, errors.New("boom")) })
}
