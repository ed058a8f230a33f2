package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errTemporary = errors.New("temporary")

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestDo(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		failTimes int
		retryable bool
		wantCalls int
		wantErr   bool
		wantMax   bool
	}{
		{"succeeds first time", 3, 0, true, 1, false, false},
		{"succeeds after retries", 3, 2, true, 3, false, false},
		{"exhausts attempts", 3, 5, true, 3, true, true},
		{"non retryable stops immediately", 3, 5, false, 1, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			cfg := fastConfig(tt.attempts)
			cfg.IsRetryable = func(error) bool { return tt.retryable }

			err := Do(context.Background(), cfg, func(ctx context.Context) error {
				calls++
				if calls <= tt.failTimes {
					return errTemporary
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.ErrorIs(t, err, errTemporary)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantMax, errors.Is(err, ErrMaxAttemptsExceeded))
		})
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cfg := fastConfig(5)
	cfg.InitialDelay = time.Second
	cfg.MaxDelay = time.Second
	cfg.OnRetry = func(int, time.Duration, error) { cancel() }

	err := Do(ctx, cfg, func(ctx context.Context) error {
		calls++
		return errTemporary
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errTemporary)
}

func TestBackoff(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, Backoff(cfg, 1))
	assert.Equal(t, 200*time.Millisecond, Backoff(cfg, 2))
	assert.Equal(t, 400*time.Millisecond, Backoff(cfg, 3))
	assert.Equal(t, time.Second, Backoff(cfg, 10))
}
