package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/law-makers/shelfscan/internal/engine"
)

func fastConfig() Config {
	return Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2}
}

func TestWithRetryRecovers(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("net::ERR_CONNECTION_RESET")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryStopsOnNonRetryableEngineError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), func() error {
		calls++
		return engine.UnknownLocator("nope")
	})
	if !errors.Is(err, engine.ErrUnknownLocator) {
		t.Fatalf("expected unknown locator error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestWithRetryExhausts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), func() error {
		calls++
		return engine.TimeoutWaiting("grid", nil)
	})
	if err == nil || !errors.Is(err, engine.ErrTimeoutWaiting) {
		t.Fatalf("expected wrapped timeout, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestCalculateBackoffCapped(t *testing.T) {
	cfg := Config{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, Multiplier: 2}
	if got := calculateBackoff(0, cfg); got != time.Second {
		t.Errorf("attempt 0: got %v", got)
	}
	if got := calculateBackoff(5, cfg); got != 3*time.Second {
		t.Errorf("attempt 5: got %v", got)
	}
}

func TestUntil(t *testing.T) {
	n := 0
	err := Until(context.Background(), time.Second, time.Millisecond, func() (bool, error) {
		n++
		return n >= 3, nil
	})
	if err != nil || n != 3 {
		t.Fatalf("expected success after 3 polls, got n=%d err=%v", n, err)
	}

	err = Until(context.Background(), 20*time.Millisecond, 5*time.Millisecond, func() (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	boom := errors.New("boom")
	err = Until(context.Background(), time.Second, time.Millisecond, func() (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected cond error, got %v", err)
	}
}

func TestUntilZeroTimeoutEvaluatesOnce(t *testing.T) {
	n := 0
	_ = Until(context.Background(), 0, time.Millisecond, func() (bool, error) {
		n++
		return false, nil
	})
	if n != 1 {
		t.Fatalf("expected exactly one evaluation, got %d", n)
	}
}
