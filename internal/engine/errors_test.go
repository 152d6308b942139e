package engine

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelMatching(t *testing.T) {
	err := fmt.Errorf("page step: %w", NavigationNotConfirmed(2, TimeoutWaiting("settle", nil)))

	if !errors.Is(err, ErrNavigationNotConfirmed) {
		t.Fatal("expected NavigationNotConfirmed to match")
	}
	if !errors.Is(err, ErrTimeoutWaiting) {
		t.Fatal("underlying timeout should match through the chain")
	}
	if errors.Is(err, ErrMissingField) {
		t.Fatal("unrelated sentinel matched")
	}
	if p, ok := PageOf(err); !ok || p != 2 {
		t.Fatalf("PageOf = %d, %v", p, ok)
	}
	if !IsCode(err, ErrCodeTimeout) {
		t.Fatal("IsCode should walk underlying engine errors")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{MissingField("name"), `MISSING_FIELD: missing field "name"`},
		{ErrStaleElement, "STALE_ELEMENT"},
		{NewEngineError(ErrCodeBrowserCrash, "chrome exited", errors.New("signal: killed")), "BROWSER_CRASH: chrome exited: signal: killed"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestRetryFlags(t *testing.T) {
	if !TimeoutWaiting("x", nil).Retry {
		t.Error("timeouts are retryable")
	}
	if UnknownLocator("x").Retry {
		t.Error("unknown locators are configuration defects")
	}
	var nilDetails EngineError
	nilDetails.WithDetail("k", 1)
	if nilDetails.Details["k"] != 1 {
		t.Error("WithDetail should allocate details")
	}
}
