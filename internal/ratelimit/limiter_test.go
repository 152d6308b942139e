package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestDomainLimiterPerHost(t *testing.T) {
	dl := NewDomainLimiter(1, 1)

	if !dl.Allow("https://shop.test/a") {
		t.Fatal("first load should be allowed")
	}
	if dl.Allow("https://shop.test/b") {
		t.Fatal("second load on the same host should be throttled")
	}
	if !dl.Allow("https://other.test/") {
		t.Fatal("a different host has its own bucket")
	}
	if !dl.Allow("about:blank") {
		t.Fatal("hostless URLs are never throttled")
	}
}

func TestDomainLimiterWaitHonorsContext(t *testing.T) {
	dl := NewDomainLimiter(0.1, 1)
	_ = dl.Allow("https://shop.test/")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := dl.Wait(ctx, "https://shop.test/next"); err == nil {
		t.Fatal("expected wait to fail once the context expires")
	}
}

func TestNewUnlimited(t *testing.T) {
	l := New(0, 0)
	if _, ok := l.(Unlimited); !ok {
		t.Fatalf("expected Unlimited, got %T", l)
	}
	for i := 0; i < 100; i++ {
		if !l.Allow("https://shop.test/") {
			t.Fatal("unlimited limiter refused a load")
		}
	}
	if err := l.Wait(context.Background(), "https://shop.test/"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
