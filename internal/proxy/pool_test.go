package proxy

import (
	"testing"
	"time"
)

func TestPoolRotation(t *testing.T) {
	pool := NewPool([]string{"http://p1:8080", "http://p2:8080", "http://p3:8080"}, time.Minute)

	for _, want := range []string{"http://p1:8080", "http://p2:8080", "http://p3:8080", "http://p1:8080"} {
		if got := pool.Next(); got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
}

func TestPoolCooldown(t *testing.T) {
	now := time.Unix(1000, 0)
	pool := NewPool([]string{"p1", "p2", "p3"}, time.Minute)
	pool.now = func() time.Time { return now }

	pool.Next() // p1
	pool.MarkFailed("p2")

	if got := pool.Next(); got != "p3" {
		t.Fatalf("expected p3 (skipping p2), got %s", got)
	}
	if got := pool.Next(); got != "p1" {
		t.Fatalf("expected p1, got %s", got)
	}
	if got := pool.Next(); got != "p3" {
		t.Fatalf("expected p3 (skipping p2), got %s", got)
	}

	now = now.Add(2 * time.Minute)
	pool.Next() // p1
	if got := pool.Next(); got != "p2" {
		t.Fatalf("expected p2 after cooldown, got %s", got)
	}

	pool.MarkFailed("p3")
	pool.MarkHealthy("p3")
	if got := pool.Next(); got != "p3" {
		t.Fatalf("expected healthy p3, got %s", got)
	}
}

func TestPoolAllFailed(t *testing.T) {
	now := time.Unix(1000, 0)
	pool := NewPool([]string{"p1", "p2"}, time.Minute)
	pool.now = func() time.Time { return now }

	pool.MarkFailed("p2")
	now = now.Add(time.Second)
	pool.MarkFailed("p1")

	if got := pool.Next(); got != "p2" {
		t.Fatalf("expected the proxy that failed longest ago, got %s", got)
	}
}

func TestPoolEmpty(t *testing.T) {
	if got := NewPool(nil, 0).Next(); got != "" {
		t.Fatalf("expected empty proxy, got %q", got)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse(" http://a:1 , socks5://b:2,,")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "http://a:1" || got[1] != "socks5://b:2" {
		t.Fatalf("unexpected list %v", got)
	}
	for _, bad := range []string{"ftp://a:1", "http://", "a:1"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
