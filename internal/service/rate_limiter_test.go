package service

import (
	"testing"
	"time"
)

func TestSlidingWindowAllowsUpToMax(t *testing.T) {
	limiter := NewRateLimiter(time.Minute, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("user-1") {
			t.Fatalf("call %d must pass", i+1)
		}
	}
	if limiter.Allow("user-1") {
		t.Fatalf("the fourth call must be blocked")
	}
	// Otras claves no comparten cuota.
	if !limiter.Allow("user-2") {
		t.Fatalf("another key must not be limited")
	}
}

func TestSlidingWindowExpiresEntries(t *testing.T) {
	limiter := NewRateLimiter(20*time.Millisecond, 1)

	if !limiter.Allow("user-1") {
		t.Fatalf("the first call must pass")
	}
	if limiter.Allow("user-1") {
		t.Fatalf("within the window it must be blocked")
	}
	time.Sleep(30 * time.Millisecond)
	if !limiter.Allow("user-1") {
		t.Fatalf("after the window it must pass again")
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	limiter := NewRateLimiter(0, 0)
	if !limiter.Allow("user-1") {
		t.Fatalf("the minimum is one call per window")
	}
	if limiter.Allow("user-1") {
		t.Fatalf("the second must be blocked")
	}
}
