package middleware

import (
	"testing"
	"time"
)

func TestIPRateLimiterBurstThenDeny(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 2, time.Hour)

	if !limiter.Allow("1.2.3.4") {
		t.Fatal("first request should be allowed")
	}
	if !limiter.Allow("1.2.3.4") {
		t.Fatal("second request should fit in the burst")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("third request should be rate limited")
	}

	// Another key has its own budget.
	if !limiter.Allow("5.6.7.8") {
		t.Fatal("distinct keys should not share a budget")
	}
}

func TestIPRateLimiterEmptyKey(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Hour)

	if !limiter.Allow("") {
		t.Fatal("first empty-key request should be allowed")
	}
	if limiter.Allow("") {
		t.Fatal("empty keys share the fallback bucket")
	}
}

func TestIPRateLimiterExpiresVisitors(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Minute)
	inner, ok := limiter.(*ipRateLimiter)
	if !ok {
		t.Fatal("expected ipRateLimiter implementation")
	}

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := base
	inner.WithNowFunc(func() time.Time { return now })

	if !limiter.Allow("1.2.3.4") {
		t.Fatal("first request should be allowed")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("budget should be exhausted")
	}

	// A request for another key past the ttl garbage-collects the stale
	// visitor, so the original key starts over with a fresh bucket.
	now = base.Add(2 * time.Minute)
	limiter.Allow("5.6.7.8")
	if !limiter.Allow("1.2.3.4") {
		t.Fatal("expected a fresh budget after expiry")
	}
}
