package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestWindowLimiterEnforcesLimit(t *testing.T) {
	l := NewWindowLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := l.Allow(ctx, "key", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow failed: %v", err)
		}
		if !allowed {
			t.Fatalf("expected request %d allowed", i+1)
		}
	}

	allowed, err := l.Allow(ctx, "key", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow failed: %v", err)
	}
	if allowed {
		t.Fatal("expected fourth request denied")
	}
}

func TestWindowLimiterIsolatesKeys(t *testing.T) {
	l := NewWindowLimiter()
	ctx := context.Background()

	if allowed, _ := l.Allow(ctx, "a", 1, time.Minute); !allowed {
		t.Fatal("expected first request on a allowed")
	}
	if allowed, _ := l.Allow(ctx, "a", 1, time.Minute); allowed {
		t.Fatal("expected second request on a denied")
	}
	if allowed, _ := l.Allow(ctx, "b", 1, time.Minute); !allowed {
		t.Fatal("expected request on b allowed")
	}
}

func TestWindowLimiterResetsAfterWindow(t *testing.T) {
	l := NewWindowLimiter()
	now := time.Now()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	if allowed, _ := l.Allow(ctx, "key", 1, time.Minute); !allowed {
		t.Fatal("expected first request allowed")
	}
	if allowed, _ := l.Allow(ctx, "key", 1, time.Minute); allowed {
		t.Fatal("expected second request denied")
	}

	now = now.Add(61 * time.Second)
	if allowed, _ := l.Allow(ctx, "key", 1, time.Minute); !allowed {
		t.Fatal("expected request allowed after window reset")
	}
}

func TestWindowLimiterSweepsExpiredEntries(t *testing.T) {
	l := NewWindowLimiter()
	now := time.Now()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 4096; i++ {
		if _, err := l.Allow(ctx, fmt.Sprintf("key-%d", i), 1, time.Second); err != nil {
			t.Fatalf("allow failed: %v", err)
		}
	}

	// All previous windows have expired; the next insert triggers the sweep.
	now = now.Add(2 * time.Second)
	if _, err := l.Allow(ctx, "fresh", 1, time.Second); err != nil {
		t.Fatalf("allow failed: %v", err)
	}
	if len(l.entries) >= 4096 {
		t.Fatalf("expected sweep to drop expired entries, have %d", len(l.entries))
	}
}
