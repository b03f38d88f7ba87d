package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "graph"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// A different service has its own budget
	if err := limiter.Wait(ctx, "oracle"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_ServicesIndependent(t *testing.T) {
	limiter := NewLimiter(1, 1) // 1 rps, burst 1

	if !limiter.Allow("graph") {
		t.Error("first graph request should be allowed")
	}
	if limiter.Allow("graph") {
		t.Error("second immediate graph request should be throttled")
	}
	// Throttling graph must not affect oracle
	if !limiter.Allow("oracle") {
		t.Error("oracle request should be allowed despite graph throttle")
	}
}

func TestLimiter_SetServiceRate(t *testing.T) {
	limiter := NewLimiter(1, 1)
	limiter.SetServiceRate("graph", 1000, 10)

	for i := 0; i < 5; i++ {
		if !limiter.Allow("graph") {
			t.Fatalf("request %d should be allowed under the raised rate", i)
		}
	}
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	limiter := NewLimiter(0.001, 1) // effectively frozen after the first slot
	ctx := context.Background()

	if err := limiter.Wait(ctx, "graph"); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctxTimeout, "graph"); err == nil {
		t.Error("expected context deadline error on frozen limiter")
	}
}

func TestPerHour(t *testing.T) {
	if got := PerHour(3600); got != 1.0 {
		t.Errorf("PerHour(3600) = %v, want 1.0", got)
	}
	if got := PerHour(0); got != 1.0 {
		t.Errorf("PerHour(0) = %v, want fallback 1.0", got)
	}
}
