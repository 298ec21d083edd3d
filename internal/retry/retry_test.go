package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffAndJitter(t *testing.T) {
	d := Backoff(2, 100*time.Millisecond, 300*time.Millisecond, 0)
	if d != 200*time.Millisecond {
		t.Fatalf("unexpected delay: %v", d)
	}
	d2 := Backoff(10, 100*time.Millisecond, 300*time.Millisecond, 0)
	if d2 != 300*time.Millisecond {
		t.Fatalf("expected capped delay, got %v", d2)
	}
	if j := applyJitter(100*time.Millisecond, 0); j != 100*time.Millisecond {
		t.Fatalf("jitter=0 mismatch: %v", j)
	}
	if j2 := applyJitter(100*time.Millisecond, 2); j2 <= 0 {
		t.Fatalf("jitter clamp mismatch: %v", j2)
	}
	if d3 := Backoff(0, 100*time.Millisecond, 300*time.Millisecond, 0.2); d3 <= 0 {
		t.Fatalf("attempt clamp mismatch: %v", d3)
	}
}

func TestDo(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Options{MaxRetries: 0}, func(attempt int) error {
		attempts = attempt
		return nil
	})
	if err != nil || attempts != 1 {
		t.Fatalf("unexpected result err=%v attempts=%d", err, attempts)
	}

	attempts = 0
	err = Do(context.Background(), Options{MaxRetries: 0}, func(attempt int) error {
		attempts = attempt
		return errors.New("x")
	})
	if err == nil || attempts != 1 {
		t.Fatalf("expected immediate failure, err=%v attempts=%d", err, attempts)
	}
}

func TestDoOnRetry(t *testing.T) {
	var (
		retryCalled bool
		attempts    int
	)
	err := Do(context.Background(), Options{
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			retryCalled = true
			if attempt != 1 || wait < 0 || err == nil {
				t.Fatalf("unexpected retry callback args")
			}
		},
	}, func(attempt int) error {
		attempts = attempt
		if attempt == 1 {
			return errors.New("x")
		}
		return nil
	})
	if err != nil || !retryCalled || attempts != 2 {
		t.Fatalf("unexpected retry result: err=%v retryCalled=%v attempts=%d", err, retryCalled, attempts)
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, Options{MaxRetries: 3, BaseDelay: time.Second}, func(attempt int) error {
		attempts = attempt
		return errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	cause := errors.New("HTTP 401: unauthorized")
	attempts := 0
	err := Do(context.Background(), Options{MaxRetries: 3, BaseDelay: time.Millisecond}, func(attempt int) error {
		attempts = attempt
		return Permanent(cause)
	})
	if err != cause {
		t.Fatalf("expected the unwrapped cause, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
	if Permanent(nil) != nil {
		t.Fatal("Permanent(nil) should be nil")
	}
	if !IsPermanent(Permanent(cause)) || IsPermanent(cause) {
		t.Fatal("IsPermanent mismatch")
	}
}

func TestIsRateLimit(t *testing.T) {
	if !IsRateLimit(errors.New("HTTP 429")) {
		t.Fatalf("expected true")
	}
	if !IsRateLimit(errors.New("RATE LIMIT")) {
		t.Fatalf("expected true")
	}
	if IsRateLimit(errors.New("bad")) {
		t.Fatalf("expected false")
	}
	if IsRateLimit(nil) {
		t.Fatalf("expected false for nil")
	}
}
