package breaker

import (
	"errors"
	"testing"
	"time"
)

func TestBreakerStartsClosed(t *testing.T) {
	b := New("test", 3, 30*time.Second)

	if b.State() != StateClosed {
		t.Fatalf("Expected closed, got %q", b.State())
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Closed breaker must allow calls, got %v", err)
	}
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := New("test", 3, 30*time.Second)

	b.Failure()
	b.Failure()
	if b.State() != StateClosed {
		t.Fatalf("Expected still closed after 2 failures, got %q", b.State())
	}

	b.Failure()
	if b.State() != StateOpen {
		t.Fatalf("Expected open after 3 failures, got %q", b.State())
	}

	err := b.Allow()
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Open breaker must reject with ErrOpen, got %v", err)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New("test", 3, 30*time.Second)

	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()

	if b.State() != StateClosed {
		t.Errorf("Expected closed, non-consecutive failures must not open, got %q", b.State())
	}
}

func TestBreakerHalfOpenAfterCooldown(t *testing.T) {
	b := New("test", 1, 30*time.Second)

	now := time.Now()
	b.now = func() time.Time { return now }

	b.Failure()
	if b.State() != StateOpen {
		t.Fatalf("Expected open, got %q", b.State())
	}

	// Before the cooldown: still rejected.
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Fatalf("Expected rejection before cooldown, got %v", err)
	}

	// After the cooldown: one probe admitted, concurrent calls rejected.
	b.now = func() time.Time { return now.Add(31 * time.Second) }
	if err := b.Allow(); err != nil {
		t.Fatalf("Expected probe to be admitted after cooldown, got %v", err)
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("Expected half-open, got %q", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("Second caller during probe must be rejected, got %v", err)
	}
}

func TestBreakerClosesOnSuccessfulProbe(t *testing.T) {
	b := New("test", 1, time.Second)

	now := time.Now()
	b.now = func() time.Time { return now }

	b.Failure()
	b.now = func() time.Time { return now.Add(2 * time.Second) }

	if err := b.Allow(); err != nil {
		t.Fatalf("Probe should be admitted, got %v", err)
	}
	b.Success()

	if b.State() != StateClosed {
		t.Fatalf("Expected closed after successful probe, got %q", b.State())
	}
	if b.Failures() != 0 {
		t.Errorf("Expected failure count reset, got %d", b.Failures())
	}
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	b := New("test", 1, time.Second)

	now := time.Now()
	b.now = func() time.Time { return now }

	b.Failure()
	b.now = func() time.Time { return now.Add(2 * time.Second) }

	if err := b.Allow(); err != nil {
		t.Fatalf("Probe should be admitted, got %v", err)
	}
	b.Failure()

	if b.State() != StateOpen {
		t.Fatalf("Expected reopen after failed probe, got %q", b.State())
	}

	// The cooldown restarts from the failed probe.
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("Expected rejection right after reopening, got %v", err)
	}
}

func TestBreakerMinimumThreshold(t *testing.T) {
	b := New("test", 0, time.Second)

	b.Failure()
	if b.State() != StateOpen {
		t.Errorf("Threshold below 1 must behave as 1, got %q", b.State())
	}
}
