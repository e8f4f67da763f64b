package assist

import (
	"errors"
	"testing"
	"time"

	"github.com/sakif/snippetshare/internal/apperror"
)

func TestBudget_AllowsUpToLimit(t *testing.T) {
	now := time.Now()
	b := newBudgetWithClock(3, time.Minute, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		if err := b.Spend(); err != nil {
			t.Fatalf("call %d rejected: %v", i+1, err)
		}
	}
	if err := b.Spend(); !errors.Is(err, apperror.ErrRateLimited) {
		t.Errorf("call past the limit: got %v, want ErrRateLimited", err)
	}
}

func TestBudget_RefillsOverWindow(t *testing.T) {
	now := time.Now()
	b := newBudgetWithClock(2, time.Minute, func() time.Time { return now })

	// Drain the bucket.
	if err := b.Spend(); err != nil {
		t.Fatalf("first spend: %v", err)
	}
	if err := b.Spend(); err != nil {
		t.Fatalf("second spend: %v", err)
	}
	if err := b.Spend(); !errors.Is(err, apperror.ErrRateLimited) {
		t.Fatalf("drained budget should reject: %v", err)
	}

	// Tokens refill evenly across the window: at 2 calls/minute one token
	// comes back every 30 seconds.
	now = now.Add(30 * time.Second)
	if err := b.Spend(); err != nil {
		t.Errorf("spend after refill interval: %v", err)
	}
	if err := b.Spend(); !errors.Is(err, apperror.ErrRateLimited) {
		t.Errorf("only one token should have refilled: %v", err)
	}
}

func TestBudget_DefensiveConstruction(t *testing.T) {
	// Nonsense parameters collapse to a 1-call budget instead of a budget
	// that can never be spent.
	b := newBudgetWithClock(0, -time.Second, time.Now)
	if err := b.Spend(); err != nil {
		t.Errorf("zero-call budget should still allow one call: %v", err)
	}
}

func TestDefaultBudget_FifteenPerMinute(t *testing.T) {
	b := DefaultBudget()
	for i := 0; i < 15; i++ {
		if err := b.Spend(); err != nil {
			t.Fatalf("call %d rejected: %v", i+1, err)
		}
	}
	if err := b.Spend(); !errors.Is(err, apperror.ErrRateLimited) {
		t.Errorf("sixteenth call: got %v, want ErrRateLimited", err)
	}
}
