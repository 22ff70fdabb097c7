package state

import (
	"context"
	"errors"
	"testing"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_NonTransientFailsImmediately(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return errors.New("syntax error near SELECT")
	})
	if err == nil {
		t.Fatal("withRetry() error = nil, want failure")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry for permanent failures)", calls)
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return errors.New("database is locked")
	})
	if err == nil {
		t.Fatal("withRetry() error = nil, want terminal failure")
	}
	if calls != retryMaxAttempts {
		t.Errorf("calls = %d, want %d", calls, retryMaxAttempts)
	}
}

func TestWithRetry_RetryableDomainError(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		if calls < 2 {
			return core.ErrExecution("NETWORK", "connection reset")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, func() error {
		calls++
		return errors.New("database is locked")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("withRetry() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "locked", err: errors.New("database is locked (5) (SQLITE_BUSY)"), want: true},
		{name: "busy", err: errors.New("database busy"), want: true},
		{name: "retryable domain error", err: core.ErrRateLimit("slow down"), want: true},
		{name: "permanent domain error", err: core.ErrValidation("X", "bad"), want: false},
		{name: "plain failure", err: errors.New("no such table"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.want {
				t.Errorf("isTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}
