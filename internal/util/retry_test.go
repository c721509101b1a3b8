package util

import (
	"context"
	"errors"
	"testing"
)

func TestRetryErr(t *testing.T) {
	tests := []struct {
		name      string
		maxTries  int
		failUntil int
		wantErr   bool
		wantCalls int
	}{
		{
			name:      "succeeds first try",
			maxTries:  3,
			failUntil: 0,
			wantErr:   false,
			wantCalls: 1,
		},
		{
			name:      "succeeds after retries",
			maxTries:  3,
			failUntil: 2,
			wantErr:   false,
			wantCalls: 3,
		},
		{
			name:      "exhausts retries",
			maxTries:  2,
			failUntil: 5,
			wantErr:   true,
			wantCalls: 2,
		},
		{
			name:      "zero tries defaults to one",
			maxTries:  0,
			failUntil: 0,
			wantErr:   false,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryErr(tt.maxTries, func() error {
				calls++
				if calls <= tt.failUntil {
					return errors.New("transient")
				}
				return nil
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("RetryErr() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("RetryErr() made %d calls, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryErrWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryErrWithContext(ctx, 3, func(ctx context.Context) error {
		calls++
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("RetryErrWithContext() error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("RetryErrWithContext() made %d calls after cancellation, want 0", calls)
	}
}

func TestRetryErrWithContextDoesNotRetryCancellation(t *testing.T) {
	calls := 0
	err := RetryErrWithContext(context.Background(), 3, func(ctx context.Context) error {
		calls++
		return context.DeadlineExceeded
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RetryErrWithContext() error = %v, want context.DeadlineExceeded", err)
	}
	if calls != 1 {
		t.Errorf("RetryErrWithContext() made %d calls, want 1", calls)
	}
}

func TestRetryWithContext(t *testing.T) {
	calls := 0
	got, err := RetryWithContext(context.Background(), 3, func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("RetryWithContext() error = %v", err)
	}
	if got != 42 {
		t.Errorf("RetryWithContext() = %d, want 42", got)
	}
}
