package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFlaky = errors.New("flaky")

func fast(attempts int) Policy {
	return Policy{Attempts: attempts, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestTransient(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) should be nil")
	}
	if err := Transient(context.Canceled); IsTransient(err) {
		t.Error("context errors must not be retryable")
	}

	err := Transient(errFlaky)
	if !IsTransient(err) {
		t.Error("wrapped error should be retryable")
	}
	if !errors.Is(err, errFlaky) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if err.Error() != errFlaky.Error() {
		t.Errorf("message = %q, want %q", err.Error(), errFlaky.Error())
	}
	if IsTransient(errFlaky) {
		t.Error("plain error should not be retryable")
	}
}

func TestDo(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		transient bool
		attempts  int
		wantCalls int
		wantErr   bool
	}{
		{"first try", 0, true, 3, 1, false},
		{"recovers", 2, true, 3, 3, false},
		{"gives up", 5, true, 3, 3, true},
		{"permanent error", 5, false, 3, 1, true},
		{"zero attempts runs once", 5, true, 0, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := fast(tt.attempts).Do(context.Background(), func() error {
				calls++
				if calls > tt.failures {
					return nil
				}
				if tt.transient {
					return Transient(errFlaky)
				}
				return errFlaky
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestDoContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Policy{Attempts: 3, Delay: time.Hour}.Do(ctx, func() error {
		return Transient(errFlaky)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
