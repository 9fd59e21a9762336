package httputil

import (
	"context"
	stderrors "errors"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	unreachable := stderrors.New("connection refused")
	rejected := stderrors.New("403 forbidden")

	tests := []struct {
		name      string
		attempts  int
		failures  []error // returned by successive calls, then nil
		wantCalls int
		wantErr   error
	}{
		{"first try", 3, nil, 1, nil},
		{"recovers", 3, []error{Transient(unreachable)}, 2, nil},
		{"permanent failure", 3, []error{rejected}, 1, rejected},
		{"exhausted", 2, []error{Transient(unreachable), Transient(unreachable), Transient(unreachable)}, 2, unreachable},
		{"zero attempts still calls once", 0, []error{Transient(unreachable)}, 1, unreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), tt.attempts, time.Millisecond, func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !stderrors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Hour, func() error {
		return Transient(stderrors.New("timeout"))
	})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestTransient(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) != nil")
	}
	base := stderrors.New("503")
	err := Transient(base)
	if !IsTransient(err) || err.Error() != "503" || !stderrors.Is(err, base) {
		t.Errorf("Transient(%v) = %v", base, err)
	}
	if IsTransient(base) {
		t.Error("plain error reported as transient")
	}
}
