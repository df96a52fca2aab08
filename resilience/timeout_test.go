package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTimeout_Defaults(t *testing.T) {
	to := NewTimeout(TimeoutConfig{})
	if got := to.Config().Timeout; got != 30*time.Second {
		t.Errorf("Timeout = %v, want default 30s", got)
	}

	to = NewTimeout(TimeoutConfig{Timeout: 5 * time.Second})
	if got := to.Config().Timeout; got != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", got)
	}
}

func TestTimeout_FastCallWins(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Second})

	err := to.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v, want nil for a fast call", err)
	}
}

func TestTimeout_SlowProviderTimesOut(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: 20 * time.Millisecond})

	// The provider never answers; the caller must not be kept waiting.
	start := time.Now()
	err := to.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Execute() error = %v, want ErrTimeout", err)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("Execute() took %v, caller should return near the 20ms budget", elapsed)
	}
}

func TestTimeout_AbandonsHungCall(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: 20 * time.Millisecond})

	// A call that ignores ctx entirely. The caller still gets ErrTimeout;
	// the goroutine is abandoned, not forcibly killed.
	hung := make(chan struct{})
	err := to.Execute(context.Background(), func(ctx context.Context) error {
		<-hung
		return nil
	})
	close(hung)

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Execute() error = %v, want ErrTimeout for a hung call", err)
	}
}

func TestTimeout_ProviderErrorPassesThrough(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Second})

	upstreamErr := errors.New("upstream returned 429")
	err := to.Execute(context.Background(), func(ctx context.Context) error {
		return upstreamErr
	})
	if !errors.Is(err, upstreamErr) {
		t.Errorf("Execute() error = %v, want the provider error", err)
	}
}

func TestTimeout_CallerCancellation(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := to.Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestTimeout_OperationSeesDeadline(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Second})

	var hasDeadline bool
	err := to.Execute(context.Background(), func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !hasDeadline {
		t.Error("operation context has no deadline, want the timeout budget attached")
	}
}

func TestExecuteWithTimeout(t *testing.T) {
	t.Run("fast call", func(t *testing.T) {
		err := ExecuteWithTimeout(context.Background(), time.Second, func(ctx context.Context) error {
			return nil
		})
		if err != nil {
			t.Errorf("ExecuteWithTimeout() error = %v", err)
		}
	})

	t.Run("slow call", func(t *testing.T) {
		err := ExecuteWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("ExecuteWithTimeout() error = %v, want ErrTimeout", err)
		}
	})

	t.Run("timeout error is classified retryable", func(t *testing.T) {
		err := ExecuteWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		classified := Classify(err)
		if classified.Kind != KindTimeout {
			t.Errorf("Kind = %v, want KindTimeout", classified.Kind)
		}
		if !classified.Retryable {
			t.Error("timeout should classify as retryable")
		}
	})
}
