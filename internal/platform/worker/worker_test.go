package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoop_RunsOnStartAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32

	done := make(chan error, 1)

	go func() {
		done <- Loop(ctx, Config{
			Name:       "test",
			Interval:   10 * time.Millisecond,
			RunOnStart: true,
			OnTick: func(context.Context) {
				ticks.Add(1)
			},
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Loop() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Loop() did not stop after cancel")
	}

	if ticks.Load() < 2 {
		t.Errorf("ticks = %d, want at least 2 (initial run + ticker)", ticks.Load())
	}
}

func TestWait(t *testing.T) {
	if err := Wait(context.Background(), 0); err != nil {
		t.Errorf("Wait(0) error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Wait(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() on canceled ctx error = %v, want context.Canceled", err)
	}
}

func TestRunWithTimeout(t *testing.T) {
	err := RunWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()

		return ctx.Err()
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunWithTimeout() error = %v, want deadline exceeded", err)
	}
}
