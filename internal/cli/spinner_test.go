package cli

import (
	"context"
	"testing"
	"time"
)

func TestSpinnerStartStop(t *testing.T) {
	s := newSpinnerWithContext(context.Background(), "working")
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.Stop()

	if s.Cancelled() != true {
		// Stop cancels the internal context.
		t.Error("Stop() should cancel the spinner context")
	}
}

func TestSpinnerStopWithoutStartDoesNotHang(t *testing.T) {
	s := newSpinnerWithContext(context.Background(), "idle")
	go func() {
		close(s.stopped)
	}()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() hung without a running animation goroutine")
	}
}

func TestSpinnerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, "cancellable")
	s.Start()

	cancel()
	time.Sleep(10 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should report cancellation after parent context cancel")
	}
	s.Stop()
}
