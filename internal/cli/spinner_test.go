package cli

import (
	"context"
	"testing"
	"time"
)

func TestSpinnerStartStop(t *testing.T) {
	s := newSpinner("working...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if s.Cancelled() != true {
		// Stop cancels the internal context, so Cancelled reports true
		// after a manual stop as well.
		t.Error("Cancelled() = false after Stop")
	}
}

func TestSpinnerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, "waiting...")
	s.Start()

	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner did not observe context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopsOnTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerWithContext(ctx, "waiting...")
	s.Start()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner did not observe timeout")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("working...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithOutcome(t *testing.T) {
	s := newSpinner("reseeding...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithSuccess("reseeded")

	s = newSpinner("rendering...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithError("render failed")
}
