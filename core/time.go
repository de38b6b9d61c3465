package core

import (
	"context"
	"time"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	t := &Time{
		fps:   cfg.FramesPerSecond,
		start: time.Now(),
	}
	if cfg.FramesPerSecond > 0 {
		t.fpsTicker = time.NewTicker(time.Second / time.Duration(cfg.FramesPerSecond))
	}
	return t
}

// Time paces the frame loop
type Time struct {
	fps       int
	fpsTicker *time.Ticker
	start     time.Time
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// Elapsed returns the time since the service was created.
func (t *Time) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Wait blocks until the next frame is due. Returns false
// if the context ended first.
func (t *Time) Wait(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if t.fpsTicker == nil {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-t.fpsTicker.C:
		return true
	}
}

// Stop releases the ticker.
func (t *Time) Stop() {
	if t.fpsTicker != nil {
		t.fpsTicker.Stop()
	}
}
