package core

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Run draws frames until the window asks to close or ctx is done.
// Cancellation is checked between frames. The device is idle
// when Run returns.
func (r *Renderer) Run(ctx context.Context) (err error) {
	pace := NewTime(r.configuration.Time)
	defer pace.Stop()

	defer func() {
		idleErr := r.device.WaitIdle()
		if idleErr == nil {
			return
		}
		r.log.WithError(idleErr).Warn("device did not go idle after the render loop")
		if err == nil {
			err = fmt.Errorf("wait idle: %w", idleErr)
		}
	}()

	for !r.window.ShouldClose() {
		if ctx.Err() != nil {
			break
		}
		r.window.PollEvents()
		if !pace.Wait(ctx) {
			break
		}
		if err := r.DrawFrame(); err != nil {
			return err
		}
	}

	r.log.WithFields(log.Fields{
		"elapsed": pace.Elapsed(),
		"fpsCap":  pace.Fps(),
	}).Info("render loop stopped")
	return nil
}
