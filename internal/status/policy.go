package status

import (
	"context"
	"time"
)

// DeliveryPolicy decides when an outgoing message advances through the
// delivery lifecycle. Advance returns immediately; stage applications
// arrive asynchronously through apply. The callback owns monotonic
// enforcement and persistence, so applying an already-passed stage must
// be safe.
//
// This indirection exists so a transport-acknowledgement-driven policy
// can replace the timer-driven one without touching the engine.
type DeliveryPolicy interface {
	Advance(ctx context.Context, messageID string, apply func(messageID string, st Status))
}

// FixedDelayPolicy advances Sending → Sent → Delivered → Read on fixed
// timers after send acceptance. Cancelling ctx abandons the remaining
// stages.
type FixedDelayPolicy struct {
	SentAfter      time.Duration
	DeliveredAfter time.Duration
	ReadAfter      time.Duration
}

// Advance runs the stage timers in a background goroutine.
func (p FixedDelayPolicy) Advance(ctx context.Context, messageID string, apply func(messageID string, st Status)) {
	stages := []struct {
		after time.Duration
		st    Status
	}{
		{p.SentAfter, Sent},
		{p.DeliveredAfter, Delivered},
		{p.ReadAfter, Read},
	}

	go func() {
		for _, stage := range stages {
			timer := time.NewTimer(stage.after)
			select {
			case <-timer.C:
				apply(messageID, stage.st)
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}()
}
