// Package transport abstracts the realtime channel to the conversation
// peer. The wire contract is opaque UTF-8 text frames in both
// directions; identity and ordering are layered on top by the sync
// engine.
package transport

import (
	"time"

	"github.com/okravchenko/dialog/internal/bus"
	"go.uber.org/zap"
)

// Transport is the live channel to the remote peer. Connect is
// idempotent and never blocks the caller; Send is best-effort and
// asynchronous. Inbound frames, typing signals and failures surface as
// transport.* bus events, never as return values.
type Transport interface {
	Connect()
	Disconnect()
	Send(text string)
}

// New selects the implementation once at construction: a websocket URL
// yields the live channel, an empty URL the local simulator.
func New(wsURL string, timings SimulatorTimings, b *bus.Bus, logger *zap.Logger) Transport {
	if wsURL != "" {
		return NewLive(wsURL, b, logger)
	}
	return NewSimulator(timings, b, logger)
}

func publishMessage(b *bus.Bus, text string) {
	b.Publish(bus.Event{Kind: bus.KindTransportMessage, Timestamp: time.Now(), Payload: text})
}

func publishTyping(b *bus.Bus, typing bool) {
	b.Publish(bus.Event{Kind: bus.KindTransportTyping, Timestamp: time.Now(), Payload: typing})
}

func publishError(b *bus.Bus, err error) {
	b.Publish(bus.Event{Kind: bus.KindTransportError, Timestamp: time.Now(), Payload: err.Error()})
}
