package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okravchenko/dialog/internal/bus"
	"go.uber.org/zap"
)

// SimulatorTimings control the simulator schedule.
type SimulatorTimings struct {
	IdlePeriod time.Duration // quiet time between unsolicited messages
	TypingTime time.Duration // how long the peer "types" before a periodic message
	ReplyDelay time.Duration // how long the peer "types" before echoing a send
}

// Simulator is a local stand-in for the live channel, used when no
// websocket endpoint is configured. It periodically emits a typing
// pulse followed by a synthetic inbound message; an outbound Send
// interrupts the cycle with a typing pulse and an echo reply, then the
// periodic cycle resumes.
type Simulator struct {
	timings SimulatorTimings
	bus     *bus.Bus
	logger  *zap.Logger

	mu        sync.Mutex
	lifetime  context.Context
	cancel    context.CancelFunc
	stopCycle context.CancelFunc
	counter   int
}

// NewSimulator creates a simulator transport.
func NewSimulator(timings SimulatorTimings, b *bus.Bus, logger *zap.Logger) *Simulator {
	return &Simulator{timings: timings, bus: b, logger: logger}
}

// Connect starts the periodic emission cycle. Idempotent.
func (s *Simulator) Connect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	s.lifetime, s.cancel = context.WithCancel(context.Background())
	if s.logger != nil {
		s.logger.Info("simulator transport connected")
	}

	ctx := s.newCycleLocked()
	go s.cycle(ctx)
}

// Disconnect cancels the cycle and any pending timers immediately.
// Safe to call repeatedly or when never connected.
func (s *Simulator) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.stopCycle = nil
}

// Send interrupts the periodic cycle and schedules the echo reply.
// A send on a disconnected simulator is dropped, matching the
// best-effort contract.
func (s *Simulator) Send(text string) {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	if s.stopCycle != nil {
		s.stopCycle()
	}
	ctx := s.newCycleLocked()
	s.mu.Unlock()

	go s.reply(ctx, text)
}

// newCycleLocked derives a fresh cycle context from the transport
// lifetime; the previous cycle must already be cancelled.
func (s *Simulator) newCycleLocked() context.Context {
	ctx, cancel := context.WithCancel(s.lifetime)
	s.stopCycle = cancel
	return ctx
}

func (s *Simulator) cycle(ctx context.Context) {
	for {
		if !sleep(ctx, s.timings.IdlePeriod) {
			return
		}
		publishTyping(s.bus, true)
		if !sleep(ctx, s.timings.TypingTime) {
			return
		}
		publishTyping(s.bus, false)

		s.mu.Lock()
		s.counter++
		n := s.counter
		s.mu.Unlock()
		publishMessage(s.bus, fmt.Sprintf("Simulated message #%d", n))
	}
}

func (s *Simulator) reply(ctx context.Context, text string) {
	publishTyping(s.bus, true)
	if !sleep(ctx, s.timings.ReplyDelay) {
		return
	}
	publishTyping(s.bus, false)
	publishMessage(s.bus, "Received: "+text)

	// Back to the periodic cycle on the same cancellation handle.
	s.cycle(ctx)
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
