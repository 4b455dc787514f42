package notify

import (
	"time"

	"github.com/okravchenko/dialog/internal/bus"
	"github.com/okravchenko/dialog/internal/store"
	"go.uber.org/zap"
)

// Notifier is the notification-scheduling boundary. The engine invokes
// it at most once per distinct incoming message, after the message is
// durably persisted. What happens next (system notification, badge,
// nothing) is not the engine's concern.
type Notifier interface {
	Notify(m store.Message)
}

// BusNotifier republishes incoming messages on the bus for whatever
// presentation shell is attached.
type BusNotifier struct {
	bus    *bus.Bus
	logger *zap.Logger
}

// NewBusNotifier creates a bus-backed notifier.
func NewBusNotifier(b *bus.Bus, logger *zap.Logger) *BusNotifier {
	return &BusNotifier{bus: b, logger: logger}
}

func (n *BusNotifier) Notify(m store.Message) {
	if n.logger != nil {
		n.logger.Debug("incoming message notification",
			zap.String("conversation_id", m.ConversationID),
			zap.String("message_id", m.ID))
	}
	n.bus.Publish(bus.Event{
		Kind:      bus.KindNotifyIncoming,
		Timestamp: time.Now(),
		Payload:   bus.MessageRef{ConversationID: m.ConversationID, MessageID: m.ID},
	})
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) Notify(store.Message) {}
