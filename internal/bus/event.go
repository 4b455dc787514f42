package bus

import "time"

// Event kinds published by transports and the sync engine. Subscribers
// filter by namespace prefix, e.g. "transport." or "message.".
const (
	KindTransportMessage = "transport.message" // payload: string (raw inbound frame)
	KindTransportTyping  = "transport.typing"  // payload: bool
	KindTransportError   = "transport.error"   // payload: string

	KindMessageUpserted = "message.upserted" // payload: MessageRef
	KindMessageStatus   = "message.status"   // payload: MessageRef

	KindNotifyIncoming = "notify.incoming" // payload: MessageRef
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// MessageRef identifies a message within a conversation.
type MessageRef struct {
	ConversationID string
	MessageID      string
}
