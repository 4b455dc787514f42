// Package sync contains the per-conversation orchestrator tying the
// transport, the persistent cache and the delivery policy together.
package sync

import (
	"context"
	"strings"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/okravchenko/dialog/internal/analytics"
	"github.com/okravchenko/dialog/internal/bus"
	"github.com/okravchenko/dialog/internal/notify"
	"github.com/okravchenko/dialog/internal/status"
	"github.com/okravchenko/dialog/internal/store"
	"github.com/okravchenko/dialog/internal/transport"
	"go.uber.org/zap"
)

// Params holds the collaborators an Engine is constructed with. All
// dependencies are explicit; there are no package-level singletons.
type Params struct {
	ConversationID string
	Title          string
	DB             *store.DB
	Transport      transport.Transport
	Policy         status.DeliveryPolicy
	Notifier       notify.Notifier
	Tracker        analytics.Tracker
	Bus            *bus.Bus
	Logger         *zap.Logger
}

// Engine owns one conversation: it ingests transport events, persists
// them, advances outgoing delivery statuses, and maintains an ordered
// in-memory projection of the conversation that is always re-derivable
// from the cache. A single consumption loop serializes transport
// events; the engine mutex is the per-conversation serialization point
// for every projection mutation.
type Engine struct {
	conversationID string
	title          string

	db        *store.DB
	transport transport.Transport
	policy    status.DeliveryPolicy
	notifier  notify.Notifier
	tracker   analytics.Tracker
	bus       *bus.Bus
	logger    *zap.Logger

	// lifetime spans New to Stop; the consumption loop and pending
	// delivery advances hang off it.
	lifetime context.Context
	cancel   context.CancelFunc

	mu         gosync.Mutex
	projection []store.Message
	seen       map[string]bool
	typing     bool
	started    bool
}

// NewEngine creates the orchestrator for one conversation and seeds the
// projection from the cache. The cache is authoritative at startup: a
// failed load degrades to an empty projection and a storage_error event,
// never an error to the caller.
func NewEngine(p Params) *Engine {
	if p.Tracker == nil {
		p.Tracker = analytics.Nop{}
	}
	if p.Notifier == nil {
		p.Notifier = notify.Nop{}
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Policy == nil {
		p.Policy = status.FixedDelayPolicy{
			SentAfter:      600 * time.Millisecond,
			DeliveredAfter: 600 * time.Millisecond,
			ReadAfter:      800 * time.Millisecond,
		}
	}

	lifetime, cancel := context.WithCancel(context.Background())
	e := &Engine{
		conversationID: p.ConversationID,
		title:          p.Title,
		db:             p.DB,
		transport:      p.Transport,
		policy:         p.Policy,
		notifier:       p.Notifier,
		tracker:        p.Tracker,
		bus:            p.Bus,
		logger:         p.Logger,
		lifetime:       lifetime,
		cancel:         cancel,
		seen:           make(map[string]bool),
	}

	if err := e.db.EnsureConversation(e.conversationID, e.title); err != nil {
		e.logger.Error("ensure conversation failed", zap.Error(err), zap.String("conversation_id", e.conversationID))
		e.tracker.StorageError(err.Error())
	}

	msgs, err := e.db.ListMessages(e.conversationID)
	if err != nil {
		e.logger.Error("load messages failed", zap.Error(err), zap.String("conversation_id", e.conversationID))
		e.tracker.StorageError(err.Error())
		msgs = nil
	}
	e.projection = msgs
	for _, m := range msgs {
		e.seen[m.ID] = true
	}

	e.tracker.ChatOpened(e.conversationID)
	return e
}

// Start begins consuming transport events and connects the transport.
// Idempotent.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.started || e.lifetime.Err() != nil {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	// Subscribe before connecting so no event slips past the loop.
	ch, unsub := e.bus.Subscribe("transport.", 256)
	go func() {
		defer unsub()
		e.loop(ch)
	}()

	e.transport.Connect()
}

// Stop disconnects the transport and cancels the consumption loop and
// any pending delivery advances. Safe to call repeatedly; the owner
// must call it on every exit path so the transport never outlives the
// engine.
func (e *Engine) Stop() {
	e.cancel()
	e.transport.Disconnect()
}

// Send authors an outgoing message: appended to the projection as
// Sending, persisted, scheduled for delivery advancement, and handed to
// the transport. Whitespace-only text is rejected without side effects.
// Send never blocks on the network and never fails the caller.
func (e *Engine) Send(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	m := store.Message{
		ID:             uuid.New().String(),
		ConversationID: e.conversationID,
		Text:           trimmed,
		Outgoing:       true,
		Status:         status.Sending,
		Timestamp:      time.Now().UnixMilli(),
	}

	e.mu.Lock()
	e.projection = append(e.projection, m)
	e.seen[m.ID] = true
	e.mu.Unlock()

	// Optimistic: the projection keeps the message even if the durable
	// write fails.
	e.persist(&m)
	e.tracker.MessageSent(e.conversationID, m.ID)
	e.publishRef(bus.KindMessageUpserted, m.ID)

	e.policy.Advance(e.lifetime, m.ID, e.applyStatus)
	e.transport.Send(trimmed)
}

// Messages returns a snapshot of the ordered projection.
func (e *Engine) Messages() []store.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]store.Message, len(e.projection))
	copy(out, e.projection)
	return out
}

// Typing reports whether the peer is currently typing.
func (e *Engine) Typing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.typing
}

// ConversationID returns the id of the owned conversation.
func (e *Engine) ConversationID() string {
	return e.conversationID
}

func (e *Engine) loop(ch <-chan bus.Event) {
	for {
		select {
		case evt := <-ch:
			e.handleEvent(evt)
		case <-e.lifetime.Done():
			return
		}
	}
}

func (e *Engine) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindTransportMessage:
		text, ok := evt.Payload.(string)
		if !ok {
			return
		}
		e.handleInbound(text)
	case bus.KindTransportTyping:
		typing, ok := evt.Payload.(bool)
		if !ok {
			return
		}
		e.mu.Lock()
		e.typing = typing
		e.mu.Unlock()
	case bus.KindTransportError:
		desc, ok := evt.Payload.(string)
		if !ok {
			return
		}
		// Best-effort signal, not a pipeline failure: no message state
		// changes, nothing user-facing.
		e.logger.Warn("transport error", zap.String("description", desc))
		e.tracker.NetworkError(desc)
	}
}

// handleInbound ingests one inbound frame as a Delivered incoming
// message. The wire carries no identity, so the engine mints one; the
// id dedupe still guards the projection and the notifier against a
// future id-bearing wire format.
func (e *Engine) handleInbound(text string) {
	m := store.Message{
		ID:             uuid.New().String(),
		ConversationID: e.conversationID,
		Text:           text,
		Outgoing:       false,
		Status:         status.Delivered,
		Timestamp:      time.Now().UnixMilli(),
	}

	e.mu.Lock()
	if e.seen[m.ID] {
		e.mu.Unlock()
		return
	}
	e.projection = append(e.projection, m)
	e.seen[m.ID] = true
	e.mu.Unlock()

	persisted := e.persist(&m)
	e.tracker.MessageReceived(e.conversationID, m.ID)
	e.publishRef(bus.KindMessageUpserted, m.ID)

	// The notifier contract promises a durably persisted message.
	if persisted {
		e.notifier.Notify(m)
	}
}

// applyStatus is the delivery policy callback. Forward-only: a stage
// that does not advance the projection entry is dropped entirely, so a
// status can never be visible before its message or move backwards.
func (e *Engine) applyStatus(messageID string, st status.Status) {
	e.mu.Lock()
	advanced := false
	for i := range e.projection {
		if e.projection[i].ID != messageID {
			continue
		}
		if e.projection[i].Status.Before(st) {
			e.projection[i].Status = st
			advanced = true
		}
		break
	}
	e.mu.Unlock()

	if !advanced {
		return
	}

	if err := e.db.UpdateStatus(messageID, st); err != nil {
		e.logger.Error("status update failed", zap.Error(err), zap.String("message_id", messageID))
		e.tracker.StorageError(err.Error())
	}
	e.publishRef(bus.KindMessageStatus, messageID)
}

func (e *Engine) persist(m *store.Message) bool {
	if err := e.db.SaveMessage(m); err != nil {
		e.logger.Error("save message failed", zap.Error(err), zap.String("message_id", m.ID))
		e.tracker.StorageError(err.Error())
		return false
	}
	return true
}

func (e *Engine) publishRef(kind, messageID string) {
	e.bus.Publish(bus.Event{
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   bus.MessageRef{ConversationID: e.conversationID, MessageID: messageID},
	})
}
