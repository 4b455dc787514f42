package analytics

import "go.uber.org/zap"

// Tracker receives discrete named engine events. Implementations are
// fire-and-forget: they must never influence engine control flow or
// propagate errors back into it.
type Tracker interface {
	ChatOpened(conversationID string)
	MessageSent(conversationID, messageID string)
	MessageReceived(conversationID, messageID string)
	NetworkError(description string)
	StorageError(description string)
}

// ZapTracker writes analytics events as structured log records.
type ZapTracker struct {
	logger *zap.Logger
}

// NewZapTracker creates a tracker backed by the given logger.
func NewZapTracker(logger *zap.Logger) *ZapTracker {
	return &ZapTracker{logger: logger.Named("analytics")}
}

func (t *ZapTracker) ChatOpened(conversationID string) {
	t.logger.Info("chat_opened", zap.String("conversation_id", conversationID))
}

func (t *ZapTracker) MessageSent(conversationID, messageID string) {
	t.logger.Info("message_sent",
		zap.String("conversation_id", conversationID),
		zap.String("message_id", messageID))
}

func (t *ZapTracker) MessageReceived(conversationID, messageID string) {
	t.logger.Info("message_received",
		zap.String("conversation_id", conversationID),
		zap.String("message_id", messageID))
}

func (t *ZapTracker) NetworkError(description string) {
	t.logger.Warn("network_error", zap.String("description", description))
}

func (t *ZapTracker) StorageError(description string) {
	t.logger.Warn("storage_error", zap.String("description", description))
}

// Nop discards all events.
type Nop struct{}

func (Nop) ChatOpened(string)          {}
func (Nop) MessageSent(string, string) {}
func (Nop) MessageReceived(string, string) {
}
func (Nop) NetworkError(string) {}
func (Nop) StorageError(string) {}
