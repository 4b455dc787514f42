package store

import "github.com/okravchenko/dialog/internal/status"

// Conversation represents a cached conversation summary.
type Conversation struct {
	ID          string
	Title       string
	LastPreview string
	UpdatedAt   int64 // unix ms
}

// Message represents a cached chat message.
type Message struct {
	ID             string
	ConversationID string
	Text           string
	Outgoing       bool
	Status         status.Status
	Timestamp      int64 // unix ms
}

// SearchResult holds a message with a search snippet.
type SearchResult struct {
	Message Message
	Snippet string
}
