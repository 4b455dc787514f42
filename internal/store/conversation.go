package store

import (
	"database/sql"
	"time"
)

// EnsureConversation creates a conversation if absent. If it already
// exists with a different non-empty title, the title is updated; nothing
// else is touched.
func (db *DB) EnsureConversation(id, title string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO conversations (id, title, last_preview, updated_at, created_at)
		VALUES (?, ?, '', ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title
			WHERE excluded.title != '' AND conversations.title != excluded.title`,
		id, title, now, now)
	return err
}

// ListConversations returns all conversations sorted by most recent
// activity first.
func (db *DB) ListConversations() ([]Conversation, error) {
	rows, err := db.Query(`
		SELECT id, title, last_preview, updated_at
		FROM conversations
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.LastPreview, &c.UpdatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// GetConversation returns a single conversation by id, or nil if absent.
func (db *DB) GetConversation(id string) (*Conversation, error) {
	var c Conversation
	err := db.QueryRow(`
		SELECT id, title, last_preview, updated_at
		FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &c.Title, &c.LastPreview, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteConversation removes a conversation; its messages go with it via
// the cascade.
func (db *DB) DeleteConversation(id string) error {
	_, err := db.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	return err
}
