package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/okravchenko/dialog/internal/status"
)

const previewLen = 100

// SaveMessage upserts a message keyed on its id and bumps the parent
// conversation's preview and updated_at, creating the conversation if
// it does not exist yet. The whole save is one transaction: the
// conversation summary can never disagree with the committed message.
func (db *DB) SaveMessage(m *Message) error {
	now := time.Now().UnixMilli()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO conversations (id, title, last_preview, updated_at, created_at)
		VALUES (?, '', '', ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		m.ConversationID, now, now); err != nil {
		return fmt.Errorf("ensure conversation: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO messages (id, conversation_id, text, outgoing, status, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			outgoing = excluded.outgoing,
			status = excluded.status,
			timestamp = excluded.timestamp`,
		m.ID, m.ConversationID, m.Text, m.Outgoing, string(m.Status), m.Timestamp, now); err != nil {
		return fmt.Errorf("upsert message: %w", err)
	}

	// The summary reflects the most recent write, not merely the most
	// recent distinct message.
	if _, err := tx.Exec(`
		UPDATE conversations SET last_preview = ?, updated_at = ? WHERE id = ?`,
		truncate(m.Text, previewLen), now, m.ConversationID); err != nil {
		return fmt.Errorf("update conversation summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// ListMessages returns all messages of a conversation ordered by
// timestamp, ties broken by insertion order. Unknown conversations yield
// an empty slice, not an error.
func (db *DB) ListMessages(conversationID string) ([]Message, error) {
	rows, err := db.Query(`
		SELECT id, conversation_id, text, outgoing, status, timestamp
		FROM messages
		WHERE conversation_id = ?
		ORDER BY timestamp ASC, rowid ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		var st string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Text, &m.Outgoing, &st, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Status = status.Status(st)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetMessage returns a single message by id, or nil if absent.
func (db *DB) GetMessage(id string) (*Message, error) {
	var m Message
	var st string
	err := db.QueryRow(`
		SELECT id, conversation_id, text, outgoing, status, timestamp
		FROM messages WHERE id = ?`, id).
		Scan(&m.ID, &m.ConversationID, &m.Text, &m.Outgoing, &st, &m.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Status = status.Status(st)
	return &m, nil
}

// UpdateStatus advances a message's delivery status. It is a no-op when
// the message does not exist or when the new status does not move the
// lifecycle forward; when it applies, the parent conversation's
// updated_at is bumped as well.
func (db *DB) UpdateStatus(messageID string, st status.Status) error {
	if !st.Valid() {
		return fmt.Errorf("unknown delivery status %q", st)
	}
	now := time.Now().UnixMilli()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		UPDATE messages SET status = ?
		WHERE id = ? AND (CASE status
			WHEN 'sending' THEN 0
			WHEN 'sent' THEN 1
			WHEN 'delivered' THEN 2
			WHEN 'read' THEN 3
			ELSE -1 END) < ?`,
		string(st), messageID, st.Rank())
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	advanced, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if advanced > 0 {
		if _, err := tx.Exec(`
			UPDATE conversations SET updated_at = ?
			WHERE id = (SELECT conversation_id FROM messages WHERE id = ?)`,
			now, messageID); err != nil {
			return fmt.Errorf("touch conversation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status: %w", err)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
