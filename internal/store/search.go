package store

import "github.com/okravchenko/dialog/internal/status"

// SearchMessages performs a full-text search over message bodies.
// conversationID may be empty to search across all conversations.
func (db *DB) SearchMessages(query, conversationID string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT m.id, m.conversation_id, m.text, m.outgoing, m.status, m.timestamp,
			snippet(messages_fts, 0, '[', ']', '…', 8)
		FROM messages_fts
		JOIN messages m ON m.rowid = messages_fts.rowid
		WHERE messages_fts MATCH ?
			AND (? = '' OR m.conversation_id = ?)
		ORDER BY rank
		LIMIT ?`, query, conversationID, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var st string
		if err := rows.Scan(&r.Message.ID, &r.Message.ConversationID, &r.Message.Text,
			&r.Message.Outgoing, &st, &r.Message.Timestamp, &r.Snippet); err != nil {
			return nil, err
		}
		r.Message.Status = status.Status(st)
		results = append(results, r)
	}
	return results, rows.Err()
}
