package db

import (
	"database/sql"
	"time"

	"github.com/vatspratapsingh/yapper-chat-app/internal/chat"
	"github.com/vatspratapsingh/yapper-chat-app/internal/models"
)

// SaveMessage persists a message already stamped with id and created_at by
// the realtime core.
func (db *DB) SaveMessage(m *models.Message) error {
	_, err := db.conn.Exec(
		`INSERT INTO messages (id, sender, receiver, content, message_type, reply_to, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.ReceiverID, m.Content, m.MessageType, m.ReplyTo,
		boolToInt(m.Read), m.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (db *DB) GetMessage(id string) (*models.Message, error) {
	row := db.conn.QueryRow(
		`SELECT id, sender, receiver, content, message_type, reply_to, read, created_at
		 FROM messages WHERE id = ?`, id,
	)
	return scanMessage(row)
}

func (db *DB) MarkMessageRead(id string) error {
	res, err := db.conn.Exec(`UPDATE messages SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Conversation returns the newest `limit` messages between two users in
// chronological order.
func (db *DB) Conversation(a, b string, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(
		`SELECT id, sender, receiver, content, message_type, reply_to, read, created_at
		 FROM (
			SELECT * FROM messages
			WHERE (sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)
			ORDER BY created_at DESC LIMIT ?
		 ) ORDER BY created_at ASC`,
		a, b, b, a, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var m models.Message
	var read int
	var createdAt string
	err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content,
		&m.MessageType, &m.ReplyTo, &read, &createdAt)
	if err == sql.ErrNoRows {
		return nil, chat.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.Read = read != 0
	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
