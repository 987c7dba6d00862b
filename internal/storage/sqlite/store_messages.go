package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/linkup/internal/storage"
)

const messageColumns = `id, sender_id, recipient_id, body, sent_at, is_read`

// CreateMessage inserts one direct message and returns it with its assigned id.
func (s *Store) CreateMessage(ctx context.Context, senderID, recipientID int64, text string) (storage.Message, error) {
	if err := ctx.Err(); err != nil {
		return storage.Message{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Message{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(text) == "" {
		return storage.Message{}, fmt.Errorf("message text is required")
	}

	sentAt := time.Now().UTC()
	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO messages (sender_id, recipient_id, body, sent_at, is_read)
		 VALUES (?, ?, ?, ?, 0)`,
		senderID,
		recipientID,
		text,
		toMillis(sentAt),
	)
	if err != nil {
		return storage.Message{}, fmt.Errorf("create message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return storage.Message{}, fmt.Errorf("read message id: %w", err)
	}
	return storage.Message{
		ID:          id,
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        text,
		SentAt:      sentAt,
	}, nil
}

// MessagesBetween returns the most recent messages exchanged between two
// users, oldest first.
func (s *Store) MessagesBetween(ctx context.Context, userID, friendID int64, limit int) ([]storage.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)
		 ORDER BY sent_at DESC, id DESC
		 LIMIT ?`,
		userID, friendID, friendID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var newestFirst []storage.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		newestFirst = append(newestFirst, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	messages := make([]storage.Message, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		messages = append(messages, newestFirst[i])
	}
	return messages, nil
}

// LastMessageBetween returns the newest message exchanged between two users.
func (s *Store) LastMessageBetween(ctx context.Context, userID, friendID int64) (storage.Message, error) {
	if err := ctx.Err(); err != nil {
		return storage.Message{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Message{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)
		 ORDER BY sent_at DESC, id DESC
		 LIMIT 1`,
		userID, friendID, friendID, userID,
	)
	return scanMessage(row)
}

// UnreadCount returns how many messages from one user to another are unread.
func (s *Store) UnreadCount(ctx context.Context, fromUserID, toUserID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	var count int
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM messages
		 WHERE sender_id = ? AND recipient_id = ? AND is_read = 0`,
		fromUserID, toUserID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// MarkRead flips every unread message from one user to another and reports
// how many rows changed.
func (s *Store) MarkRead(ctx context.Context, fromUserID, toUserID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE messages SET is_read = 1
		 WHERE sender_id = ? AND recipient_id = ? AND is_read = 0`,
		fromUserID, toUserID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark read rows: %w", err)
	}
	return int(affected), nil
}

func scanMessage(row rowScanner) (storage.Message, error) {
	var msg storage.Message
	var sentAt int64
	var read int
	err := row.Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Text, &sentAt, &read)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Message{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Message{}, fmt.Errorf("scan message: %w", err)
	}
	msg.SentAt = fromMillis(sentAt)
	msg.IsRead = read != 0
	return msg, nil
}
