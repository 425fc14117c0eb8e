package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meetgrid/backend/internal/domain"
)

// GetConversationByID retrieves a conversation by id.
func (r *PostgresRepository) GetConversationByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, user1_id, user2_id, created_at, last_message_at, is_active
		FROM conversations WHERE id = $1
	`
	return scanConversation(r.db.QueryRow(ctx, query, id))
}

// ListConversations returns the user's conversations annotated with the
// other participant, the latest message preview and the viewer's
// unread count, most recent activity first.
func (r *PostgresRepository) ListConversations(ctx context.Context, userID uuid.UUID, page domain.Page) ([]*domain.ConversationSummary, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM conversations
		WHERE is_active AND (user1_id = $1 OR user2_id = $1)
	`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT c.id, c.user1_id, c.user2_id, c.created_at, c.last_message_at, c.is_active,
		       u.id, u.name, u.email, u.picture,
		       last.content,
		       COALESCE(unread.count, 0)
		FROM conversations c
		JOIN users u ON u.id = CASE WHEN c.user1_id = $1 THEN c.user2_id ELSE c.user1_id END
		LEFT JOIN LATERAL (
			SELECT m.content
			FROM messages m
			WHERE m.conversation_id = c.id
			ORDER BY m.created_at DESC
			LIMIT 1
		) last ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS count
			FROM messages m
			WHERE m.conversation_id = c.id
			  AND m.sender_id <> $1
			  AND NOT m.is_read
		) unread ON TRUE
		WHERE c.is_active AND (c.user1_id = $1 OR c.user2_id = $1)
		ORDER BY COALESCE(c.last_message_at, c.created_at) DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []*domain.ConversationSummary
	for rows.Next() {
		var s domain.ConversationSummary
		err := rows.Scan(
			&s.ID,
			&s.User1ID,
			&s.User2ID,
			&s.CreatedAt,
			&s.LastMessageAt,
			&s.IsActive,
			&s.OtherUserID,
			&s.OtherUserName,
			&s.OtherUserEmail,
			&s.OtherUserPicture,
			&s.LastMessage,
			&s.UnreadCount,
		)
		if err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, &s)
	}
	return summaries, total, rows.Err()
}

// ListMessages returns a conversation's messages ascending by time.
func (r *PostgresRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, page domain.Page) ([]*domain.Message, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, conversationID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, sender_id, content, created_at, is_read
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, conversationID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var m domain.Message
		err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.CreatedAt, &m.IsRead)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, &m)
	}
	return messages, total, rows.Err()
}

// MarkMessagesRead marks everything the other participant sent as read.
// Idempotent.
func (r *PostgresRepository) MarkMessagesRead(ctx context.Context, conversationID, viewerID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND NOT is_read
	`, conversationID, viewerID)
	return err
}

// CreateMessage appends a message and bumps the conversation's
// last_message_at in one transaction.
func (r *PostgresRepository) CreateMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var msg domain.Message
	err = tx.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, conversation_id, sender_id, content, created_at, is_read
	`, uuid.New(), conversationID, senderID, content).Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.CreatedAt, &msg.IsRead,
	)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE conversations SET last_message_at = $2 WHERE id = $1`,
		conversationID, msg.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &msg, nil
}

func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := row.Scan(
		&conv.ID,
		&conv.User1ID,
		&conv.User2ID,
		&conv.CreatedAt,
		&conv.LastMessageAt,
		&conv.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}
