package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meetgrid/backend/internal/domain"
)

const requestColumns = `id, sender_id, receiver_id, message, status, created_at, responded_at`

// GetRequestByID retrieves a connection request by id.
func (r *PostgresRepository) GetRequestByID(ctx context.Context, id uuid.UUID) (*domain.ConnectionRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM connection_requests WHERE id = $1`
	return scanRequest(r.db.QueryRow(ctx, query, id))
}

// HasActiveRequest reports whether a pending or accepted request exists
// between the pair, in either direction.
func (r *PostgresRepository) HasActiveRequest(ctx context.Context, a, b uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM connection_requests
			WHERE status IN ('pending', 'accepted')
			  AND ((sender_id = $1 AND receiver_id = $2)
			    OR (sender_id = $2 AND receiver_id = $1))
		)
	`
	var exists bool
	err := r.db.QueryRow(ctx, query, a, b).Scan(&exists)
	return exists, err
}

// HasAcceptedConnection reports whether the pair holds an accepted
// request in either direction.
func (r *PostgresRepository) HasAcceptedConnection(ctx context.Context, a, b uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM connection_requests
			WHERE status = 'accepted'
			  AND ((sender_id = $1 AND receiver_id = $2)
			    OR (sender_id = $2 AND receiver_id = $1))
		)
	`
	var exists bool
	err := r.db.QueryRow(ctx, query, a, b).Scan(&exists)
	return exists, err
}

// CreateRequest inserts a pending request. The partial unique index on
// the active pair backs up the service-level duplicate check, so a
// racing duplicate surfaces as ErrDuplicateRequest here too.
func (r *PostgresRepository) CreateRequest(ctx context.Context, senderID, receiverID uuid.UUID, message string) (*domain.ConnectionRequest, error) {
	query := `
		INSERT INTO connection_requests (id, sender_id, receiver_id, message)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + requestColumns

	req, err := scanRequest(r.db.QueryRow(ctx, query, uuid.New(), senderID, receiverID, message))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateRequest
		}
		return nil, err
	}
	return req, nil
}

// AcceptRequest performs the pending->accepted transition and
// conversation creation in one transaction. The UPDATE's status guard
// is the check-and-set: a losing racer matches zero rows and observes
// ErrInvalidTransition. The conversation insert is idempotent per
// normalized pair.
func (r *PostgresRepository) AcceptRequest(ctx context.Context, id uuid.UUID) (*domain.ConnectionRequest, *domain.Conversation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	req, err := transitionRequest(ctx, tx, id, domain.RequestAccepted)
	if err != nil {
		return nil, nil, err
	}

	user1, user2 := domain.NormalizePair(req.SenderID, req.ReceiverID)
	if _, err := tx.Exec(ctx, `
		INSERT INTO conversations (id, user1_id, user2_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user1_id, user2_id) DO NOTHING
	`, uuid.New(), user1, user2); err != nil {
		return nil, nil, err
	}

	conv, err := scanConversation(tx.QueryRow(ctx, `
		SELECT id, user1_id, user2_id, created_at, last_message_at, is_active
		FROM conversations WHERE user1_id = $1 AND user2_id = $2
	`, user1, user2))
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return req, conv, nil
}

// RejectRequest performs the pending->rejected transition.
func (r *PostgresRepository) RejectRequest(ctx context.Context, id uuid.UUID) (*domain.ConnectionRequest, error) {
	return transitionRequest(ctx, r.db, id, domain.RequestRejected)
}

func transitionRequest(ctx context.Context, q querier, id uuid.UUID, to domain.RequestStatus) (*domain.ConnectionRequest, error) {
	query := `
		UPDATE connection_requests
		SET status = $2, responded_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + requestColumns

	req, err := scanRequest(q.QueryRow(ctx, query, id, to))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Zero rows here means the request left pending already;
			// existence was checked by the caller.
			return nil, domain.ErrInvalidTransition
		}
		return nil, err
	}
	return req, nil
}

// BlockRequest moves a request to blocked from any state.
func (r *PostgresRepository) BlockRequest(ctx context.Context, id uuid.UUID) (*domain.ConnectionRequest, error) {
	query := `
		UPDATE connection_requests
		SET status = 'blocked', responded_at = COALESCE(responded_at, NOW())
		WHERE id = $1
		RETURNING ` + requestColumns
	return scanRequest(r.db.QueryRow(ctx, query, id))
}

const requestDetailQuery = `
	SELECT r.id, r.sender_id, r.receiver_id, r.message, r.status,
	       r.created_at, r.responded_at,
	       s.name, s.email, s.picture,
	       t.name, t.email, t.picture
	FROM connection_requests r
	JOIN users s ON s.id = r.sender_id
	JOIN users t ON t.id = r.receiver_id
`

// ListRequests returns the user's received or sent requests, newest
// first, annotated with both parties' identity.
func (r *PostgresRepository) ListRequests(ctx context.Context, userID uuid.UUID, box domain.RequestBox, page domain.Page) ([]*domain.ConnectionRequestDetail, int, error) {
	column := "r.receiver_id"
	if box == domain.BoxSent {
		column = "r.sender_id"
	}

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM connection_requests r WHERE `+column+` = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, requestDetailQuery+`
		WHERE `+column+` = $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	details, err := collectRequestDetails(rows)
	return details, total, err
}

// ListEstablished returns accepted requests touching the user, most
// recently responded first.
func (r *PostgresRepository) ListEstablished(ctx context.Context, userID uuid.UUID, page domain.Page) ([]*domain.ConnectionRequestDetail, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM connection_requests r
		WHERE r.status = 'accepted' AND (r.sender_id = $1 OR r.receiver_id = $1)
	`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, requestDetailQuery+`
		WHERE r.status = 'accepted' AND (r.sender_id = $1 OR r.receiver_id = $1)
		ORDER BY r.responded_at DESC
		LIMIT $2 OFFSET $3
	`, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	details, err := collectRequestDetails(rows)
	return details, total, err
}

func collectRequestDetails(rows pgx.Rows) ([]*domain.ConnectionRequestDetail, error) {
	var details []*domain.ConnectionRequestDetail
	for rows.Next() {
		var d domain.ConnectionRequestDetail
		err := rows.Scan(
			&d.ID,
			&d.SenderID,
			&d.ReceiverID,
			&d.Message,
			&d.Status,
			&d.CreatedAt,
			&d.RespondedAt,
			&d.SenderName,
			&d.SenderEmail,
			&d.SenderPicture,
			&d.ReceiverName,
			&d.ReceiverEmail,
			&d.ReceiverPicture,
		)
		if err != nil {
			return nil, err
		}
		details = append(details, &d)
	}
	return details, rows.Err()
}

func scanRequest(row pgx.Row) (*domain.ConnectionRequest, error) {
	var req domain.ConnectionRequest
	err := row.Scan(
		&req.ID,
		&req.SenderID,
		&req.ReceiverID,
		&req.Message,
		&req.Status,
		&req.CreatedAt,
		&req.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}
