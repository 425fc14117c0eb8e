package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetgrid/backend/internal/domain"
)

// querier is the slice of pgx shared by pools and transactions, so
// statement helpers run in either.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implements the domain repositories using
// PostgreSQL. One struct backs all of them, as they share the pool and
// the accept transaction spans requests and conversations.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, name, picture, onboarding_completed, is_active, created_at`

// CreateUser creates a new user with onboarding incomplete.
func (r *PostgresRepository) CreateUser(ctx context.Context, params domain.CreateUserParams) (*domain.User, error) {
	query := `
		INSERT INTO users (id, email, name, picture)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	row := r.db.QueryRow(ctx, query, uuid.New(), params.Email, params.Name, params.Picture)
	return scanUser(row)
}

// GetUserByID retrieves a user by id.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetUserByEmail retrieves a user by email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// CompleteOnboarding creates the profile (when given) and flips the
// onboarding flag in a single transaction, so a failed flag write never
// leaves a completed-looking profile behind.
func (r *PostgresRepository) CompleteOnboarding(ctx context.Context, userID uuid.UUID, name string, profile *domain.ProfileParams) (*domain.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if profile != nil {
		if err := insertProfile(ctx, tx, uuid.New(), userID, *profile); err != nil {
			return nil, err
		}
	}

	query := `
		UPDATE users
		SET onboarding_completed = TRUE,
		    name = COALESCE(NULLIF($2, ''), name)
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(tx.QueryRow(ctx, query, userID, name))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateSession deactivates the user's prior sessions and inserts the
// new one.
func (r *PostgresRepository) CreateSession(ctx context.Context, params domain.CreateSessionParams) (*domain.Session, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE sessions SET is_active = FALSE WHERE user_id = $1`, params.UserID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO sessions (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, token_hash, is_active, created_at, expires_at
	`
	session, err := scanSession(tx.QueryRow(ctx, query, params.ID, params.UserID, params.TokenHash, params.ExpiresAt))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// GetSessionByID retrieves a session by id.
func (r *PostgresRepository) GetSessionByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	query := `
		SELECT id, user_id, token_hash, is_active, created_at, expires_at
		FROM sessions WHERE id = $1
	`
	return scanSession(r.db.QueryRow(ctx, query, id))
}

// DeactivateSession deactivates a session.
func (r *PostgresRepository) DeactivateSession(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE sessions SET is_active = FALSE WHERE id = $1`, id)
	return err
}

// CleanupExpiredSessions deactivates expired sessions and prunes rows
// that have been inactive for a week.
func (r *PostgresRepository) CleanupExpiredSessions(ctx context.Context) error {
	queries := []string{
		`UPDATE sessions SET is_active = FALSE WHERE expires_at < NOW()`,
		`DELETE FROM sessions WHERE NOT is_active AND expires_at < NOW() - INTERVAL '7 days'`,
	}
	for _, query := range queries {
		if _, err := r.db.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a unique constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Helper functions for scanning rows.

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Picture,
		&user.OnboardingCompleted,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var session domain.Session
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.IsActive,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}
