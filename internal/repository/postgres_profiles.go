package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meetgrid/backend/internal/domain"
)

const profileColumns = `
	p.id, p.user_id, p.job_title, p.company, p.bio, p.location,
	p.linkedin_url, p.age, p.years_experience, p.skills, p.interests,
	p.meeting_preferences, p.is_open_for_connection, p.contact_preferences,
	p.created_at, p.updated_at`

// CreateProfile inserts the user's profile.
func (r *PostgresRepository) CreateProfile(ctx context.Context, userID uuid.UUID, params domain.ProfileParams) (*domain.Profile, error) {
	id := uuid.New()
	if err := insertProfile(ctx, r.db, id, userID, params); err != nil {
		return nil, err
	}
	view, err := r.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &view.Profile, nil
}

func insertProfile(ctx context.Context, q querier, id, userID uuid.UUID, params domain.ProfileParams) error {
	query := `
		INSERT INTO profiles (
			id, user_id, job_title, company, bio, location, linkedin_url,
			age, years_experience, skills, interests, meeting_preferences,
			is_open_for_connection, contact_preferences
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := q.Exec(ctx, query,
		id,
		userID,
		params.JobTitle,
		params.Company,
		params.Bio,
		params.Location,
		params.LinkedinURL,
		params.Age,
		params.YearsExperience,
		stringSlice(params.Skills),
		stringSlice(params.Interests),
		stringSlice(params.MeetingPreferences),
		params.IsOpenForConnection,
		params.ContactPreferences,
	)
	return err
}

// GetProfileByUserID returns the profile annotated with the owner's
// identity. ErrNotFound doubles as the "onboarding incomplete" signal.
func (r *PostgresRepository) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*domain.ProfileView, error) {
	query := `
		SELECT ` + profileColumns + `, u.name, u.email, u.picture
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
	`
	return scanProfileView(r.db.QueryRow(ctx, query, userID))
}

// UpdateProfile applies a partial update; nil fields keep their value.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, update domain.ProfileUpdate) (*domain.Profile, error) {
	query := `
		UPDATE profiles SET
			job_title = COALESCE($2, job_title),
			company = COALESCE($3, company),
			bio = COALESCE($4, bio),
			location = COALESCE($5, location),
			linkedin_url = COALESCE($6, linkedin_url),
			age = COALESCE($7, age),
			years_experience = COALESCE($8, years_experience),
			skills = COALESCE($9, skills),
			interests = COALESCE($10, interests),
			meeting_preferences = COALESCE($11, meeting_preferences),
			is_open_for_connection = COALESCE($12, is_open_for_connection),
			contact_preferences = COALESCE($13, contact_preferences),
			updated_at = NOW()
		WHERE user_id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		userID,
		update.JobTitle,
		update.Company,
		update.Bio,
		update.Location,
		update.LinkedinURL,
		update.Age,
		update.YearsExperience,
		optionalSlice(update.Skills),
		optionalSlice(update.Interests),
		optionalSlice(update.MeetingPreferences),
		update.IsOpenForConnection,
		update.ContactPreferences,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}

	view, err := r.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &view.Profile, nil
}

// BrowseProfiles lists open-for-connection profiles matching the
// filter. The viewer and anyone with an active request involving the
// viewer are excluded at query level, keeping the uniqueness invariant
// and the browse view consistent.
func (r *PostgresRepository) BrowseProfiles(ctx context.Context, viewerID uuid.UUID, filter domain.BrowseFilter) ([]*domain.ProfileView, int, error) {
	where := `
		p.is_open_for_connection
		AND p.user_id <> $1
		AND u.is_active
		AND NOT EXISTS (
			SELECT 1 FROM connection_requests cr
			WHERE cr.status IN ('pending', 'accepted')
			  AND ((cr.sender_id = $1 AND cr.receiver_id = p.user_id)
			    OR (cr.sender_id = p.user_id AND cr.receiver_id = $1))
		)
	`
	args := []any{viewerID}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where += fmt.Sprintf(`
			AND (p.job_title ILIKE $%d OR p.company ILIKE $%d OR p.bio ILIKE $%d
			  OR array_to_string(p.skills, ' ') ILIKE $%d
			  OR array_to_string(p.interests, ' ') ILIKE $%d)`, n, n, n, n, n)
	}
	if filter.Location != "" {
		args = append(args, "%"+filter.Location+"%")
		where += fmt.Sprintf(` AND p.location ILIKE $%d`, len(args))
	}
	if filter.Company != "" {
		args = append(args, "%"+filter.Company+"%")
		where += fmt.Sprintf(` AND p.company ILIKE $%d`, len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM profiles p JOIN users u ON u.id = p.user_id WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s, u.name, u.email, u.picture
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE %s
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d
	`, profileColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var profiles []*domain.ProfileView
	for rows.Next() {
		view, err := scanProfileView(rows)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, view)
	}
	return profiles, total, rows.Err()
}

func scanProfileView(row pgx.Row) (*domain.ProfileView, error) {
	var view domain.ProfileView
	err := row.Scan(
		&view.ID,
		&view.UserID,
		&view.JobTitle,
		&view.Company,
		&view.Bio,
		&view.Location,
		&view.LinkedinURL,
		&view.Age,
		&view.YearsExperience,
		&view.Skills,
		&view.Interests,
		&view.MeetingPreferences,
		&view.IsOpenForConnection,
		&view.ContactPreferences,
		&view.CreatedAt,
		&view.UpdatedAt,
		&view.UserName,
		&view.UserEmail,
		&view.UserPicture,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &view, nil
}

// stringSlice keeps empty sets stored as empty arrays, not NULL.
func stringSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func optionalSlice(s *[]string) *[]string {
	if s == nil {
		return nil
	}
	v := stringSlice(*s)
	return &v
}
