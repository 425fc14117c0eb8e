package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is an account created on first OAuth session exchange. Users are
// deactivated, never hard-deleted.
type User struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	Name                string    `json:"name"`
	Picture             *string   `json:"picture,omitempty"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
}

// Session is a server-side session record. The cookie token carries the
// session id; the stored hash pins the exact token it was minted with.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"-"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Profile is 1:1 with User. A user without a profile row is treated as
// onboarding-incomplete everywhere.
type Profile struct {
	ID                  uuid.UUID `json:"id"`
	UserID              uuid.UUID `json:"user_id"`
	JobTitle            *string   `json:"job_title,omitempty"`
	Company             *string   `json:"company,omitempty"`
	Bio                 *string   `json:"bio,omitempty"`
	Location            *string   `json:"location,omitempty"`
	LinkedinURL         *string   `json:"linkedin_url,omitempty"`
	Age                 *int      `json:"age,omitempty"`
	YearsExperience     *int      `json:"years_experience,omitempty"`
	Skills              []string  `json:"skills"`
	Interests           []string  `json:"interests"`
	MeetingPreferences  []string  `json:"meeting_preferences"`
	IsOpenForConnection bool      `json:"is_open_for_connection"`
	ContactPreferences  *string   `json:"contact_preferences,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ProfileView is a profile annotated with the owning user's public
// identity, for browse results and profile lookups.
type ProfileView struct {
	Profile
	UserName    string  `json:"user_name"`
	UserEmail   string  `json:"user_email"`
	UserPicture *string `json:"user_picture,omitempty"`
}

// CreateUserParams holds parameters for user creation.
type CreateUserParams struct {
	Email   string
	Name    string
	Picture *string
}

// CreateSessionParams holds parameters for session creation.
type CreateSessionParams struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
}

// ProfileParams carries the full set of profile fields for creation.
type ProfileParams struct {
	JobTitle            *string  `json:"job_title,omitempty"`
	Company             *string  `json:"company,omitempty"`
	Bio                 *string  `json:"bio,omitempty"`
	Location            *string  `json:"location,omitempty"`
	LinkedinURL         *string  `json:"linkedin_url,omitempty"`
	Age                 *int     `json:"age,omitempty"`
	YearsExperience     *int     `json:"years_experience,omitempty"`
	Skills              []string `json:"skills"`
	Interests           []string `json:"interests"`
	MeetingPreferences  []string `json:"meeting_preferences"`
	IsOpenForConnection bool     `json:"is_open_for_connection"`
	ContactPreferences  *string  `json:"contact_preferences,omitempty"`
}

// ProfileUpdate carries a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	JobTitle            *string   `json:"job_title,omitempty"`
	Company             *string   `json:"company,omitempty"`
	Bio                 *string   `json:"bio,omitempty"`
	Location            *string   `json:"location,omitempty"`
	LinkedinURL         *string   `json:"linkedin_url,omitempty"`
	Age                 *int      `json:"age,omitempty"`
	YearsExperience     *int      `json:"years_experience,omitempty"`
	Skills              *[]string `json:"skills,omitempty"`
	Interests           *[]string `json:"interests,omitempty"`
	MeetingPreferences  *[]string `json:"meeting_preferences,omitempty"`
	IsOpenForConnection *bool     `json:"is_open_for_connection,omitempty"`
	ContactPreferences  *string   `json:"contact_preferences,omitempty"`
}

// BrowseFilter narrows browse results. Search matches job title,
// company, bio, skills and interests case-insensitively.
type BrowseFilter struct {
	Search   string
	Location string
	Company  string
	Limit    int
	Offset   int
}

// AuthRepository defines data access for users and sessions.
type AuthRepository interface {
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// CompleteOnboarding creates the profile (when params is non-nil and
	// none exists) and sets onboarding_completed in one transaction.
	// On failure the user stays onboarding-incomplete.
	CompleteOnboarding(ctx context.Context, userID uuid.UUID, name string, profile *ProfileParams) (*User, error)

	// CreateSession deactivates the user's prior sessions and inserts
	// the new one.
	CreateSession(ctx context.Context, params CreateSessionParams) (*Session, error)
	GetSessionByID(ctx context.Context, id uuid.UUID) (*Session, error)
	DeactivateSession(ctx context.Context, id uuid.UUID) error
	CleanupExpiredSessions(ctx context.Context) error
}

// ProfileRepository defines data access for profiles.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, userID uuid.UUID, params ProfileParams) (*Profile, error)
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*ProfileView, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*Profile, error)

	// BrowseProfiles returns open-for-connection profiles excluding the
	// viewer and anyone with an active request involving the viewer.
	BrowseProfiles(ctx context.Context, viewerID uuid.UUID, filter BrowseFilter) ([]*ProfileView, int, error)
}
