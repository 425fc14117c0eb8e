package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meetgrid/backend/internal/auth"
	"github.com/meetgrid/backend/pkg/validator"
)

// AuthService resolves sessions, exchanges one-time provider tokens for
// persistent sessions and drives onboarding completion.
type AuthService struct {
	repo     AuthRepository
	profiles ProfileRepository
	tokens   *auth.TokenManager
	provider auth.IdentityProvider
	google   *auth.GoogleVerifier
}

func NewAuthService(repo AuthRepository, profiles ProfileRepository, tokens *auth.TokenManager, provider auth.IdentityProvider, google *auth.GoogleVerifier) *AuthService {
	return &AuthService{
		repo:     repo,
		profiles: profiles,
		tokens:   tokens,
		provider: provider,
		google:   google,
	}
}

// SessionResult is returned by the login paths: the resolved user plus
// the cookie token for the freshly created session.
type SessionResult struct {
	User      *User     `json:"user"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	IsNewUser bool      `json:"is_new_user"`
}

// ExchangeSession trades a one-time session id from the provider
// redirect for a persistent session. An unknown email creates the user
// with onboarding incomplete; failure leaves no local state behind.
func (s *AuthService) ExchangeSession(ctx context.Context, oneTimeID string) (*SessionResult, error) {
	if oneTimeID == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrAuthRequired)
	}

	data, err := s.provider.FetchSessionData(ctx, oneTimeID)
	if err != nil {
		if errors.Is(err, auth.ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}

	var picture *string
	if data.Picture != "" {
		picture = &data.Picture
	}
	return s.establishSession(ctx, CreateUserParams{
		Email:   data.Email,
		Name:    data.Name,
		Picture: picture,
	})
}

// GoogleCallback verifies a Google ID token from the OAuth callback and
// funnels it into the same create-or-get session path.
func (s *AuthService) GoogleCallback(ctx context.Context, idToken string) (*SessionResult, error) {
	user, err := s.google.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}

	var picture *string
	if user.Picture != "" {
		picture = &user.Picture
	}
	return s.establishSession(ctx, CreateUserParams{
		Email:   user.Email,
		Name:    user.Name,
		Picture: picture,
	})
}

func (s *AuthService) establishSession(ctx context.Context, params CreateUserParams) (*SessionResult, error) {
	if !validator.ValidateEmail(params.Email) {
		return nil, fmt.Errorf("%w: provider returned an invalid email", ErrAuthRequired)
	}

	user, err := s.repo.GetUserByEmail(ctx, params.Email)
	isNew := false
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		user, err = s.repo.CreateUser(ctx, params)
		if err != nil {
			return nil, err
		}
		isNew = true
	}

	sessionID := uuid.New()
	expiresAt := time.Now().Add(s.tokens.Expiry())

	token, err := s.tokens.Generate(sessionID, user.ID, expiresAt)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.CreateSession(ctx, CreateSessionParams{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: auth.HashToken(token),
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, err
	}

	return &SessionResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
		IsNewUser: isNew,
	}, nil
}

// CurrentUser resolves a cookie token to its user. Every failure mode
// collapses to ErrAuthRequired so callers fail closed to anonymous.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}

	session, err := s.repo.GetSessionByID(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: session not found", ErrAuthRequired)
	}
	if !session.IsActive || time.Now().After(session.ExpiresAt) {
		return nil, fmt.Errorf("%w: session expired", ErrAuthRequired)
	}
	if !auth.CompareTokenHash(token, session.TokenHash) {
		return nil, fmt.Errorf("%w: session token mismatch", ErrAuthRequired)
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user not found", ErrAuthRequired)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account deactivated", ErrAuthRequired)
	}

	return user, nil
}

// Logout deactivates the session behind the token. Best effort: an
// invalid token is not an error, the caller clears its cookie
// regardless of the outcome here.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil
	}
	return s.repo.DeactivateSession(ctx, claims.SessionID)
}

// CompleteOnboarding sets the user's display name and onboarding flag,
// creating the profile alongside when payload is provided. The whole
// update is one logical transaction: if any write fails the user stays
// onboarding-incomplete.
func (s *AuthService) CompleteOnboarding(ctx context.Context, userID uuid.UUID, name string, profile *ProfileParams) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.OnboardingCompleted {
		return nil, fmt.Errorf("%w: onboarding already completed", ErrInvalidTransition)
	}

	if profile != nil {
		if _, err := s.profiles.GetProfileByUserID(ctx, userID); err == nil {
			// Profile was created earlier in the flow; only flip the flag.
			profile = nil
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	return s.repo.CompleteOnboarding(ctx, userID, name, profile)
}

// GetUserByID retrieves a user by id.
func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}
