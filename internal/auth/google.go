package auth

import (
	"context"
	"errors"

	"google.golang.org/api/idtoken"
)

var (
	ErrInvalidGoogleToken = errors.New("invalid Google ID token")
	ErrGoogleEmailMissing = errors.New("email not found in Google token")
)

// GoogleUser is the identity extracted from a verified Google ID token.
type GoogleUser struct {
	GoogleID      string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// GoogleVerifier verifies Google ID tokens on the OAuth callback path.
type GoogleVerifier struct {
	clientIDs []string
}

func NewGoogleVerifier(clientIDs []string) *GoogleVerifier {
	return &GoogleVerifier{
		clientIDs: clientIDs,
	}
}

// IsConfigured returns true if Google sign-in is configured.
func (v *GoogleVerifier) IsConfigured() bool {
	return len(v.clientIDs) > 0 && v.clientIDs[0] != ""
}

// VerifyIDToken verifies a Google ID token against the configured
// client ids and returns the embedded identity.
func (v *GoogleVerifier) VerifyIDToken(ctx context.Context, token string) (*GoogleUser, error) {
	var payload *idtoken.Payload
	var err error

	for _, clientID := range v.clientIDs {
		payload, err = idtoken.Validate(ctx, token, clientID)
		if err == nil {
			break
		}
	}
	if payload == nil {
		return nil, ErrInvalidGoogleToken
	}

	user := &GoogleUser{}

	if sub, ok := payload.Claims["sub"].(string); ok {
		user.GoogleID = sub
	} else {
		return nil, ErrInvalidGoogleToken
	}

	if email, ok := payload.Claims["email"].(string); ok {
		user.Email = email
	} else {
		return nil, ErrGoogleEmailMissing
	}

	if verified, ok := payload.Claims["email_verified"].(bool); ok {
		user.EmailVerified = verified
	}
	if name, ok := payload.Claims["name"].(string); ok {
		user.Name = name
	}
	if picture, ok := payload.Claims["picture"].(string); ok {
		user.Picture = picture
	}

	return user, nil
}
