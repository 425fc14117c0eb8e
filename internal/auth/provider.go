package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

var (
	ErrInvalidSession      = errors.New("invalid or expired session id")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// SessionData is the identity payload the provider returns in exchange
// for a one-time session id.
type SessionData struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// IdentityProvider exchanges a one-time session id for the user's
// identity. Satisfied by ProviderClient; tests substitute fakes.
type IdentityProvider interface {
	FetchSessionData(ctx context.Context, sessionID string) (*SessionData, error)
}

// ProviderClient talks to the external identity provider: it builds the
// redirect URL for login and resolves one-time session ids on return.
type ProviderClient struct {
	sessionDataURL string
	httpClient     *http.Client
	oauth          *oauth2.Config
}

// ProviderConfig configures the identity provider integration.
type ProviderConfig struct {
	AuthURL        string
	TokenURL       string
	SessionDataURL string
	ClientID       string
	ClientSecret   string
	RedirectURL    string
}

func NewProviderClient(cfg ProviderConfig) *ProviderClient {
	return &ProviderClient{
		sessionDataURL: cfg.SessionDataURL,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
	}
}

// LoginURL returns the provider authorize URL the browser is redirected
// to. The round trip re-enters through the session exchange.
func (c *ProviderClient) LoginURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// IsConfigured reports whether redirect login is usable.
func (c *ProviderClient) IsConfigured() bool {
	return c.oauth.ClientID != "" && c.oauth.Endpoint.AuthURL != ""
}

// ExchangeCode trades an authorization code from the login callback
// for the provider's ID token.
func (c *ProviderClient) ExchangeCode(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	idToken, ok := tok.Extra("id_token").(string)
	if !ok || idToken == "" {
		return "", ErrInvalidSession
	}
	return idToken, nil
}

// FetchSessionData exchanges a one-time session id for the identity it
// represents. A non-200 answer means the id is invalid or already
// spent; transport errors surface as ErrProviderUnavailable.
func (c *ProviderClient) FetchSessionData(ctx context.Context, sessionID string) (*SessionData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionDataURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Session-ID", sessionID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidSession
	}

	var data SessionData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: malformed session data: %v", ErrProviderUnavailable, err)
	}
	if data.Email == "" {
		return nil, ErrInvalidSession
	}

	return &data, nil
}
