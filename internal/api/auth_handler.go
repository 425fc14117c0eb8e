package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/meetgrid/backend/internal/auth"
	"github.com/meetgrid/backend/internal/domain"
	"github.com/meetgrid/backend/internal/gate"
	"github.com/meetgrid/backend/internal/middleware"
	"github.com/meetgrid/backend/pkg/response"
	"github.com/meetgrid/backend/pkg/validator"
)

type AuthHandler struct {
	authService  *domain.AuthService
	provider     *auth.ProviderClient
	cookieName   string
	secureCookie bool
	frontendURL  string
	logger       *zap.Logger
}

func NewAuthHandler(authService *domain.AuthService, provider *auth.ProviderClient, cookieName string, secureCookie bool, frontendURL string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		provider:     provider,
		cookieName:   cookieName,
		secureCookie: secureCookie,
		frontendURL:  frontendURL,
		logger:       logger,
	}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// ExchangeSession handles POST /api/auth/session. The one-time session
// id from the provider redirect rides in the X-Session-ID header; on
// success the persistent session token is set as an httpOnly cookie.
func (h *AuthHandler) ExchangeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("X-Session-ID")

	result, err := h.authService.ExchangeSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, result.Token, result.ExpiresAt)
	response.OK(w, result)
}

// Login handles GET /api/auth/login: redirects the browser to the
// provider's authorize URL.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.provider.IsConfigured() {
		response.Error(w, http.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE", "login is not configured")
		return
	}
	http.Redirect(w, r, h.provider.LoginURL("login"), http.StatusFound)
}

// Callback handles GET /api/auth/callback: trades the authorization
// code for a Google ID token, establishes the session and sends the
// browser back to the frontend.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		response.BadRequest(w, "missing authorization code")
		return
	}

	idToken, err := h.provider.ExchangeCode(r.Context(), code)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.authService.GoogleCallback(r.Context(), idToken)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, result.Token, result.ExpiresAt)

	target := h.frontendURL
	if !result.User.OnboardingCompleted {
		target += "/onboarding"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Me handles GET /api/auth/me. Runs behind AuthMiddleware, so a
// reaching request always carries a resolved user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	response.OK(w, map[string]interface{}{
		"user":  user,
		"state": gate.ForUser(user, nil).String(),
	})
}

// Logout handles POST /api/auth/logout. Deactivation is best-effort:
// the cookie is cleared and success reported even when the token no
// longer resolves.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.cookieName); err == nil && c.Value != "" {
		if err := h.authService.Logout(r.Context(), c.Value); err != nil {
			h.logger.Warn("session deactivation failed", zap.Error(err))
		}
	}

	h.clearSessionCookie(w)
	response.OK(w, map[string]string{"message": "logged out"})
}

// CompleteOnboarding handles POST /api/auth/complete-onboarding.
func (h *AuthHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req struct {
		Name    string                `json:"name"`
		Profile *domain.ProfileParams `json:"profile,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	req.Name = validator.Sanitize(req.Name)
	if req.Name != "" && !validator.ValidateName(req.Name) {
		response.BadRequest(w, "invalid name")
		return
	}

	updated, err := h.authService.CompleteOnboarding(r.Context(), user.ID, req.Name, req.Profile)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"user":  updated,
		"state": gate.ForUser(updated, nil).String(),
	})
}
