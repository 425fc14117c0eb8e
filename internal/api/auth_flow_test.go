package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionExchangeAndGateStates(t *testing.T) {
	ts := newTestServer(t)

	// Anonymous: no cookie means 401 with a stable code.
	resp, env := ts.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_REQUIRED", env.Code)
	assert.False(t, env.Success)

	// Exchange a one-time id for a session.
	cookie := ts.login(t, "alice@example.com", "Alice")

	// Fresh users land in onboarding.
	resp, env = ts.do(t, http.MethodGet, "/api/auth/me", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me struct {
		State string `json:"state"`
		User  struct {
			Email               string `json:"email"`
			OnboardingCompleted bool   `json:"onboarding_completed"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "onboarding", me.State)
	assert.Equal(t, "alice@example.com", me.User.Email)
	assert.False(t, me.User.OnboardingCompleted)

	// Gated routes reject with ONBOARDING_REQUIRED until completion.
	resp, env = ts.do(t, http.MethodGet, "/api/connections/established", cookie, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "ONBOARDING_REQUIRED", env.Code)

	// Complete onboarding.
	resp, env = ts.do(t, http.MethodPost, "/api/auth/complete-onboarding", cookie, map[string]interface{}{
		"name": "Alice A.",
		"profile": map[string]interface{}{
			"job_title":              "Engineer",
			"is_open_for_connection": true,
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "detail: %s", env.Detail)
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "active", me.State)

	// Completing twice conflicts.
	resp, env = ts.do(t, http.MethodPost, "/api/auth/complete-onboarding", cookie, map[string]interface{}{"name": "Alice A."})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", env.Code)

	// Gated routes open up.
	resp, _ = ts.do(t, http.MethodGet, "/api/connections/established", cookie, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionExchangeInvalidID(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/auth/session", nil)
	require.NoError(t, err)
	req.Header.Set("X-Session-ID", "spent-or-bogus")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Cookies(), "failed exchange must not set a cookie")
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t, "alice@example.com", "Alice")

	resp, _ := ts.do(t, http.MethodPost, "/api/auth/logout", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The handler clears the cookie.
	var cleared bool
	for _, c := range resp.Cookies() {
		if c.Name == "session_token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout must expire the session cookie")

	// The old token no longer resolves.
	resp, env := ts.do(t, http.MethodGet, "/api/auth/me", cookie, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_REQUIRED", env.Code)

	// Logging out again with the dead cookie still succeeds.
	resp, _ = ts.do(t, http.MethodPost, "/api/auth/logout", cookie, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBearerTokenFallback(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "alice@example.com", "Alice")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/health", "/health/ready", "/health/live"} {
		resp, env := ts.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.True(t, env.Success, path)
	}
}

func TestMetricsExposed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
