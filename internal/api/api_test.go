package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meetgrid/backend/internal/api"
	"github.com/meetgrid/backend/internal/auth"
	"github.com/meetgrid/backend/internal/domain"
	"github.com/meetgrid/backend/internal/repository"
)

// envelope mirrors the JSON wrapper every endpoint returns.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Detail  string          `json:"detail"`
	Code    string          `json:"code"`
}

// testServer bundles the API under test with its fake identity
// provider and direct repository access for seeding.
type testServer struct {
	*httptest.Server

	repo     *repository.MemoryRepository
	provider *fakeProviderServer
	hub      *api.EventHub
}

// fakeProviderServer plays the external identity provider: it resolves
// one-time session ids handed out to the test.
type fakeProviderServer struct {
	mu       sync.Mutex
	sessions map[string]auth.SessionData
	srv      *httptest.Server
}

func newFakeProviderServer() *fakeProviderServer {
	p := &fakeProviderServer{sessions: make(map[string]auth.SessionData)}
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		data, ok := p.sessions[r.Header.Get("X-Session-ID")]
		p.mu.Unlock()
		if !ok {
			http.Error(w, "unknown session", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(data)
	}))
	return p
}

// issue registers a one-time session id resolving to the given identity.
func (p *fakeProviderServer) issue(email, name string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := fmt.Sprintf("otp-%s-%d", email, len(p.sessions))
	p.sessions[id] = auth.SessionData{ID: email, Email: email, Name: name}
	return id
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zap.NewNop()
	repo := repository.NewMemoryRepository()
	providerSrv := newFakeProviderServer()
	t.Cleanup(providerSrv.srv.Close)

	provider := auth.NewProviderClient(auth.ProviderConfig{
		SessionDataURL: providerSrv.srv.URL,
	})
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	google := auth.NewGoogleVerifier(nil)

	authService := domain.NewAuthService(repo, repo, tokens, provider, google)
	profileService := domain.NewProfileService(repo)
	connectionService := domain.NewConnectionService(repo, repo)
	messagingService := domain.NewMessagingService(repo, repo)

	hub := api.NewEventHub(logger)

	router := api.NewRouter(
		api.NewAuthHandler(authService, provider, "session_token", false, "http://localhost:3000", logger),
		api.NewProfileHandler(profileService, logger),
		api.NewConnectionHandler(connectionService, hub, logger),
		api.NewConversationHandler(messagingService, hub, logger),
		api.NewHealthHandler(nil),
		hub,
		authService,
		"session_token",
		[]string{"http://localhost:3000"},
		logger,
	)

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, repo: repo, provider: providerSrv, hub: hub}
}

// do sends a request with an optional session cookie and JSON body.
func (ts *testServer) do(t *testing.T, method, path, cookie string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "session_token", Value: cookie})
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	}
	return resp, env
}

// login exchanges a fresh one-time id for a session cookie value.
func (ts *testServer) login(t *testing.T, email, name string) string {
	t.Helper()

	oneTime := ts.provider.issue(email, name)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/auth/session", nil)
	require.NoError(t, err)
	req.Header.Set("X-Session-ID", oneTime)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == "session_token" && c.Value != "" {
			return c.Value
		}
	}
	t.Fatal("no session cookie set")
	return ""
}

// onboard logs a user in and completes onboarding with a profile open
// for connections.
func (ts *testServer) onboard(t *testing.T, email, name string) string {
	t.Helper()

	cookie := ts.login(t, email, name)
	resp, env := ts.do(t, http.MethodPost, "/api/auth/complete-onboarding", cookie, map[string]interface{}{
		"name": name,
		"profile": map[string]interface{}{
			"job_title":              "Engineer",
			"is_open_for_connection": true,
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "detail: %s", env.Detail)
	return cookie
}

// userID resolves the seeded user's id for assertions.
func (ts *testServer) userID(t *testing.T, email string) string {
	t.Helper()
	user, err := ts.repo.GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	return user.ID.String()
}
