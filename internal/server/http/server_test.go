package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow  = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	expiresAt = fixedNow.Add(30 * time.Minute)
	errBoom   = errors.New("boom")
)

type fakeUsers struct {
	registerErr error
	loginErr    error
	changeErr   error
	listErr     error
	getErr      error
	pingErr     error

	changed           [3]string
	gotSkip, gotLimit int
}

func (f *fakeUsers) Register(_ context.Context, username, _ string) (*models.Account, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.Account{ID: "id-1", Username: username}, nil
}

func (f *fakeUsers) Login(context.Context, string, string) (*auth.Token, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &auth.Token{AccessToken: "good-token", TokenType: common.TokenKindBearer, ExpiresAt: expiresAt}, nil
}

func (f *fakeUsers) VerifyToken(_ context.Context, token string) (*auth.Identity, error) {
	switch token {
	case "good-token":
		return &auth.Identity{UserID: "id-1", Username: "alice", IssuedAt: fixedNow, ExpiresAt: expiresAt}, nil
	case "expired-token":
		return nil, common.ErrTokenExpired
	default:
		return nil, common.ErrBadSignature
	}
}

func (f *fakeUsers) ChangePassword(_ context.Context, userID, current, next string) error {
	f.changed = [3]string{userID, current, next}
	return f.changeErr
}

func (f *fakeUsers) ListAccounts(_ context.Context, skip, limit int) ([]*models.Account, error) {
	f.gotSkip, f.gotLimit = skip, limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []*models.Account{{ID: "id-1", Username: "alice", CredentialHash: "secret-hash"}}, nil
}

func (f *fakeUsers) GetAccount(_ context.Context, id string) (*models.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.Account{ID: id, Username: "alice", CredentialHash: "secret-hash"}, nil
}

func (f *fakeUsers) Ping(context.Context) error { return f.pingErr }

type fakeObserver struct {
	mu     sync.Mutex
	routes []string
	codes  []int
}

func (o *fakeObserver) ObserveRequest(transport, route string, code int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = append(o.routes, transport+" "+route)
	o.codes = append(o.codes, code)
}

func newTestServer(us UserService, obs RequestObserver) *HTTPServer {
	s := NewHTTPServer(Options{
		Address:        ":0",
		ServiceName:    "auth-service",
		Version:        "1.0.0",
		CORSOrigins:    []string{"*"},
		RequestTimeout: time.Second,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("auth_up 1\n"))
		}),
		Observer: obs,
	}, logging.Nop{}, us)
	s.now = func() time.Time { return fixedNow }
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e.Detail
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"created", `{"username":"alice","password":"secret123"}`, nil, http.StatusCreated, ""},
		{"conflict", `{"username":"alice","password":"secret123"}`, common.ErrConflict, http.StatusBadRequest, "Username already exists"},
		{"validation", `{"username":"al","password":"secret123"}`, common.NewValidationError("username", "too short"), http.StatusUnprocessableEntity, "username: too short"},
		{"bad json", `{"username":`, nil, http.StatusUnprocessableEntity, ""},
		{"internal", `{"username":"alice","password":"secret123"}`, errBoom, http.StatusInternalServerError, "Internal server error"},
		{"store timeout", `{"username":"alice","password":"secret123"}`, fmt.Errorf("%w: %w", common.ErrInternal, context.DeadlineExceeded), http.StatusGatewayTimeout, "Request timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeUsers{registerErr: tt.err}, nil).Handler()
			w := do(t, h, http.MethodPost, "/auth/register", tt.body, nil)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusCreated {
				var got registerResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, registerResponse{Message: "User registered successfully", ID: "id-1", Username: "alice"}, got)
				return
			}
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, detail(t, w))
			}
		})
	}
}

func TestLogin(t *testing.T) {
	h := newTestServer(&fakeUsers{}, nil).Handler()
	w := do(t, h, http.MethodPost, "/auth/login", `{"username":"alice","password":"secret123"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "good-token", got.AccessToken)
	assert.Equal(t, "bearer", got.TokenType)
	assert.True(t, expiresAt.Equal(got.ExpiresAt))
}

func TestLogin_Unauthorized(t *testing.T) {
	h := newTestServer(&fakeUsers{loginErr: common.ErrUnauthorized}, nil).Handler()
	w := do(t, h, http.MethodPost, "/auth/login", `{"username":"alice","password":"nope"}`, nil)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Invalid credentials", detail(t, w))
}

func TestMe(t *testing.T) {
	tests := []struct {
		name       string
		header     map[string]string
		wantStatus int
		wantDetail string
	}{
		{"valid", bearer("good-token"), http.StatusOK, ""},
		{"lower-case scheme", map[string]string{"Authorization": "bearer good-token"}, http.StatusOK, ""},
		{"missing header", nil, http.StatusUnauthorized, "Not authenticated"},
		{"wrong scheme", map[string]string{"Authorization": "Basic abc"}, http.StatusUnauthorized, "Not authenticated"},
		{"empty token", map[string]string{"Authorization": "Bearer "}, http.StatusUnauthorized, "Not authenticated"},
		{"expired", bearer("expired-token"), http.StatusUnauthorized, "Could not validate credentials"},
		{"forged", bearer("forged"), http.StatusUnauthorized, "Could not validate credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeUsers{}, nil).Handler()
			w := do(t, h, http.MethodGet, "/auth/me", "", tt.header)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
				assert.Equal(t, tt.wantDetail, detail(t, w))
				return
			}
			var got meResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, "id-1", got.UserID)
			assert.Equal(t, "alice", got.Username)
		})
	}
}

func TestChangePassword(t *testing.T) {
	us := &fakeUsers{}
	h := newTestServer(us, nil).Handler()

	w := do(t, h, http.MethodPut, "/auth/password", `{"current_password":"old-secret","new_password":"new-secret"}`, bearer("good-token"))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, [3]string{"id-1", "old-secret", "new-secret"}, us.changed)

	us.changeErr = common.ErrUnauthorized
	w = do(t, h, http.MethodPut, "/auth/password", `{"current_password":"bad","new_password":"new-secret"}`, bearer("good-token"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPut, "/auth/password", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListAccounts(t *testing.T) {
	us := &fakeUsers{}
	h := newTestServer(us, nil).Handler()

	w := do(t, h, http.MethodGet, "/accounts?skip=5&limit=10", "", bearer("good-token"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, us.gotSkip)
	assert.Equal(t, 10, us.gotLimit)
	assert.NotContains(t, w.Body.String(), "secret-hash")

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0]["username"])

	w = do(t, h, http.MethodGet, "/accounts?limit=ten", "", bearer("good-token"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, http.MethodGet, "/accounts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetAccount(t *testing.T) {
	us := &fakeUsers{}
	h := newTestServer(us, nil).Handler()

	w := do(t, h, http.MethodGet, "/accounts/abc", "", bearer("good-token"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"abc"`)
	assert.NotContains(t, w.Body.String(), "secret-hash")

	us.getErr = common.ErrNotFound
	w = do(t, h, http.MethodGet, "/accounts/missing", "", bearer("good-token"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndReady(t *testing.T) {
	us := &fakeUsers{}
	h := newTestServer(us, nil).Handler()

	for _, path := range []string{"/health", "/healthz"} {
		w := do(t, h, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		var got healthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, healthResponse{Status: "ok", Service: "auth-service", Version: "1.0.0", Timestamp: fixedNow}, got)
	}

	w := do(t, h, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	us.pingErr = errBoom
	w = do(t, h, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "database unavailable", detail(t, w))
}

func TestMetricsAndNotFound(t *testing.T) {
	h := newTestServer(&fakeUsers{}, nil).Handler()

	w := do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "auth_up 1")

	w = do(t, h, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/auth/login", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(&fakeUsers{}, nil).Handler()
	w := do(t, h, http.MethodOptions, "/auth/login", "", map[string]string{
		"Origin":                        "https://app.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestObserve_RecordsRoutePattern(t *testing.T) {
	obs := &fakeObserver{}
	h := newTestServer(&fakeUsers{getErr: common.ErrNotFound}, obs).Handler()

	do(t, h, http.MethodGet, "/accounts/xyz", "", bearer("good-token"))
	do(t, h, http.MethodGet, "/health", "", nil)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []string{"http /accounts/{id}", "http /health"}, obs.routes)
	assert.Equal(t, []int{http.StatusNotFound, http.StatusOK}, obs.codes)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"BEARER abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := newTestServer(&fakeUsers{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + lis.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	s := NewHTTPServer(Options{Address: "bad-address"}, logging.Nop{}, &fakeUsers{})
	assert.Error(t, s.Run(context.Background()))
}
