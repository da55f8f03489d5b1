package vota_test

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/michivo/go-vota"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return signed
}

func userToken(t *testing.T, uid int, role int, exp time.Time) string {
	t.Helper()
	return mintToken(t, jwt.MapClaims{
		"sub":       "alice",
		"name":      "Alice Example",
		"email":     "alice@example.com",
		"uid":       uid,
		"role":      role,
		"regionIds": []int{3, 5},
		"exp":       exp.Unix(),
	})
}

func rawToken(header, payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(header)) + "." + enc.EncodeToString([]byte(payload)) + ".c2lnbmF0dXJl"
}

type logEntry struct {
	Level   string
	Message string
	Args    []any
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) add(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{Level: level, Message: msg, Args: args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args...) }

func (l *captureLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

// failingCredentialStore wraps a memory store and fails selected calls.
type failingCredentialStore struct {
	vota.MemoryCredentialStore
	loadErr   error
	saveErr   error
	removeErr error
	removed   int
}

func (f *failingCredentialStore) Load(ctx context.Context) (string, bool, error) {
	if f.loadErr != nil {
		return "", false, f.loadErr
	}
	return f.MemoryCredentialStore.Load(ctx)
}

func (f *failingCredentialStore) Save(ctx context.Context, token string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryCredentialStore.Save(ctx, token)
}

func (f *failingCredentialStore) Remove(ctx context.Context) error {
	f.removed++
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.MemoryCredentialStore.Remove(ctx)
}

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type stubResponse struct {
	status int
	body   string
}

// stubAPI is an httptest server answering canned responses per route.
type stubAPI struct {
	mu        sync.Mutex
	routes    map[string]stubResponse
	requests  []recordedRequest
	server    *httptest.Server
	onRequest func(r *http.Request)
}

func newStubAPI(t *testing.T) *stubAPI {
	t.Helper()
	api := &stubAPI{routes: map[string]stubResponse{}}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		api.mu.Lock()
		api.requests = append(api.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		resp, ok := api.routes[r.Method+" "+r.URL.Path]
		hook := api.onRequest
		api.mu.Unlock()

		if hook != nil {
			hook(r)
		}

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"route not found"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(resp.body))
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (s *stubAPI) handle(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = stubResponse{status: status, body: body}
}

func (s *stubAPI) URL() string {
	return s.server.URL
}

func (s *stubAPI) Requests() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *stubAPI) Last(t *testing.T) recordedRequest {
	t.Helper()
	reqs := s.Requests()
	require.NotEmpty(t, reqs, "expected at least one request")
	return reqs[len(reqs)-1]
}

type staticSessions struct {
	session vota.Session
}

func (s staticSessions) Current() vota.Session {
	return s.session
}

func loggedInSessions(token string) staticSessions {
	return staticSessions{session: vota.Session{
		IsLoggedIn:  true,
		Initialized: true,
		User:        &vota.User{Name: "alice", ID: 42, Role: vota.RoleAdmin, Token: token, ExpiresAt: testNow.Add(time.Hour)},
	}}
}

func newTestGateway(t *testing.T, baseURL string, sessions vota.SessionSource, opts ...vota.GatewayOption) *vota.Gateway {
	t.Helper()
	opts = append([]vota.GatewayOption{vota.WithGatewayLogger(&captureLogger{})}, opts...)
	gw, err := vota.NewGateway(baseURL, sessions, opts...)
	require.NoError(t, err)
	return gw
}
