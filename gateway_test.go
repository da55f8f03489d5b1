package vota_test

import (
	"context"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/michivo/go-vota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGatewayRejectsInvalidBaseURL(t *testing.T) {
	for _, baseURL := range []string{"", "api.example.com", "ftp://example.com", "://broken"} {
		gw, err := vota.NewGateway(baseURL, nil)
		assert.Nil(t, gw, baseURL)
		assert.Error(t, err, baseURL)
	}

	gw, err := vota.NewGateway("https://api.example.com/", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", gw.BaseURL())
}

func TestGatewayBuildHeaders(t *testing.T) {
	loggedIn := loggedInSessions("token-123")
	loggedOut := staticSessions{session: vota.LoggedOut()}
	expiredFlag := staticSessions{session: vota.Session{
		IsLoggedIn:  false,
		Initialized: true,
		User:        &vota.User{Token: "stale"},
	}}

	cases := []struct {
		name         string
		sessions     vota.SessionSource
		requiresAuth bool
		wantAuth     string
	}{
		{name: "logged in, authenticated call", sessions: loggedIn, requiresAuth: true, wantAuth: "Bearer token-123"},
		{name: "logged in, anonymous call", sessions: loggedIn, requiresAuth: false},
		{name: "logged out", sessions: loggedOut, requiresAuth: true},
		{name: "user without login flag", sessions: expiredFlag, requiresAuth: true},
		{name: "no session source", sessions: nil, requiresAuth: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := newTestGateway(t, "https://api.example.com", tc.sessions)
			headers := gw.BuildHeaders(tc.requiresAuth)

			assert.Equal(t, "application/json", headers.Get("Content-Type"))
			assert.Equal(t, "application/json", headers.Get("Accept"))
			assert.Equal(t, tc.wantAuth, headers.Get("Authorization"))
		})
	}
}

func TestGatewaySend(t *testing.T) {
	api := newStubAPI(t)
	api.handle(http.MethodPost, "/v1/elections", http.StatusCreated, `{"id":1}`)

	gw := newTestGateway(t, api.URL(), loggedInSessions("token-abc"),
		vota.WithRequestIDGenerator(func() string { return "req-1" }),
	)

	resp, err := gw.Send(context.Background(), http.MethodPost, "/v1/elections", map[string]string{"title": "Board"}, true)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"id":1}`, string(resp.Body))
	assert.True(t, resp.OK())

	req := api.Last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v1/elections", req.Path)
	assert.Equal(t, "Bearer token-abc", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "req-1", req.Header.Get(vota.HeaderRequestID))
	assert.JSONEq(t, `{"title":"Board"}`, string(req.Body))
}

func TestGatewaySendGeneratesRequestIDs(t *testing.T) {
	api := newStubAPI(t)
	api.handle(http.MethodGet, "/v1/elections", http.StatusOK, `[]`)

	gw := newTestGateway(t, api.URL(), nil)
	for i := 0; i < 2; i++ {
		_, err := gw.Send(context.Background(), http.MethodGet, "/v1/elections", nil, false)
		require.NoError(t, err)
	}

	reqs := api.Requests()
	require.Len(t, reqs, 2)
	assert.NotEmpty(t, reqs[0].Header.Get(vota.HeaderRequestID))
	assert.NotEqual(t, reqs[0].Header.Get(vota.HeaderRequestID), reqs[1].Header.Get(vota.HeaderRequestID))
	assert.Empty(t, reqs[0].Body)
}

func TestGatewaySendNetworkError(t *testing.T) {
	api := newStubAPI(t)
	baseURL := api.URL()
	api.server.Close()

	gw := newTestGateway(t, baseURL, nil)
	resp, err := gw.Send(context.Background(), http.MethodGet, "/v1/elections", nil, true)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, vota.IsNetworkError(err))
	assert.False(t, vota.IsAPIError(err))
}

func TestGatewaySendHonoursContext(t *testing.T) {
	api := newStubAPI(t)
	api.handle(http.MethodGet, "/v1/elections", http.StatusOK, `[]`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := newTestGateway(t, api.URL(), nil)
	_, err := gw.Send(ctx, http.MethodGet, "/v1/elections", nil, true)

	require.Error(t, err)
	assert.True(t, vota.IsNetworkError(err))
}

func TestGatewaySendRejectsUnencodableBody(t *testing.T) {
	gw := newTestGateway(t, "https://api.example.com", nil)

	_, err := gw.Send(context.Background(), http.MethodPost, "/v1/elections", map[string]any{"bad": make(chan int)}, true)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, goerrors.CategoryInternal, richErr.Category)
}

func TestGatewayClassifySuccessPassesThrough(t *testing.T) {
	gw := newTestGateway(t, "https://api.example.com", nil)

	for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusNoContent} {
		resp := &vota.Response{StatusCode: status, Body: []byte(`{"message":"ignored"}`)}
		got, err := gw.Classify(resp, "elections.create")
		require.NoError(t, err)
		assert.Same(t, resp, got)
	}
}

func TestGatewayClassifyFailures(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		message  string
		textCode string
	}{
		{
			name:     "nested validation errors",
			status:   http.StatusBadRequest,
			body:     `{"message":"{\"errors\":[{\"msg\":\"required\",\"path\":\"title\"}]}"}`,
			message:  "title: required",
			textCode: vota.TextCodeAPI,
		},
		{
			name:     "several validation errors",
			status:   http.StatusBadRequest,
			body:     `{"message":"{\"errors\":[{\"msg\":\"required\",\"path\":\"title\"},{\"msg\":\"too short\",\"path\":\"name\"},{\"msg\":\"invalid\"}]}"}`,
			message:  "title: required, name: too short, invalid",
			textCode: vota.TextCodeAPI,
		},
		{
			name:     "validation errors as object",
			status:   http.StatusUnprocessableEntity,
			body:     `{"message":{"errors":[{"msg":"must be positive","path":"numberOfPositionsToElect"}]}}`,
			message:  "numberOfPositionsToElect: must be positive",
			textCode: vota.TextCodeAPI,
		},
		{
			name:     "plain message",
			status:   http.StatusForbidden,
			body:     `{"message":"Keine Berechtigung"}`,
			message:  "Keine Berechtigung",
			textCode: vota.TextCodeAPI,
		},
		{
			name:     "json message without errors",
			status:   http.StatusConflict,
			body:     `{"message":"{\"reason\":\"duplicate\"}"}`,
			message:  `{"reason":"duplicate"}`,
			textCode: vota.TextCodeAPI,
		},
		{
			name:     "object message",
			status:   http.StatusConflict,
			body:     `{"message": {"code": "E1", "detail": "locked"}}`,
			message:  `{"code":"E1","detail":"locked"}`,
			textCode: vota.TextCodeAPI,
		},
		{
			name:     "numeric message",
			status:   http.StatusBadRequest,
			body:     `{"message":42}`,
			message:  "42",
			textCode: vota.TextCodeAPI,
		},
		{
			name:     "missing message",
			status:   http.StatusInternalServerError,
			body:     `{"error":"boom"}`,
			message:  "Unbekannter Fehler bei elections.create",
			textCode: vota.TextCodeAPIFallback,
		},
		{
			name:     "empty message",
			status:   http.StatusInternalServerError,
			body:     `{"message":""}`,
			message:  "Unbekannter Fehler bei elections.create",
			textCode: vota.TextCodeAPIFallback,
		},
		{
			name:     "null body",
			status:   http.StatusBadGateway,
			body:     `null`,
			message:  "Unbekannter Fehler bei elections.create",
			textCode: vota.TextCodeAPIFallback,
		},
		{
			name:     "html body",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			message:  "Unerwarteter Fehler bei elections.create",
			textCode: vota.TextCodeAPIFallback,
		},
		{
			name:     "empty body",
			status:   http.StatusServiceUnavailable,
			body:     ``,
			message:  "Unerwarteter Fehler bei elections.create",
			textCode: vota.TextCodeAPIFallback,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger := &captureLogger{}
			gw := newTestGateway(t, "https://api.example.com", nil, vota.WithGatewayLogger(logger))

			resp, err := gw.Classify(&vota.Response{StatusCode: tc.status, Body: []byte(tc.body)}, "elections.create")
			require.Error(t, err)
			assert.Nil(t, resp)

			assert.True(t, vota.IsAPIError(err))
			assert.Equal(t, tc.message, vota.ErrorMessage(err))

			var richErr *goerrors.Error
			require.ErrorAs(t, err, &richErr)
			assert.Equal(t, tc.textCode, richErr.TextCode)
			assert.Equal(t, tc.status, richErr.Code)
			assert.Equal(t, "elections.create", richErr.Metadata["operation"])
			assert.Equal(t, tc.status, richErr.Metadata["status"])

			if tc.textCode == vota.TextCodeAPIFallback {
				assert.Equal(t, 1, logger.count("error"))
			}
		})
	}
}

func TestGatewayClassifyNilResponse(t *testing.T) {
	gw := newTestGateway(t, "https://api.example.com", nil)

	_, err := gw.Classify(nil, "ballots.list")
	require.Error(t, err)
	assert.True(t, vota.IsAPIError(err))
	assert.Equal(t, "Unerwarteter Fehler bei ballots.list", vota.ErrorMessage(err))
}

func TestGatewayClassifyLocalizedFallback(t *testing.T) {
	gw := newTestGateway(t, "https://api.example.com", nil, vota.WithGatewayMessages(vota.NewMessages("en-US")))

	_, err := gw.Classify(&vota.Response{StatusCode: http.StatusInternalServerError, Body: []byte(`{}`)}, "users.list")
	require.Error(t, err)
	assert.Equal(t, "Unknown error during users.list", vota.ErrorMessage(err))
}

func TestGatewayErrorsDoNotShareState(t *testing.T) {
	gw := newTestGateway(t, "https://api.example.com", nil)

	_, first := gw.Classify(&vota.Response{StatusCode: http.StatusBadRequest, Body: []byte(`{"message":"first"}`)}, "a")
	_, second := gw.Classify(&vota.Response{StatusCode: http.StatusNotFound, Body: []byte(`{"message":"second"}`)}, "b")

	assert.Equal(t, "first", vota.ErrorMessage(first))
	assert.Equal(t, "second", vota.ErrorMessage(second))
	assert.Equal(t, "remote api request failed", vota.ErrAPI.Message)
}
