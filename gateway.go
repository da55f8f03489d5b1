package vota

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// HeaderRequestID carries the per request correlation id
const HeaderRequestID = "X-Request-ID"

const contentTypeJSON = "application/json"

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// GatewayOption customizes gateway construction.
type GatewayOption func(*Gateway)

// WithHTTPClient sets the client used for every exchange.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *Gateway) {
		if client != nil {
			g.httpClient = client
		}
	}
}

func WithGatewayLogger(logger Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGatewayMessages sets the locale used for fallback error messages.
func WithGatewayMessages(messages *Messages) GatewayOption {
	return func(g *Gateway) {
		if messages != nil {
			g.messages = messages
		}
	}
}

// WithRequestIDGenerator overrides how X-Request-ID values are created.
func WithRequestIDGenerator(fn func() string) GatewayOption {
	return func(g *Gateway) {
		if fn != nil {
			g.requestID = fn
		}
	}
}

// Gateway sends requests to the remote API and classifies failures.
type Gateway struct {
	baseURL    string
	sessions   SessionSource
	httpClient *http.Client
	logger     Logger
	messages   *Messages
	requestID  func() string
}

// NewGateway returns a gateway for baseURL, an absolute http(s) URL. The
// bearer token is read from sessions on every authenticated call.
func NewGateway(baseURL string, sessions SessionSource, opts ...GatewayOption) (*Gateway, error) {
	baseURL = strings.TrimSpace(baseURL)
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		richErr := goerrors.New("api base url must be an absolute http(s) url", goerrors.CategoryValidation).
			WithTextCode("INVALID_BASE_URL").
			WithMetadata(map[string]any{"base_url": baseURL})
		if err != nil {
			richErr.Source = err
		}
		return nil, richErr
	}

	g := &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		sessions:   sessions,
		httpClient: &http.Client{},
		logger:     defLogger{},
		messages:   NewMessages(DefaultLocale),
		requestID:  uuid.NewString,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g, nil
}

// BaseURL returns the configured API root without trailing slash
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// BuildHeaders returns the JSON headers for a call. The bearer header is
// only added when requiresAuth is set and the current session is logged in.
func (g *Gateway) BuildHeaders(requiresAuth bool) http.Header {
	h := http.Header{}
	h.Set("Content-Type", contentTypeJSON)
	h.Set("Accept", contentTypeJSON)

	if !requiresAuth || g.sessions == nil {
		return h
	}

	session := g.sessions.Current()
	if session.IsLoggedIn && session.User != nil && session.User.Token != "" {
		h.Set("Authorization", "Bearer "+session.User.Token)
	}

	return h
}

// Send performs one HTTP exchange. body is JSON encoded when not nil.
// Transport and body read failures return ErrNetwork.
func (g *Gateway) Send(ctx context.Context, method, path string, body any, requiresAuth bool) (*Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body").
				WithMetadata(map[string]any{"method": method, "path": path})
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request").
			WithMetadata(map[string]any{"method": method, "path": path})
	}

	req.Header = g.BuildHeaders(requiresAuth)
	requestID := g.requestID()
	req.Header.Set(HeaderRequestID, requestID)

	g.logger.Debug("Gateway request", "method", method, "path", path, "request_id", requestID)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("Gateway request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, networkError(method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		g.logger.Error("Gateway failed to read response", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, networkError(method, path, err)
	}

	g.logger.Debug("Gateway response", "method", method, "path", path, "request_id", requestID, "status", resp.StatusCode)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Classify passes 2xx responses through and turns everything else into an
// ApiError named after operation.
func (g *Gateway) Classify(resp *Response, operation string) (*Response, error) {
	if resp == nil {
		return nil, g.fallback(operation, 0, g.messages.UnexpectedError(operation), nil)
	}
	if resp.OK() {
		return resp, nil
	}
	return nil, g.classifyFailure(resp, operation)
}

type errorBody struct {
	Message json.RawMessage `json:"message"`
}

type validationErrors struct {
	Errors []validationError `json:"errors"`
}

type validationError struct {
	Msg  string `json:"msg"`
	Path string `json:"path"`
}

func (g *Gateway) classifyFailure(resp *Response, operation string) error {
	var body errorBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		g.logger.Error("Gateway could not parse error response",
			"operation", operation, "status", resp.StatusCode, "body", string(resp.Body), "error", err)
		return g.fallback(operation, resp.StatusCode, g.messages.UnexpectedError(operation), err)
	}

	message, ok := errorMessage(body.Message)
	if !ok {
		g.logger.Error("Gateway error response without message",
			"operation", operation, "status", resp.StatusCode, "body", print.MaybePrettyJSON(json.RawMessage(resp.Body)))
		return g.fallback(operation, resp.StatusCode, g.messages.UnknownError(operation), nil)
	}

	return newAPIError(ErrAPI, message, resp.StatusCode, operation, nil)
}

func (g *Gateway) fallback(operation string, status int, message string, source error) error {
	base := ErrAPI.Clone().WithTextCode(TextCodeAPIFallback)
	return newAPIError(base, message, status, operation, source)
}

// errorMessage extracts the display text of a {message} field. A message
// holding a JSON {errors:[{msg,path}]} document is rendered as
// "path: msg" entries. Other non-string values are kept as compact JSON.
func errorMessage(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if strings.TrimSpace(text) == "" {
			return "", false
		}
		if rendered, ok := renderValidationErrors([]byte(text)); ok {
			return rendered, true
		}
		return text, true
	}

	if rendered, ok := renderValidationErrors(raw); ok {
		return rendered, true
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return "", false
	}
	return compact.String(), true
}

func renderValidationErrors(data []byte) (string, bool) {
	var payload validationErrors
	if err := json.Unmarshal(data, &payload); err != nil || len(payload.Errors) == 0 {
		return "", false
	}

	parts := make([]string, 0, len(payload.Errors))
	for _, e := range payload.Errors {
		if e.Path == "" {
			parts = append(parts, e.Msg)
			continue
		}
		parts = append(parts, e.Path+": "+e.Msg)
	}
	return strings.Join(parts, ", "), true
}
