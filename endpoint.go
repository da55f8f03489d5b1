package vota

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// Endpoint describes one remote API call. Path may contain {name}
// placeholders that are filled positionally from Call.Params.
type Endpoint struct {
	Operation  string
	Method     string
	Path       string
	Anonymous  bool
	DateFields []string
}

// Call is a single execution of an Endpoint.
type Call struct {
	Endpoint Endpoint
	Params   []any
	Body     any
	Out      any
}

// Expand fills the path placeholders with escaped params.
func (e Endpoint) Expand(params ...any) (string, error) {
	var b strings.Builder
	path := e.Path
	next := 0

	for {
		start := strings.IndexByte(path, '{')
		if start < 0 {
			b.WriteString(path)
			break
		}
		end := strings.IndexByte(path[start:], '}')
		if end < 0 {
			return "", fmt.Errorf("endpoint %s: unterminated placeholder in %q", e.Operation, e.Path)
		}
		if next >= len(params) {
			return "", fmt.Errorf("endpoint %s: missing value for %s", e.Operation, path[start:start+end+1])
		}
		b.WriteString(path[:start])
		b.WriteString(url.PathEscape(fmt.Sprint(params[next])))
		next++
		path = path[start+end+1:]
	}

	if next != len(params) {
		return "", fmt.Errorf("endpoint %s: expected %d path values, got %d", e.Operation, next, len(params))
	}

	return b.String(), nil
}

// Do validates the call body, sends it, classifies the response and decodes
// the revived payload into call.Out when set.
func (g *Gateway) Do(ctx context.Context, call Call) error {
	ep := call.Endpoint

	path, err := ep.Expand(call.Params...)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request path").
			WithMetadata(map[string]any{"operation": ep.Operation})
	}

	if v, ok := call.Body.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			clone := ErrInvalidRequest.Clone()
			clone.Source = err
			return clone.WithMetadata(map[string]any{
				"operation": ep.Operation,
				"errors":    err.Error(),
			})
		}
	}

	resp, err := g.Send(ctx, ep.Method, path, call.Body, !ep.Anonymous)
	if err != nil {
		return err
	}

	if _, err := g.Classify(resp, ep.Operation); err != nil {
		return err
	}

	if call.Out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}

	if err := DecodeRecords(resp.Body, call.Out, ep.DateFields...); err != nil {
		g.logger.Error("Gateway failed to decode response", "operation", ep.Operation, "error", err)
		return err
	}

	return nil
}
