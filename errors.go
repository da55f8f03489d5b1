package vota

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeMalformedToken = "MALFORMED_TOKEN"
	TextCodeNetwork        = "NETWORK_ERROR"
	TextCodeAPI            = "API_ERROR"
	TextCodeAPIFallback    = "API_ERROR_FALLBACK"
	TextCodeSignInFailed   = "SIGN_IN_FAILED"
	TextCodeDataParseError = "DATA_PARSE_ERROR"
	TextCodeInvalidRequest = "INVALID_REQUEST"
)

// ErrMalformedToken is returned when a token cannot be decoded
var ErrMalformedToken = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeMalformedToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrNetwork is returned when a request never produced a response
var ErrNetwork = goerrors.New("network request failed", goerrors.CategoryOperation).
	WithTextCode(TextCodeNetwork)

// ErrAPI is the base of every error reported by the remote API
var ErrAPI = goerrors.New("remote api request failed", goerrors.CategoryOperation).
	WithTextCode(TextCodeAPI)

// ErrSignInFailed carries the fixed message shown for rejected sign-ins
var ErrSignInFailed = goerrors.New("sign in failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeSignInFailed).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToParseData is returned when a payload cannot be normalized
var ErrUnableToParseData = goerrors.New("unable to parse data", goerrors.CategoryBadInput).
	WithTextCode(TextCodeDataParseError).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidRequest is returned when a request body fails client side validation
var ErrInvalidRequest = goerrors.New("invalid request", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidRequest).
	WithCode(goerrors.CodeBadRequest)

// IsAPIError reports whether err was produced by response classification,
// including the generic fallback.
func IsAPIError(err error) bool {
	code := textCode(err)
	return code == TextCodeAPI || code == TextCodeAPIFallback || code == TextCodeSignInFailed
}

// IsNetworkError will check for transport failures
func IsNetworkError(err error) bool {
	return textCode(err) == TextCodeNetwork
}

// IsMalformedError will check for undecodable tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return textCode(err) == TextCodeMalformedToken || errors.Is(err, ErrMalformedToken)
}

// ErrorMessage returns the user facing message carried by err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if errors.As(err, &richErr) && richErr != nil {
		return richErr.Message
	}
	return err.Error()
}

func textCode(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) || richErr == nil {
		return ""
	}
	return richErr.TextCode
}

func newAPIError(base *goerrors.Error, message string, status int, operation string, source error) *goerrors.Error {
	clone := base.Clone()
	clone.Message = message
	if status > 0 {
		clone.Code = status
	}
	clone.Source = source
	return clone.WithMetadata(map[string]any{
		"operation": operation,
		"status":    status,
	})
}

func networkError(method, path string, source error) *goerrors.Error {
	clone := ErrNetwork.Clone()
	clone.Source = source
	return clone.WithMetadata(map[string]any{
		"method": method,
		"path":   path,
		"cause":  source.Error(),
	})
}

func malformedTokenError(source error) *goerrors.Error {
	clone := ErrMalformedToken.Clone()
	clone.Source = source
	if source != nil {
		clone.WithMetadata(map[string]any{"cause": source.Error()})
	}
	return clone
}

func parseDataError(field string, value any, source error) *goerrors.Error {
	clone := ErrUnableToParseData.Clone()
	clone.Source = source
	return clone.WithMetadata(map[string]any{
		"field": field,
		"value": value,
	})
}
