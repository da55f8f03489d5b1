package vota

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var tokenParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeToken reads the claims segment of token. Header and signature
// segments are never inspected.
func DecodeToken(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, malformedTokenError(errors.New("token is empty"))
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, malformedTokenError(fmt.Errorf("token has %d segments, want 3", len(parts)))
	}

	payload, err := tokenParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, malformedTokenError(fmt.Errorf("decode claims segment: %w", err))
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || payload[0] != '{' {
		return nil, malformedTokenError(errors.New("claims segment is not a json object"))
	}

	claims := &Claims{}
	if err := json.Unmarshal(payload, claims); err != nil {
		return nil, malformedTokenError(fmt.Errorf("decode claims: %w", err))
	}

	return claims, nil
}

// IsExpired reports whether now is at or past the token expiry. Claims
// without an expiry are treated as expired.
func IsExpired(claims *Claims, now time.Time) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// UserFromClaims builds the session user for claims and the token they
// were decoded from.
func UserFromClaims(claims *Claims, rawToken string) *User {
	if claims == nil {
		return nil
	}
	return &User{
		Name:        claims.Username(),
		DisplayName: claims.Name,
		Email:       claims.Email,
		ID:          claims.UserID(),
		Role:        claims.Role,
		Token:       rawToken,
		RegionIDs:   claims.Regions(),
		ExpiresAt:   claims.Expires(),
	}
}
