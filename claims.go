package vota

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole is the numeric role carried in the token
type UserRole int

const (
	RoleNone UserRole = iota
	RoleAdmin
	RoleStandard
)

func (r UserRole) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleStandard:
		return "standard"
	default:
		return "none"
	}
}

// IsValid reports whether r is one of the known roles
func (r UserRole) IsValid() bool {
	return r >= RoleNone && r <= RoleStandard
}

// UnmarshalJSON accepts the role as a number or a numeric string.
func (r *UserRole) UnmarshalJSON(data []byte) error {
	var n NumericID
	if err := n.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("role: %w", err)
	}
	*r = UserRole(n)
	return nil
}

// NumericID is an integer that some token issuers encode as a string.
type NumericID int64

// UnmarshalJSON accepts 42, 42.0 and "42".
func (n *NumericID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		data = []byte(s)
	}

	if v, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*n = NumericID(v)
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid numeric id %q", string(data))
	}
	*n = NumericID(int64(f))
	return nil
}

// Claims is the decoded payload of a session token
type Claims struct {
	jwt.RegisteredClaims
	Name      string      `json:"name,omitempty"`
	Email     string      `json:"email,omitempty"`
	UID       NumericID   `json:"uid,omitempty"`
	Role      UserRole    `json:"role,omitempty"`
	RegionIDs []NumericID `json:"regionIds,omitempty"`
}

// Username returns the subject claim
func (c *Claims) Username() string {
	return c.Subject
}

func (c *Claims) UserID() int64 {
	return int64(c.UID)
}

// Expires returns the expiry time, zero when the claim is missing
func (c *Claims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

func (c *Claims) Regions() []int64 {
	if len(c.RegionIDs) == 0 {
		return nil
	}
	out := make([]int64, len(c.RegionIDs))
	for i, id := range c.RegionIDs {
		out[i] = int64(id)
	}
	return out
}
