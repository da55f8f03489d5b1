package vota

import (
	"fmt"
	"slices"
	"time"
)

// User is the signed in user as derived from the token claims.
// A published *User is never mutated.
type User struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email,omitempty"`
	ID          int64     `json:"id"`
	Role        UserRole  `json:"role"`
	Token       string    `json:"-"`
	RegionIDs   []int64   `json:"regionIds,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// HasRegion reports whether regionID is assigned to the user
func (u *User) HasRegion(regionID int64) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.RegionIDs, regionID)
}

// ExpiresWithin reports whether the token expires within d of now,
// including tokens that already expired.
func (u *User) ExpiresWithin(now time.Time, d time.Duration) bool {
	if u == nil || u.ExpiresAt.IsZero() {
		return true
	}
	return !now.Add(d).Before(u.ExpiresAt)
}

func (u *User) String() string {
	if u == nil {
		return "<nil>"
	}
	return fmt.Sprintf("User{Name: %s, ID: %d, Role: %s, ExpiresAt: %s}",
		u.Name, u.ID, u.Role, u.ExpiresAt.Format(time.RFC3339))
}

// Session is the authentication snapshot shared across the process.
// IsLoggedIn is true only when User is set and was unexpired when the
// snapshot was built.
type Session struct {
	IsLoggedIn  bool  `json:"isLoggedIn"`
	User        *User `json:"user,omitempty"`
	Initialized bool  `json:"initialized"`
}

// LoggedOut is the snapshot published after start-up found no usable
// credential and after every sign-out.
func LoggedOut() Session {
	return Session{Initialized: true}
}

// NewSession builds an initialized snapshot for user as of now. An absent
// or expired user yields LoggedOut.
func NewSession(user *User, now time.Time) Session {
	if user == nil || user.ExpiresAt.IsZero() || !now.Before(user.ExpiresAt) {
		return LoggedOut()
	}
	return Session{
		IsLoggedIn:  true,
		User:        user,
		Initialized: true,
	}
}

// Expired reports whether a logged in session has passed its token expiry
func (s Session) Expired(now time.Time) bool {
	if !s.IsLoggedIn || s.User == nil {
		return false
	}
	return !now.Before(s.User.ExpiresAt)
}

func (s Session) String() string {
	return fmt.Sprintf("Session{IsLoggedIn: %t, Initialized: %t, User: %s}",
		s.IsLoggedIn, s.Initialized, s.User)
}
