package vota

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// SessionServiceOption customizes service construction.
type SessionServiceOption func(*SessionService)

// WithServiceClock injects a custom clock (useful for tests).
func WithServiceClock(clock func() time.Time) SessionServiceOption {
	return func(s *SessionService) {
		if clock != nil {
			s.now = clock
		}
	}
}

func WithServiceLogger(logger Logger) SessionServiceOption {
	return func(s *SessionService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServiceMessages sets the locale of the sign-in failure message.
func WithServiceMessages(messages *Messages) SessionServiceOption {
	return func(s *SessionService) {
		if messages != nil {
			s.messages = messages
		}
	}
}

// WithServiceActivitySink sets the ActivitySink used to publish session events.
func WithServiceActivitySink(sink ActivitySink) SessionServiceOption {
	return func(s *SessionService) {
		s.activitySink = normalizeActivitySink(sink)
	}
}

// SessionService signs users in and out and keeps the SessionStore and
// its credential store in step.
type SessionService struct {
	users        *UserClient
	store        *SessionStore
	now          func() time.Time
	logger       Logger
	messages     *Messages
	activitySink ActivitySink
}

func NewSessionService(users *UserClient, store *SessionStore, opts ...SessionServiceOption) *SessionService {
	s := &SessionService{
		users:        users,
		store:        store,
		now:          time.Now,
		logger:       defLogger{},
		messages:     NewMessages(DefaultLocale),
		activitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// SignIn authenticates username and publishes the resulting session. On
// failure the current session is left unchanged.
func (s *SessionService) SignIn(ctx context.Context, username, password string) error {
	resp, err := s.users.SignIn(ctx, SignInRequest{Username: username, Password: password})
	if err != nil {
		s.logger.Error("SignIn request failed", "username", username, "error", err)
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventSignInFailure,
			Username:  username,
			Metadata:  map[string]any{"reason": ErrorMessage(err)},
		})
		if IsAPIError(err) {
			return s.signInFailed(err)
		}
		return err
	}

	claims, err := DecodeToken(resp.Token)
	if err != nil {
		s.logger.Error("SignIn received malformed token", "username", username, "error", err)
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventSignInFailure,
			Username:  username,
			Metadata:  map[string]any{"reason": "malformed_token"},
		})
		return err
	}

	now := s.now()
	if IsExpired(claims, now) {
		s.logger.Warn("SignIn received expired token", "username", username, "expired_at", claims.Expires())
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventSignInFailure,
			Username:  username,
			Metadata:  map[string]any{"reason": "expired_token"},
		})
		return s.signInFailed(nil)
	}

	if s.store.credentials != nil {
		if err := s.store.credentials.Save(ctx, resp.Token); err != nil {
			s.logger.Error("SignIn failed to persist credential", "username", username, "error", err)
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist session credential")
		}
	}

	user := UserFromClaims(claims, resp.Token)
	s.store.Replace(NewSession(user, now))

	s.logger.Info("SignIn succeeded", "username", user.Name, "user_id", user.ID, "role", user.Role)
	s.record(ctx, ActivityEvent{
		EventType: ActivityEventSignInSuccess,
		Username:  user.Name,
		UserID:    user.ID,
		Metadata:  map[string]any{"role": user.Role.String(), "expires_at": user.ExpiresAt},
	})

	return nil
}

// SignOut erases the credential and publishes LoggedOut. It always
// succeeds; storage failures are logged.
func (s *SessionService) SignOut(ctx context.Context) {
	s.signOut(ctx, ActivityEventSignOut)
}

// ResetPassword asks the API to mail a reset link to username
func (s *SessionService) ResetPassword(ctx context.Context, username string) error {
	if err := s.users.ResetPassword(ctx, username); err != nil {
		s.logger.Error("ResetPassword failed", "username", username, "error", err)
		return err
	}
	return nil
}

// Refresh signs out a session whose token expired since it was published
// and returns the current snapshot.
func (s *SessionService) Refresh(ctx context.Context) Session {
	current := s.store.Current()
	if current.Expired(s.now()) {
		s.logger.Info("Session expired", "username", current.User.Name)
		s.signOut(ctx, ActivityEventExpired)
	}
	return s.store.Current()
}

func (s *SessionService) signOut(ctx context.Context, eventType ActivityEventType) {
	previous := s.store.Current()

	if s.store.credentials != nil {
		if err := s.store.credentials.Remove(ctx); err != nil {
			s.logger.Error("SignOut failed to remove credential", "error", err)
		}
	}

	s.store.Replace(LoggedOut())

	event := ActivityEvent{EventType: eventType}
	if previous.User != nil {
		event.Username = previous.User.Name
		event.UserID = previous.User.ID
	}
	s.record(ctx, event)
}

func (s *SessionService) signInFailed(source error) error {
	status := 0
	var richErr *goerrors.Error
	if errors.As(source, &richErr) && richErr != nil {
		status = richErr.Code
	}
	return newAPIError(ErrSignInFailed, s.messages.SignInFailed(), status, userSignIn.Operation, source)
}

func (s *SessionService) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}
	if err := s.activitySink.Record(ctx, event); err != nil {
		s.logger.Error("failed to record session activity", "event", event.EventType, "error", err)
	}
}
