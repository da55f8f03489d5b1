package vota

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// SessionListener receives session snapshots.
type SessionListener func(Session)

// SessionStoreOption customizes store construction.
type SessionStoreOption func(*SessionStore)

// WithSessionClock injects a custom clock (useful for tests).
func WithSessionClock(clock func() time.Time) SessionStoreOption {
	return func(s *SessionStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithSessionLogger overrides the logger used for restore failures.
func WithSessionLogger(logger Logger) SessionStoreOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// SessionStore holds the current Session and notifies subscribers of every
// replacement in publication order.
type SessionStore struct {
	credentials CredentialStore
	logger      Logger
	now         func() time.Time

	mu        sync.Mutex
	current   Session
	seq       uint64
	pending   []publication
	draining  bool
	listeners []*subscription
	nextID    uint64
}

type publication struct {
	seq     uint64
	session Session
}

type subscription struct {
	id       uint64
	listener SessionListener
	since    uint64
	active   atomic.Bool
}

// NewSessionStore returns a store in the uninitialized state. credentials
// may be nil, in which case Initialize always publishes LoggedOut.
func NewSessionStore(credentials CredentialStore, opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{
		credentials: credentials,
		logger:      defLogger{},
		now:         time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Current returns the latest snapshot.
func (s *SessionStore) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Replace publishes next. Calls made from inside a listener are queued and
// delivered after the current notification round.
func (s *SessionStore) Replace(next Session) {
	s.mu.Lock()
	s.seq++
	s.current = next
	s.pending = append(s.pending, publication{seq: s.seq, session: next})
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()

	s.drain()
}

// Subscribe delivers the current snapshot to listener right away and every
// later one until the returned function is called.
func (s *SessionStore) Subscribe(listener SessionListener) (unsubscribe func()) {
	if listener == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextID++
	sub := &subscription{
		id:       s.nextID,
		listener: listener,
		since:    s.seq,
	}
	sub.active.Store(true)
	s.listeners = append(s.listeners, sub)
	current := s.current
	s.mu.Unlock()

	listener(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			s.remove(sub.id)
		})
	}
}

// Initialize restores the session from the credential store and publishes
// the result. A malformed or expired credential is erased.
func (s *SessionStore) Initialize(ctx context.Context) Session {
	next := s.restore(ctx)
	s.Replace(next)
	return next
}

func (s *SessionStore) restore(ctx context.Context) Session {
	if s.credentials == nil {
		return LoggedOut()
	}

	token, ok, err := s.credentials.Load(ctx)
	if err != nil {
		s.logger.Error("Session restore failed to read credential", "error", err)
		return LoggedOut()
	}

	if !ok || token == "" {
		return LoggedOut()
	}

	claims, err := DecodeToken(token)
	if err != nil {
		s.logger.Warn("Session restore found malformed credential", "error", err)
		s.erase(ctx)
		return LoggedOut()
	}

	now := s.now()
	if IsExpired(claims, now) {
		s.logger.Info("Session restore found expired credential", "user", claims.Username(), "expired_at", claims.Expires())
		s.erase(ctx)
		return LoggedOut()
	}

	return NewSession(UserFromClaims(claims, token), now)
}

func (s *SessionStore) erase(ctx context.Context) {
	if err := s.credentials.Remove(ctx); err != nil {
		s.logger.Error("Session failed to remove credential", "error", err)
	}
}

func (s *SessionStore) drain() {
	done := false
	defer func() {
		if !done {
			s.mu.Lock()
			s.draining = false
			s.mu.Unlock()
		}
	}()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.draining = false
			s.mu.Unlock()
			done = true
			return
		}
		item := s.pending[0]
		s.pending = s.pending[1:]
		subs := make([]*subscription, len(s.listeners))
		copy(subs, s.listeners)
		s.mu.Unlock()

		for _, sub := range subs {
			if !sub.active.Load() || item.seq <= sub.since {
				continue
			}
			sub.listener(item.session)
		}
	}
}

func (s *SessionStore) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.listeners {
		if sub.id == id {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			return
		}
	}
}
