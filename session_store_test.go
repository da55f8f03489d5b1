package vota_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/michivo/go-vota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionRecorder struct {
	mu       sync.Mutex
	sessions []vota.Session
}

func (r *sessionRecorder) listen(s vota.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
}

func (r *sessionRecorder) all() []vota.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]vota.Session, len(r.sessions))
	copy(out, r.sessions)
	return out
}

func namedSession(name string) vota.Session {
	return vota.Session{
		IsLoggedIn:  true,
		Initialized: true,
		User:        &vota.User{Name: name, ExpiresAt: testNow.Add(time.Hour)},
	}
}

func TestSessionStoreStartsUninitialized(t *testing.T) {
	store := vota.NewSessionStore(nil)
	assert.Equal(t, vota.Session{}, store.Current())
	assert.False(t, store.Current().Initialized)
}

func TestSessionStoreSubscribeReplaysCurrent(t *testing.T) {
	store := vota.NewSessionStore(nil)
	store.Replace(namedSession("alice"))

	rec := &sessionRecorder{}
	unsubscribe := store.Subscribe(rec.listen)
	defer unsubscribe()

	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].User.Name)
}

func TestSessionStoreDeliversInPublicationOrder(t *testing.T) {
	store := vota.NewSessionStore(nil)
	rec := &sessionRecorder{}
	store.Subscribe(rec.listen)

	store.Replace(namedSession("a"))
	store.Replace(namedSession("b"))
	store.Replace(vota.LoggedOut())

	got := rec.all()
	require.Len(t, got, 4)
	assert.Equal(t, vota.Session{}, got[0])
	assert.Equal(t, "a", got[1].User.Name)
	assert.Equal(t, "b", got[2].User.Name)
	assert.Equal(t, vota.LoggedOut(), got[3])
	assert.Equal(t, vota.LoggedOut(), store.Current())
}

func TestSessionStoreReentrantReplaceIsQueued(t *testing.T) {
	store := vota.NewSessionStore(nil)

	store.Subscribe(func(s vota.Session) {
		if s.User != nil && s.User.Name == "a" {
			store.Replace(namedSession("b"))
		}
	})

	rec := &sessionRecorder{}
	store.Subscribe(rec.listen)

	done := make(chan struct{})
	go func() {
		store.Replace(namedSession("a"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reentrant Replace deadlocked")
	}

	got := rec.all()
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[1].User.Name)
	assert.Equal(t, "b", got[2].User.Name)
	assert.Equal(t, "b", store.Current().User.Name)
}

func TestSessionStoreUnsubscribeInsideNotification(t *testing.T) {
	store := vota.NewSessionStore(nil)

	rec := &sessionRecorder{}
	var unsubscribeOther func()

	store.Subscribe(func(s vota.Session) {
		if s.User != nil && s.User.Name == "a" && unsubscribeOther != nil {
			unsubscribeOther()
		}
	})
	unsubscribeOther = store.Subscribe(rec.listen)

	store.Replace(namedSession("a"))
	store.Replace(namedSession("b"))

	got := rec.all()
	require.Len(t, got, 1, "only the replayed snapshot is delivered")
	assert.Equal(t, vota.Session{}, got[0])
}

func TestSessionStoreSelfUnsubscribe(t *testing.T) {
	store := vota.NewSessionStore(nil)

	calls := 0
	var unsubscribe func()
	unsubscribe = store.Subscribe(func(s vota.Session) {
		calls++
		if s.User != nil && unsubscribe != nil {
			unsubscribe()
			unsubscribe()
		}
	})

	store.Replace(namedSession("a"))
	store.Replace(namedSession("b"))

	assert.Equal(t, 2, calls)
}

func TestSessionStoreConcurrentReplace(t *testing.T) {
	store := vota.NewSessionStore(nil)
	rec := &sessionRecorder{}
	store.Subscribe(rec.listen)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Replace(namedSession("concurrent"))
		}()
	}
	wg.Wait()

	assert.Len(t, rec.all(), 51)
}

func TestSessionStoreInitialize(t *testing.T) {
	ctx := context.Background()
	valid := userToken(t, 42, 1, testNow.Add(time.Hour))
	expired := userToken(t, 42, 1, testNow.Add(-time.Second))
	atBoundary := userToken(t, 42, 1, testNow)

	t.Run("no credential", func(t *testing.T) {
		store := vota.NewSessionStore(vota.NewMemoryCredentialStore(), vota.WithSessionClock(fixedClock(testNow)))
		assert.Equal(t, vota.LoggedOut(), store.Initialize(ctx))
		assert.Equal(t, vota.LoggedOut(), store.Current())
	})

	t.Run("nil credential store", func(t *testing.T) {
		store := vota.NewSessionStore(nil)
		assert.Equal(t, vota.LoggedOut(), store.Initialize(ctx))
	})

	t.Run("valid credential", func(t *testing.T) {
		creds := vota.NewMemoryCredentialStore()
		require.NoError(t, creds.Save(ctx, valid))

		store := vota.NewSessionStore(creds, vota.WithSessionClock(fixedClock(testNow)))
		session := store.Initialize(ctx)

		assert.True(t, session.IsLoggedIn)
		assert.True(t, session.Initialized)
		require.NotNil(t, session.User)
		assert.Equal(t, int64(42), session.User.ID)
		assert.Equal(t, valid, session.User.Token)

		stored, ok, err := creds.Load(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, valid, stored)
	})

	for name, token := range map[string]string{
		"expired credential":  expired,
		"expiry equal to now": atBoundary,
		"malformed":           "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			creds := vota.NewMemoryCredentialStore()
			require.NoError(t, creds.Save(ctx, token))

			store := vota.NewSessionStore(creds,
				vota.WithSessionClock(fixedClock(testNow)),
				vota.WithSessionLogger(&captureLogger{}),
			)
			assert.Equal(t, vota.LoggedOut(), store.Initialize(ctx))

			_, ok, err := creds.Load(ctx)
			require.NoError(t, err)
			assert.False(t, ok, "credential must be erased")
		})
	}

	t.Run("read failure degrades to logged out", func(t *testing.T) {
		logger := &captureLogger{}
		creds := &failingCredentialStore{loadErr: errors.New("disk on fire")}

		store := vota.NewSessionStore(creds, vota.WithSessionLogger(logger))
		assert.Equal(t, vota.LoggedOut(), store.Initialize(ctx))
		assert.Equal(t, 1, logger.count("error"))
		assert.Zero(t, creds.removed)
	})
}

func TestSessionStoreInitializeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	creds := vota.NewMemoryCredentialStore()
	require.NoError(t, creds.Save(ctx, userToken(t, 42, 1, testNow.Add(time.Hour))))

	store := vota.NewSessionStore(creds, vota.WithSessionClock(fixedClock(testNow)))

	first := store.Initialize(ctx)
	second := store.Initialize(ctx)

	assert.Equal(t, first, second)
	assert.Equal(t, second, store.Current())
}

func TestSessionContext(t *testing.T) {
	store := vota.NewSessionStore(nil)
	store.Replace(namedSession("alice"))

	_, ok := vota.SessionFromContext(context.Background())
	assert.False(t, ok)
	assert.Equal(t, vota.Session{}, vota.CurrentSession(context.Background()))

	ctx := vota.WithSessionContext(context.Background(), store)
	got, ok := vota.SessionFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, store, got)
	assert.Equal(t, "alice", vota.CurrentSession(ctx).User.Name)
}
