package vota

import "context"

var sessionStoreCtxKey = &contextKey{"session_store"}

type contextKey struct {
	name string
}

// WithSessionContext sets the SessionStore in the given context
func WithSessionContext(ctx context.Context, store *SessionStore) context.Context {
	return context.WithValue(ctx, sessionStoreCtxKey, store)
}

// SessionFromContext finds the SessionStore from the context.
func SessionFromContext(ctx context.Context) (*SessionStore, bool) {
	raw, ok := ctx.Value(sessionStoreCtxKey).(*SessionStore)
	return raw, ok && raw != nil
}

// CurrentSession returns the snapshot of the store carried by ctx, or a
// zero Session when there is none.
func CurrentSession(ctx context.Context) Session {
	store, ok := SessionFromContext(ctx)
	if !ok {
		return Session{}
	}
	return store.Current()
}
