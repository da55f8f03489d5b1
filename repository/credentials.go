package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/michivo/go-vota"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var _ vota.CredentialStore = &BunCredentialStore{}

// CredentialModel is the Bun model for persisted session tokens.
type CredentialModel struct {
	bun.BaseModel `bun:"table:credentials"`

	Key       string     `bun:"credential_key,pk"`
	Token     string     `bun:"token,notnull"`
	ExpiresAt *time.Time `bun:"expires_at,nullzero"`
	UpdatedAt time.Time  `bun:"updated_at,notnull"`
}

// BunCredentialStore implements vota.CredentialStore using Bun.
type BunCredentialStore struct {
	db  *bun.DB
	key string
	now func() time.Time
}

// BunOption customizes the bun store.
type BunOption func(*BunCredentialStore)

// WithBunClock injects a custom clock (useful for tests).
func WithBunClock(clock func() time.Time) BunOption {
	return func(s *BunCredentialStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewBunCredentialStore creates a store keyed by vota.CredentialKey.
// The credentials table must exist, see EnsureSchema.
func NewBunCredentialStore(db *bun.DB, opts ...BunOption) *BunCredentialStore {
	s := &BunCredentialStore{
		db:  db,
		key: vota.CredentialKey,
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// OpenSQLiteCredentialStore opens (or creates) the SQLite database at dsn
// and makes sure the credentials table exists.
func OpenSQLiteCredentialStore(ctx context.Context, dsn string) (*BunCredentialStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open credential database").
			WithMetadata(map[string]any{"dsn": dsn})
	}
	sqldb.SetMaxOpenConns(1)

	store := NewBunCredentialStore(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := store.EnsureSchema(ctx); err != nil {
		sqldb.Close()
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the credentials table when missing.
func (s *BunCredentialStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*CredentialModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create credentials table")
	}
	return nil
}

// Load implements vota.CredentialStore.
func (s *BunCredentialStore) Load(ctx context.Context) (string, bool, error) {
	var model CredentialModel
	err := s.db.NewSelect().
		Model(&model).
		Where("credential_key = ?", s.key).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load credential")
	}
	return model.Token, model.Token != "", nil
}

// Save implements vota.CredentialStore.
func (s *BunCredentialStore) Save(ctx context.Context, token string) error {
	model := &CredentialModel{
		Key:       s.key,
		Token:     token,
		ExpiresAt: tokenExpiry(token),
		UpdatedAt: s.now().UTC(),
	}

	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (credential_key) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("expires_at = EXCLUDED.expires_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save credential")
	}
	return nil
}

// Remove implements vota.CredentialStore.
func (s *BunCredentialStore) Remove(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*CredentialModel)(nil)).
		Where("credential_key = ?", s.key).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove credential")
	}
	return nil
}

// PurgeExpired deletes stored tokens whose expiry passed before now.
func (s *BunCredentialStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*CredentialModel)(nil)).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now().UTC()).
		Exec(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to purge credentials")
	}
	return res.RowsAffected()
}

func (s *BunCredentialStore) Close() error {
	return s.db.Close()
}

func tokenExpiry(token string) *time.Time {
	claims, err := vota.DecodeToken(token)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}
	exp := claims.Expires().UTC()
	return &exp
}
