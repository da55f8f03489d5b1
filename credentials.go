package vota

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// CredentialKey is the fixed key the session token is stored under.
const CredentialKey = "user"

var _ CredentialStore = &MemoryCredentialStore{}
var _ CredentialStore = &FileCredentialStore{}

// MemoryCredentialStore keeps the token for the lifetime of the process.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (m *MemoryCredentialStore) Load(ctx context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.set, nil
}

func (m *MemoryCredentialStore) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.set = true
	return nil
}

func (m *MemoryCredentialStore) Remove(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.set = false
	return nil
}

// FileCredentialStore keeps the token in a file named after CredentialKey
// inside dir.
type FileCredentialStore struct {
	mu   sync.Mutex
	path string
}

func NewFileCredentialStore(dir string) *FileCredentialStore {
	return &FileCredentialStore{path: filepath.Join(dir, CredentialKey)}
}

// Path returns the file the token is written to
func (f *FileCredentialStore) Path() string {
	return f.path
}

func (f *FileCredentialStore) Load(ctx context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read credential file").
			WithMetadata(map[string]any{"path": f.path})
	}

	token := strings.TrimSpace(string(data))
	return token, token != "", nil
}

func (f *FileCredentialStore) Save(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create credential directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+CredentialKey+"-*")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write credential file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write credential file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write credential file")
	}
	if err := tmp.Close(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write credential file")
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write credential file")
	}
	return nil
}

func (f *FileCredentialStore) Remove(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove credential file")
	}
	return nil
}
