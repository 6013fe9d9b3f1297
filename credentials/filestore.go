package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-climb-client/users"
)

// fileData is the on-disk shape of the credentials file.
type fileData struct {
	AccessToken  string         `json:"access_token,omitempty"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	User         *users.Profile `json:"user,omitempty"`
	Provider     Provider       `json:"provider,omitempty"`
	InstallID    string         `json:"install_id,omitempty"`
}

// FileStore persists credentials as a JSON file (0600). It is the
// local-storage analog: the refresh token only lands here on flows that do
// not use cookie-based refresh (e.g. password login).
type FileStore struct {
	path string
	log  zerolog.Logger

	lock sync.RWMutex
	data fileData
}

var _ Store = (*FileStore)(nil)

// FileStoreOption defines a function type to modify the FileStore instance.
type FileStoreOption func(*FileStore)

// WithLogger sets the logger used for write-path failures.
func WithLogger(log zerolog.Logger) FileStoreOption {
	return func(fs *FileStore) {
		fs.log = log
	}
}

// NewFileStore opens (or initialises) the credentials file at path. An
// unreadable or corrupt file is treated as empty rather than failing: the
// caller simply starts unauthenticated.
func NewFileStore(path string, options ...FileStoreOption) *FileStore {
	fs := &FileStore{
		path: path,
		log:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(fs)
	}

	fs.load()
	if fs.data.InstallID == "" {
		fs.data.InstallID = uuid.New().String()
	}
	return fs
}

// DefaultPath returns the per-user credentials file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "climb", "credentials.json"), nil
}

func (fs *FileStore) AccessToken() string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.data.AccessToken
}

func (fs *FileStore) SetAccessToken(token string) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.data.AccessToken = token
	fs.save()
}

func (fs *FileStore) RefreshToken() string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.data.RefreshToken
}

func (fs *FileStore) SetRefreshToken(token string) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.data.RefreshToken = token
	fs.save()
}

func (fs *FileStore) User() *users.Profile {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	if fs.data.User == nil {
		return nil
	}
	user := *fs.data.User
	return &user
}

func (fs *FileStore) SetUser(profile *users.Profile) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if profile == nil {
		fs.data.User = nil
	} else {
		user := *profile
		fs.data.User = &user
	}
	fs.save()
}

func (fs *FileStore) Provider() Provider {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.data.Provider
}

func (fs *FileStore) SetProvider(p Provider) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.data.Provider = p
	fs.save()
}

func (fs *FileStore) ClearAll() {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	installID := fs.data.InstallID
	fs.data = fileData{InstallID: installID}
	fs.save()
}

func (fs *FileStore) HasValidSession() bool {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.data.AccessToken != "" && fs.data.User != nil
}

// InstallID is a stable per-installation identifier, generated on first use.
func (fs *FileStore) InstallID() string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.data.InstallID
}

// load reads the credentials file. Failures are swallowed: a missing or
// corrupt file means "no stored session".
func (fs *FileStore) load() {
	raw, err := os.ReadFile(fs.path)
	if err != nil {
		if !os.IsNotExist(err) {
			fs.log.Debug().Err(err).Str("path", fs.path).Msg("credentials file unreadable, starting empty")
		}
		return
	}
	if err := json.Unmarshal(raw, &fs.data); err != nil {
		fs.log.Warn().Err(err).Str("path", fs.path).Msg("credentials file corrupt, starting empty")
		fs.data = fileData{}
	}
}

// save writes the credentials file. Callers hold the lock. Failures are
// logged, never propagated.
func (fs *FileStore) save() {
	raw, err := json.MarshalIndent(fs.data, "", "  ")
	if err != nil {
		fs.log.Error().Err(err).Msg("failed to encode credentials")
		return
	}
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		fs.log.Error().Err(err).Str("path", fs.path).Msg("failed to create credentials dir")
		return
	}
	if err := os.WriteFile(fs.path, raw, 0o600); err != nil {
		fs.log.Error().Err(err).Str("path", fs.path).Msg("failed to write credentials")
	}
}
