package storefakes

import (
	"sync"

	"github.com/jrsteele09/go-climb-client/credentials"
	"github.com/jrsteele09/go-climb-client/users"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory credentials.Store for tests.
type FakeStore struct {
	lock         sync.RWMutex
	accessToken  string
	refreshToken string
	user         *users.Profile
	provider     credentials.Provider
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (fs *FakeStore) AccessToken() string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.accessToken
}

func (fs *FakeStore) SetAccessToken(token string) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.accessToken = token
}

func (fs *FakeStore) RefreshToken() string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.refreshToken
}

func (fs *FakeStore) SetRefreshToken(token string) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.refreshToken = token
}

func (fs *FakeStore) User() *users.Profile {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.user
}

func (fs *FakeStore) SetUser(profile *users.Profile) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.user = profile
}

func (fs *FakeStore) Provider() credentials.Provider {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.provider
}

func (fs *FakeStore) SetProvider(p credentials.Provider) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.provider = p
}

func (fs *FakeStore) ClearAll() {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.accessToken = ""
	fs.refreshToken = ""
	fs.user = nil
	fs.provider = ""
}

func (fs *FakeStore) HasValidSession() bool {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.accessToken != "" && fs.user != nil
}
