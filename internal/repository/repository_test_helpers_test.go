package repository

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/charlesng35/userhub/internal/cache"
	"github.com/charlesng35/userhub/internal/models"
)

var testDBCounter atomic.Int64

// openRepositoryTestDB opens a uniquely named shared-cache in-memory database
// so every pooled connection sees the same data while tests stay isolated.
func openRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repotest%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserProfile{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// fakeStore is a map-backed cache.Store with failure injection. Glob patterns
// are matched with path.Match, which is sufficient for the coarse patterns the
// repositories use.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	failing bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string][]byte)}
}

func (s *fakeStore) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = true
}

func (s *fakeStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, false, cache.Unavailable(errors.New("injected"))
	}
	value, ok := s.entries[key]
	return value, ok, nil
}

func (s *fakeStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return cache.Unavailable(errors.New("injected"))
	}
	s.entries[key] = value
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return cache.Unavailable(errors.New("injected"))
	}
	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

func (s *fakeStore) DeletePattern(ctx context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return cache.Unavailable(errors.New("injected"))
	}
	for key := range s.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *fakeStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return cache.Unavailable(errors.New("injected"))
	}
	return nil
}

func (s *fakeStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

func (s *fakeStore) put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

func (s *fakeStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// spyUserRepository counts calls into the durable user repository.
type spyUserRepository struct {
	inner UserRepository

	mu    sync.Mutex
	calls map[string]int
}

func newSpyUserRepository(inner UserRepository) *spyUserRepository {
	return &spyUserRepository{inner: inner, calls: make(map[string]int)}
}

func (s *spyUserRepository) record(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[method]++
}

func (s *spyUserRepository) count(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *spyUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	s.record("Create")
	return s.inner.Create(ctx, user)
}

func (s *spyUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.record("GetByID")
	return s.inner.GetByID(ctx, id)
}

func (s *spyUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s.record("GetByUsername")
	return s.inner.GetByUsername(ctx, username)
}

func (s *spyUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.record("GetByEmail")
	return s.inner.GetByEmail(ctx, email)
}

func (s *spyUserRepository) SearchByName(ctx context.Context, name string) ([]models.User, error) {
	s.record("SearchByName")
	return s.inner.SearchByName(ctx, name)
}

func (s *spyUserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	s.record("Update")
	return s.inner.Update(ctx, user)
}

func (s *spyUserRepository) Delete(ctx context.Context, id string) error {
	s.record("Delete")
	return s.inner.Delete(ctx, id)
}

func (s *spyUserRepository) GetAll(ctx context.Context, limit, offset int) ([]models.User, error) {
	s.record("GetAll")
	return s.inner.GetAll(ctx, limit, offset)
}

// newCachedUserFixture wires a cached repository over a real sqlite-backed
// durable repository with a spy in between.
func newCachedUserFixture(t *testing.T) (*CachedUserRepository, *spyUserRepository, *fakeStore) {
	t.Helper()

	durable, err := NewGormUserRepository(openRepositoryTestDB(t))
	require.NoError(t, err)

	spy := newSpyUserRepository(durable)
	store := newFakeStore()

	cached, err := NewCachedUserRepository(spy, store, time.Hour)
	require.NoError(t, err)

	return cached, spy, store
}

func newTestUser(username, email string) *models.User {
	return &models.User{
		Username:       username,
		Email:          email,
		FullName:       "Test " + username,
		HashedPassword: "hashed-secret",
		Role:           models.RoleUser,
		IsActive:       true,
	}
}
