package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreatePopulatesEveryIndexKey(t *testing.T) {
	cached, _, store := newCachedUserFixture(t)
	ctx := context.Background()

	created, err := cached.Create(ctx, newTestUser("alice", "alice@example.com"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	require.True(t, store.has(userIDKey(created.ID)))
	require.True(t, store.has(userUsernameKey("alice")))
	require.True(t, store.has(userEmailKey("alice@example.com")))
}

func TestReadThroughServesFromCacheWithoutDurableAccess(t *testing.T) {
	cached, spy, _ := newCachedUserFixture(t)
	ctx := context.Background()

	created, err := cached.Create(ctx, newTestUser("alice", "alice@example.com"))
	require.NoError(t, err)

	byID, err := cached.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Username, byID.Username)
	require.Zero(t, spy.count("GetByID"))

	byUsername, err := cached.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, byUsername.ID)
	require.Zero(t, spy.count("GetByUsername"))

	byEmail, err := cached.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)
	require.Zero(t, spy.count("GetByEmail"))
}

func TestReadThroughMissPopulatesWholeIndexSet(t *testing.T) {
	cached, spy, store := newCachedUserFixture(t)
	ctx := context.Background()

	created, err := cached.Create(ctx, newTestUser("bob", "bob@example.com"))
	require.NoError(t, err)

	// Simulate TTL expiry of all index keys.
	require.NoError(t, store.Delete(ctx, indexKeys(created)...))

	fetched, err := cached.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)
	require.Equal(t, 1, spy.count("GetByUsername"))

	// One fetch primes every dimension, not just the one that missed.
	require.True(t, store.has(userIDKey(created.ID)))
	require.True(t, store.has(userEmailKey("bob@example.com")))
}

func TestRepeatedReadsAreIdempotent(t *testing.T) {
	cached, spy, store := newCachedUserFixture(t)
	ctx := context.Background()

	created, err := cached.Create(ctx, newTestUser("carol", "carol@example.com"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, indexKeys(created)...))

	first, err := cached.GetByID(ctx, created.ID)
	require.NoError(t, err)
	second, err := cached.GetByID(ctx, created.ID)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, spy.count("GetByID"))
}

func TestDecodeFailureFallsBackToDurableStore(t *testing.T) {
	cached, spy, store := newCachedUserFixture(t)
	ctx := context.Background()

	created, err := cached.Create(ctx, newTestUser("dave", "dave@example.com"))
	require.NoError(t, err)

	store.put(userIDKey(created.ID), []byte("{corrupt"))

	fetched, err := cached.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Username, fetched.Username)
	require.Equal(t, 1, spy.count("GetByID"))

	// The malformed entry was replaced by a fresh one.
	again, err := cached.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, fetched.ID, again.ID)
	require.Equal(t, 1, spy.count("GetByID"))
}

func TestMissReturnsNotFoundWithoutNegativeCaching(t *testing.T) {
	cached, spy, store := newCachedUserFixture(t)
	ctx := context.Background()

	_, err := cached.GetByID(ctx, "missing-id")
	require.ErrorIs(t, err, ErrUserNotFound)
	require.Equal(t, 1, spy.count("GetByID"))
	require.Zero(t, store.len())

	// Not-found results are never cached, so the durable store is asked again.
	_, err = cached.GetByID(ctx, "missing-id")
	require.ErrorIs(t, err, ErrUserNotFound)
	require.Equal(t, 2, spy.count("GetByID"))
}

func TestUpdateInvalidatesOldNaturalKeys(t *testing.T) {
	cached, _, store := newCachedUserFixture(t)
	ctx := context.Background()

	created, err := cached.Create(ctx, newTestUser("erin", "erin@old.com"))
	require.NoError(t, err)

	updated := *created
	updated.Email = "erin@new.com"
	updated.Username = "erin2"

	result, err := cached.Update(ctx, &updated)
	require.NoError(t, err)
	require.Equal(t, "erin@new.com", result.Email)

	require.False(t, store.has(userUsernameKey("erin")))
	require.False(t, store.has(userEmailKey("erin@old.com")))
	require.True(t, store.has(userUsernameKey("erin2")))
	require.True(t, store.has(userEmailKey("erin@new.com")))

	_, err = cached.GetByEmail(ctx, "erin@old.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	fresh, err := cached.GetByEmail(ctx, "erin@new.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, fresh.ID)
}

func TestUpdateRefusesMissingUser(t *testing.T) {
	cached, spy, _ := newCachedUserFixture(t)
	ctx := context.Background()

	ghost := newTestUser("ghost", "ghost@example.com")
	ghost.ID = "no-such-id"

	_, err := cached.Update(ctx, ghost)
	require.ErrorIs(t, err, ErrUserNotFound)
	require.Zero(t, spy.count("Update"))
}

func TestDeleteInvalidatesIndexAndDerivedViews(t *testing.T) {
	cached, _, store := newCachedUserFixture(t)
	ctx := context.Background()

	created, err := cached.Create(ctx, newTestUser("frank", "frank@example.com"))
	require.NoError(t, err)

	// Warm a list page so a stale derived view exists before the delete.
	page, err := cached.GetAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.True(t, store.has(usersListKey(10, 0)))

	require.NoError(t, cached.Delete(ctx, created.ID))

	require.False(t, store.has(userIDKey(created.ID)))
	require.False(t, store.has(usersListKey(10, 0)))

	_, err = cached.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	page, err = cached.GetAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Empty(t, page)
}

func TestListAndSearchAreCachedAsDerivedViews(t *testing.T) {
	cached, spy, store := newCachedUserFixture(t)
	ctx := context.Background()

	_, err := cached.Create(ctx, newTestUser("grace", "grace@example.com"))
	require.NoError(t, err)

	first, err := cached.GetAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, spy.count("GetAll"))

	second, err := cached.GetAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, spy.count("GetAll"))

	// Search results share one entry across case variants of the term.
	hits, err := cached.SearchByName(ctx, "Grace")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, 1, spy.count("SearchByName"))
	require.True(t, store.has(usersSearchKey("grace")))

	hits, err = cached.SearchByName(ctx, "GRACE")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, 1, spy.count("SearchByName"))
}

func TestEmptyResultSetsAreNotCached(t *testing.T) {
	cached, spy, store := newCachedUserFixture(t)
	ctx := context.Background()

	hits, err := cached.SearchByName(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, hits)
	require.False(t, store.has(usersSearchKey("nobody")))
	require.Equal(t, 1, spy.count("SearchByName"))
}

func TestCreateInvalidatesDerivedViews(t *testing.T) {
	cached, spy, _ := newCachedUserFixture(t)
	ctx := context.Background()

	_, err := cached.Create(ctx, newTestUser("heidi", "heidi@example.com"))
	require.NoError(t, err)

	page, err := cached.GetAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)

	_, err = cached.Create(ctx, newTestUser("ivan", "ivan@example.com"))
	require.NoError(t, err)

	page, err = cached.GetAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, 2, spy.count("GetAll"))
}

func TestUpdateInvalidatesDerivedViews(t *testing.T) {
	cached, _, _ := newCachedUserFixture(t)
	ctx := context.Background()

	created, err := cached.Create(ctx, newTestUser("judy", "judy@example.com"))
	require.NoError(t, err)

	page, err := cached.GetAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Equal(t, "Test judy", page[0].FullName)

	updated := *created
	updated.FullName = "Judy Renamed"
	_, err = cached.Update(ctx, &updated)
	require.NoError(t, err)

	page, err = cached.GetAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Equal(t, "Judy Renamed", page[0].FullName)
}

func TestCacheOutageDegradesToDurableStore(t *testing.T) {
	cached, spy, store := newCachedUserFixture(t)
	ctx := context.Background()

	created, err := cached.Create(ctx, newTestUser("kim", "kim@example.com"))
	require.NoError(t, err)

	store.fail()

	// Every operation keeps working, served by the durable repository.
	byID, err := cached.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Username, byID.Username)

	byUsername, err := cached.GetByUsername(ctx, "kim")
	require.NoError(t, err)
	require.Equal(t, created.ID, byUsername.ID)

	page, err := cached.GetAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)

	updated := *created
	updated.FullName = "Kim Updated"
	result, err := cached.Update(ctx, &updated)
	require.NoError(t, err)
	require.Equal(t, "Kim Updated", result.FullName)

	other, err := cached.Create(ctx, newTestUser("liam", "liam@example.com"))
	require.NoError(t, err)
	require.NoError(t, cached.Delete(ctx, other.ID))

	require.Positive(t, spy.count("GetByID"))
}

func TestConflictingCreatePropagatesDurableError(t *testing.T) {
	cached, _, _ := newCachedUserFixture(t)
	ctx := context.Background()

	_, err := cached.Create(ctx, newTestUser("mallory", "mallory@example.com"))
	require.NoError(t, err)

	_, err = cached.Create(ctx, newTestUser("mallory", "other@example.com"))
	require.ErrorIs(t, err, ErrUserExists)
}

func TestNewCachedUserRepositoryValidation(t *testing.T) {
	durable, err := NewGormUserRepository(openRepositoryTestDB(t))
	require.NoError(t, err)

	_, err = NewCachedUserRepository(nil, newFakeStore(), time.Hour)
	require.Error(t, err)

	_, err = NewCachedUserRepository(durable, nil, time.Hour)
	require.Error(t, err)

	repo, err := NewCachedUserRepository(durable, newFakeStore(), 0)
	require.NoError(t, err)
	require.Equal(t, DefaultCacheTTL, repo.ttl)
}

// Mirrors the lifecycle a use case drives end to end: create, rename the
// email, look up by both identities, delete, and confirm nothing lingers.
func TestUserLifecycleAcrossCache(t *testing.T) {
	cached, _, _ := newCachedUserFixture(t)
	ctx := context.Background()

	created, err := cached.Create(ctx, newTestUser("alice", "a@x.com"))
	require.NoError(t, err)

	byUsername, err := cached.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, byUsername.ID)

	updated := *created
	updated.Email = "alice@x.com"
	_, err = cached.Update(ctx, &updated)
	require.NoError(t, err)

	_, err = cached.GetByEmail(ctx, "a@x.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	current, err := cached.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, current.ID)

	require.NoError(t, cached.Delete(ctx, created.ID))

	_, err = cached.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	page, err := cached.GetAll(ctx, 10, 0)
	require.NoError(t, err)
	for _, user := range page {
		require.NotEqual(t, created.ID, user.ID)
	}
}

func TestCacheMissEquivalence(t *testing.T) {
	// Two identical stacks, one with a permanently failing store. Results of
	// every operation must match.
	warm, _, _ := newCachedUserFixture(t)
	cold, _, coldStore := newCachedUserFixture(t)
	coldStore.fail()

	ctx := context.Background()

	for _, cached := range []*CachedUserRepository{warm, cold} {
		_, err := cached.Create(ctx, newTestUser("nina", "nina@example.com"))
		require.NoError(t, err)
	}

	warmUser, err := warm.GetByUsername(ctx, "nina")
	require.NoError(t, err)
	coldUser, err := cold.GetByUsername(ctx, "nina")
	require.NoError(t, err)
	require.Equal(t, warmUser.Username, coldUser.Username)
	require.Equal(t, warmUser.Email, coldUser.Email)

	warmPage, err := warm.GetAll(ctx, 5, 0)
	require.NoError(t, err)
	coldPage, err := cold.GetAll(ctx, 5, 0)
	require.NoError(t, err)
	require.Len(t, coldPage, len(warmPage))

	_, err = warm.GetByEmail(ctx, "absent@example.com")
	warmErr := err
	_, err = cold.GetByEmail(ctx, "absent@example.com")
	require.Equal(t, warmErr, err)
}
