package creds

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/remotehelp/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() (*Store, *InMemoryRepository) {
	repo := NewInMemoryRepository()
	return NewStore(repo), repo
}

func TestCreateAndVerify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newTestStore()

	require.NoError(t, store.CreateOrMigrate(ctx, "alice", "correct horse"))

	ok, err := store.Verify(ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Verify(ctx, "alice", "wrong horse")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_UnknownUserFailsClosed(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore()

	ok, err := store.Verify(context.Background(), "nobody", "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_MigratesLegacyRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, repo := newTestStore()

	require.NoError(t, repo.Put(ctx, NewLegacyRecord("bob", "hunter2")))

	ok, err := store.Verify(ctx, "bob", "hunter2")
	require.NoError(t, err)
	require.True(t, ok)

	rec, err := repo.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, KindSalted, rec.Kind)
	assert.Len(t, rec.Salt, saltSize)

	// The original password keeps working after migration.
	ok, err = store.Verify(ctx, "bob", "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_WrongPasswordDoesNotMigrate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, repo := newTestStore()

	require.NoError(t, repo.Put(ctx, NewLegacyRecord("bob", "hunter2")))

	ok, err := store.Verify(ctx, "bob", "hunter3")
	require.NoError(t, err)
	require.False(t, ok)

	rec, err := repo.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, KindLegacy, rec.Kind)
}

func TestCreateOrMigrate_ExistingRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, repo := newTestStore()

	require.NoError(t, repo.Put(ctx, NewLegacyRecord("carol", "pw")))

	t.Run("matching password migrates", func(t *testing.T) {
		require.NoError(t, store.CreateOrMigrate(ctx, "carol", "pw"))
		rec, err := repo.Get(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, KindSalted, rec.Kind)
	})

	t.Run("salted record is idempotent", func(t *testing.T) {
		before, err := repo.Get(ctx, "carol")
		require.NoError(t, err)
		require.NoError(t, store.CreateOrMigrate(ctx, "carol", "pw"))
		after, err := repo.Get(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, before.Salt, after.Salt)
	})

	t.Run("mismatch is rejected", func(t *testing.T) {
		err := store.CreateOrMigrate(ctx, "carol", "other")
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, repo := newTestStore()

	require.NoError(t, store.CreateOrMigrate(ctx, "dave", "old"))
	before, err := repo.Get(ctx, "dave")
	require.NoError(t, err)

	require.NoError(t, store.ChangePassword(ctx, "dave", "new"))
	after, err := repo.Get(ctx, "dave")
	require.NoError(t, err)

	// Salt is regenerated, never reused.
	assert.NotEqual(t, before.Salt, after.Salt)

	ok, err := store.Verify(ctx, "dave", "new")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Verify(ctx, "dave", "old")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChangePassword_UnknownUser(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore()

	err := store.ChangePassword(context.Background(), "nobody", "pw")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newTestStore()

	require.NoError(t, store.CreateOrMigrate(ctx, "eve", "pw"))
	require.NoError(t, store.Delete(ctx, "eve"))

	ok, err := store.Verify(ctx, "eve", "pw")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentVerify_SameUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, repo := newTestStore()

	// Many goroutines hitting a legacy record at once: exactly one
	// migration happens and every verification succeeds.
	require.NoError(t, repo.Put(ctx, NewLegacyRecord("frank", "pw")))

	var wg sync.WaitGroup
	results := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Verify(ctx, "frank", "pw")
			if err != nil {
				t.Errorf("Verify error: %v", err)
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	for ok := range results {
		assert.True(t, ok)
	}

	rec, err := repo.Get(ctx, "frank")
	require.NoError(t, err)
	assert.Equal(t, KindSalted, rec.Kind)
}
