package preferences

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewStore(db)
}

func TestStore_LastRoot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.LastRoot(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveRoot(ctx, "/work/one/.git"))
	require.NoError(t, store.SaveRoot(ctx, "/work/two/.git"))

	root, err := store.LastRoot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/work/two/.git", root)
}

func TestStore_Recent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, root := range []string{"/a/.git", "/b/.git", "/c/.git"} {
		require.NoError(t, store.SaveRoot(ctx, root))
		time.Sleep(2 * time.Millisecond)
	}
	// reopening moves a root to the front
	require.NoError(t, store.SaveRoot(ctx, "/a/.git"))

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "/a/.git", recent[0].Root)
	assert.Equal(t, "/c/.git", recent[1].Root)

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_Forget(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveRoot(ctx, "/a/.git"))
	require.NoError(t, store.SaveRoot(ctx, "/b/.git"))

	require.NoError(t, store.Forget(ctx, "/a/.git"))
	root, err := store.LastRoot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/b/.git", root)

	require.NoError(t, store.Forget(ctx, "/b/.git"))
	_, err = store.LastRoot(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, store.Forget(ctx, "/b/.git"), ErrNotFound)
}
