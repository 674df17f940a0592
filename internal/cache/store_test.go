package cache

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := NewFSStore(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"fs":     fsStore,
		"sqlite": sqliteStore,
	}
}

func TestStores_Contract(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			key := SlotKey(TagMain, "/")
			created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

			_, err := store.Get(ctx, key)
			require.True(t, IsNotFound(err), "expected not found, got %v", err)

			require.NoError(t, store.Put(ctx, &Entry{
				Key: key, Identity: "/", VersionStamp: "1.0.0", Body: []byte("<html>one</html>"), CreatedAt: created,
			}))
			got, err := store.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, "/", got.Identity)
			assert.Equal(t, "1.0.0", got.VersionStamp)
			assert.Equal(t, []byte("<html>one</html>"), got.Body)
			assert.True(t, created.Equal(got.CreatedAt))

			require.NoError(t, store.Put(ctx, &Entry{
				Key: key, Identity: "/", VersionStamp: "1.0.1", Body: []byte("<html>two</html>"),
			}))
			got, err = store.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, "1.0.1", got.VersionStamp)
			assert.Equal(t, []byte("<html>two</html>"), got.Body)

			other := SlotKey(TagTables, "/tables")
			require.NoError(t, store.Put(ctx, &Entry{Key: other, Identity: "/tables", VersionStamp: "1.0.0", Body: []byte("t")}))

			infos, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, infos, 2)
			byKey := map[string]EntryInfo{}
			for _, info := range infos {
				byKey[info.Key] = info
			}
			assert.Equal(t, "1.0.1", byKey[key].VersionStamp)
			assert.Equal(t, int64(len("<html>two</html>")), byKey[key].Size)
			assert.Equal(t, "/tables", byKey[other].Identity)

			require.NoError(t, store.Delete(ctx, key))
			assert.True(t, IsNotFound(store.Delete(ctx, key)))
			_, err = store.Get(ctx, key)
			assert.True(t, IsNotFound(err))
			require.NoError(t, store.Close())
		})
	}
}

func TestStores_ConcurrentWritersLastWins(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			key := SlotKey(TagMain, "/race")
			var wg sync.WaitGroup
			for i := range 8 {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, store.Put(ctx, &Entry{
						Key: key, Identity: "/race", VersionStamp: "1.0.0", Body: []byte{byte('a' + i)},
					}))
				}(i)
			}
			wg.Wait()

			got, err := store.Get(ctx, key)
			require.NoError(t, err)
			require.Len(t, got.Body, 1)
			assert.GreaterOrEqual(t, got.Body[0], byte('a'))
			assert.LessOrEqual(t, got.Body[0], byte('h'))
		})
	}
}

func TestMemoryStore_CopiesBodies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	body := []byte("abc")
	require.NoError(t, store.Put(ctx, &Entry{Key: "k1", Body: body}))
	body[0] = 'X'

	got, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got.Body)
	got.Body[1] = 'Y'

	again, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again.Body)
	assert.Equal(t, 1, store.Len())
}

func TestFSStore_RejectsInvalidKeys(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "ab", "../../etc/passwd", "ABCDEF"} {
		assert.Error(t, store.Put(context.Background(), &Entry{Key: key}), key)
		_, err := store.Get(context.Background(), key)
		assert.Error(t, err, key)
	}
}

func TestFSStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	key := SlotKey(TagMain, "/persist")

	store, err := NewFSStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, &Entry{Key: key, Identity: "/persist", VersionStamp: "2.0.0", Body: []byte("body")}))

	reopened, err := NewFSStore(dir)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", got.VersionStamp)
	assert.Equal(t, dir, reopened.BasePath())
}

func TestSQLiteStore_DeleteStale(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(ctx, &Entry{Key: "a1", VersionStamp: "1.0.0", Body: []byte("a")}))
	require.NoError(t, store.Put(ctx, &Entry{Key: "b2", VersionStamp: "1.0.1", Body: []byte("b")}))
	require.NoError(t, store.Put(ctx, &Entry{Key: "c3", VersionStamp: "1.0.0", Body: []byte("c")}))

	n, err := store.DeleteStale(ctx, "1.0.1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "b2", infos[0].Key)
}
