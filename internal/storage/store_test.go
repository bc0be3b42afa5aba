package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/labor-ledger/internal/config"
	"github.com/ginjaninja78/labor-ledger/internal/types"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	file, err := NewFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	lite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   file,
		"sqlite": lite,
		"redis":  NewRedisStoreFromClient(rdb, "ledger:"),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStoreGetPut(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, found, err := s.Get(ctx, KeyWorkers)
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, s.Put(ctx, KeyWorkers, []byte(`[{"name":"Kim"}]`)))
			require.NoError(t, s.Put(ctx, KeyWorkers, []byte(`[{"name":"Lee"}]`)))

			got, found, err := s.Get(ctx, KeyWorkers)
			require.NoError(t, err)
			assert.True(t, found)
			assert.JSONEq(t, `[{"name":"Lee"}]`, string(got))
		})
	}
}

func TestLoadListDefaultsEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	sites, err := LoadList[types.Site](ctx, s, KeySites)
	require.NoError(t, err)
	assert.NotNil(t, sites)
	assert.Empty(t, sites)
}

func TestLoadJSONCorrupt(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, KeySites, []byte("{not json")))

	_, err := LoadList[types.Site](ctx, s, KeySites)
	assert.Error(t, err)
}

func TestRecordsAppend(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			recs := NewRecords(s)
			now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

			require.NoError(t, recs.AppendWork(ctx, []types.WorkRecord{{Date: "2025-03-01", Site: "SiteA", Worker: "Kim", Hours: 1, CreatedAt: now}}))
			require.NoError(t, recs.AppendWork(ctx, []types.WorkRecord{{Date: "2025-03-02", Site: "SiteA", Worker: "Kim", Hours: 1, CreatedAt: now}}))
			require.NoError(t, recs.AppendWork(ctx, nil))

			work, err := recs.Work(ctx)
			require.NoError(t, err)
			require.Len(t, work, 2)
			assert.Equal(t, "2025-03-02", work[1].Date)
			assert.True(t, now.Equal(work[0].CreatedAt))

			exp, err := recs.Expenses(ctx)
			require.NoError(t, err)
			assert.Empty(t, exp)
		})
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(config.StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(config.StoreConfig{Backend: "file", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	mr := miniredis.RunT(t)
	s, err = Open(config.StoreConfig{Backend: "redis", RedisAddr: mr.Addr(), KeyPrefix: "x:"})
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), KeySites, []byte("[]")))
	assert.True(t, mr.Exists("x:sites"))
	require.NoError(t, s.Close())

	_, err = Open(config.StoreConfig{Backend: "mongo"})
	assert.Error(t, err)
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, s.Put(context.Background(), "../escape", []byte("x")))
}
