package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/labor-ledger/internal/storage"
	"github.com/ginjaninja78/labor-ledger/internal/types"
)

func openRegistry(t *testing.T) (*Registry, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	reg, err := Open(context.Background(), store)
	require.NoError(t, err)
	return reg, store
}

func TestAddAndFindWorker(t *testing.T) {
	ctx := context.Background()
	reg, store := openRegistry(t)

	assert.False(t, reg.HasWorker("Kim"))

	w, err := reg.AddWorker(ctx, types.Worker{Name: " Kim ", DailyRate: 150000})
	require.NoError(t, err)
	assert.Equal(t, "Kim", w.Name)
	assert.NotEmpty(t, w.ID)
	assert.False(t, w.CreatedAt.IsZero())

	got, ok := reg.FindWorker("Kim")
	require.True(t, ok)
	assert.Equal(t, int64(150000), got.DailyRate)

	_, err = reg.AddWorker(ctx, types.Worker{Name: "Kim"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	persisted, err := storage.LoadList[types.Worker](ctx, store, storage.KeyWorkers)
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
}

func TestAddWorkerValidation(t *testing.T) {
	reg, _ := openRegistry(t)
	_, err := reg.AddWorker(context.Background(), types.Worker{Name: "  "})
	assert.Error(t, err)
	_, err = reg.AddWorker(context.Background(), types.Worker{Name: "Kim", DailyRate: -1})
	assert.Error(t, err)
}

func TestCacheInvalidatedOnMutation(t *testing.T) {
	ctx := context.Background()
	reg, _ := openRegistry(t)

	_, err := reg.AddWorker(ctx, types.Worker{Name: "Kim", DailyRate: 100000})
	require.NoError(t, err)
	assert.True(t, reg.HasWorker("Kim"))

	require.NoError(t, reg.UpdateWorker(ctx, types.Worker{Name: "Kim", DailyRate: 180000}))
	got, _ := reg.FindWorker("Kim")
	assert.Equal(t, int64(180000), got.DailyRate)

	require.NoError(t, reg.RemoveWorker(ctx, "Kim"))
	assert.False(t, reg.HasWorker("Kim"))
	assert.ErrorIs(t, reg.RemoveWorker(ctx, "Kim"), ErrNotFound)
	assert.ErrorIs(t, reg.UpdateWorker(ctx, types.Worker{Name: "Kim"}), ErrNotFound)
}

func TestMergeWorkers(t *testing.T) {
	ctx := context.Background()
	reg, _ := openRegistry(t)
	_, err := reg.AddWorker(ctx, types.Worker{Name: "Kim", DailyRate: 150000})
	require.NoError(t, err)

	added, err := reg.MergeWorkers(ctx, []types.Worker{
		{Name: "Kim", DailyRate: 1},
		{Name: "Lee", DailyRate: 140000},
		{Name: "Lee", DailyRate: 2},
		{Name: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	kim, _ := reg.FindWorker("Kim")
	assert.Equal(t, int64(150000), kim.DailyRate)
	lee, ok := reg.FindWorker("Lee")
	require.True(t, ok)
	assert.Equal(t, int64(140000), lee.DailyRate)
}

func TestSites(t *testing.T) {
	ctx := context.Background()
	reg, store := openRegistry(t)

	_, err := reg.AddSite(ctx, types.Site{Name: "SiteA", Address: "Seoul"})
	require.NoError(t, err)
	_, err = reg.AddSite(ctx, types.Site{Name: "SiteA"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	require.NoError(t, reg.UpdateSite(ctx, types.Site{Name: "SiteA", Address: "Busan", Manager: "Choi"}))
	s, ok := reg.FindSite("SiteA")
	require.True(t, ok)
	assert.Equal(t, "Busan", s.Address)

	reopened, err := Open(ctx, store)
	require.NoError(t, err)
	assert.True(t, reopened.HasSite("SiteA"))

	require.NoError(t, reg.RemoveSite(ctx, "SiteA"))
	assert.False(t, reg.HasSite("SiteA"))
	w, sites := reg.Counts()
	assert.Equal(t, 0, w)
	assert.Equal(t, 0, sites)
}

func TestFindReturnsFirstEntryForRepeatedName(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, storage.SaveJSON(ctx, store, storage.KeyWorkers, []types.Worker{
		{ID: "w1", Name: "Kim", DailyRate: 150000},
		{ID: "w2", Name: "Kim", DailyRate: 90000},
	}))
	require.NoError(t, storage.SaveJSON(ctx, store, storage.KeySites, []types.Site{
		{ID: "s1", Name: "SiteA", Manager: "Park"},
		{ID: "s2", Name: "SiteA", Manager: "Lee"},
	}))

	reg, err := Open(ctx, store)
	require.NoError(t, err)

	w, ok := reg.FindWorker("Kim")
	require.True(t, ok)
	assert.Equal(t, "w1", w.ID)
	assert.Equal(t, int64(150000), w.DailyRate)

	s, ok := reg.FindSite("SiteA")
	require.True(t, ok)
	assert.Equal(t, "s1", s.ID)
}
