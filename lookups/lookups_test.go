package lookups_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crm-nexus/nexus/lookups"
)

type fakeLookupAPI struct {
	lookupFn func(ctx context.Context, table lookups.Table, search string) ([]lookups.Item, error)
	calls    atomic.Int32
}

func (f *fakeLookupAPI) Lookup(ctx context.Context, table lookups.Table, search string) ([]lookups.Item, error) {
	f.calls.Add(1)
	return f.lookupFn(ctx, table, search)
}

func regionItems() []lookups.Item {
	return []lookups.Item{
		{ID: "1", Label: "Ontario", Value: "ON", IsActive: true},
		{ID: "2", Label: "Quebec", Value: "QC", IsActive: true},
	}
}

func TestCache_Get(t *testing.T) {
	t.Run("fetches once per table and serves the cache afterwards", func(t *testing.T) {
		fakeAPI := &fakeLookupAPI{
			lookupFn: func(ctx context.Context, table lookups.Table, search string) ([]lookups.Item, error) {
				return regionItems(), nil
			},
		}
		cache, err := lookups.NewCache(fakeAPI)
		require.NoError(t, err)

		for n := 0; n < 3; n++ {
			items, err := cache.Get(context.Background(), lookups.TableRegions, "")
			require.NoError(t, err)
			require.Len(t, items, 2)
		}
		require.Equal(t, int32(1), fakeAPI.calls.Load())
	})

	t.Run("distinct searches cache independently", func(t *testing.T) {
		fakeAPI := &fakeLookupAPI{
			lookupFn: func(ctx context.Context, table lookups.Table, search string) ([]lookups.Item, error) {
				if search == "ont" {
					return regionItems()[:1], nil
				}
				return regionItems(), nil
			},
		}
		cache, err := lookups.NewCache(fakeAPI)
		require.NoError(t, err)

		all, err := cache.Get(context.Background(), lookups.TableRegions, "")
		require.NoError(t, err)
		require.Len(t, all, 2)

		matched, err := cache.Get(context.Background(), lookups.TableRegions, "ont")
		require.NoError(t, err)
		require.Len(t, matched, 1)

		require.Equal(t, int32(2), fakeAPI.calls.Load())
	})

	t.Run("unknown table is refused without a fetch", func(t *testing.T) {
		fakeAPI := &fakeLookupAPI{}
		cache, err := lookups.NewCache(fakeAPI)
		require.NoError(t, err)

		_, err = cache.Get(context.Background(), lookups.Table("no-such-table"), "")
		require.ErrorIs(t, err, lookups.UnknownTableErr)
		require.Zero(t, fakeAPI.calls.Load())
	})

	t.Run("fetch failures are not cached", func(t *testing.T) {
		fail := true
		fakeAPI := &fakeLookupAPI{
			lookupFn: func(ctx context.Context, table lookups.Table, search string) ([]lookups.Item, error) {
				if fail {
					return nil, context.DeadlineExceeded
				}
				return regionItems(), nil
			},
		}
		cache, err := lookups.NewCache(fakeAPI)
		require.NoError(t, err)

		_, err = cache.Get(context.Background(), lookups.TableRegions, "")
		require.Error(t, err)

		fail = false
		items, err := cache.Get(context.Background(), lookups.TableRegions, "")
		require.NoError(t, err)
		require.Len(t, items, 2)
		require.Equal(t, int32(2), fakeAPI.calls.Load())
	})

	t.Run("invalidate forces a refetch", func(t *testing.T) {
		fakeAPI := &fakeLookupAPI{
			lookupFn: func(ctx context.Context, table lookups.Table, search string) ([]lookups.Item, error) {
				return regionItems(), nil
			},
		}
		cache, err := lookups.NewCache(fakeAPI)
		require.NoError(t, err)

		_, err = cache.Get(context.Background(), lookups.TableRegions, "")
		require.NoError(t, err)

		cache.Invalidate()

		_, err = cache.Get(context.Background(), lookups.TableRegions, "")
		require.NoError(t, err)
		require.Equal(t, int32(2), fakeAPI.calls.Load())
	})
}
