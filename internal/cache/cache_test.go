package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"andicblue/backend/internal/store"
)

func TestRedisTableCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisTableCache(mr.Addr(), "", 0, 0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	_, ok, err := c.Get(ctx, store.TableInventory)
	require.NoError(t, err)
	require.False(t, ok)

	rows := []store.Row{{"Mermelada", "3"}}
	require.NoError(t, c.Set(ctx, store.TableInventory, rows))
	require.True(t, mr.Exists("andicblue:table:Inventario"))

	got, ok, err := c.Get(ctx, store.TableInventory)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rows, got)
}

func TestRedisTableCacheEmptyTableIsAHit(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisTableCache(mr.Addr(), "", 0, 0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, store.TableExpenses, nil))
	got, ok, err := c.Get(ctx, store.TableExpenses)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, got)
}

func TestMemoryTableCacheCopies(t *testing.T) {
	c := NewMemoryTableCache()
	ctx := context.Background()
	rows := []store.Row{{"Mermelada", "3"}}
	require.NoError(t, c.Set(ctx, store.TableInventory, rows))
	rows[0][1] = "99"

	got, ok, err := c.Get(ctx, store.TableInventory)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "3", got[0][1])

	_, ok, err = NoopTableCache{}.Get(ctx, store.TableInventory)
	require.NoError(t, err)
	require.False(t, ok)
}
