package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"andicblue/backend/internal/cache"
	"andicblue/backend/internal/store"
	"andicblue/backend/internal/store/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingObserver struct {
	retries   int
	fallbacks int
}

func (o *countingObserver) StorageRetry(string, string) { o.retries++ }
func (o *countingObserver) CacheFallback(string)        { o.fallbacks++ }

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Initial: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestRetriesRateLimitedUntilSuccess(t *testing.T) {
	inner := memory.New()
	inner.FailNext(store.TableInventory, store.ErrRateLimited, store.ErrRateLimited)
	obs := &countingObserver{}
	s := New(inner, nil, fastPolicy(5), zap.NewNop(), obs)

	require.NoError(t, s.SaveTable(context.Background(), store.TableInventory, []store.Row{{"Mermelada", "1"}}))
	require.Equal(t, 2, obs.retries)
	require.Equal(t, []store.Row{{"Mermelada", "1"}}, inner.Rows(store.TableInventory))
}

func TestGivesUpAfterAttempts(t *testing.T) {
	inner := memory.New()
	inner.FailNext(store.TableExpenses, store.ErrRateLimited, store.ErrRateLimited, store.ErrRateLimited)
	s := New(inner, nil, fastPolicy(3), nil, nil)

	err := s.AppendRow(context.Background(), store.TableExpenses, store.Row{"2025-03-14 10:00:00", "Hielo", "100"})
	require.ErrorIs(t, err, store.ErrRateLimited)
	require.Empty(t, inner.Rows(store.TableExpenses))
}

func TestOtherErrorsAreNotRetried(t *testing.T) {
	inner := memory.New()
	boom := errors.New("disk full")
	inner.FailNext(store.TableExpenses, boom)
	obs := &countingObserver{}
	s := New(inner, nil, fastPolicy(5), nil, obs)

	err := s.AppendRow(context.Background(), store.TableExpenses, store.Row{"2025-03-14 10:00:00", "Hielo", "100"})
	require.ErrorIs(t, err, boom)
	require.Zero(t, obs.retries)
}

func TestLoadFallsBackToSnapshot(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewSeeded(map[string][]store.Row{
		store.TableInventory: {{"Mermelada", "3"}},
	})
	snapshots := cache.NewMemoryTableCache()
	obs := &countingObserver{}
	s := New(inner, snapshots, fastPolicy(2), nil, obs)

	rows, err := s.LoadTable(ctx, store.TableInventory)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, s.AppendRow(ctx, store.TableInventory, store.Row{"Kilo_industrial", "2"}))

	inner.FailNext(store.TableInventory, store.ErrRateLimited, store.ErrRateLimited)
	rows, err = s.LoadTable(ctx, store.TableInventory)
	require.NoError(t, err)
	require.Equal(t, []store.Row{{"Mermelada", "3"}, {"Kilo_industrial", "2"}}, rows)
	require.Equal(t, 1, obs.fallbacks)
}

func TestLoadWithoutSnapshotReturnsError(t *testing.T) {
	inner := memory.New()
	inner.FailNext(store.TableOrders, store.ErrRateLimited)
	s := New(inner, nil, fastPolicy(1), nil, nil)

	_, err := s.LoadTable(context.Background(), store.TableOrders)
	require.ErrorIs(t, err, store.ErrRateLimited)
}

func TestCancelledContextStopsRetrying(t *testing.T) {
	inner := memory.New()
	inner.FailNext(store.TableOrders, store.ErrRateLimited, store.ErrRateLimited, store.ErrRateLimited)
	s := New(inner, nil, Policy{Attempts: 5, Initial: time.Hour, MaxInterval: time.Hour}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.SaveTable(ctx, store.TableOrders, nil)
	require.Error(t, err)
}
