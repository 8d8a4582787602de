package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"andicblue/backend/internal/store"
)

func TestAppendAndLoad(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.AppendRow(ctx, store.TableExpenses, store.Row{"2025-03-14 10:00:00", "Cajas", "5000"}))
	rows, err := s.LoadTable(ctx, store.TableExpenses)
	require.NoError(t, err)
	require.Equal(t, []store.Row{{"2025-03-14 10:00:00", "Cajas", "5000"}}, rows)

	rows[0][1] = "mutated"
	require.Equal(t, "Cajas", s.Rows(store.TableExpenses)[0][1])
}

func TestSaveTableReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded(map[string][]store.Row{
		store.TableInventory: {{"Mermelada", "3"}},
	})

	require.NoError(t, s.SaveTable(ctx, store.TableInventory, []store.Row{{"Arandanos_125g", "10"}}))
	require.Equal(t, []store.Row{{"Arandanos_125g", "10"}}, s.Rows(store.TableInventory))
}

func TestRejectsUnknownTableAndBadRows(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.LoadTable(ctx, "Ventas")
	require.ErrorIs(t, err, store.ErrUnknownTable)
	require.ErrorIs(t, s.AppendRow(ctx, store.TableInventory, store.Row{"solo"}), store.ErrBadRow)
	require.ErrorIs(t, s.SaveTable(ctx, store.TableInventory, []store.Row{{"a", "1", "x"}}), store.ErrBadRow)
}

func TestLoadDropsLeakedHeader(t *testing.T) {
	s := NewSeeded(map[string][]store.Row{
		store.TableInventory: {{"Producto", "Stock"}, {"Mermelada", "2"}},
	})
	rows, err := s.LoadTable(context.Background(), store.TableInventory)
	require.NoError(t, err)
	require.Equal(t, []store.Row{{"Mermelada", "2"}}, rows)
}

func TestFailNextIsConsumedInOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")
	s.FailNext(store.TableCashFlow, store.ErrRateLimited, boom)

	row := store.Row{"2025-03-14 10:00:00", "1", "Ana", "Nequi", "100", "0", "0"}
	require.ErrorIs(t, s.AppendRow(ctx, store.TableCashFlow, row), store.ErrRateLimited)
	require.ErrorIs(t, s.AppendRow(ctx, store.TableCashFlow, row), boom)
	require.NoError(t, s.AppendRow(ctx, store.TableCashFlow, row))
	require.Len(t, s.Rows(store.TableCashFlow), 1)
}
