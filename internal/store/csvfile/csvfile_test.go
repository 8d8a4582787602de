package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"andicblue/backend/internal/store"
)

func TestMissingFileIsEmptyTable(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	rows, err := s.LoadTable(context.Background(), store.TableOrders)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.AppendRow(ctx, store.TableExpenses, store.Row{"2025-03-14 10:00:00", "Cajas, grandes", "5000"}))
	require.NoError(t, s.AppendRow(ctx, store.TableExpenses, store.Row{"2025-03-15 10:00:00", "Hielo", "2000"}))

	raw, err := os.ReadFile(filepath.Join(dir, "Gastos.csv"))
	require.NoError(t, err)
	require.Equal(t, "Fecha,Concepto,Monto\n2025-03-14 10:00:00,\"Cajas, grandes\",5000\n2025-03-15 10:00:00,Hielo,2000\n", string(raw))

	rows, err := s.LoadTable(ctx, store.TableExpenses)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Cajas, grandes", rows[0][1])
}

func TestSaveTableOverwrites(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.SaveTable(ctx, store.TableInventory, []store.Row{{"Mermelada", "3"}, {"Kilo_industrial", "1"}}))
	require.NoError(t, s.SaveTable(ctx, store.TableInventory, []store.Row{{"Mermelada", "2"}}))

	rows, err := s.LoadTable(ctx, store.TableInventory)
	require.NoError(t, err)
	require.Equal(t, []store.Row{{"Mermelada", "2"}}, rows)
}

func TestLoadHealsDuplicatedHeaderAndRaggedRows(t *testing.T) {
	dir := t.TempDir()
	content := "Producto,Stock\nProducto,Stock\nMermelada,4.0\nArandanos_125g\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Inventario.csv"), []byte(content), 0o644))

	s, err := New(dir)
	require.NoError(t, err)
	rows, err := s.LoadTable(context.Background(), store.TableInventory)
	require.NoError(t, err)
	require.Equal(t, []store.Row{{"Mermelada", "4.0"}, {"Arandanos_125g", ""}}, rows)
}

func TestUnknownTable(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	_, err = s.LoadTable(context.Background(), "Ventas")
	require.ErrorIs(t, err, store.ErrUnknownTable)
}
