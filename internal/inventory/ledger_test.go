package inventory

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"andicblue/backend/internal/catalog"
	"andicblue/backend/internal/domain"
)

func newTestLedger() *Ledger {
	return New(catalog.New(catalog.Default, false))
}

func TestApplyDeltaCreatesAndGoesNegative(t *testing.T) {
	l := newTestLedger()

	entry := l.ApplyDelta("arandanos 250g", -3)
	require.Equal(t, domain.InventoryEntry{ProductName: "Arandanos_250g", Stock: -3}, entry)

	l.ApplyDelta("Arandanos_250g", 5)
	require.Equal(t, 2, l.Stock("ARANDANOS-250G"))
}

func TestApplyDeltaPassesUnknownNamesThrough(t *testing.T) {
	l := newTestLedger()

	l.ApplyDelta("  Miel ", 4)
	require.Equal(t, []domain.InventoryEntry{{ProductName: "Miel", Stock: 4}}, l.Entries())
}

func TestLoadConsolidatesDuplicates(t *testing.T) {
	l := newTestLedger()
	l.Load([]domain.InventoryEntry{
		{ProductName: "Arandanos_250g", Stock: 10},
		{ProductName: "Mermelada", Stock: 2},
		{ProductName: "arandanos 250g", Stock: 5},
		{ProductName: "Arándanos_250g", Stock: -1},
	})

	want := []domain.InventoryEntry{
		{ProductName: "Arandanos_250g", Stock: 14},
		{ProductName: "Mermelada", Stock: 2},
	}
	if diff := cmp.Diff(want, l.Entries()); diff != "" {
		t.Fatalf("consolidated entries mismatch (-want +got):\n%s", diff)
	}
}

func TestAdjustManually(t *testing.T) {
	l := newTestLedger()
	l.Load([]domain.InventoryEntry{{ProductName: "Kilo_industrial", Stock: 1}})

	entry := l.AdjustManually("kilo industrial", -4)
	require.Equal(t, domain.InventoryEntry{ProductName: "Kilo_industrial", Stock: -3}, entry)
	require.Len(t, l.Entries(), 1)
}

func TestSorted(t *testing.T) {
	l := newTestLedger()
	l.ApplyDelta("Mermelada", 1)
	l.ApplyDelta("Arandanos_125g", 1)

	sorted := l.Sorted()
	require.Equal(t, "Arandanos_125g", sorted[0].ProductName)
	require.Equal(t, "Mermelada", sorted[1].ProductName)
	require.Equal(t, "Mermelada", l.Entries()[0].ProductName)
}

func TestNoDuplicateRowsAfterMixedSpellings(t *testing.T) {
	l := newTestLedger()
	for _, name := range []string{"Arandanos_500g", "arandanos 500g", "ARANDANOS-500G", "Arándanos 500g"} {
		l.ApplyDelta(name, -1)
		l.Consolidate()
	}
	require.Equal(t, []domain.InventoryEntry{{ProductName: "Arandanos_500g", Stock: -4}}, l.Entries())
}
