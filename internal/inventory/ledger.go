// Package inventory tracks per-product stock counts keyed by canonical
// product name. Stock has no lower bound: negative counts are backorders.
package inventory

import (
	"slices"
	"strings"

	"andicblue/backend/internal/domain"
)

type Canonicalizer interface {
	Canonicalize(raw string) string
}

// Ledger is not safe for concurrent use; callers serialize mutations.
type Ledger struct {
	names   Canonicalizer
	entries []domain.InventoryEntry
}

func New(names Canonicalizer) *Ledger {
	return &Ledger{names: names}
}

// Load replaces the ledger contents with stored rows and consolidates them.
func (l *Ledger) Load(entries []domain.InventoryEntry) {
	l.entries = make([]domain.InventoryEntry, len(entries))
	copy(l.entries, entries)
	l.Consolidate()
}

// ApplyDelta adds signedQty to the stock of the canonical product, creating
// the row at zero when it does not exist yet.
func (l *Ledger) ApplyDelta(rawName string, signedQty int) domain.InventoryEntry {
	name := l.canonical(rawName)
	for i := range l.entries {
		if l.canonical(l.entries[i].ProductName) == name {
			l.entries[i].Stock += signedQty
			return domain.InventoryEntry{ProductName: name, Stock: l.entries[i].Stock}
		}
	}
	l.entries = append(l.entries, domain.InventoryEntry{ProductName: name, Stock: signedQty})
	return l.entries[len(l.entries)-1]
}

// Consolidate merges rows that canonicalize to the same product by summing
// their stock. First-seen order is kept.
func (l *Ledger) Consolidate() {
	merged := make([]domain.InventoryEntry, 0, len(l.entries))
	index := make(map[string]int, len(l.entries))
	for _, entry := range l.entries {
		name := l.canonical(entry.ProductName)
		if pos, ok := index[name]; ok {
			merged[pos].Stock += entry.Stock
			continue
		}
		index[name] = len(merged)
		merged = append(merged, domain.InventoryEntry{ProductName: name, Stock: entry.Stock})
	}
	l.entries = merged
}

// AdjustManually applies an operator stock correction with no order linkage.
func (l *Ledger) AdjustManually(productName string, delta int) domain.InventoryEntry {
	l.ApplyDelta(productName, delta)
	l.Consolidate()
	return domain.InventoryEntry{ProductName: l.canonical(productName), Stock: l.Stock(productName)}
}

// Stock returns the current count for a product; unknown products read as 0.
func (l *Ledger) Stock(rawName string) int {
	name := l.canonical(rawName)
	total := 0
	for _, entry := range l.entries {
		if l.canonical(entry.ProductName) == name {
			total += entry.Stock
		}
	}
	return total
}

func (l *Ledger) Entries() []domain.InventoryEntry {
	return slices.Clone(l.entries)
}

// Sorted returns the entries ordered by product name.
func (l *Ledger) Sorted() []domain.InventoryEntry {
	out := l.Entries()
	slices.SortFunc(out, func(a, b domain.InventoryEntry) int {
		return strings.Compare(a.ProductName, b.ProductName)
	})
	return out
}

func (l *Ledger) canonical(raw string) string {
	if l.names == nil {
		return strings.TrimSpace(raw)
	}
	return l.names.Canonicalize(raw)
}
