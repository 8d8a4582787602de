// Package catalog holds the static product price list and the product name
// canonicalization used by pricing and inventory lookups.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"andicblue/backend/internal/domain"
)

var ErrUnknownProduct = errors.New("unknown product")

// Default is the farm's price list in COP.
var Default = []domain.Product{
	{Name: "Arandanos_125g", UnitPrice: 6000},
	{Name: "Arandanos_250g", UnitPrice: 10000},
	{Name: "Arandanos_500g", UnitPrice: 18000},
	{Name: "Kilo_industrial", UnitPrice: 25000},
	{Name: "Mermelada", UnitPrice: 12000},
}

type Catalog struct {
	products []domain.Product
	prices   map[string]int64
	folded   []string
	strict   bool
}

// New builds an immutable catalog. Later duplicates of a name are ignored.
// In strict mode Resolve rejects names that do not match any catalog key.
func New(products []domain.Product, strict bool) *Catalog {
	c := &Catalog{
		products: make([]domain.Product, 0, len(products)),
		prices:   make(map[string]int64, len(products)),
		strict:   strict,
	}
	for _, p := range products {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		if _, exists := c.prices[name]; exists {
			continue
		}
		c.products = append(c.products, domain.Product{Name: name, UnitPrice: p.UnitPrice})
		c.prices[name] = p.UnitPrice
		c.folded = append(c.folded, fold(name))
	}
	return c
}

func (c *Catalog) Strict() bool {
	return c.strict
}

func (c *Catalog) Products() []domain.Product {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

// PriceOf returns the configured unit price, or 0 for names outside the catalog.
func (c *Catalog) PriceOf(canonicalName string) int64 {
	return c.prices[canonicalName]
}

// Canonicalize maps a free-text product label to a catalog key. Matching is
// tried in order: exact, folded equality, folded containment in either
// direction. Unmatched labels come back trimmed but otherwise unchanged.
func (c *Catalog) Canonicalize(raw string) string {
	name, _ := c.match(raw)
	return name
}

// Resolve canonicalizes and prices a label. In strict mode an unmatched label
// fails with ErrUnknownProduct; otherwise it resolves to itself at price 0.
func (c *Catalog) Resolve(raw string) (string, int64, error) {
	name, ok := c.match(raw)
	if !ok && c.strict {
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownProduct, strings.TrimSpace(raw))
	}
	return name, c.prices[name], nil
}

func (c *Catalog) match(raw string) (string, bool) {
	if _, ok := c.prices[raw]; ok {
		return raw, true
	}
	trimmed := strings.TrimSpace(raw)
	if _, ok := c.prices[trimmed]; ok {
		return trimmed, true
	}

	key := fold(trimmed)
	if key == "" {
		return trimmed, false
	}
	for i, candidate := range c.folded {
		if candidate == key {
			return c.products[i].Name, true
		}
	}
	for i, candidate := range c.folded {
		if strings.Contains(candidate, key) || strings.Contains(key, candidate) {
			return c.products[i].Name, true
		}
	}
	return trimmed, false
}

var separators = strings.NewReplacer(" ", "", "_", "", "-", "", "\t", "")

// fold lowercases, strips separators and drops accents so that
// "Arándanos 250g" and "arandanos_250g" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return separators.Replace(strings.ToLower(stripped))
}
