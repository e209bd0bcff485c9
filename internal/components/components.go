// Package components provides the ordered species catalog that process
// stoichiometry is expressed against. A catalog is immutable once built:
// processes hold a read-only reference and rely on the iteration order
// and indices staying fixed.
package components

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Species is one chemical or biological component. Factors holds the
// per-unit content of each conserved quantity (COD, N, P, charge, ...);
// absent quantities count as zero.
type Species struct {
	ID      string
	Factors map[string]float64
}

// Catalog is an ordered, name-indexed set of species.
type Catalog struct {
	species []Species
	index   map[string]int
}

// NewCatalog builds a catalog preserving the given order.
// Species IDs are NFC normalized and must be unique and non-empty.
func NewCatalog(species ...Species) (*Catalog, error) {
	c := &Catalog{
		species: make([]Species, 0, len(species)),
		index:   make(map[string]int, len(species)),
	}
	for _, sp := range species {
		id := norm.NFC.String(sp.ID)
		if id == "" {
			return nil, fmt.Errorf("species %d: empty ID", len(c.species))
		}
		if _, dup := c.index[id]; dup {
			return nil, fmt.Errorf("duplicate species ID %q", id)
		}
		factors := make(map[string]float64, len(sp.Factors))
		for q, v := range sp.Factors {
			factors[q] = v
		}
		c.index[id] = len(c.species)
		c.species = append(c.species, Species{ID: id, Factors: factors})
	}
	return c, nil
}

// Len returns the number of species.
func (c *Catalog) Len() int { return len(c.species) }

// IDs returns species IDs in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.species))
	for i, sp := range c.species {
		ids[i] = sp.ID
	}
	return ids
}

// IndexOf returns the position of a species, and whether it exists.
func (c *Catalog) IndexOf(id string) (int, bool) {
	i, ok := c.index[norm.NFC.String(id)]
	return i, ok
}

// Has reports whether a species exists in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[norm.NFC.String(id)]
	return ok
}

// ConversionFactor returns the conversion factor of a species for a
// quantity. Species without an entry for the quantity carry zero.
func (c *Catalog) ConversionFactor(id, quantity string) float64 {
	i, ok := c.index[norm.NFC.String(id)]
	if !ok {
		return 0
	}
	return c.species[i].Factors[quantity]
}

// Row returns the conversion-factor row for a quantity, one entry per
// species in catalog order.
func (c *Catalog) Row(quantity string) []float64 {
	row := make([]float64, len(c.species))
	for i, sp := range c.species {
		row[i] = sp.Factors[quantity]
	}
	return row
}
