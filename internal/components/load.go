package components

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML document shape for catalog files:
//
//	species:
//	  - id: S_O2
//	    factors: {COD: 1}
//	  - id: S_NH4
//	    factors: {N: 1, charge: 0.0714}
type catalogFile struct {
	Species []speciesEntry `yaml:"species"`
}

type speciesEntry struct {
	ID      string             `yaml:"id"`
	Factors map[string]float64 `yaml:"factors"`
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Species) == 0 {
		return nil, fmt.Errorf("parse catalog: no species defined")
	}
	species := make([]Species, len(doc.Species))
	for i, entry := range doc.Species {
		species[i] = Species{ID: entry.ID, Factors: entry.Factors}
	}
	c, err := NewCatalog(species...)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return c, nil
}

// LoadCatalog reads and decodes a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}
