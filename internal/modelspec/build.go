package modelspec

import (
	"fmt"
	"path/filepath"

	"github.com/hydrolab/stoich/internal/components"
	"github.com/hydrolab/stoich/internal/process"
	"github.com/hydrolab/stoich/internal/reaction"
)

// Model is a built process model: the catalog and every constructed
// process, in definition order.
type Model struct {
	Name      string
	Catalog   *components.Catalog
	Processes []CompiledProcess
}

// CompiledProcess pairs a definition ID with its constructed process.
type CompiledProcess struct {
	ID string
	*process.Process
}

// Build loads the referenced catalog and constructs every process in the
// document. baseDir anchors the catalog path; process construction uses
// the default reaction parser.
func Build(doc *Document, baseDir string) (*Model, error) {
	if len(doc.Processes) == 0 {
		return nil, fmt.Errorf("model %q defines no processes", doc.Name)
	}

	catalogPath := doc.Catalog
	if !filepath.IsAbs(catalogPath) {
		catalogPath = filepath.Join(baseDir, catalogPath)
	}
	catalog, err := components.LoadCatalog(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", doc.Name, err)
	}

	model := &Model{Name: doc.Name, Catalog: catalog}
	seen := make(map[string]bool, len(doc.Processes))
	for _, def := range doc.Processes {
		if seen[def.ID] {
			return nil, fmt.Errorf("model %q: duplicate process id %q", doc.Name, def.ID)
		}
		seen[def.ID] = true

		conserved := def.Conserved
		if conserved == nil {
			conserved = doc.Conserved
		}
		p, err := process.New(process.Definition{
			Reaction:     def.Reaction,
			RefComponent: def.RefComponent,
			RateEquation: def.RateEquation,
			Conserved:    conserved,
			Parameters:   def.Parameters,
		}, catalog, reaction.Parser{})
		if err != nil {
			return nil, fmt.Errorf("model %q: process %q: %w", doc.Name, def.ID, err)
		}
		model.Processes = append(model.Processes, CompiledProcess{ID: def.ID, Process: p})
	}
	return model, nil
}

// LoadAndBuild is the common load-then-build path used by the CLI.
func LoadAndBuild(dir string) (*Model, error) {
	doc, err := Load(dir)
	if err != nil {
		return nil, err
	}
	return Build(doc, dir)
}
