package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hydrolab/stoich/internal/expr"
	"github.com/hydrolab/stoich/internal/modelspec"
)

// SaveModel writes a compiled model as a new snapshot and returns the
// snapshot ID. The whole write happens in one transaction: a failed
// process or coefficient insert leaves no partial snapshot behind.
func (s *Store) SaveModel(ctx context.Context, model *modelspec.Model) (string, error) {
	modelID := uuid.Must(uuid.NewV7()).String()

	speciesJSON, err := json.Marshal(model.Catalog.IDs())
	if err != nil {
		return "", fmt.Errorf("save model: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save model: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO models (id, name, compiled_at, species)
		VALUES (?, ?, ?, ?)
	`, modelID, model.Name, time.Now().UTC().Format(time.RFC3339), string(speciesJSON))
	if err != nil {
		return "", fmt.Errorf("save model %q: %w", model.Name, err)
	}

	for _, proc := range model.Processes {
		if err := writeProcess(ctx, tx, modelID, proc); err != nil {
			return "", fmt.Errorf("save model %q: process %q: %w", model.Name, proc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save model %q: %w", model.Name, err)
	}
	return modelID, nil
}

func writeProcess(ctx context.Context, tx *sql.Tx, modelID string, proc modelspec.CompiledProcess) error {
	rowID := uuid.Must(uuid.NewV7()).String()

	conservedJSON, err := json.Marshal(proc.Conserved())
	if err != nil {
		return err
	}
	parametersJSON, err := json.Marshal(proc.Parameters())
	if err != nil {
		return err
	}

	var rateText any
	if rate := proc.RateEquation(); rate != nil {
		rateText = rate.String()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO processes
		(id, model_id, process_id, ref_component, rate_equation, conserved, parameters)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rowID, modelID, proc.ID, proc.RefComponent(), rateText, string(conservedJSON), string(parametersJSON))
	if err != nil {
		return err
	}

	// Insert the sparse view in catalog order so read-back is stable.
	sparse := proc.Stoichiometry()
	for _, species := range proc.Catalog().IDs() {
		coeff, ok := sparse[species]
		if !ok {
			continue
		}
		var numericValue, symbolicValue any
		if n, isConst := coeff.(expr.Num); isConst {
			numericValue = float64(n)
		} else {
			symbolicValue = coeff.String()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO coefficients (process_id, species, numeric_value, symbolic_value)
			VALUES (?, ?, ?, ?)
		`, rowID, species, numericValue, symbolicValue)
		if err != nil {
			return fmt.Errorf("coefficient %s: %w", species, err)
		}
	}
	return nil
}
