package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no snapshot exists for the requested
// model name.
var ErrNotFound = errors.New("model not found")

// ModelRecord is a read-back model snapshot.
type ModelRecord struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	CompiledAt time.Time       `json:"compiled_at"`
	Species    []string        `json:"species"`
	Processes  []ProcessRecord `json:"processes"`
}

// ProcessRecord is one stored process with its sparse stoichiometry.
type ProcessRecord struct {
	ProcessID    string              `json:"process_id"`
	RefComponent string              `json:"ref_component"`
	RateEquation string              `json:"rate_equation,omitempty"`
	Conserved    []string            `json:"conserved"`
	Parameters   []string            `json:"parameters"`
	Coefficients []CoefficientRecord `json:"coefficients"`
}

// CoefficientRecord is one non-zero coefficient. Numeric is nil for
// symbolic coefficients, in which case Symbolic holds the expression
// text.
type CoefficientRecord struct {
	Species  string   `json:"species"`
	Numeric  *float64 `json:"numeric,omitempty"`
	Symbolic string   `json:"symbolic,omitempty"`
}

// ReadModel returns the latest snapshot of the named model.
func (s *Store) ReadModel(ctx context.Context, name string) (*ModelRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, compiled_at, species
		FROM models WHERE name = ?
		ORDER BY compiled_at DESC, id DESC LIMIT 1
	`, name)

	var rec ModelRecord
	var compiledAt, speciesJSON string
	if err := row.Scan(&rec.ID, &rec.Name, &compiledAt, &speciesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("read model %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("read model %q: %w", name, err)
	}
	t, err := time.Parse(time.RFC3339, compiledAt)
	if err != nil {
		return nil, fmt.Errorf("read model %q: bad compiled_at: %w", name, err)
	}
	rec.CompiledAt = t
	if err := json.Unmarshal([]byte(speciesJSON), &rec.Species); err != nil {
		return nil, fmt.Errorf("read model %q: bad species column: %w", name, err)
	}

	if rec.Processes, err = s.readProcesses(ctx, rec.ID); err != nil {
		return nil, fmt.Errorf("read model %q: %w", name, err)
	}
	return &rec, nil
}

func (s *Store) readProcesses(ctx context.Context, modelID string) ([]ProcessRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, process_id, ref_component, rate_equation, conserved, parameters
		FROM processes WHERE model_id = ?
		ORDER BY id
	`, modelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var procs []ProcessRecord
	var rowIDs []string
	for rows.Next() {
		var rowID, conservedJSON, parametersJSON string
		var rate sql.NullString
		var rec ProcessRecord
		if err := rows.Scan(&rowID, &rec.ProcessID, &rec.RefComponent, &rate, &conservedJSON, &parametersJSON); err != nil {
			return nil, err
		}
		rec.RateEquation = rate.String
		if err := json.Unmarshal([]byte(conservedJSON), &rec.Conserved); err != nil {
			return nil, fmt.Errorf("process %q: bad conserved column: %w", rec.ProcessID, err)
		}
		if err := json.Unmarshal([]byte(parametersJSON), &rec.Parameters); err != nil {
			return nil, fmt.Errorf("process %q: bad parameters column: %w", rec.ProcessID, err)
		}
		procs = append(procs, rec)
		rowIDs = append(rowIDs, rowID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, rowID := range rowIDs {
		coeffs, err := s.readCoefficients(ctx, rowID)
		if err != nil {
			return nil, fmt.Errorf("process %q: %w", procs[i].ProcessID, err)
		}
		procs[i].Coefficients = coeffs
	}
	return procs, nil
}

func (s *Store) readCoefficients(ctx context.Context, processRowID string) ([]CoefficientRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT species, numeric_value, symbolic_value
		FROM coefficients WHERE process_id = ?
		ORDER BY rowid
	`, processRowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coeffs []CoefficientRecord
	for rows.Next() {
		var rec CoefficientRecord
		var numeric sql.NullFloat64
		var symbolic sql.NullString
		if err := rows.Scan(&rec.Species, &numeric, &symbolic); err != nil {
			return nil, err
		}
		if numeric.Valid {
			v := numeric.Float64
			rec.Numeric = &v
		}
		rec.Symbolic = symbolic.String
		coeffs = append(coeffs, rec)
	}
	return coeffs, rows.Err()
}
