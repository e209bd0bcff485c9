package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hydrolab/stoich/internal/modelspec"
	"github.com/hydrolab/stoich/internal/process"
)

// Error codes reported in CLI output.
const (
	ErrCodeLoadFailed  = "E001" // model definitions failed to load or build
	ErrCodeUnconserved = "E002" // conservation violations
	ErrCodeStoreFailed = "E003" // snapshot database failure
	ErrCodeNotFound    = "E004" // model not found in database
)

// ProcessReport is the per-process validation outcome.
type ProcessReport struct {
	ID         string              `json:"id"`
	Status     string              `json:"status"` // "conserved" | "violated" | "skipped"
	Violations []process.Violation `json:"violations,omitempty"`
}

// ValidationResult holds validation results for a whole model.
type ValidationResult struct {
	Model     string          `json:"model"`
	Valid     bool            `json:"valid"`
	Processes []ProcessReport `json:"processes"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var tolerance float64

	cmd := &cobra.Command{
		Use:   "validate <model-dir>",
		Short: "Validate a process model and check conservation",
		Long: `Load a model definition directory, build every process, and check
conservation of the model's conserved quantities. Processes with
symbolic coefficients are reported as skipped: their unknowns must be
resolved before a numeric check is possible.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], tolerance, cmd)
		},
	}
	cmd.Flags().Float64Var(&tolerance, "tolerance", process.DefaultTolerance, "absolute conservation tolerance")
	return cmd
}

func runValidate(opts *RootOptions, modelDir string, tolerance float64, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	model, err := modelspec.LoadAndBuild(modelDir)
	if err != nil {
		formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "model load failed", err)
	}

	result, err := validateModel(model, tolerance, formatter)
	if err != nil {
		formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "validation failed", err)
	}

	if !result.Valid {
		if err := formatter.Success(result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "conservation violations found")
	}
	return formatter.Success(result)
}

// validateModel checks conservation for every process of a built model.
func validateModel(model *modelspec.Model, tolerance float64, formatter *OutputFormatter) (*ValidationResult, error) {
	formatter.VerboseLog("Built model %q: %d species, %d processes",
		model.Name, model.Catalog.Len(), len(model.Processes))

	result := &ValidationResult{Model: model.Name, Valid: true}
	for _, proc := range model.Processes {
		report := ProcessReport{ID: proc.ID, Status: "conserved"}
		err := proc.CheckConservation(tolerance)

		var violation *process.ConservationViolationError
		var nonNumeric *process.NonNumericStoichiometryError
		switch {
		case err == nil:
		case errors.As(err, &violation):
			report.Status = "violated"
			report.Violations = violation.Violations
			result.Valid = false
		case errors.As(err, &nonNumeric):
			report.Status = "skipped"
			formatter.VerboseLog("Process %q: symbolic coefficients, conservation check skipped", proc.ID)
		default:
			return nil, fmt.Errorf("process %q: %w", proc.ID, err)
		}
		result.Processes = append(result.Processes, report)
	}
	return result, nil
}

// String renders a human-readable validation summary.
func (r *ValidationResult) String() string {
	s := fmt.Sprintf("Model %q: ", r.Model)
	if r.Valid {
		s += "all conservation checks passed"
	} else {
		s += "conservation violations found"
	}
	for _, proc := range r.Processes {
		s += fmt.Sprintf("\n  %s: %s", proc.ID, proc.Status)
		for _, v := range proc.Violations {
			s += fmt.Sprintf("\n    %s: %+.6g", v.Quantity, v.Residual)
		}
	}
	return s
}
