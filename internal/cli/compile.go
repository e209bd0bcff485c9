package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hydrolab/stoich/internal/modelspec"
	"github.com/hydrolab/stoich/internal/store"
)

// CompileResult is the compile command's success payload.
type CompileResult struct {
	Model      string `json:"model"`
	SnapshotID string `json:"snapshot_id"`
	Database   string `json:"database"`
	Processes  int    `json:"processes"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string
	var tolerance float64
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "compile <model-dir>",
		Short: "Validate a model and store a snapshot",
		Long: `Build a model definition directory, run conservation checks, and write
the compiled model as a new snapshot into the database. A model with
conservation violations is not stored unless --skip-checks is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(rootOpts, args[0], dbPath, tolerance, skipChecks, cmd)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "stoich.db", "snapshot database path")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "absolute conservation tolerance (0 = default)")
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "store even when conservation checks fail")
	return cmd
}

func runCompile(opts *RootOptions, modelDir, dbPath string, tolerance float64, skipChecks bool, cmd *cobra.Command) error {
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

	if !skipChecks {
		result, err := validateModel(model, tolerance, formatter)
		if err != nil {
			formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "validation failed", err)
		}
		if !result.Valid {
			formatter.Error(ErrCodeUnconserved, "conservation violations found, model not stored", result)
			return NewExitError(ExitFailure, "conservation violations found")
		}
	}

	s, err := store.Open(dbPath)
	if err != nil {
		formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer s.Close()

	snapshotID, err := s.SaveModel(cmd.Context(), model)
	if err != nil {
		formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "store model", err)
	}

	formatter.VerboseLog("Stored model %q as snapshot %s", model.Name, snapshotID)
	return formatter.Success(&CompileResult{
		Model:      model.Name,
		SnapshotID: snapshotID,
		Database:   dbPath,
		Processes:  len(model.Processes),
	})
}

// String renders a human-readable compile summary.
func (r *CompileResult) String() string {
	return fmt.Sprintf("Compiled model %q (%d processes) into %s as snapshot %s",
		r.Model, r.Processes, r.Database, r.SnapshotID)
}
