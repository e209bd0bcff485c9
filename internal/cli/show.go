package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/hydrolab/stoich/internal/store"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "show <model-name>",
		Short: "Show the latest compiled snapshot of a model",
		Long: `Read the latest compiled snapshot of the named model from the database
and render its Petersen matrix: one row per process, one column per
species, plus reference component and rate equation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], dbPath, cmd)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "stoich.db", "snapshot database path")
	return cmd
}

func runShow(opts *RootOptions, modelName, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := store.Open(dbPath)
	if err != nil {
		formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer s.Close()

	rec, err := s.ReadModel(cmd.Context(), modelName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "model not found", err)
		}
		formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read model", err)
	}

	formatter.VerboseLog("Snapshot %s of model %q, compiled %s",
		rec.ID, rec.Name, rec.CompiledAt.Format("2006-01-02 15:04:05"))
	return formatter.SuccessText(RenderModel(rec), rec)
}
