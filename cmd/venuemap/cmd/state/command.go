// Package state provides the state command for the persisted record.
package state

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/venuemap/internal/appcontext"
	"github.com/agentstation/venuemap/internal/cmd/output"
	"github.com/agentstation/venuemap/pkg/state"
)

// AppContext is what the state command needs from the app.
type AppContext interface {
	appcontext.Interface
	StateStore() (*state.FileStore, error)
}

// NewCommand creates the state command.
func NewCommand(app AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "state [subcommand]",
		GroupID: "management",
		Short:   "Inspect or reset the persisted state",
		Long: `State manages the file that survives restarts: preferences, the operator
session, the last view center and an optional venue warm-start cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return fmt.Errorf("unknown subcommand: %s", args[0])
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the persisted record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.StateStore()
			if err != nil {
				return err
			}
			p, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			if p.Session != nil {
				// never echo the token
				redacted := *p.Session
				redacted.Token = "<redacted>"
				p.Session = &redacted
			}
			app.Logger().Debug().Str("path", store.Path()).Msg("Loaded state")

			format := output.DetectFormat(app.OutputFormat())
			if format.Tabular() {
				format = output.FormatYAML
			}
			return output.Any(cmd.OutOrStdout(), format, p)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Delete the persisted record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.StateStore()
			if err != nil {
				return err
			}
			if err := store.Reset(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", store.Path())
			return nil
		},
	})

	return cmd
}
