// Package rates provides the rates command for exchange-rate tables.
package rates

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/venuemap/internal/appcontext"
	"github.com/agentstation/venuemap/internal/cmd/output"
)

// NewCommand creates the rates command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rates [subcommand]",
		GroupID: "core",
		Short:   "Show or refresh exchange rates",
		Long: `Rates manages the exchange-rate table used for price conversion.

The table starts as a built-in fallback and is replaced as a whole by
each successful refresh. A failed refresh keeps the previous table.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return fmt.Errorf("unknown subcommand: %s", args[0])
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current rate table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vm, err := app.VenueMap()
			if err != nil {
				return err
			}
			return output.Rates(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), vm.Rates())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Fetch a new rate table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vm, err := app.VenueMap()
			if err != nil {
				return err
			}
			if err := vm.RefreshRates(cmd.Context()); err != nil {
				// the previous table is still in use
				app.Logger().Warn().Err(err).Msg("Rate refresh failed, keeping previous table")
			}
			return output.Rates(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), vm.Rates())
		},
	})

	return cmd
}
