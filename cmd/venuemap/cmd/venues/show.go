package venues

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/venuemap/internal/appcontext"
	"github.com/agentstation/venuemap/internal/cmd/output"
)

// NewShowCommand creates the venues show subcommand.
func NewShowCommand(app appcontext.Interface) *cobra.Command {
	var display string

	cmd := &cobra.Command{
		Use:   "show <venue-id>",
		Short: "Show one venue with its prices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vm, err := app.VenueMap()
			if err != nil {
				return err
			}
			v, err := vm.Venue(args[0])
			if err != nil {
				return err
			}
			code := displayCurrency(display, vm.Preferences().Currency)
			return output.Venue(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), v, code, vm.Rates())
		},
	}
	cmd.Flags().StringVarP(&display, "currency", "c", "", "Display currency (default from preferences)")

	return cmd
}

// NewFocusCommand creates the venues focus subcommand.
func NewFocusCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "focus <venue-id>",
		Short: "Select a venue, infer its menu link and center the map on it",
		Long: `Focus selects a venue the way the detail panel does. A venue without a
menu link gets one inferred from its website, or a search link when it
has none. The inferred link is a guess, not a verified menu.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vm, err := app.VenueMap()
			if err != nil {
				return err
			}
			v, err := vm.FocusVenue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return output.Venue(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), v, vm.Preferences().Currency, vm.Rates())
		},
	}
	return cmd
}
