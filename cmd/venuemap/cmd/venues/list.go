package venues

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/venuemap"
	"github.com/agentstation/venuemap/internal/appcontext"
	"github.com/agentstation/venuemap/internal/cmd/cmdutil"
	"github.com/agentstation/venuemap/internal/cmd/output"
	"github.com/agentstation/venuemap/pkg/currency"
)

// NewListCommand creates the venues list subcommand.
func NewListCommand(app appcontext.Interface) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List venues",
		Args:  cobra.NoArgs,
		Example: `  venuemap venues list
  venuemap venues list --min-rating 4 --sort rating --desc
  venuemap venues list --max-price 3 --currency USD -o json`,
	}
	flags := cmdutil.AddFilterFlags(cmd)
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh around the current center before listing")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		criteria, err := flags.Criteria()
		if err != nil {
			return err
		}

		vm, err := app.VenueMap()
		if err != nil {
			return err
		}

		if refresh {
			center := vm.Center()
			result, err := vm.RefreshVenues(cmd.Context(), center.Latitude, center.Longitude, venuemap.WithReason("rescan"))
			if err != nil {
				return err
			}
			if result.Degraded() {
				app.Logger().Warn().Err(result.Err()).Msg("Some sources failed, showing partial results")
			}
		}

		display := criteria.Currency
		if display == "" {
			display = vm.Preferences().Currency
		}

		list := vm.Venues(criteria)
		if snap := vm.Snapshot(); snap.Stale {
			app.Logger().Debug().Msg("Listing cached venues; run with --refresh for fresh data")
		}
		app.Logger().Info().Msgf("Found %d venues", len(list))

		return output.Venues(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), list, display, vm.Rates())
	}

	return cmd
}

// displayCurrency picks the --currency override or the preference.
func displayCurrency(raw string, fallback currency.Code) currency.Code {
	if code := currency.Normalize(raw); code.Valid() {
		return code
	}
	return fallback
}
