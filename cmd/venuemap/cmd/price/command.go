// Package price provides the price command for user-submitted prices.
package price

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/agentstation/venuemap/internal/appcontext"
	"github.com/agentstation/venuemap/internal/cmd/output"
	"github.com/agentstation/venuemap/pkg/errors"
)

// NewCommand creates the price command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "price [subcommand]",
		GroupID: "management",
		Short:   "Submit venue prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return fmt.Errorf("unknown subcommand: %s", args[0])
		},
	}
	cmd.AddCommand(NewSubmitCommand(app))
	return cmd
}

// NewSubmitCommand creates the price submit subcommand.
func NewSubmitCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <venue-id> <item> <price> <currency>",
		Short: "Record a price for an item at a venue",
		Long: `Submit writes a price to the curated store and applies it to the merged
collection. An existing entry with the same item name is replaced.

When operator login is configured a session from "venuemap login" is
required.`,
		Example: `  venuemap price submit mock-1 Latte 90 TRY
  venuemap price submit osm:node/123456 "Flat White" 4.5 EUR`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[2])
			if err != nil {
				return errors.NewValidationError("price", args[2], "must be a number")
			}

			vm, err := app.VenueMap()
			if err != nil {
				return err
			}
			if app.Auth().Enabled() && vm.Session() == nil {
				return &errors.AuthenticationError{Method: "session", Message: "not signed in; run venuemap login"}
			}

			v, err := vm.SubmitPrice(cmd.Context(), args[0], args[1], amount, args[3])
			if err != nil {
				return err
			}
			return output.Venue(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), v, vm.Preferences().Currency, vm.Rates())
		},
	}
	return cmd
}
