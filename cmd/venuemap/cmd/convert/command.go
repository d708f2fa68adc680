// Package convert provides the convert command.
package convert

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/agentstation/venuemap/internal/appcontext"
	"github.com/agentstation/venuemap/internal/cmd/output"
	"github.com/agentstation/venuemap/pkg/currency"
	"github.com/agentstation/venuemap/pkg/errors"
)

// Result is the structured output of a conversion.
type Result struct {
	Amount    decimal.Decimal `json:"amount" yaml:"amount"`
	From      currency.Code   `json:"from" yaml:"from"`
	To        currency.Code   `json:"to" yaml:"to"`
	Converted decimal.Decimal `json:"converted" yaml:"converted"`
	Exact     bool            `json:"exact" yaml:"exact"`
	Source    string          `json:"source" yaml:"source"`
}

// NewCommand creates the convert command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var refresh, strict bool

	cmd := &cobra.Command{
		Use:     "convert <amount> <from> <to>",
		GroupID: "core",
		Short:   "Convert an amount between currencies",
		Long: `Convert an amount through the current rate table.

An unknown currency code leaves the amount unchanged; the output marks
such results as not exact. With --strict an unknown code is an error.`,
		Example: `  venuemap convert 85 TRY USD
  venuemap convert 3.5 eur try --refresh
  venuemap convert 10 USD JPY --strict`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return errors.NewValidationError("amount", args[0], "must be a number")
			}
			from, to := currency.Normalize(args[1]), currency.Normalize(args[2])
			if !from.Valid() {
				return errors.NewValidationError("from", args[1], "must be a three-letter code")
			}
			if !to.Valid() {
				return errors.NewValidationError("to", args[2], "must be a three-letter code")
			}

			vm, err := app.VenueMap()
			if err != nil {
				return err
			}
			if refresh {
				if err := vm.RefreshRates(cmd.Context()); err != nil {
					app.Logger().Warn().Err(err).Msg("Rate refresh failed, converting with previous table")
				}
			}

			table := vm.Rates()
			if strict {
				if _, err := table.Exchange(amount, from, to); err != nil {
					return err
				}
			}
			converted, exact := table.Convert(amount, from, to)
			result := Result{
				Amount:    amount,
				From:      from,
				To:        to,
				Converted: converted,
				Exact:     exact,
				Source:    table.Source,
			}

			format := output.DetectFormat(app.OutputFormat())
			if !format.Tabular() {
				return output.Any(cmd.OutOrStdout(), format, result)
			}
			if !exact {
				app.Logger().Warn().Msgf("No rate for %s or %s, amount left unchanged", from, to)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s %s\n", amount.String(), from, converted.StringFixed(4), to)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh rates before converting")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail instead of leaving the amount unchanged on an unknown code")

	return cmd
}
