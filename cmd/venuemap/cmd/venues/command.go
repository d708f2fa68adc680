// Package venues provides the venues command and its subcommands.
package venues

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/venuemap/internal/appcontext"
)

// NewCommand creates the venues command with app dependencies.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "venues [subcommand]",
		GroupID: "core",
		Aliases: []string{"venue", "cafes"},
		Short:   "List and inspect merged venues",
		Long: `Venues shows the merged collection of curated and feed venues.

Available subcommands:
  list        - Filtered, sorted venue listing
  show        - One venue with its prices
  focus       - Select a venue and infer its menu link`,
		Example: `  venuemap venues list --sort price
  venuemap venues list --refresh --search coffee
  venuemap venues show mock-1
  venuemap venues focus osm:node/123456`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return fmt.Errorf("unknown subcommand: %s", args[0])
		},
	}

	cmd.AddCommand(NewListCommand(app))
	cmd.AddCommand(NewShowCommand(app))
	cmd.AddCommand(NewFocusCommand(app))

	return cmd
}
