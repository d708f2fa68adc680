package app

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/venuemap/cmd/venuemap/cmd/convert"
	"github.com/agentstation/venuemap/cmd/venuemap/cmd/login"
	"github.com/agentstation/venuemap/cmd/venuemap/cmd/price"
	"github.com/agentstation/venuemap/cmd/venuemap/cmd/rates"
	"github.com/agentstation/venuemap/cmd/venuemap/cmd/refresh"
	"github.com/agentstation/venuemap/cmd/venuemap/cmd/serve"
	statecmd "github.com/agentstation/venuemap/cmd/venuemap/cmd/state"
	"github.com/agentstation/venuemap/cmd/venuemap/cmd/venues"
	"github.com/agentstation/venuemap/cmd/venuemap/cmd/view"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(venues.NewCommand(a))
	rootCmd.AddCommand(refresh.NewCommand(a))
	rootCmd.AddCommand(rates.NewCommand(a))
	rootCmd.AddCommand(convert.NewCommand(a))
	rootCmd.AddCommand(view.NewCommand(a))
	rootCmd.AddCommand(serve.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(price.NewCommand(a))
	rootCmd.AddCommand(login.NewCommand(a))
	rootCmd.AddCommand(statecmd.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.newVersionCommand())
}

// newVersionCommand creates the version command.
func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("venuemap %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
				cmd.Printf("  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}
