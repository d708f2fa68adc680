// Package view provides the view command for the map's center of interest.
package view

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/venuemap/internal/appcontext"
	"github.com/agentstation/venuemap/internal/cmd/output"
	"github.com/agentstation/venuemap/pkg/venues"
	"github.com/agentstation/venuemap/pkg/viewsync"
)

// NewCommand creates the view command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "view [subcommand]",
		GroupID: "core",
		Short:   "Show or move the map's center of interest",
		Long: `View reads and writes the center of interest.

"center" is a programmatic move: when it differs from the current center
by more than the view threshold the map is told to fly there. "pan"
reports where the map settled after a user gesture; it may move the
center but never issues a fly command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return fmt.Errorf("unknown subcommand: %s", args[0])
		},
	}

	cmd.AddCommand(newCenterCommand(app))
	cmd.AddCommand(newPanCommand(app))

	return cmd
}

func newCenterCommand(app appcontext.Interface) *cobra.Command {
	var (
		lat, lon float64
		reason   string
	)
	cmd := &cobra.Command{
		Use:   "center",
		Short: "Show the center, or propose a new one with --lat/--lon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vm, err := app.VenueMap()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("lat") && !cmd.Flags().Changed("lon") {
				return writeCenter(cmd.OutOrStdout(), app.OutputFormat(), vm.Center())
			}
			target, err := coordinate(lat, lon)
			if err != nil {
				return err
			}
			return writeOutcome(cmd.OutOrStdout(), app.OutputFormat(), vm.ProposeCenter(target, reason))
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")
	cmd.Flags().StringVar(&reason, "reason", "search", "Why the center moves (geolocation, search, rescan)")
	return cmd
}

func newPanCommand(app appcontext.Interface) *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "pan",
		Short: "Report where the map settled after a pan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := coordinate(lat, lon)
			if err != nil {
				return err
			}
			vm, err := app.VenueMap()
			if err != nil {
				return err
			}
			return writeOutcome(cmd.OutOrStdout(), app.OutputFormat(), vm.ReportPan(target))
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func coordinate(lat, lon float64) (venues.Coordinate, error) {
	c := venues.Coordinate{Latitude: lat, Longitude: lon}
	if !c.Valid() {
		return c, fmt.Errorf("invalid coordinate %s", c)
	}
	return c, nil
}

func writeCenter(w io.Writer, format string, c venues.Coordinate) error {
	f := output.DetectFormat(format)
	if !f.Tabular() {
		return output.Any(w, f, c)
	}
	_, err := fmt.Fprintln(w, c.String())
	return err
}

func writeOutcome(w io.Writer, format string, o viewsync.Outcome) error {
	f := output.DetectFormat(format)
	if !f.Tabular() {
		return output.Any(w, f, o)
	}
	switch {
	case o.Command != nil:
		_, err := fmt.Fprintf(w, "Center moved to %s (fly-to #%d, %s)\n", o.Center, o.Command.Seq, o.Command.Reason)
		return err
	case o.Changed:
		_, err := fmt.Fprintf(w, "Center moved to %s\n", o.Center)
		return err
	default:
		_, err := fmt.Fprintf(w, "Center unchanged at %s (within threshold)\n", o.Center)
		return err
	}
}
