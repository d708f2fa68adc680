// Package refresh provides the refresh command.
package refresh

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/venuemap"
	"github.com/agentstation/venuemap/internal/appcontext"
	"github.com/agentstation/venuemap/internal/cmd/output"
)

// NewCommand creates the refresh command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		lat, lon float64
		radius   int
		rates    bool
	)

	cmd := &cobra.Command{
		Use:     "refresh",
		GroupID: "core",
		Short:   "Fetch and merge venues around a point",
		Long: `Refresh fetches the curated store and the public feed concurrently and
merges both into the venue collection. A failing source contributes no
venues; whatever the other source returned is still merged.

Without --lat/--lon the current center of interest is used.`,
		Example: `  venuemap refresh
  venuemap refresh --lat 41.0082 --lon 28.9784 --radius 1500
  venuemap refresh --rates`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vm, err := app.VenueMap()
			if err != nil {
				return err
			}
			logger := app.Logger()

			center := vm.Center()
			if cmd.Flags().Changed("lat") {
				center.Latitude = lat
			}
			if cmd.Flags().Changed("lon") {
				center.Longitude = lon
			}

			opts := []venuemap.RefreshOption{venuemap.WithReason("rescan")}
			if radius > 0 {
				opts = append(opts, venuemap.WithRadius(radius))
			}

			result, err := vm.RefreshVenues(cmd.Context(), center.Latitude, center.Longitude, opts...)
			if err != nil {
				return err
			}
			for _, e := range result.Errors {
				logger.Warn().Err(e).Msg("Source failed")
			}

			if rates {
				if err := vm.RefreshRates(cmd.Context()); err != nil {
					logger.Warn().Err(err).Msg("Rate refresh failed, keeping previous table")
				}
			}

			format := output.DetectFormat(app.OutputFormat())
			if !format.Tabular() {
				return output.Any(cmd.OutOrStdout(), format, result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Merged %d curated and %d feed venues at %s: %d venues (%d added, %d duplicates, %d dropped) in %v\n",
				result.Curated, result.Feed, result.Center, result.Venues,
				result.Stats.Added(), result.Stats.FeedDuplicates, result.Stats.Dropped, result.Duration)
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude of the search center")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude of the search center")
	cmd.Flags().IntVarP(&radius, "radius", "r", 0, "Feed search radius in meters")
	cmd.Flags().BoolVar(&rates, "rates", false, "Also refresh exchange rates")

	return cmd
}
