package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kreyysyy/orbit/internal/passes"
	"github.com/kreyysyy/orbit/internal/tle"
	"github.com/kreyysyy/orbit/internal/transform"
)

func newPassesCmd(a *app) *cobra.Command {
	var (
		sats         []string
		lat, lon     float64
		altKm        float64
		start        string
		horizon      time.Duration
		minElevation float64
		maxPasses    int
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "passes <file|url|->",
		Short: "Predict passes over a ground observer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
				return errors.New("--lat/--lon out of range")
			}
			t0, err := parseTime(start)
			if err != nil {
				return err
			}

			records, err := a.readRecords(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no valid element sets in %s", args[0])
			}
			var targets []passes.Target
			if len(sats) == 0 {
				targets = append(targets, passes.TargetFromRecord(records[0]))
			}
			for _, q := range sats {
				rec := tle.Find(records, q)
				if rec == nil {
					return fmt.Errorf("no satellite matches %q in %s", q, args[0])
				}
				targets = append(targets, passes.TargetFromRecord(rec))
			}

			predictor := passes.NewPredictor(a.propagator(), a.cfg.Prop.Workers, a.logger)
			results := predictor.Predict(cmd.Context(), passes.Request{
				Observer:     transform.NewObserverPosition(lat, lon, altKm),
				Targets:      targets,
				Start:        t0,
				Horizon:      horizon,
				MinElevation: minElevation,
				MaxPasses:    maxPasses,
			})

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			for _, sat := range results {
				if sat.Error != "" {
					fmt.Fprintf(out, "%d %s: ERROR %s\n", sat.CatalogNumber, sat.Name, sat.Error)
					continue
				}
				fmt.Fprintf(out, "%d %s: %d passes\n", sat.CatalogNumber, sat.Name, len(sat.Passes))
				for j, p := range sat.Passes {
					fmt.Fprintf(out, "  pass %d: rise=%s az=%.1f° max=%.1f° at %s set=%s az=%.1f° dur=%.0fs\n",
						j, p.StartTime.Format(time.RFC3339), p.StartAzimuth,
						p.MaxElevation, p.MaxElevationTime.Format(time.RFC3339),
						p.EndTime.Format(time.RFC3339), p.EndAzimuth, p.DurationSeconds)
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&sats, "sat", nil, "satellite names or catalog numbers (default: first in file)")
	f.Float64Var(&lat, "lat", 0, "observer geodetic latitude, degrees")
	f.Float64Var(&lon, "lon", 0, "observer longitude, degrees east")
	f.Float64Var(&altKm, "alt", 0, "observer altitude, km")
	f.StringVar(&start, "start", "now", "window start, RFC 3339")
	f.DurationVar(&horizon, "horizon", 24*time.Hour, "window length")
	f.Float64Var(&minElevation, "min-elevation", 0, "minimum elevation, degrees")
	f.IntVar(&maxPasses, "max-passes", 10, "maximum passes per satellite")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
