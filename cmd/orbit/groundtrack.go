package main

import (
	"encoding/csv"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kreyysyy/orbit/internal/propagation"
)

func newGroundTrackCmd(a *app) *cobra.Command {
	var (
		sat     string
		start   string
		horizon time.Duration
		step    time.Duration
		ef      elementFlags
	)
	cmd := &cobra.Command{
		Use:   "groundtrack [file|url|-]",
		Short: "Write a ground track as CSV segments: time,lat,lon,next_lat,next_lon",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			el, err := ef.resolve(cmd, a, args, sat)
			if err != nil {
				return err
			}
			t0, err := parseTime(start)
			if err != nil {
				return err
			}
			if horizon == 0 {
				horizon = a.cfg.Prop.Horizon
			}
			if step == 0 {
				step = a.cfg.Prop.Step
			}

			prop := a.propagator()
			pool := propagation.NewWorkerPool(a.cfg.Prop.Workers, prop, a.logger)
			points, err := pool.GroundTrack(cmd.Context(), el, t0, horizon, step)
			if err != nil {
				return err
			}

			w := csv.NewWriter(cmd.OutOrStdout())
			if err := w.Write([]string{"time", "lat", "lon", "next_lat", "next_lon"}); err != nil {
				return err
			}
			ff := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
			for i := 0; i+1 < len(points); i++ {
				p, q := points[i], points[i+1]
				if err := w.Write([]string{
					p.Time.Format(time.RFC3339),
					ff(p.Position.Latitude), ff(p.Position.Longitude),
					ff(q.Position.Latitude), ff(q.Position.Longitude),
				}); err != nil {
					return err
				}
			}
			w.Flush()
			return w.Error()
		},
	}
	cmd.Flags().StringVar(&sat, "sat", "", "satellite name or catalog number (default: first in file)")
	cmd.Flags().StringVar(&start, "start", "now", "first sample instant, RFC 3339")
	cmd.Flags().DurationVar(&horizon, "horizon", 0, "track length (default: prop.horizon)")
	cmd.Flags().DurationVar(&step, "step", 0, "sample interval (default: prop.step)")
	ef.register(cmd)
	return cmd
}
