package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kreyysyy/orbit/internal/propagation"
)

func newCompareCmd(a *app) *cobra.Command {
	var (
		sat     string
		start   string
		horizon time.Duration
		step    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "compare <file|url|->",
		Short: "Compare the closed-form propagator against SGP4",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.selectRecord(cmd.Context(), args[0], sat)
			if err != nil {
				return err
			}
			t0 := rec.EpochInstant().Truncate(time.Second)
			if start != "" {
				if t0, err = parseTime(start); err != nil {
					return err
				}
			}
			times, err := propagation.SampleTimes(t0, horizon, step)
			if err != nil {
				return err
			}

			sgp4, err := propagation.NewSGP4Propagator(rec)
			if err != nil {
				return err
			}
			prop := a.propagator()
			el := rec.Elements()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "time\tlat\tlon\tsgp4_lat\tsgp4_lon\tseparation_deg")
			var worst float64
			for _, t := range times {
				p, err := prop.Propagate(el, t)
				if err != nil {
					return err
				}
				q, err := sgp4.Propagate(t)
				if err != nil {
					return err
				}
				sep := propagation.AngularSeparation(p, q)
				worst = max(worst, sep)
				fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n",
					t.Format(time.RFC3339), p.Latitude, p.Longitude, q.Latitude, q.Longitude, sep)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "max separation: %.4f deg over %d samples\n", worst, len(times))
			return nil
		},
	}
	cmd.Flags().StringVar(&sat, "sat", "", "satellite name or catalog number (default: first in file)")
	cmd.Flags().StringVar(&start, "start", "", "first sample, RFC 3339 (default: element epoch)")
	cmd.Flags().DurationVar(&horizon, "horizon", time.Hour, "comparison span")
	cmd.Flags().DurationVar(&step, "step", 5*time.Minute, "sample interval")
	return cmd
}
