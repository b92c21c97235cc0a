package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kreyysyy/orbit/internal/tle"
)

// elementFlags supplies an element set without a TLE.
type elementFlags struct {
	epoch string
	el    tle.ElementSet
}

func (e *elementFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&e.epoch, "epoch", "", "element epoch, RFC 3339 (element mode)")
	f.Float64Var(&e.el.Inclination, "incl", 0, "inclination, degrees")
	f.Float64Var(&e.el.RAAN, "raan", 0, "right ascension of the ascending node, degrees")
	f.Float64Var(&e.el.Eccentricity, "ecc", 0, "eccentricity")
	f.Float64Var(&e.el.ArgPerigee, "argp", 0, "argument of perigee, degrees")
	f.Float64Var(&e.el.MeanAnomaly, "ma", 0, "mean anomaly at epoch, degrees")
	f.Float64Var(&e.el.MeanMotion, "mm", 0, "mean motion, rev/day")
	f.Float64Var(&e.el.MeanMotionDrift, "mm-drift", 0, "mean motion drift, rev/day²")
}

// resolve returns the element set from a TLE source argument or from the
// element flags.
func (e *elementFlags) resolve(cmd *cobra.Command, a *app, args []string, sat string) (tle.ElementSet, error) {
	if len(args) == 1 {
		if e.epoch != "" {
			return tle.ElementSet{}, errors.New("give either a TLE source or --epoch, not both")
		}
		rec, err := a.selectRecord(cmd.Context(), args[0], sat)
		if err != nil {
			return tle.ElementSet{}, err
		}
		return rec.Elements(), nil
	}
	if e.epoch == "" {
		return tle.ElementSet{}, errors.New("a TLE source or --epoch with element flags is required")
	}
	epoch, err := parseTime(e.epoch)
	if err != nil {
		return tle.ElementSet{}, err
	}
	el := e.el
	el.Epoch = epoch
	return el, nil
}

func newPropagateCmd(a *app) *cobra.Command {
	var (
		sat    string
		at     string
		detail bool
		ef     elementFlags
	)
	cmd := &cobra.Command{
		Use:   "propagate [file|url|-]",
		Short: "Print the sub-satellite latitude and longitude at an instant",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			el, err := ef.resolve(cmd, a, args, sat)
			if err != nil {
				return err
			}
			t, err := parseTime(at)
			if err != nil {
				return err
			}
			sol, err := a.propagator().Solve(el, t)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if detail {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sol)
			}
			fmt.Fprintf(out, "%.6f %.6f\n", sol.Geocentric.Latitude, sol.Geocentric.Longitude)
			return nil
		},
	}
	cmd.Flags().StringVar(&sat, "sat", "", "satellite name or catalog number (default: first in file)")
	cmd.Flags().StringVar(&at, "at", "now", "target instant, RFC 3339")
	cmd.Flags().BoolVar(&detail, "detail", false, "print every intermediate quantity as JSON")
	ef.register(cmd)
	return cmd
}
