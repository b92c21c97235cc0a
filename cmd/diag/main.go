// Command diag prints every intermediate quantity of the reference
// propagation scenarios under each sidereal model and, given a catalog
// file, predicts passes for its first satellites over Denver.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kreyysyy/orbit/internal/passes"
	"github.com/kreyysyy/orbit/internal/propagation"
	"github.com/kreyysyy/orbit/internal/tle"
	"github.com/kreyysyy/orbit/internal/transform"
)

const landsat = "LANDSAT 8\n" +
	"1 39084U 13008A   20046.06823367  .00000004  00000-0  10818-4 0  9999\n" +
	"2 39084  98.1977 117.6514 0001223  88.0107 272.1236 14.57115290372734"

type scenario struct {
	name string
	el   tle.ElementSet
	at   time.Time
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	rec, err := tle.Parse(landsat)
	if err != nil {
		fmt.Println("ERROR parsing reference TLE:", err)
		os.Exit(1)
	}
	scenarios := []scenario{
		{
			name: "ALOS",
			el: tle.ElementSet{
				Epoch:           time.Date(2006, 4, 30, 17, 20, 47, 785056000, time.UTC),
				Inclination:     98.2104,
				RAAN:            195.1270,
				Eccentricity:    0.0001679,
				ArgPerigee:      14.7699,
				MeanAnomaly:     345.3549,
				MeanMotion:      14.59544429,
				MeanMotionDrift: 0.00000232,
			},
			at: time.Date(2006, 5, 15, 2, 0, 0, 0, time.UTC),
		},
		{name: rec.Name(), el: rec.Elements(), at: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	models := []transform.SiderealModel{transform.SiderealCurtis, transform.SiderealIAU82, transform.SiderealMeeus}
	for _, sc := range scenarios {
		fmt.Printf("%s at %s\n", sc.name, sc.at.Format(time.RFC3339))
		for _, m := range models {
			prop := propagation.NewPropagator(propagation.Config{Sidereal: m}, logger)
			sol, err := prop.Solve(sc.el, sc.at)
			if err != nil {
				fmt.Printf("  %-6s ERROR %v\n", m, err)
				continue
			}
			fmt.Printf("  %-6s dt=%.9f d  Mm=%.9f rev/d  a=%.6f km\n", m, sol.Elapsed, sol.MeanMotion, sol.SemiMajorAxis)
			fmt.Printf("         M=%.9f  E=%.9f (%d iterations)  U=%.6f  V=%.6f\n",
				sol.MeanAnomaly, sol.EccentricAnomaly, sol.KeplerIterations, sol.U, sol.V)
			fmt.Printf("         w=%.9f  Omega=%.9f  theta=%.9f\n", sol.ArgPerigee, sol.RAAN, sol.Sidereal)
			fmt.Printf("         lat=%.9f  lon=%.9f  geodetic lat=%.9f\n",
				sol.Geocentric.Latitude, sol.Geocentric.Longitude, sol.Geodetic.Latitude)
		}
	}

	if len(os.Args) < 2 {
		return
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Println("ERROR reading catalog:", err)
		os.Exit(1)
	}
	defer f.Close()
	records, err := tle.ReadCatalog(f, logger)
	if err != nil {
		fmt.Println("ERROR parsing catalog:", err)
		os.Exit(1)
	}
	fmt.Printf("\nLoaded %d element sets\n", len(records))

	var targets []passes.Target
	for _, r := range records[:min(5, len(records))] {
		targets = append(targets, passes.TargetFromRecord(r))
	}

	now := time.Now().UTC()
	fmt.Printf("Prediction start: %v\n", now)

	predictor := passes.NewPredictor(propagation.NewPropagator(propagation.Config{}, logger), 0, logger)
	results := predictor.Predict(context.Background(), passes.Request{
		Observer:     transform.NewObserverPosition(39.7392, -104.9903, 1.609),
		Targets:      targets,
		Start:        now,
		Horizon:      72 * time.Hour,
		MinElevation: 1,
		MaxPasses:    10,
	})

	total := 0
	for _, sat := range results {
		if sat.Error != "" {
			fmt.Printf("  %05d: ERROR %s\n", sat.CatalogNumber, sat.Error)
			continue
		}
		fmt.Printf("  %05d %s: %d passes\n", sat.CatalogNumber, sat.Name, len(sat.Passes))
		total += len(sat.Passes)
		for j, p := range sat.Passes {
			fmt.Printf("    pass %d: start=%v maxEl=%.1f° dur=%.0fs\n",
				j, p.StartTime.Format(time.RFC3339), p.MaxElevation, p.DurationSeconds)
		}
	}
	fmt.Printf("\nTotal passes found: %d\n", total)
}
