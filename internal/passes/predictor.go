// Package passes predicts visibility windows of satellites over a ground
// observer.
package passes

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/kreyysyy/orbit/internal/propagation"
	"github.com/kreyysyy/orbit/internal/tle"
	"github.com/kreyysyy/orbit/internal/transform"
)

// GroundTrackPoint is a sub-satellite position at a specific time during a pass.
type GroundTrackPoint struct {
	Time      time.Time `json:"time"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude_km"`
	Elevation float64   `json:"elevation"` // degrees above observer's horizon (0-90)
}

// PassEvent describes a single satellite pass over an observer location.
type PassEvent struct {
	StartTime        time.Time          `json:"start_time"`
	MaxElevationTime time.Time          `json:"max_elevation_time"`
	EndTime          time.Time          `json:"end_time"`
	DurationSeconds  float64            `json:"duration_seconds"`
	MaxElevation     float64            `json:"max_elevation"`
	AzimuthAtMax     float64            `json:"azimuth_at_max"`
	StartAzimuth     float64            `json:"start_azimuth"`
	EndAzimuth       float64            `json:"end_azimuth"`
	GroundTrack      []GroundTrackPoint `json:"ground_track"`
}

// Target is one satellite to predict passes for.
type Target struct {
	CatalogNumber int
	Name          string
	Elements      tle.ElementSet
}

// TargetFromRecord builds a Target from a parsed TLE.
func TargetFromRecord(rec *tle.Record) Target {
	return Target{
		CatalogNumber: rec.CatalogNumber(),
		Name:          rec.Name(),
		Elements:      rec.Elements(),
	}
}

// SatellitePasses holds the predicted passes for one satellite.
type SatellitePasses struct {
	CatalogNumber int         `json:"catalog_number"`
	Name          string      `json:"name,omitempty"`
	Passes        []PassEvent `json:"passes"`
	Error         string      `json:"error,omitempty"`
}

// Request holds the parameters for a pass prediction request.
type Request struct {
	Observer     transform.ObserverPosition
	Targets      []Target
	Start        time.Time
	Horizon      time.Duration
	MinElevation float64 // degrees
	MaxPasses    int
}

const (
	coarseStep      = 30 * time.Second
	fineStep        = time.Second
	groundTrackStep = 10 * time.Second
	minPassDur      = 10 * time.Second
)

// Predictor finds passes with the closed-form propagator.
type Predictor struct {
	prop    *propagation.Propagator
	workers int
	logger  *slog.Logger
}

// NewPredictor creates a Predictor that processes up to workers satellites
// at once (default: runtime.NumCPU()).
func NewPredictor(prop *propagation.Propagator, workers int, logger *slog.Logger) *Predictor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Predictor{prop: prop, workers: workers, logger: logger}
}

// Predict computes satellite passes for the given request.
// Each satellite is processed in its own goroutine, bounded by a semaphore.
// Results are in the order of req.Targets.
func (p *Predictor) Predict(ctx context.Context, req Request) []SatellitePasses {
	results := make([]SatellitePasses, len(req.Targets))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i, target := range req.Targets {
		wg.Add(1)
		go func(idx int, tg Target) {
			defer wg.Done()

			results[idx] = SatellitePasses{CatalogNumber: tg.CatalogNumber, Name: tg.Name}
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx].Error = "cancelled"
				return
			}

			passes, err := p.predictSatellite(ctx, req, tg.Elements)
			if err != nil {
				p.logger.Warn("pass prediction failed",
					"catalog_number", tg.CatalogNumber,
					"error", err,
				)
				results[idx].Error = err.Error()
				return
			}
			results[idx].Passes = passes
		}(i, target)
	}

	wg.Wait()
	return results
}

// predictSatellite finds all passes for a single satellite.
func (p *Predictor) predictSatellite(ctx context.Context, req Request, el tle.ElementSet) ([]PassEvent, error) {
	if _, _, err := p.lookAt(el, req.Observer, req.Start); err != nil {
		return nil, fmt.Errorf("propagating to window start: %w", err)
	}

	end := req.Start.Add(req.Horizon)
	var passes []PassEvent

	// Coarse scan: step through the time range looking for elevation > 0.
	t := req.Start
	for t.Before(end) && len(passes) < req.MaxPasses {
		if ctx.Err() != nil {
			return passes, nil
		}

		la, _, err := p.lookAt(el, req.Observer, t)
		if err != nil || la.ElevationDeg <= 0 {
			t = t.Add(coarseStep)
			continue
		}

		// Found a candidate window; fine scan to find the full pass.
		pass, windowEnd := p.refinePass(ctx, el, req.Observer, t, req.Start, end, req.MinElevation)
		if pass != nil && pass.EndTime.Sub(pass.StartTime) >= minPassDur {
			passes = append(passes, *pass)
		}
		// Jump past the end of this window.
		t = windowEnd.Add(coarseStep)
	}

	return passes, nil
}

// passTracker accumulates one pass while the fine scan walks through it.
type passTracker struct {
	ev   PassEvent
	open bool
}

func (pt *passTracker) rise(t time.Time, la transform.LookAngles) {
	pt.open = true
	pt.ev = PassEvent{
		StartTime:        t,
		StartAzimuth:     la.AzimuthDeg,
		MaxElevationTime: t,
		MaxElevation:     la.ElevationDeg,
		AzimuthAtMax:     la.AzimuthDeg,
	}
}

func (pt *passTracker) peak(t time.Time, la transform.LookAngles) {
	if la.ElevationDeg > pt.ev.MaxElevation {
		pt.ev.MaxElevation = la.ElevationDeg
		pt.ev.MaxElevationTime = t
		pt.ev.AzimuthAtMax = la.AzimuthDeg
	}
}

// sample records a ground-track point every groundTrackStep after rise.
func (pt *passTracker) sample(t time.Time, la transform.LookAngles, ecef transform.Vector3) {
	if t.Sub(pt.ev.StartTime)%groundTrackStep != 0 {
		return
	}
	geo := transform.ECEFToGeodetic(ecef)
	pt.ev.GroundTrack = append(pt.ev.GroundTrack, GroundTrackPoint{
		Time:      t,
		Latitude:  geo.LatDeg,
		Longitude: geo.LonDeg,
		Altitude:  geo.AltKm,
		Elevation: la.ElevationDeg,
	})
}

func (pt *passTracker) set(t time.Time, azimuth float64) *PassEvent {
	pt.ev.EndTime = t
	pt.ev.EndAzimuth = azimuth
	pt.ev.DurationSeconds = t.Sub(pt.ev.StartTime).Seconds()
	return &pt.ev
}

// refinePass scans at fineStep from one coarse step before coarseHit until
// the elevation drops below minElev. A pass still above the threshold at
// windowEnd is closed there. It returns the pass, or nil when no rise was
// seen, and the instant the scan stopped.
func (p *Predictor) refinePass(ctx context.Context, el tle.ElementSet, obs transform.ObserverPosition, coarseHit, windowStart, windowEnd time.Time, minElev float64) (*PassEvent, time.Time) {
	t := coarseHit.Add(-coarseStep)
	if t.Before(windowStart) {
		t = windowStart
	}

	var pt passTracker
	for ; t.Before(windowEnd) && ctx.Err() == nil; t = t.Add(fineStep) {
		la, ecef, err := p.lookAt(el, obs, t)
		if err != nil {
			continue
		}

		above := la.ElevationDeg >= minElev
		if !above {
			if pt.open {
				return pt.set(t, la.AzimuthDeg), t
			}
			continue
		}
		if !pt.open {
			pt.rise(t, la)
		}
		pt.peak(t, la)
		pt.sample(t, la, ecef)
	}

	if !pt.open {
		return nil, t
	}
	var azimuth float64
	if la, _, err := p.lookAt(el, obs, t); err == nil {
		pt.peak(t, la)
		azimuth = la.AzimuthDeg
	}
	return pt.set(t, azimuth), t
}

// lookAt returns the look angles from obs and the satellite's Earth-fixed
// position at t.
func (p *Predictor) lookAt(el tle.ElementSet, obs transform.ObserverPosition, t time.Time) (transform.LookAngles, transform.Vector3, error) {
	sol, err := p.prop.Solve(el, t)
	if err != nil {
		return transform.LookAngles{}, transform.Vector3{}, err
	}
	return transform.ECEFToLookAngles(obs, sol.EarthFixed), sol.EarthFixed, nil
}
