package propagation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kreyysyy/orbit/internal/metrics"
	"github.com/kreyysyy/orbit/internal/tle"
)

// MaxSamples bounds the number of instants in one ground track.
const MaxSamples = 10000

// ErrTooManySamples is returned when a ground track would exceed MaxSamples.
var ErrTooManySamples = errors.New("propagation: ground track exceeds sample budget")

var tracer = otel.Tracer("github.com/kreyysyy/orbit/internal/propagation")

// TrackPoint is one ground-track sample.
type TrackPoint struct {
	Time     time.Time        `json:"time"`
	Position GeodeticPosition `json:"position"`
}

// sampleJob is a unit of work for the worker pool.
type sampleJob struct {
	index int
	at    time.Time
}

// sampleResult is the output of a single sample.
type sampleResult struct {
	index int
	pos   GeodeticPosition
	err   error
}

// WorkerPool fans the instants of one element set out to a fixed number of
// goroutines.
type WorkerPool struct {
	workers int
	prop    *Propagator
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
func NewWorkerPool(workers int, prop *Propagator, logger *slog.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &WorkerPool{
		workers: workers,
		prop:    prop,
		logger:  logger,
	}
}

// SampleBatch propagates el to every instant in times. Successful samples
// are returned in the order of times; failed samples are logged, skipped,
// and counted in failed. If ctx is cancelled the samples completed so far
// are returned with ctx.Err().
func (wp *WorkerPool) SampleBatch(ctx context.Context, el tle.ElementSet, times []time.Time) (points []TrackPoint, failed int, err error) {
	if len(times) == 0 {
		return nil, 0, nil
	}

	jobs := make(chan sampleJob, wp.workers*2)
	results := make(chan sampleResult, wp.workers*2)

	// Start workers.
	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				pos, err := wp.prop.Propagate(el, job.at)
				select {
				case results <- sampleResult{index: job.index, pos: pos, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed jobs in a goroutine.
	go func() {
		defer close(jobs)
		for i, at := range times {
			select {
			case jobs <- sampleJob{index: i, at: at}:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close results when all workers are done.
	go func() {
		wg.Wait()
		close(results)
	}()

	ok := make([]bool, len(times))
	positions := make([]GeodeticPosition, len(times))
	for result := range results {
		if result.err != nil {
			failed++
			wp.logger.Warn("ground-track sample failed",
				"time", times[result.index].UTC().Format(time.RFC3339),
				"error", result.err,
			)
			continue
		}
		ok[result.index] = true
		positions[result.index] = result.pos
	}

	points = make([]TrackPoint, 0, len(times))
	for i, at := range times {
		if ok[i] {
			points = append(points, TrackPoint{Time: at, Position: positions[i]})
		}
	}

	metrics.RecordGroundTrack(len(points), failed)
	return points, failed, ctx.Err()
}

// SampleTimes returns start, start+step, … up to and including start+horizon.
func SampleTimes(start time.Time, horizon, step time.Duration) ([]time.Time, error) {
	if step <= 0 {
		return nil, fmt.Errorf("propagation: step must be positive, got %s", step)
	}
	if horizon < 0 {
		return nil, fmt.Errorf("propagation: horizon must not be negative, got %s", horizon)
	}
	// Compare before adding the start sample so a huge quotient cannot wrap.
	q := int64(horizon / step)
	if q >= MaxSamples {
		return nil, fmt.Errorf("%w: more than %d samples, limit %d", ErrTooManySamples, q, MaxSamples)
	}
	times := make([]time.Time, q+1)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * step)
	}
	return times, nil
}

// GroundTrack samples el from start over horizon at step intervals.
func (wp *WorkerPool) GroundTrack(ctx context.Context, el tle.ElementSet, start time.Time, horizon, step time.Duration) ([]TrackPoint, error) {
	times, err := SampleTimes(start, horizon, step)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "propagation.GroundTrack", trace.WithAttributes(
		attribute.Int("samples", len(times)),
		attribute.String("step", step.String()),
		attribute.Int("workers", wp.workers),
	))
	defer span.End()

	begin := time.Now()
	points, failed, err := wp.SampleBatch(ctx, el, times)
	span.SetAttributes(attribute.Int("failed", failed))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return points, err
	}

	wp.logger.Debug("ground track complete",
		"samples", len(points),
		"failed", failed,
		"duration_ms", time.Since(begin).Milliseconds(),
	)
	return points, nil
}
