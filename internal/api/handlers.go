package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kreyysyy/orbit/internal/passes"
	"github.com/kreyysyy/orbit/internal/propagation"
	"github.com/kreyysyy/orbit/internal/rootfind"
	"github.com/kreyysyy/orbit/internal/tle"
	"github.com/kreyysyy/orbit/internal/transform"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// maxPassTargets bounds the satellites in one pass request.
const maxPassTargets = 100

// requestError is a client error with the HTTP status to report.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		re *requestError
		fe *tle.FormatError
		ve *tle.ValidationError
		de *propagation.DomainError
		ce *rootfind.ConvergenceError
	)
	switch {
	case errors.As(err, &re):
		return re.status
	case errors.As(err, &fe), errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &de), errors.As(err, &ce), errors.Is(err, rootfind.ErrZeroDerivative):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type handlers struct {
	logger    *slog.Logger
	store     *tle.Store
	prop      *propagation.Propagator
	pool      *propagation.WorkerPool
	predictor *passes.Predictor
	parseOpts []tle.Option
	now       func() time.Time
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func decodeBody(r *http.Request, w http.ResponseWriter, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// elementSource selects the orbit of a request: literal TLE text, a raw
// element set, or a catalog number in the loaded snapshot. Exactly one must
// be given.
type elementSource struct {
	TLE           string          `json:"tle,omitempty"`
	Elements      *tle.ElementSet `json:"elements,omitempty"`
	CatalogNumber int             `json:"catalog_number,omitempty"`
}

func (h *handlers) resolve(src elementSource) (tle.ElementSet, *tle.Record, error) {
	given := 0
	for _, set := range []bool{src.TLE != "", src.Elements != nil, src.CatalogNumber != 0} {
		if set {
			given++
		}
	}
	if given != 1 {
		return tle.ElementSet{}, nil, badRequest("exactly one of tle, elements, catalog_number is required")
	}

	switch {
	case src.TLE != "":
		rec, err := tle.Parse(src.TLE, h.parseOpts...)
		if err != nil {
			return tle.ElementSet{}, nil, err
		}
		return rec.Elements(), rec, nil
	case src.Elements != nil:
		return *src.Elements, nil, nil
	default:
		rec := h.store.Find(strconv.Itoa(src.CatalogNumber))
		if rec == nil {
			return tle.ElementSet{}, nil, &requestError{
				status: http.StatusNotFound,
				msg:    fmt.Sprintf("catalog number %d not found", src.CatalogNumber),
			}
		}
		return rec.Elements(), rec, nil
	}
}

// recordView is the JSON form of a parsed TLE.
type recordView struct {
	CatalogNumber int               `json:"catalog_number"`
	Name          string            `json:"name"`
	Epoch         time.Time         `json:"epoch"`
	Fields        map[string]string `json:"fields"`
	Elements      tle.ElementSet    `json:"elements"`
	Lines         [3]string         `json:"lines"`
}

func newRecordView(rec *tle.Record) recordView {
	fields := make(map[string]string, len(tle.Fields()))
	for _, f := range tle.Fields() {
		fields[f.String()] = rec.Text(f)
	}
	name, l1, l2 := rec.Lines()
	return recordView{
		CatalogNumber: rec.CatalogNumber(),
		Name:          rec.Name(),
		Epoch:         rec.EpochInstant(),
		Fields:        fields,
		Elements:      rec.Elements(),
		Lines:         [3]string{name, l1, l2},
	}
}

type parseRequest struct {
	TLE            string `json:"tle"`
	VerifyChecksum bool   `json:"verify_checksum"`
}

// parseTLE handles POST /api/v1/tle/parse.
func (h *handlers) parseTLE(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeBody(r, w, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	opts := h.parseOpts
	if req.VerifyChecksum {
		opts = append(opts[:len(opts):len(opts)], tle.WithChecksumVerification())
	}
	rec, err := tle.Parse(req.TLE, opts...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRecordView(rec))
}

type propagateRequest struct {
	elementSource
	At     *time.Time `json:"at,omitempty"`
	Detail bool       `json:"detail,omitempty"`
}

type propagateResponse struct {
	At               time.Time             `json:"at"`
	Latitude         float64               `json:"lat"`
	Longitude        float64               `json:"lon"`
	GeodeticLatitude float64               `json:"geodetic_lat"`
	Solution         *propagation.Solution `json:"solution,omitempty"`
}

func (h *handlers) propagateAt(w http.ResponseWriter, r *http.Request, el tle.ElementSet, at time.Time, detail bool) {
	sol, err := h.prop.Solve(el, at)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := propagateResponse{
		At:               at,
		Latitude:         sol.Geocentric.Latitude,
		Longitude:        sol.Geocentric.Longitude,
		GeodeticLatitude: sol.Geodetic.Latitude,
	}
	if detail {
		resp.Solution = sol
	}
	writeJSON(w, http.StatusOK, resp)
}

// propagate handles POST /api/v1/propagate.
func (h *handlers) propagate(w http.ResponseWriter, r *http.Request) {
	var req propagateRequest
	if err := decodeBody(r, w, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	el, _, err := h.resolve(req.elementSource)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	at := h.now().UTC()
	if req.At != nil {
		at = req.At.UTC()
	}
	h.propagateAt(w, r, el, at, req.Detail)
}

// propagateCatalog handles GET /api/v1/propagate/{catalog_number}?at=RFC3339.
func (h *handlers) propagateCatalog(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("catalog_number"))
	if err != nil || n <= 0 {
		h.fail(w, r, badRequest("invalid catalog number %q", r.PathValue("catalog_number")))
		return
	}
	el, _, err := h.resolve(elementSource{CatalogNumber: n})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	at := h.now().UTC()
	if v := r.URL.Query().Get("at"); v != "" {
		at, err = time.Parse(time.RFC3339, v)
		if err != nil {
			h.fail(w, r, badRequest("invalid at %q: want RFC 3339", v))
			return
		}
	}
	h.propagateAt(w, r, el, at.UTC(), r.URL.Query().Get("detail") == "true")
}

type groundTrackRequest struct {
	elementSource
	Start   *time.Time `json:"start,omitempty"`
	Horizon string     `json:"horizon,omitempty"` // Go duration, default from config
	Step    string     `json:"step,omitempty"`
}

type groundTrackResponse struct {
	Start   time.Time                `json:"start"`
	Step    string                   `json:"step"`
	Samples int                      `json:"samples"`
	Failed  int                      `json:"failed"`
	Points  []propagation.TrackPoint `json:"points"`
}

func parseDuration(name, v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, badRequest("invalid %s %q: %v", name, v, err)
	}
	return d, nil
}

// groundTrack handles POST /api/v1/groundtrack.
func (h *handlers) groundTrack(w http.ResponseWriter, r *http.Request) {
	var req groundTrackRequest
	if err := decodeBody(r, w, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	el, _, err := h.resolve(req.elementSource)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	cfg := h.prop.Config()
	horizon, err := parseDuration("horizon", req.Horizon, cfg.Horizon)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	step, err := parseDuration("step", req.Step, cfg.Step)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	start := h.now().UTC()
	if req.Start != nil {
		start = req.Start.UTC()
	}

	// Reject over-budget requests before any work is scheduled.
	if _, err := propagation.SampleTimes(start, horizon, step); err != nil {
		if errors.Is(err, propagation.ErrTooManySamples) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":       err.Error(),
				"max_samples": propagation.MaxSamples,
			})
			return
		}
		h.fail(w, r, badRequest("%v", err))
		return
	}

	points, err := h.pool.GroundTrack(r.Context(), el, start, horizon, step)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if points == nil {
		points = []propagation.TrackPoint{}
	}
	samples := int(horizon/step) + 1
	writeJSON(w, http.StatusOK, groundTrackResponse{
		Start:   start,
		Step:    step.String(),
		Samples: samples,
		Failed:  samples - len(points),
		Points:  points,
	})
}

type observerJSON struct {
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lon"`
	AltitudeKm float64 `json:"alt_km"`
}

type passesRequest struct {
	TLE            string       `json:"tle,omitempty"`
	CatalogNumbers []int        `json:"catalog_numbers,omitempty"`
	Observer       observerJSON `json:"observer"`
	Start          *time.Time   `json:"start,omitempty"`
	Horizon        string       `json:"horizon,omitempty"`
	MinElevation   float64      `json:"min_elevation"`
	MaxPasses      int          `json:"max_passes,omitempty"`
}

// predictPasses handles POST /api/v1/passes.
func (h *handlers) predictPasses(w http.ResponseWriter, r *http.Request) {
	var req passesRequest
	if err := decodeBody(r, w, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	obs := req.Observer
	if obs.Latitude < -90 || obs.Latitude > 90 || obs.Longitude < -180 || obs.Longitude > 180 {
		h.fail(w, r, badRequest("observer position out of range"))
		return
	}
	if req.MinElevation < 0 || req.MinElevation >= 90 {
		h.fail(w, r, badRequest("min_elevation must be in [0, 90)"))
		return
	}

	var targets []passes.Target
	if req.TLE != "" {
		rec, err := tle.Parse(req.TLE, h.parseOpts...)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		targets = append(targets, passes.TargetFromRecord(rec))
	}
	if len(req.CatalogNumbers) > maxPassTargets {
		h.fail(w, r, badRequest("at most %d catalog numbers per request", maxPassTargets))
		return
	}
	for _, n := range req.CatalogNumbers {
		_, rec, err := h.resolve(elementSource{CatalogNumber: n})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		targets = append(targets, passes.TargetFromRecord(rec))
	}
	if len(targets) == 0 {
		h.fail(w, r, badRequest("tle or catalog_numbers is required"))
		return
	}

	horizon, err := parseDuration("horizon", req.Horizon, 24*time.Hour)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if horizon <= 0 || horizon > 7*24*time.Hour {
		h.fail(w, r, badRequest("horizon must be in (0, 168h]"))
		return
	}
	maxPasses := req.MaxPasses
	if maxPasses <= 0 {
		maxPasses = 10
	}
	start := h.now().UTC()
	if req.Start != nil {
		start = req.Start.UTC()
	}

	results := h.predictor.Predict(r.Context(), passes.Request{
		Observer:     transform.NewObserverPosition(obs.Latitude, obs.Longitude, obs.AltitudeKm),
		Targets:      targets,
		Start:        start,
		Horizon:      horizon,
		MinElevation: req.MinElevation,
		MaxPasses:    maxPasses,
	})
	writeJSON(w, http.StatusOK, map[string]any{"satellites": results})
}

type metadataResponse struct {
	Source     string    `json:"source"`
	FetchedAt  time.Time `json:"fetched_at"`
	AgeSeconds float64   `json:"age_seconds"`
	Count      int       `json:"count"`
	EpochMin   time.Time `json:"epoch_min"`
	EpochMax   time.Time `json:"epoch_max"`
}

// metadata handles GET /api/v1/tle/metadata.
func (h *handlers) metadata(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Get()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no catalog loaded")
		return
	}
	lo, hi := snap.EpochRange()
	writeJSON(w, http.StatusOK, metadataResponse{
		Source:     snap.Source,
		FetchedAt:  snap.FetchedAt,
		AgeSeconds: h.store.AgeSeconds(),
		Count:      len(snap.Records),
		EpochMin:   lo,
		EpochMax:   hi,
	})
}

// satellite handles GET /api/v1/satellites?q=name-or-number.
func (h *handlers) satellite(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		h.fail(w, r, badRequest("query parameter q is required"))
		return
	}
	if h.store.Get() == nil {
		writeError(w, http.StatusServiceUnavailable, "no catalog loaded")
		return
	}
	rec := h.store.Find(q)
	if rec == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no satellite matches %q", q))
		return
	}
	writeJSON(w, http.StatusOK, newRecordView(rec))
}
