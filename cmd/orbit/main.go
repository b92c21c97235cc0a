// Command orbit parses two-line element sets and propagates them to
// sub-satellite points.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kreyysyy/orbit/internal/config"
	"github.com/kreyysyy/orbit/internal/propagation"
	"github.com/kreyysyy/orbit/internal/tle"
)

// app carries state shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
	stderr  io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: config.New(), stderr: stderr}

	root := &cobra.Command{
		Use:           "orbit",
		Short:         "TLE parsing and ground-position propagation",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (TOML, YAML or JSON)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("sidereal", "", "sidereal model: curtis, iau82, meeus")
	pf.Bool("verify-checksum", false, "reject TLE lines whose checksum does not match")
	pf.Int("workers", 0, "ground-track worker pool size")
	bind(a.v, pf.Lookup("log-level"), "log.level")
	bind(a.v, pf.Lookup("sidereal"), "prop.sidereal_model")
	bind(a.v, pf.Lookup("verify-checksum"), "tle.verify_checksum")
	bind(a.v, pf.Lookup("workers"), "prop.workers")

	root.AddCommand(
		newParseCmd(a),
		newPropagateCmd(a),
		newGroundTrackCmd(a),
		newPassesCmd(a),
		newCompareCmd(a),
		newServeCmd(a),
	)
	return root
}

// load resolves configuration once flags are parsed and builds the logger.
func (a *app) load() error {
	bootstrap := slog.New(slog.NewJSONHandler(a.stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg, err := config.Load(a.v, a.cfgFile, bootstrap)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewJSONHandler(a.stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	return nil
}

func (a *app) parseOptions() []tle.Option {
	if a.cfg.TLE.VerifyChecksum {
		return []tle.Option{tle.WithChecksumVerification()}
	}
	return nil
}

func (a *app) propagator() *propagation.Propagator {
	return propagation.NewPropagator(a.cfg.Prop, a.logger)
}

// readRecords loads a catalog from a file path, "-" for stdin, or an
// http(s) URL.
func (a *app) readRecords(ctx context.Context, source string) ([]*tle.Record, error) {
	switch {
	case source == "-":
		return tle.ReadCatalog(os.Stdin, a.logger, a.parseOptions()...)
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return tle.NewFetcher(source, a.logger).FetchRecords(ctx, a.parseOptions()...)
	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return tle.ReadCatalog(f, a.logger, a.parseOptions()...)
	}
}

// selectRecord reads source and picks the record matching query, or the
// first record when query is empty.
func (a *app) selectRecord(ctx context.Context, source, query string) (*tle.Record, error) {
	records, err := a.readRecords(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no valid element sets in %s", source)
	}
	if query == "" {
		return records[0], nil
	}
	rec := tle.Find(records, query)
	if rec == nil {
		return nil, fmt.Errorf("no satellite matches %q in %s", query, source)
	}
	return rec, nil
}

// parseTime accepts RFC 3339 or "now".
func parseTime(s string) (time.Time, error) {
	if s == "" || s == "now" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want RFC 3339", s)
	}
	return t.UTC(), nil
}
