package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kreyysyy/orbit/internal/api"
	"github.com/kreyysyy/orbit/internal/metrics"
	"github.com/kreyysyy/orbit/internal/observability"
	"github.com/kreyysyy/orbit/internal/passes"
	"github.com/kreyysyy/orbit/internal/propagation"
	"github.com/kreyysyy/orbit/internal/tle"
)

const ageInterval = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve the propagation API over HTTP",
		Long: "Serve the propagation API over HTTP. A catalog file given as an\n" +
			"argument is loaded once at startup; with tle.enable_fetch the catalog\n" +
			"is fetched and refreshed every tle.refresh_interval.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), args)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default: http.addr)")
	bind(a.v, cmd.Flags().Lookup("addr"), "http.addr")
	return cmd
}

func (a *app) serve(ctx context.Context, args []string) error {
	cfg := a.cfg
	logger := a.logger
	logger.Info("starting orbit", cfg.LogAttrs()...)

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	store := tle.NewStore()
	if len(args) == 1 {
		records, err := a.readRecords(ctx, args[0])
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		store.Set(&tle.Snapshot{Source: args[0], FetchedAt: time.Now().UTC(), Records: records})
		metrics.SetCatalogSize(len(records))
		logger.Info("loaded catalog", "source", args[0], "count", len(records))
	}

	if cfg.TLE.EnableFetch {
		fetcher := tle.NewFetcher(cfg.TLE.SourceURL, logger, cfg.TLE.ExtraSourceURLs...)
		a.refresh(ctx, store, fetcher)
		go a.refreshLoop(ctx, store, fetcher)
	}

	// Background goroutine to update the catalog age gauge.
	go func() {
		ticker := time.NewTicker(ageInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := store.AgeSeconds(); age >= 0 {
					metrics.SetCatalogAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	prop := a.propagator()
	srv := api.NewServer(cfg.HTTP.Addr, logger, api.Options{
		Auth:               cfg.Auth,
		Store:              store,
		Propagator:         prop,
		Pool:               propagation.NewWorkerPool(cfg.Prop.Workers, prop, logger),
		Predictor:          passes.NewPredictor(prop, cfg.Prop.Workers, logger),
		ParseOptions:       a.parseOptions(),
		TrustProxy:         cfg.HTTP.TrustProxy,
		MaxConcurrentPerIP: cfg.HTTP.MaxConcurrentPerIP,
		Ready: func() error {
			if cfg.TLE.EnableFetch && store.Get() == nil {
				return errors.New("catalog not loaded")
			}
			return nil
		},
	})

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.HTTP.Addr, "auth_enabled", cfg.Auth.Enabled, "tle_fetch_enabled", cfg.TLE.EnableFetch)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func (a *app) refresh(ctx context.Context, store *tle.Store, f *tle.Fetcher) {
	snap, err := store.Refresh(ctx, f, a.parseOptions()...)
	if err != nil {
		a.logger.Warn("catalog refresh failed, keeping previous snapshot", "source", f.SourceURL(), "error", err)
		return
	}
	metrics.SetCatalogSize(len(snap.Records))
	metrics.SetCatalogAge(0)
	oldest, newest := snap.EpochRange()
	a.logger.Info("catalog refreshed",
		slog.Int("count", len(snap.Records)),
		slog.Time("epoch_min", oldest),
		slog.Time("epoch_max", newest),
	)
}

func (a *app) refreshLoop(ctx context.Context, store *tle.Store, f *tle.Fetcher) {
	ticker := time.NewTicker(a.cfg.TLE.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.refresh(ctx, store, f)
		case <-ctx.Done():
			return
		}
	}
}
