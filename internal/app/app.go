// Package app wires up and runs the application services.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lumentel/frametap/internal/config"
	"github.com/lumentel/frametap/internal/device"
	"github.com/lumentel/frametap/internal/httpserver"
	"github.com/lumentel/frametap/internal/stream"
)

const shutdownTimeout = 10 * time.Second

// defaultQPCPeriodMs is used when no producer-supplied QPC frequency is
// available. It matches the period of a 10MHz counter, a common QPC
// frequency on modern Windows hosts, and only affects absolute
// millisecond magnitudes in synthetic/test data since no real collector
// is wired in this repository.
const defaultQPCPeriodMs = 1.0 / 10000.0

// Run bootstraps the application lifecycle: discover devices, start the
// subscription manager, serve HTTP until the context is cancelled.
func Run(ctx context.Context, baseLogger *slog.Logger, cfg config.Config) error {
	appLogger := baseLogger.With("component", "app")

	devices, err := device.Discover(cfg.SysfsRoot, baseLogger.With("component", "device_discovery"))
	if err != nil {
		return fmt.Errorf("discover devices: %w", err)
	}
	appLogger.Info("discovered devices", "count", len(devices))

	// The QPC tick period isn't self-reported by any in-process producer,
	// so it must come from configuration, with a documented fallback so a
	// bare `frametap-web` still starts without one.
	periodMs := cfg.QPCPeriodMsOverride
	if periodMs == 0 {
		periodMs = defaultQPCPeriodMs
	}

	streams := stream.NewManager(periodMs, cfg.RingDepth, baseLogger.With("component", "stream_manager"))
	defer func() {
		if err := streams.Close(); err != nil {
			appLogger.Warn("stream manager close", "err", err)
		}
	}()

	srv := httpserver.New(cfg, baseLogger.With("component", "http"), devices, streams)

	appLogger.Info("starting HTTP server", "listen_addr", cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
		appLogger.Info("shutdown initiated", "reason", ctx.Err())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("http shutdown: %w", err)
		}

		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		appLogger.Info("shutdown complete")
		return nil
	}
}
