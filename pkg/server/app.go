package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"StockPulse/internal/service/cache"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	applogger "StockPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	sweeper    *cache.Sweeper
	closers    []io.Closer
}

// New creates a new App instance. closers are released last on shutdown.
func New(cfg *config.Config, l *applogger.Logger, httpServer *xhttp.Server, sweeper *cache.Sweeper, closers ...io.Closer) *App {
	return &App{
		cfg:        cfg,
		log:        l,
		httpServer: httpServer,
		sweeper:    sweeper,
		closers:    closers,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the sweeper and HTTP server and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	a.log.Info("starting",
		applogger.String("environment", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Bool("redis_mirror", a.cfg.Redis.Enabled),
	)
	if err := a.sweeper.Start(); err != nil {
		return fmt.Errorf("start cache sweeper: %w", err)
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		a.sweeper.Stop()
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.sweeper.Stop()

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
