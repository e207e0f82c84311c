package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "PulseFeed/internal/domain/repository"
	"PulseFeed/internal/store"
	"PulseFeed/pkg/config"
	xhttp "PulseFeed/pkg/http"
	applogger "PulseFeed/pkg/logger"
)

// App owns the process lifecycle: it starts the price stream and HTTP
// server, waits for a shutdown signal and tears everything down in order,
// finishing with a synchronous snapshot persist so no appended snapshot is
// lost on a clean exit.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	stream     domrepo.PriceStream
	snapshots  *store.Store
	archive    domrepo.SnapshotArchive
}

func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	stream domrepo.PriceStream,
	snapshots *store.Store,
	archive domrepo.SnapshotArchive,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		stream:     stream,
		snapshots:  snapshots,
		archive:    archive,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.snapshots.Load()

	if a.cfg.Stream.Enabled {
		go a.stream.Run(ctx)
		a.log.Info("price stream started", applogger.String("url", a.cfg.Stream.URL))
	}

	a.httpServer.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http server shutdown error", applogger.Error(err))
	}

	if err := a.stream.Close(); err != nil {
		a.log.Error("price stream close error", applogger.Error(err))
	}

	// Final persist happens inside Close, after the background writer stops.
	if err := a.snapshots.Close(); err != nil {
		a.log.Error("snapshot store close error", applogger.Error(err))
		return err
	}

	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.log.Error("archive close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
