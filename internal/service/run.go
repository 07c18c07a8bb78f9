package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"astrotech/internal/config"
	"astrotech/internal/db"
	"astrotech/internal/environment"
	"astrotech/internal/logging"
)

// DefaultPorts are used when PORT is unset. They line up with the
// development environment descriptor.
var DefaultPorts = map[environment.Service]string{
	environment.Technicien: "3001",
	environment.Client:     "3002",
	environment.Affaires:   "3003",
	environment.Referent:   "3004",
	environment.Fichier:    "3005",
}

// Run starts one API process and blocks until SIGINT/SIGTERM.
func Run(name environment.Service) error {
	port, ok := DefaultPorts[name]
	if !ok {
		return fmt.Errorf("service: unknown api %q", name)
	}
	cfg, err := config.Load(port)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if err != nil {
		return fmt.Errorf("service: logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("service", string(name)+"-api"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	// A failed ping is not fatal: the pool keeps retrying on each Execute.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := pool.Ping(pingCtx); err != nil {
		log.Warn("database not reachable at startup", zap.Error(err))
	}
	cancel()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           NewServer(name, pool, log, cfg.Server.CORSOrigin).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return Serve(ctx, srv, cfg.Server.ShutdownTimeout, log)
}

// Serve runs srv until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("service: listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
