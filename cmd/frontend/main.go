package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"astrotech/internal/config"
	"astrotech/internal/frontend"
	"astrotech/internal/logging"
	"astrotech/internal/service"
)

func main() {
	srvCfg, feCfg, err := config.LoadFrontend("4200")
	if err != nil {
		log.Fatalf("frontend: %v", err)
	}

	logger, err := logging.New(srvCfg.LogLevel, srvCfg.LogFormat)
	if err != nil {
		log.Fatalf("frontend: logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	app, err := frontend.NewApp(feCfg.Target, logger)
	if err != nil {
		logger.Fatal("environment", zap.Error(err))
	}
	logger.Info("serving environment",
		zap.String("target", app.Target),
		zap.Bool("production", app.Env.Production),
		zap.String("apiURL", app.Env.APIURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + srvCfg.Port,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := service.Serve(ctx, srv, srvCfg.ShutdownTimeout, logger); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}
