package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/Bulwark/internal/infrastructure/config"
	"github.com/GriffinCanCode/Bulwark/internal/logging"
	"github.com/GriffinCanCode/Bulwark/internal/server"
)

func main() {
	port := flag.String("port", "", "Server port (overrides PORT)")
	dev := flag.Bool("dev", false, "Development mode (colored logs, debug level)")
	experiments := flag.String("experiments", "", "Chaos experiments YAML file (overrides CHAOS_EXPERIMENTS_FILE)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dev {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}
	if *experiments != "" {
		cfg.Chaos.Enabled = true
		cfg.Chaos.ExperimentsFile = *experiments
	}

	logCfg := logging.DefaultConfig()
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	logCfg.Level = cfg.Logging.Level
	logger, err := logging.New(logCfg)
	if err != nil {
		logger = logging.NewDefault()
		logger.Warn("falling back to default logger", zap.Error(err))
	}
	defer logger.Sync()

	srv, err := server.New(*cfg, logger)
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	case err := <-errChan:
		logger.Fatal("server error", zap.Error(err))
	}
}
