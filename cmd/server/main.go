package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/app"
	"github.com/rambosorn/khadimy/internal/config"
	"github.com/rambosorn/khadimy/internal/logging"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("config loaded",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("response_format", cfg.API.ResponseFormat),
	)

	// 3. Database, system tables and content types
	rt, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open runtime", zap.Error(err))
	}
	defer rt.Close()

	// 4. Bootstrap seeding (never fatal)
	if cfg.Seed.Enabled {
		report := rt.Seed(ctx)
		if !report.OK() {
			logger.Warn("bootstrap finished with failures", zap.Strings("failures", report.Failures))
		}
	}

	// 5. Permissions
	if err := rt.LoadPermissions(ctx); err != nil {
		logger.Fatal("failed to load permissions", zap.Error(err))
	}

	// 6. HTTP server
	srv := rt.NewServer()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		_ = srv.Shutdown()
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("starting server", zap.String("addr", addr))
	if err := srv.Listen(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
