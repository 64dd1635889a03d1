package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/draftea/order-saga/order-service/config"
	sharedinfra "github.com/draftea/order-saga/shared/infrastructure"
	"github.com/draftea/order-saga/shared/logger"
	"github.com/draftea/order-saga/shared/server"
	"github.com/draftea/order-saga/shared/telemetry"
)

func main() {
	cfg, err := config.ReadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.Log.Level, Env: cfg.Log.Env})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("starting service",
		zap.String("service", cfg.ServiceName),
		zap.String("env", cfg.Env),
		zap.String("port", cfg.Port),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tel, shutdownTelemetry, err := telemetry.InitTelemetry(ctx, telemetry.OrderServiceConfig.
		WithOTLPEndpoint(cfg.Telemetry.OTLPEndpoint).
		WithVersion(cfg.Telemetry.ServiceVersion))
	if err != nil {
		zl.Warn("continuing without telemetry", zap.Error(err))
		tel, shutdownTelemetry = telemetry.NewTelemetry(telemetry.OrderServiceConfig), func() {}
	}
	defer shutdownTelemetry()

	broker, err := sharedinfra.NewBroker(ctx, config.Stage, cfg.Broker, zl)
	if err != nil {
		zl.Fatal("failed to connect to broker", zap.Error(err))
	}

	deps, err := config.BuildDependencies(ctx, cfg, broker, zl)
	if err != nil {
		zl.Fatal("failed to build dependencies", zap.Error(err))
	}
	defer func() {
		if err := deps.Close(); err != nil {
			zl.Error("error closing dependencies", zap.Error(err))
		}
	}()

	if err := deps.Choreography.Start(ctx, broker.Subscriber); err != nil {
		zl.Fatal("failed to start consumers", zap.Error(err))
	}

	router := server.NewRouter(tel)
	deps.OrderHandlers.RegisterRoutes(router)

	if err := server.Run(ctx, cfg.Port, router, zl); err != nil {
		zl.Error("server stopped with error", zap.Error(err))
	}

	cancel()
	if err := broker.Close(); err != nil {
		zl.Error("error closing broker", zap.Error(err))
	}

	zl.Info("service stopped", zap.String("service", cfg.ServiceName))
}
