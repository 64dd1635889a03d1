package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	fulfillmentconfig "github.com/draftea/order-saga/fulfillment-service/config"
	inventoryconfig "github.com/draftea/order-saga/inventory-service/config"
	notificationconfig "github.com/draftea/order-saga/notification-service/config"
	orderconfig "github.com/draftea/order-saga/order-service/config"
	paymentconfig "github.com/draftea/order-saga/payments-service/config"
	"github.com/draftea/order-saga/sandbox"
	"github.com/draftea/order-saga/shared/logger"
	"github.com/draftea/order-saga/shared/server"
	"github.com/draftea/order-saga/shared/telemetry"
)

func readConfig() (sandbox.Config, error) {
	var (
		cfg sandbox.Config
		err error
	)
	if cfg.Order, err = orderconfig.ReadConfig(); err != nil {
		return cfg, err
	}
	if cfg.Payment, err = paymentconfig.ReadConfig(); err != nil {
		return cfg, err
	}
	if cfg.Inventory, err = inventoryconfig.ReadConfig(); err != nil {
		return cfg, err
	}
	if cfg.Fulfillment, err = fulfillmentconfig.ReadConfig(); err != nil {
		return cfg, err
	}
	if cfg.Notification, err = notificationconfig.ReadConfig(); err != nil {
		return cfg, err
	}
	return cfg.UseMemory(), nil
}

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.Order.Log.Level, Env: cfg.Order.Log.Env})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("starting sandbox", zap.String("port", cfg.Order.Port))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tel, shutdownTelemetry, err := telemetry.InitTelemetry(ctx, telemetry.SandboxConfig.
		WithOTLPEndpoint(cfg.Order.Telemetry.OTLPEndpoint).
		WithVersion(cfg.Order.Telemetry.ServiceVersion))
	if err != nil {
		zl.Warn("continuing without telemetry", zap.Error(err))
		tel, shutdownTelemetry = telemetry.NewTelemetry(telemetry.SandboxConfig), func() {}
	}
	defer shutdownTelemetry()

	sb, err := sandbox.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to build sandbox", zap.Error(err))
	}

	if err := sb.Start(ctx); err != nil {
		zl.Fatal("failed to start consumers", zap.Error(err))
	}

	router := server.NewRouter(tel)
	sb.RegisterRoutes(router)

	if err := server.Run(ctx, cfg.Order.Port, router, zl); err != nil {
		zl.Error("server stopped with error", zap.Error(err))
	}

	cancel()
	if err := sb.Close(); err != nil {
		zl.Error("error closing sandbox", zap.Error(err))
	}

	zl.Info("sandbox stopped")
}
