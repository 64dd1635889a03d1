package config

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	sharedconfig "github.com/draftea/order-saga/shared/config"
)

type Config struct {
	sharedconfig.Common `mapstructure:",squash"`
	Fulfillment         Fulfillment `mapstructure:"fulfillment"`
}

type Fulfillment struct {
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	Shipper     Shipper       `mapstructure:"shipper"`
	Retry       Retry         `mapstructure:"retry"`
}

type Shipper struct {
	MinLatency  time.Duration `mapstructure:"min_latency"`
	MaxLatency  time.Duration `mapstructure:"max_latency"`
	FailureRate float64       `mapstructure:"failure_rate"`
	ErrorRate   float64       `mapstructure:"error_rate"`
}

type Retry struct {
	MaxAttempts     uint          `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

func ReadConfig() (*Config, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("unable to get current file")
	}

	var config Config
	if err := sharedconfig.Load(filepath.Dir(filename), "FULFILLMENT", setDefaults, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "fulfillment-service")
	v.SetDefault("port", "8083")

	v.SetDefault("fulfillment.call_timeout", 5*time.Second)
	v.SetDefault("fulfillment.shipper.min_latency", 50*time.Millisecond)
	v.SetDefault("fulfillment.shipper.max_latency", 200*time.Millisecond)
	v.SetDefault("fulfillment.shipper.failure_rate", 0.0)
	v.SetDefault("fulfillment.shipper.error_rate", 0.0)

	v.SetDefault("fulfillment.retry.max_attempts", 3)
	v.SetDefault("fulfillment.retry.initial_interval", 200*time.Millisecond)
	v.SetDefault("fulfillment.retry.max_interval", 2*time.Second)
}
