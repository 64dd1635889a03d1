package config

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	sharedconfig "github.com/draftea/order-saga/shared/config"
)

const (
	ProviderSimulated = "simulated"
	ProviderHTTP      = "http"
)

type Config struct {
	sharedconfig.Common `mapstructure:",squash"`
	Payment             Payment `mapstructure:"payment"`
}

type Payment struct {
	Method      string        `mapstructure:"method"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	Provider    Provider      `mapstructure:"provider"`
	Retry       Retry         `mapstructure:"retry"`
	Breaker     Breaker       `mapstructure:"breaker"`
}

type Provider struct {
	Type        string        `mapstructure:"type"`
	BaseURL     string        `mapstructure:"base_url"`
	MinLatency  time.Duration `mapstructure:"min_latency"`
	MaxLatency  time.Duration `mapstructure:"max_latency"`
	DeclineRate float64       `mapstructure:"decline_rate"`
	ErrorRate   float64       `mapstructure:"error_rate"`
	DeclineOver int64         `mapstructure:"decline_over"`
}

type Retry struct {
	MaxAttempts     uint          `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

type Breaker struct {
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	CoolDown         time.Duration `mapstructure:"cool_down"`
	HalfOpenRequests uint32        `mapstructure:"half_open_requests"`
}

func ReadConfig() (*Config, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("unable to get current file")
	}

	var config Config
	if err := sharedconfig.Load(filepath.Dir(filename), "PAYMENT", setDefaults, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "payment-service")
	v.SetDefault("port", "8081")

	v.SetDefault("payment.method", "credit_card")
	v.SetDefault("payment.call_timeout", 5*time.Second)

	v.SetDefault("payment.provider.type", ProviderSimulated)
	v.SetDefault("payment.provider.min_latency", 100*time.Millisecond)
	v.SetDefault("payment.provider.max_latency", 300*time.Millisecond)
	v.SetDefault("payment.provider.decline_rate", 0.1)
	v.SetDefault("payment.provider.error_rate", 0.0)

	v.SetDefault("payment.retry.max_attempts", 3)
	v.SetDefault("payment.retry.initial_interval", 200*time.Millisecond)
	v.SetDefault("payment.retry.max_interval", 2*time.Second)

	v.SetDefault("payment.breaker.failure_threshold", 3)
	v.SetDefault("payment.breaker.cool_down", 30*time.Second)
	v.SetDefault("payment.breaker.half_open_requests", 1)
}
