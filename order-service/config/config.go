package config

import (
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	sharedconfig "github.com/draftea/order-saga/shared/config"
)

type Config struct {
	sharedconfig.Common `mapstructure:",squash"`
	Order               Order `mapstructure:"order"`
}

type Order struct {
	// Currency applies to orders placed without one
	Currency string `mapstructure:"currency"`
}

func ReadConfig() (*Config, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("unable to get current file")
	}

	var config Config
	if err := sharedconfig.Load(filepath.Dir(filename), "ORDER", setDefaults, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "order-service")
	v.SetDefault("port", "8080")

	v.SetDefault("order.currency", "USD")
}
