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
	Inventory           Inventory `mapstructure:"inventory"`
}

type Inventory struct {
	AutoProvision      bool   `mapstructure:"auto_provision"`
	DefaultStock       int    `mapstructure:"default_stock"`
	DefaultProductName string `mapstructure:"default_product_name"`
	MaxAttempts        int    `mapstructure:"max_attempts"`
}

func ReadConfig() (*Config, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("unable to get current file")
	}

	var config Config
	if err := sharedconfig.Load(filepath.Dir(filename), "INVENTORY", setDefaults, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "inventory-service")
	v.SetDefault("port", "8082")

	v.SetDefault("inventory.auto_provision", true)
	v.SetDefault("inventory.default_stock", 100)
	v.SetDefault("inventory.default_product_name", "Sample Product")
	v.SetDefault("inventory.max_attempts", 5)
}
