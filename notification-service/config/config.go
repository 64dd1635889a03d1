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
	SenderLog  = "log"
	SenderSMTP = "smtp"

	GuardMemory = "memory"
	GuardRedis  = "redis"
)

type Config struct {
	sharedconfig.Common `mapstructure:",squash"`
	Notification        Notification `mapstructure:"notification"`
}

type Notification struct {
	Recipient string             `mapstructure:"recipient"`
	Sender    string             `mapstructure:"sender"`
	SMTP      SMTP               `mapstructure:"smtp"`
	Guard     string             `mapstructure:"guard"`
	Redis     sharedconfig.Redis `mapstructure:"redis"`
	Retry     Retry              `mapstructure:"retry"`
}

type SMTP struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
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
	if err := sharedconfig.Load(filepath.Dir(filename), "NOTIFICATION", setDefaults, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "notification-service")
	v.SetDefault("port", "8084")

	v.SetDefault("notification.recipient", "customer@example.com")
	v.SetDefault("notification.sender", SenderLog)
	v.SetDefault("notification.smtp.host", "localhost")
	v.SetDefault("notification.smtp.port", "1025")
	v.SetDefault("notification.guard", GuardMemory)
	v.SetDefault("notification.redis.addr", "localhost:6379")
	v.SetDefault("notification.redis.ttl", 24*time.Hour)

	v.SetDefault("notification.retry.max_attempts", 3)
	v.SetDefault("notification.retry.initial_interval", 500*time.Millisecond)
	v.SetDefault("notification.retry.max_interval", 5*time.Second)
}
