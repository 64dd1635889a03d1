package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/draftea/order-saga/shared/events"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSNSSQS   = "sns-sqs"
	DriverKafka    = "kafka"
)

// Common holds the sections every stage reads. Service configs embed it
// with `mapstructure:",squash"`.
type Common struct {
	ServiceName string    `mapstructure:"service_name"`
	Env         string    `mapstructure:"env"`
	Port        string    `mapstructure:"port"`
	Log         Log       `mapstructure:"log"`
	Database    Database  `mapstructure:"database"`
	Broker      Broker    `mapstructure:"broker"`
	Telemetry   Telemetry `mapstructure:"telemetry"`
}

type Log struct {
	Level string `mapstructure:"level"`
	Env   string `mapstructure:"env"`
}

type Telemetry struct {
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceVersion string `mapstructure:"service_version"`
}

type Database struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the configured URL or builds one from the individual fields
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
		d.SSLMode,
	)
}

type Broker struct {
	Driver        string `mapstructure:"driver"`
	MaxDeliveries int    `mapstructure:"max_deliveries"`
	AWS           AWS    `mapstructure:"aws"`
	Kafka         Kafka  `mapstructure:"kafka"`
}

type AWS struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	// TopicArnPrefix is joined with the FIFO topic name, e.g.
	// "arn:aws:sns:us-east-1:000000000000:"
	TopicArnPrefix string `mapstructure:"topic_arn_prefix"`
	// QueueURLPrefix is joined with the stage queue name, e.g.
	// "http://localhost:4566/000000000000/"
	QueueURLPrefix string `mapstructure:"queue_url_prefix"`
	Workers        int    `mapstructure:"workers"`
}

// TopicArn is the SNS FIFO topic carrying a domain topic
func (a AWS) TopicArn(topic events.Topic) string {
	return a.TopicArnPrefix + ResourceName(topic)
}

// QueueURL is the SQS FIFO queue through which stage consumes topic
func (a AWS) QueueURL(stage string, topic events.Topic) string {
	return a.QueueURLPrefix + stage + "-" + ResourceName(topic)
}

type Kafka struct {
	Brokers     []string `mapstructure:"brokers"`
	GroupPrefix string   `mapstructure:"group_prefix"`
}

// GroupID is the consumer group of a stage on one topic
func (k Kafka) GroupID(stage string, topic events.Topic) string {
	return k.GroupPrefix + stage + "-" + strings.ReplaceAll(topic.String(), ".", "-")
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// TTL bounds how long a delivery claim is kept
	TTL time.Duration `mapstructure:"ttl"`
}

// ResourceName maps a topic to its broker resource name: "order.created"
// becomes "order-created.fifo".
func ResourceName(topic events.Topic) string {
	return strings.ReplaceAll(topic.String(), ".", "-") + ".fifo"
}

// ConfigName is the config file read for the current ENVIRONMENT
func ConfigName() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "local"
	}
	return env
}

// Load reads <ENVIRONMENT>.json from dir into out. Every key can be
// overridden by an environment variable, e.g. PAYMENT_BROKER_DRIVER.
// A missing file is not an error, defaults apply.
func Load(dir, envPrefix string, defaults func(v *viper.Viper), out any) error {
	v := viper.New()
	v.SetConfigName(ConfigName())
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetCommonDefaults(v)
	if defaults != nil {
		defaults(v)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "error reading config file")
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return errors.Wrap(err, "error unmarshaling config")
	}

	return nil
}

func SetCommonDefaults(v *viper.Viper) {
	v.SetDefault("env", getEnv("ENV", "local"))
	v.SetDefault("port", getEnv("PORT", "8080"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.env", getEnv("ENV", "local"))

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_version", "1.0.0")

	v.SetDefault("database.driver", DriverMemory)
	v.SetDefault("database.url", getEnv("DATABASE_URL", ""))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "order_saga")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("broker.driver", DriverMemory)
	v.SetDefault("broker.max_deliveries", 10)
	v.SetDefault("broker.aws.region", getEnv("AWS_DEFAULT_REGION", "us-east-1"))
	v.SetDefault("broker.aws.endpoint", getEnv("AWS_ENDPOINT_URL", ""))
	v.SetDefault("broker.aws.access_key_id", getEnv("AWS_ACCESS_KEY_ID", ""))
	v.SetDefault("broker.aws.secret_access_key", getEnv("AWS_SECRET_ACCESS_KEY", ""))
	v.SetDefault("broker.aws.topic_arn_prefix", "arn:aws:sns:us-east-1:000000000000:")
	v.SetDefault("broker.aws.queue_url_prefix", "http://localhost:4566/000000000000/")
	v.SetDefault("broker.aws.workers", 8)
	v.SetDefault("broker.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("broker.kafka.group_prefix", "order-saga-")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
