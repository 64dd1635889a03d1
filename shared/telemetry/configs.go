package telemetry

const defaultVersion = "1.0.0"

// Predefined service configurations
var (
	OrderServiceConfig = Config{
		ServiceName:    "order-service",
		ServiceVersion: defaultVersion,
	}

	PaymentServiceConfig = Config{
		ServiceName:    "payment-service",
		ServiceVersion: defaultVersion,
	}

	InventoryServiceConfig = Config{
		ServiceName:    "inventory-service",
		ServiceVersion: defaultVersion,
	}

	FulfillmentServiceConfig = Config{
		ServiceName:    "fulfillment-service",
		ServiceVersion: defaultVersion,
	}

	NotificationServiceConfig = Config{
		ServiceName:    "notification-service",
		ServiceVersion: defaultVersion,
	}

	SandboxConfig = Config{
		ServiceName:    "order-saga-sandbox",
		ServiceVersion: defaultVersion,
	}
)

// WithOTLPEndpoint sets the OTLP endpoint for a config. An empty endpoint
// keeps only the Prometheus exporter.
func (c Config) WithOTLPEndpoint(endpoint string) Config {
	c.OTLPEndpoint = endpoint
	return c
}

func (c Config) WithVersion(version string) Config {
	if version != "" {
		c.ServiceVersion = version
	}
	return c
}
