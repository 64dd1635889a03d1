package domain

import (
	"context"
	"time"
)

type Email struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers an email to the customer
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// DeliveryGuard remembers which notifications were handed to the sender,
// across redeliveries and replicas. Claim reports false when key was
// already claimed.
type DeliveryGuard interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
