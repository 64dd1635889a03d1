package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrMissingAmount    = errors.New("money amount is required")
)

// ID represents a unique identifier
type ID string

// GenerateUUID creates a new UUID
func GenerateUUID() ID {
	return ID(uuid.New().String())
}

// NewID creates an ID from string
func NewID(id string) (ID, error) {
	_, err := uuid.Parse(id)
	if err != nil {
		return "", err
	}
	return ID(id), nil
}

// String returns string representation
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the identifier is empty
func (id ID) IsZero() bool {
	return id == ""
}

// Timestamps represents creation and update times
type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Now returns the current UTC time at the microsecond precision Postgres
// stores, so a reloaded timestamp equals the one first published
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NewTimestamps creates new timestamps
func NewTimestamps() Timestamps {
	now := Now()
	return Timestamps{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Update updates the UpdatedAt timestamp
func (t Timestamps) Update() Timestamps {
	t.UpdatedAt = Now()
	return t
}

// Version represents entity version for optimistic locking
type Version struct {
	Value int
}

// NewVersion creates new version
func NewVersion() Version {
	return Version{Value: 1}
}

// Update increments version
func (v Version) Update() Version {
	v.Value++
	return v
}

// Money represents monetary amount
type Money struct {
	Amount   int64  `json:"amount" validate:"gte=0"`       // Amount in cents
	Currency string `json:"currency" validate:"required"` // Currency code (USD, EUR, etc.)
}

// NewMoney creates a new money value
func NewMoney(amount int64, currency string) Money {
	return Money{
		Amount:   amount,
		Currency: currency,
	}
}

// UnmarshalJSON requires the amount key: an absent amount is not a zero one
func (m *Money) UnmarshalJSON(data []byte) error {
	var wire struct {
		Amount   *int64 `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Amount == nil {
		return ErrMissingAmount
	}

	m.Amount = *wire.Amount
	m.Currency = wire.Currency
	return nil
}

// IsZero checks if money is zero
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsPositive checks if money is positive
func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// Add adds two money values (must have same currency)
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{
		Amount:   m.Amount + other.Amount,
		Currency: m.Currency,
	}, nil
}

// Multiply scales the amount by a quantity
func (m Money) Multiply(quantity int) Money {
	return Money{
		Amount:   m.Amount * int64(quantity),
		Currency: m.Currency,
	}
}

// String renders the amount with two decimals, e.g. "USD 12.50"
func (m Money) String() string {
	return fmt.Sprintf("%s %d.%02d", m.Currency, m.Amount/100, m.Amount%100)
}
