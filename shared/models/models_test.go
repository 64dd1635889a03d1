package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid uuid", input: "550e8400-e29b-41d4-a716-446655440000"},
		{name: "invalid uuid", input: "not-a-uuid", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, id.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestMoney(t *testing.T) {
	price := NewMoney(1250, "USD")

	total, err := price.Add(price.Multiply(2))
	require.NoError(t, err)
	assert.Equal(t, int64(3750), total.Amount)
	assert.Equal(t, "USD 37.50", total.String())

	_, err = price.Add(NewMoney(100, "EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	assert.True(t, price.IsPositive())
	assert.True(t, NewMoney(0, "USD").IsZero())
}

func TestVersionUpdate(t *testing.T) {
	v := NewVersion()
	assert.Equal(t, 1, v.Value)
	assert.Equal(t, 2, v.Update().Value)
	assert.Equal(t, 1, v.Value)
}

func TestMoney_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Money
		wantErr error
	}{
		{name: "amount and currency", input: `{"amount":1250,"currency":"USD"}`, want: NewMoney(1250, "USD")},
		{name: "explicit zero", input: `{"amount":0,"currency":"USD"}`, want: NewMoney(0, "USD")},
		{name: "missing amount", input: `{"currency":"USD"}`, wantErr: ErrMissingAmount},
		{name: "null amount", input: `{"amount":null,"currency":"USD"}`, wantErr: ErrMissingAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var money Money
			err := json.Unmarshal([]byte(tt.input), &money)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, money)
		})
	}
}
