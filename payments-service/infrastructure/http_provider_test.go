package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftea/order-saga/payments-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

func newProviderServer(t *testing.T) *httptest.Server {
	charges := map[string]chargeResponse{}

	r := chi.NewRouter()
	r.Post("/charges", func(w http.ResponseWriter, r *http.Request) {
		var req chargeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		key := r.Header.Get("Idempotency-Key")
		switch {
		case req.Amount >= 1_000_000:
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		case req.Amount > 5000:
			charges[key] = chargeResponse{Status: "declined", DeclineReason: "Insufficient funds"}
		default:
			charges[key] = chargeResponse{Status: "approved", TransactionID: "TXN-" + key}
		}
		json.NewEncoder(w).Encode(charges[key])
	})
	r.Get("/charges/{key}", func(w http.ResponseWriter, r *http.Request) {
		res, ok := charges[chi.URLParam(r, "key")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(res)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPProvider(t *testing.T) {
	server := newProviderServer(t)
	provider := NewHTTPProvider(server.URL, time.Second)

	charge := func(key string, cents int64) (*domain.ChargeResult, error) {
		return provider.Charge(context.Background(), domain.ChargeRequest{
			IdempotencyKey: key,
			OrderID:        "order-1",
			CustomerID:     "customer-1",
			Amount:         models.NewMoney(cents, "USD"),
		})
	}

	t.Run("approved", func(t *testing.T) {
		res, err := charge("k1", 100)
		require.NoError(t, err)
		assert.Equal(t, &domain.ChargeResult{Approved: true, TransactionID: "TXN-k1"}, res)
	})

	t.Run("declined", func(t *testing.T) {
		res, err := charge("k2", 9000)
		require.NoError(t, err)
		assert.Equal(t, &domain.ChargeResult{DeclineReason: "Insufficient funds"}, res)
	})

	t.Run("server error is an infrastructure failure", func(t *testing.T) {
		res, err := charge("k3", 1_000_000)
		assert.Error(t, err)
		assert.Nil(t, res)
	})

	t.Run("lookup", func(t *testing.T) {
		res, err := provider.Lookup(context.Background(), "k1")
		require.NoError(t, err)
		assert.True(t, res.Approved)

		_, err = provider.Lookup(context.Background(), "unknown")
		assert.ErrorIs(t, err, domain.ErrChargeNotFound)
	})
}
