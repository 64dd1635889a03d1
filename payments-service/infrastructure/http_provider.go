package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/payments-service/domain"
)

var _ domain.Provider = (*HTTPProvider)(nil)

// HTTPProvider talks to a payment provider over REST. The idempotency key
// is sent as a header and is the resource id for lookups.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type chargeRequest struct {
	OrderID    string `json:"orderId"`
	CustomerID string `json:"customerId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

type chargeResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
	DeclineReason string `json:"declineReason"`
}

func (p *HTTPProvider) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	body, err := json.Marshal(chargeRequest{
		OrderID:    req.OrderID.String(),
		CustomerID: req.CustomerID.String(),
		Amount:     req.Amount.Amount,
		Currency:   req.Amount.Currency,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode charge request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build charge request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	return p.do(httpReq)
}

func (p *HTTPProvider) Lookup(ctx context.Context, idempotencyKey string) (*domain.ChargeResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/charges/"+url.PathEscape(idempotencyKey), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build lookup request")
	}

	return p.do(httpReq)
}

func (p *HTTPProvider) do(req *http.Request) (*domain.ChargeResult, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "payment provider request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrChargeNotFound
	case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.Errorf("payment provider returned %d", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.ChargeResult{DeclineReason: string(bytes.TrimSpace(msg))}, nil
	}

	var out chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "failed to decode provider response")
	}

	if out.Status != "approved" {
		return &domain.ChargeResult{DeclineReason: out.DeclineReason}, nil
	}
	if out.TransactionID == "" {
		return nil, errors.New("provider approved charge without transaction id")
	}

	return &domain.ChargeResult{Approved: true, TransactionID: out.TransactionID}, nil
}
