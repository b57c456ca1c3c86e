// Package gateway holds clients for external systems. The settlement
// processor receives approved refunds and reports completion through a
// callback on the API.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/refund"
)

// SettlementRequest is the payload posted to the settlement processor.
type SettlementRequest struct {
	RefundID    id.ID           `json:"refundId"`
	CompanyID   id.ID           `json:"companyId"`
	OrderID     id.ID           `json:"orderId"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Method      string          `json:"method"`
	CallbackURL string          `json:"callbackUrl"`
}

// SettlementResponse is the processor's acknowledgement.
type SettlementResponse struct {
	Accepted  bool   `json:"accepted"`
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

// SettlementClient talks to the settlement processor over HTTP.
type SettlementClient struct {
	http        *resty.Client
	callbackURL string
}

// NewSettlementClient creates the settlement client.
func NewSettlementClient(baseURL, apiKey, callbackURL string) *SettlementClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(apiKey)

	return &SettlementClient{http: client, callbackURL: callbackURL}
}

// Submit posts a refund to the processor. The processor settles
// asynchronously and confirms through the callback URL.
func (c *SettlementClient) Submit(ctx context.Context, r *refund.Refund) error {
	amount := r.RequestedAmount
	if r.ApprovedAmount != nil {
		amount = *r.ApprovedAmount
	}

	req := SettlementRequest{
		RefundID:    r.ID,
		CompanyID:   r.CompanyID,
		OrderID:     r.OrderID,
		Amount:      amount,
		Currency:    r.Currency,
		Method:      r.Method,
		CallbackURL: c.callbackURL,
	}

	var out SettlementResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/settlements")
	if err != nil {
		return fmt.Errorf("submit settlement: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("submit settlement: processor returned %s", resp.Status())
	}
	if !out.Accepted {
		return fmt.Errorf("submit settlement: rejected: %s", out.Message)
	}

	return nil
}
