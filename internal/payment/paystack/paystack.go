// Package paystack wraps the Paystack transaction verify API.
package paystack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/scholaris/internal/config"
	paymentdomain "github.com/smallbiznis/scholaris/internal/payment/domain"
)

type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// New builds a Paystack client from configuration.
func New(cfg config.PaystackConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		http:      &http.Client{Timeout: timeout},
	}
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string  `json:"status"`
		Amount   int64   `json:"amount"`
		Currency string  `json:"currency"`
		ID       int64   `json:"id"`
		PaidAt   *string `json:"paid_at"`
	} `json:"data"`
}

// Verify looks up a transaction by reference. Paystack reports amounts in
// minor units (kobo); the result is converted to major units.
func (c *Client) Verify(ctx context.Context, reference string) (*paymentdomain.VerifyResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("paystack: empty reference")
	}

	endpoint := fmt.Sprintf("%s/transaction/verify/%s", c.baseURL, url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack: verify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paystack: verify returned status %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("paystack: decode verify response: %w", err)
	}
	if !body.Status {
		return nil, fmt.Errorf("paystack: %s", body.Message)
	}

	result := &paymentdomain.VerifyResult{
		Status:        body.Data.Status,
		Amount:        float64(body.Data.Amount) / 100,
		Currency:      body.Data.Currency,
		TransactionID: fmt.Sprintf("%d", body.Data.ID),
	}
	if body.Data.PaidAt != nil {
		if paidAt, err := time.Parse(time.RFC3339, *body.Data.PaidAt); err == nil {
			paidAtUTC := paidAt.UTC()
			result.PaidAt = &paidAtUTC
		}
	}
	return result, nil
}
