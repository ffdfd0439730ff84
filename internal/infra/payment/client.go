package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Client integrates the aggregator's merchant API: invoice creation
// plus order status polling. Requests are form-encoded and signed with
// a sha256 over the merchant credentials and order fields.
type Client struct {
	baseURL    string
	merchantID string
	apiKey     string
	httpClient *http.Client
}

type Invoice struct {
	OrderID    string
	PaymentURL string
}

type OrderStatus struct {
	OrderID string
	Status  string
}

func NewClient(baseURL, merchantID, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		merchantID: merchantID,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *Client) sign(amount, currency, orderID string) string {
	raw := strings.Join([]string{c.merchantID, amount, currency, c.apiKey, orderID}, ":")
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// VerifySign checks a webhook notification signature.
func (c *Client) VerifySign(amount, currency, orderID, candidate string) bool {
	return c.sign(amount, currency, orderID) == candidate
}

// CreateInvoice registers an order with the aggregator and returns the
// URL the user pays at.
func (c *Client) CreateInvoice(ctx context.Context, orderID string, amount float64, currency, description string) (Invoice, error) {
	if strings.TrimSpace(orderID) == "" {
		return Invoice{}, fmt.Errorf("create invoice: order id is required")
	}
	if amount <= 0 {
		return Invoice{}, fmt.Errorf("create invoice: amount must be positive")
	}

	amountStr := fmt.Sprintf("%.2f", amount)
	form := url.Values{}
	form.Set("merchant_id", c.merchantID)
	form.Set("amount", amountStr)
	form.Set("currency", currency)
	form.Set("order_id", orderID)
	form.Set("desc", description)
	form.Set("sign", c.sign(amountStr, currency, orderID))

	var result struct {
		Type    string `json:"type"`
		URL     string `json:"url"`
		Message string `json:"message"`
	}
	if err := c.post(ctx, "/merchant/get_pay_url", form, &result); err != nil {
		return Invoice{}, err
	}
	if result.Type == "error" {
		return Invoice{}, fmt.Errorf("create invoice rejected: %s", result.Message)
	}
	if result.URL == "" {
		return Invoice{}, fmt.Errorf("create invoice: empty payment url")
	}

	return Invoice{OrderID: orderID, PaymentURL: result.URL}, nil
}

// QueryStatus fetches the aggregator-side state of an order.
func (c *Client) QueryStatus(ctx context.Context, orderID string) (OrderStatus, error) {
	if strings.TrimSpace(orderID) == "" {
		return OrderStatus{}, fmt.Errorf("query status: order id is required")
	}

	form := url.Values{}
	form.Set("merchant_id", c.merchantID)
	form.Set("order_id", orderID)

	var result struct {
		Type    string `json:"type"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := c.post(ctx, "/info/pay", form, &result); err != nil {
		return OrderStatus{}, err
	}
	if result.Type == "error" {
		return OrderStatus{}, fmt.Errorf("query status rejected: %s", result.Message)
	}

	return OrderStatus{OrderID: orderID, Status: result.Status}, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call payment provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected payment provider status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode payment response: %w", err)
	}
	return nil
}
