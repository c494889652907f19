package khalti

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SiddharthaDhakal2/Agri-Backend/internal/models"
)

// StatusCompleted is the only settlement status Khalti reports for a
// finished payment; everything else counts as not paid.
const StatusCompleted = "Completed"

var ErrNotConfigured = errors.New("khalti is not configured")

// GatewayError carries the remote status code and the `detail` message
// Khalti puts in error bodies. A zero StatusCode means the request
// never reached the gateway.
type GatewayError struct {
	StatusCode int
	Detail     string
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("khalti: %s", e.Detail)
	}
	return fmt.Sprintf("khalti: %s (status %d)", e.Detail, e.StatusCode)
}

type Config struct {
	SecretKey  string
	BaseURL    string
	ReturnURL  string
	WebsiteURL string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type InitiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
	ExpiresAt  string `json:"expires_at,omitempty"`
}

type LookupResponse struct {
	Status          string `json:"status"`
	TransactionID   string `json:"transaction_id,omitempty"`
	PurchaseOrderID string `json:"purchase_order_id,omitempty"`
}

type customerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type initiateRequest struct {
	ReturnURL         string       `json:"return_url"`
	WebsiteURL        string       `json:"website_url"`
	Amount            int64        `json:"amount"`
	PurchaseOrderID   string       `json:"purchase_order_id"`
	PurchaseOrderName string       `json:"purchase_order_name"`
	CustomerInfo      customerInfo `json:"customer_info"`
}

// Initiate opens a checkout session for the order. It only talks to
// the gateway; recording the returned pidx against the order is the
// caller's job.
func (c *Client) Initiate(ctx context.Context, order *models.Order) (*InitiateResponse, error) {
	if c.cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: secret key missing", ErrNotConfigured)
	}
	if c.cfg.ReturnURL == "" {
		return nil, fmt.Errorf("%w: return URL missing", ErrNotConfigured)
	}

	returnURL, err := url.Parse(c.cfg.ReturnURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad return URL: %v", ErrNotConfigured, err)
	}
	q := returnURL.Query()
	q.Set("orderId", strconv.FormatUint(uint64(order.ID), 10))
	returnURL.RawQuery = q.Encode()

	// Khalti wants the amount in paisa.
	amount := int64(math.Round(order.Total * 100))

	payload := initiateRequest{
		ReturnURL:         returnURL.String(),
		WebsiteURL:        c.cfg.WebsiteURL,
		Amount:            amount,
		PurchaseOrderID:   strconv.FormatUint(uint64(order.ID), 10),
		PurchaseOrderName: fmt.Sprintf("Order-%d", order.ID),
		CustomerInfo: customerInfo{
			Name:  order.CustomerName,
			Email: order.CustomerEmail,
			Phone: order.Phone,
		},
	}

	var out InitiateResponse
	if err := c.post(ctx, "/initiate/", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Lookup asks the gateway for the settlement status of a checkout
// session. Read-only.
func (c *Client) Lookup(ctx context.Context, pidx string) (*LookupResponse, error) {
	if c.cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: secret key missing", ErrNotConfigured)
	}

	payload := map[string]string{"pidx": pidx}
	var out LookupResponse
	if err := c.post(ctx, "/lookup/", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.cfg.SecretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GatewayError{Detail: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var remote struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&remote)
		if remote.Detail == "" {
			remote.Detail = "khalti request failed"
		}
		return &GatewayError{StatusCode: resp.StatusCode, Detail: remote.Detail}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GatewayError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}
