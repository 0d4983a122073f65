package chapa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"staynest/internal/app/policies"
)

const (
	// DefaultBaseURL is the provider's production API root.
	DefaultBaseURL = "https://api.chapa.co/v1"
	// DefaultTimeout bounds every provider round trip.
	DefaultTimeout = 30 * time.Second
)

// Client talks to the Chapa REST API. It holds no state besides credentials
// and never persists anything; callers own the payment record.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient overrides the bounded default client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func NewClient(baseURL, secretKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type initializeRequest struct {
	Amount      string            `json:"amount"`
	Currency    string            `json:"currency"`
	Email       string            `json:"email"`
	FirstName   string            `json:"first_name,omitempty"`
	LastName    string            `json:"last_name,omitempty"`
	PhoneNumber string            `json:"phone_number,omitempty"`
	TxRef       string            `json:"tx_ref"`
	CallbackURL string            `json:"callback_url,omitempty"`
	ReturnURL   string            `json:"return_url,omitempty"`
	Description string            `json:"customization[description],omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
}

type initializeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string      `json:"status"`
		Amount    json.Number `json:"amount"`
		Currency  string      `json:"currency"`
		Reference string      `json:"reference"`
		TxRef     string      `json:"tx_ref"`
	} `json:"data"`
}

// NewTxRef builds the provider-facing reference for a booking. The random
// suffix keeps references unique across re-initiations of the same booking.
func NewTxRef(bookingID string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("booking_%s_%s", bookingID, suffix)
}

func (c *Client) Initiate(ctx context.Context, req policies.InitiateRequest) (policies.InitiateResult, error) {
	txRef := NewTxRef(string(req.BookingID))
	payload := initializeRequest{
		Amount:      req.Amount.Decimal(),
		Currency:    req.Amount.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.Phone,
		TxRef:       txRef,
		ReturnURL:   req.ReturnURL,
		Description: req.Descriptor,
		Meta:        map[string]string{"booking_id": string(req.BookingID)},
	}
	if req.ReturnURL != "" {
		payload.CallbackURL = strings.TrimRight(req.ReturnURL, "/") + "/payment/callback/"
	}

	raw, err := c.post(ctx, "/transaction/initialize", payload)
	if err != nil {
		return policies.InitiateResult{}, err
	}

	var decoded initializeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return policies.InitiateResult{}, policies.NewGatewayNetworkError("undecodable initialize response", err)
	}
	if !strings.EqualFold(decoded.Status, "success") {
		return policies.InitiateResult{}, policies.NewGatewayBusinessError(businessMessage(decoded.Message))
	}
	if decoded.Data.CheckoutURL == "" {
		return policies.InitiateResult{}, policies.NewGatewayNetworkError("initialize response missing checkout_url", nil)
	}
	return policies.InitiateResult{
		TxRef:       txRef,
		CheckoutURL: decoded.Data.CheckoutURL,
		Raw:         raw,
	}, nil
}

func (c *Client) Verify(ctx context.Context, txRef string) (policies.VerifyResult, error) {
	raw, err := c.get(ctx, "/transaction/verify/"+txRef)
	if err != nil {
		return policies.VerifyResult{}, err
	}

	var decoded verifyResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return policies.VerifyResult{}, policies.NewGatewayNetworkError("undecodable verify response", err)
	}
	if !strings.EqualFold(decoded.Status, "success") {
		return policies.VerifyResult{}, policies.NewGatewayBusinessError(businessMessage(decoded.Message))
	}
	return policies.VerifyResult{
		Status:      policies.MapProviderStatus(decoded.Data.Status),
		Amount:      decoded.Data.Amount.String(),
		ProviderRef: decoded.Data.Reference,
		Raw:         raw,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, policies.NewGatewayNetworkError("encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, policies.NewGatewayNetworkError("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, policies.NewGatewayNetworkError("build request", err)
	}
	return c.do(req)
}

// do runs the request and classifies the outcome: transport failures and 5xx
// are network errors (retryable), 4xx is a provider rejection carried as a
// business error with the provider's message.
func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, policies.NewGatewayNetworkError("provider unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, policies.NewGatewayNetworkError("read response", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, policies.NewGatewayNetworkError(fmt.Sprintf("provider returned %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return nil, policies.NewGatewayBusinessError(businessMessage(extractMessage(raw)))
	}
	return raw, nil
}

func extractMessage(raw []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.Message
}

func businessMessage(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return "payment provider rejected the request"
	}
	return msg
}

var _ policies.PaymentGateway = (*Client)(nil)
