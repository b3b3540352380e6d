package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPaystackURL is the production API root.
const DefaultPaystackURL = "https://api.paystack.co"

// minorUnits converts between the major currency unit and what the API
// expects (kobo, pesewas, cents).
var minorUnits = decimal.NewFromInt(100)

// Paystack implements Gateway against the Paystack transaction API.
type Paystack struct {
	baseURL     string
	secretKey   string
	callbackURL string
	client      *http.Client
}

// PaystackOption configures a Paystack client.
type PaystackOption func(*Paystack)

// WithBaseURL points the client at another API root (tests, sandboxes).
func WithBaseURL(baseURL string) PaystackOption {
	return func(p *Paystack) { p.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithCallbackURL sets where the provider redirects the payer afterwards.
func WithCallbackURL(callbackURL string) PaystackOption {
	return func(p *Paystack) { p.callbackURL = callbackURL }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) PaystackOption {
	return func(p *Paystack) { p.client = client }
}

// NewPaystack creates a Paystack client authenticated with secretKey.
func NewPaystack(secretKey string, opts ...PaystackOption) *Paystack {
	p := &Paystack{
		baseURL:   DefaultPaystackURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackVerifyData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

// Initialize starts a transaction for req.Amount, sent in minor units.
func (p *Paystack) Initialize(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	body := map[string]any{
		"email":     req.Email,
		"amount":    req.Amount.Mul(minorUnits).Round(0).IntPart(),
		"reference": req.Reference,
	}
	if p.callbackURL != "" {
		body["callback_url"] = p.callbackURL
	}

	var data paystackInitializeData
	if err := p.do(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, fmt.Errorf("initialize %s: %w", req.Reference, err)
	}
	if data.Reference == "" {
		data.Reference = req.Reference
	}
	return &Authorization{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// Verify asks the provider for the current state of reference.
func (p *Paystack) Verify(ctx context.Context, reference string) (*Verification, error) {
	var data paystackVerifyData
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := p.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, fmt.Errorf("verify %s: %w", reference, err)
	}
	if data.Reference == "" {
		data.Reference = reference
	}
	return &Verification{
		Reference: data.Reference,
		Result:    ResultOf(data.Status),
		Status:    data.Status,
		Amount:    decimal.NewFromInt(data.Amount).Div(minorUnits),
	}, nil
}

func (p *Paystack) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}
	defer resp.Body.Close()

	var env paystackEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil {
		return fmt.Errorf("%w: status %d: undecodable response: %v", ErrGatewayFailure, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Status {
		return fmt.Errorf("%w: status %d: %s", ErrGatewayFailure, resp.StatusCode, env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: malformed data: %v", ErrGatewayFailure, err)
		}
	}
	return nil
}
