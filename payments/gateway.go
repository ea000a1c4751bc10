package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPGateway implements Provider against a REST payment gateway.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPGateway creates a new HTTPGateway.
func NewHTTPGateway(baseURL, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type initiateResponse struct {
	RedirectURL string `json:"redirect_url"`
	Message     string `json:"message"`
}

// InitiatePayment registers the payment with the gateway and returns the
// URL the customer is redirected to.
func (g *HTTPGateway) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentSession, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payment gateway returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed initiateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("payment gateway returned invalid response: %w", err)
	}
	if parsed.RedirectURL == "" {
		return nil, fmt.Errorf("payment gateway returned no redirect URL")
	}

	return &PaymentSession{RedirectURL: parsed.RedirectURL}, nil
}
