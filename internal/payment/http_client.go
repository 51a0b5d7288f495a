package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/shopkit/shopkit/env"
	"github.com/shopkit/shopkit/models"
)

// HTTPClient implements Provider against the processor's REST API.
// Outbound calls are throttled with a token bucket so a burst of checkout
// traffic cannot trip the processor's own limits.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  models.Logger
}

func NewHTTPClient(config models.PaymentConfig, logger models.Logger) (*HTTPClient, error) {
	apiKey := strings.TrimSpace(os.Getenv(env.EnvPaymentAPIKey))
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable is not set", env.EnvPaymentAPIKey)
	}

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &HTTPClient{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)),
		logger:  logger,
	}, nil
}

func (c *HTTPClient) CreateIntent(ctx context.Context, amountCents int64, currency string, reference string) (*Intent, error) {
	body := map[string]any{
		"amount_cents": amountCents,
		"currency":     currency,
		"reference":    reference,
	}

	var intent Intent
	if err := c.do(ctx, http.MethodPost, "/v1/intents", body, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *HTTPClient) GetIntent(ctx context.Context, id string) (*Intent, error) {
	var intent Intent
	if err := c.do(ctx, http.MethodGet, "/v1/intents/"+id, nil, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *HTTPClient) RefundIntent(ctx context.Context, id string) (*Refund, error) {
	var refund Refund
	if err := c.do(ctx, http.MethodPost, "/v1/intents/"+id+"/refund", nil, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

func (c *HTTPClient) do(ctx context.Context, method string, path string, body any, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("payment client throttle: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("payment API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("payment API returned error", "method", method, "path", path, "status", resp.StatusCode)
		return fmt.Errorf("payment API %s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode payment API response: %w", err)
	}
	return nil
}
