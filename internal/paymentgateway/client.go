package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	gatewaytypes "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/paymentgateway"
)

type Config struct {
	BaseURL        string
	SecretKey      string
	PublicKey      string
	CallbackURL    string
	RequestTimeout time.Duration
	ReadyTimeout   time.Duration
}

// Client talks to a hosted-checkout payment gateway. The gateway collects the
// card details on its own page; this client only initializes transactions and
// verifies their outcome by reference.
type Client struct {
	baseURL        string
	secretKey      string
	callbackURL    string
	requestTimeout time.Duration
	readyTimeout   time.Duration
	httpClient     *http.Client
	logger         *slog.Logger

	mu       sync.Mutex
	ready    bool
	inflight chan struct{}
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	readyTimeout := cfg.ReadyTimeout
	if readyTimeout <= 0 {
		readyTimeout = 5 * time.Second
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		secretKey:      cfg.SecretKey,
		callbackURL:    cfg.CallbackURL,
		requestTimeout: requestTimeout,
		readyTimeout:   readyTimeout,
		httpClient:     &http.Client{Timeout: requestTimeout},
		logger:         logger,
	}
}

// EnsureReady probes the gateway once per process. Concurrent callers attach
// to an in-flight probe instead of starting a second one; after a successful
// probe it returns immediately. A failed probe is not cached, so the next
// caller retries.
func (c *Client) EnsureReady(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.ready {
			c.mu.Unlock()
			return nil
		}
		if c.inflight != nil {
			ch := c.inflight
			c.mu.Unlock()
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		ch := make(chan struct{})
		c.inflight = ch
		c.mu.Unlock()

		err := c.probe(ctx)

		c.mu.Lock()
		c.ready = err == nil
		c.inflight = nil
		close(ch)
		c.mu.Unlock()

		if err != nil {
			return errors.NewExternalError("payment gateway is unreachable", errors.ErrCodeGatewayUnavailable, err)
		}
		return nil
	}
}

// probe considers any HTTP response proof of reachability. Network errors are
// retried on a short interval until the readiness timeout elapses.
func (c *Client) probe(ctx context.Context) error {
	deadline := time.Now().Add(c.readyTimeout)
	var lastErr error

	for {
		reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL, nil)
		if err != nil {
			cancel()
			return err
		}

		resp, err := c.httpClient.Do(req)
		cancel()
		if err == nil {
			resp.Body.Close()
			return nil
		}
		lastErr = err

		if time.Now().After(deadline) {
			return fmt.Errorf("gateway readiness probe timed out: %w", lastErr)
		}

		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Ping makes a single reachability request, for readiness checks. Unlike
// EnsureReady the outcome is never cached.
func (c *Client) Ping(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// InitializeTransaction opens a hosted-checkout session. Callers must treat a
// missing secret key as a deployment problem, not a user-facing error.
func (c *Client) InitializeTransaction(ctx context.Context, req *gatewaytypes.InitializeRequest) (*gatewaytypes.InitializeData, error) {
	if c.secretKey == "" {
		return nil, errors.NewInternalError("payment gateway secret key is not configured", nil).
			WithDetails(map[string]string{"code": string(errors.ErrCodeGatewayConfig)})
	}
	if err := req.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error(), errors.ErrCodeValidationFailed)
	}
	if err := c.EnsureReady(ctx); err != nil {
		return nil, err
	}

	if req.CallbackURL == "" {
		req.CallbackURL = c.callbackURL
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal initialize request: %w", err)
	}

	var resp gatewaytypes.InitializeResponse
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewBuffer(body), &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, errors.NewExternalError(
			fmt.Sprintf("gateway rejected transaction: %s", resp.Message),
			errors.ErrCodePaymentFailed, nil)
	}

	c.logger.Info("gateway transaction initialized",
		"reference", resp.Data.Reference,
		"amount_kobo", req.AmountKobo)

	return &resp.Data, nil
}

// VerifyTransaction asks the gateway for the terminal state of a reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*gatewaytypes.VerifyData, error) {
	if c.secretKey == "" {
		return nil, errors.NewInternalError("payment gateway secret key is not configured", nil).
			WithDetails(map[string]string{"code": string(errors.ErrCodeGatewayConfig)})
	}
	if reference == "" {
		return nil, errors.NewValidationError("reference is required", errors.ErrCodeInvalidReference)
	}

	var resp gatewaytypes.VerifyResponse
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, errors.NewExternalError(
			fmt.Sprintf("gateway could not verify reference: %s", resp.Message),
			errors.ErrCodePaymentFailed, nil)
	}

	return &resp.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create gateway request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.NewExternalError("gateway request failed", errors.ErrCodeGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("gateway returned error",
			"status", resp.StatusCode,
			"path", path,
			"response", string(respBody))
		return errors.NewExternalError(
			fmt.Sprintf("gateway error: status %d", resp.StatusCode),
			errors.ErrCodeGatewayUnavailable, nil)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal gateway response: %w", err)
	}
	return nil
}
