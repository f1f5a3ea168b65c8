package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/domain"
)

const (
	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
	liveBaseURL    = "https://api-m.paypal.com"

	// Tokens are treated as expired a minute early so an in-flight request
	// never races the provider-side expiry.
	tokenExpirySkew = 60 * time.Second
)

type Config struct {
	ClientID     string
	ClientSecret string
	WebhookID    string
	Live         bool
	// BaseURL overrides the sandbox/live selection when set.
	BaseURL string
}

// Client talks to the PayPal REST API: OAuth2 client-credentials tokens,
// checkout order create/capture and webhook signature verification. A single
// Client is shared by all request handlers; the token cache inside it is the
// only mutable state.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
	webhookID  string
	logger     *zap.Logger

	mu          sync.RWMutex
	accessToken string
	tokenExpiry time.Time
	now         func() time.Time
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = sandboxBaseURL
		if cfg.Live {
			baseURL = liveBaseURL
		}
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   cfg.ClientID,
		secret:     cfg.ClientSecret,
		webhookID:  cfg.WebhookID,
		logger:     logger,
		now:        time.Now,
	}
}

// WebhookID returns the configured webhook id; empty means webhook
// verification is not configured.
func (c *Client) WebhookID() string {
	return c.webhookID
}

type RemoteOrder struct {
	ID          string
	Status      string
	ApprovalURL string
}

type CaptureResult struct {
	CaptureID  string
	Status     string
	Amount     decimal.Decimal
	Currency   string
	PayerID    string
	PayerEmail string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type linkObject struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type orderResponse struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Links  []linkObject `json:"links"`
}

func (o *orderResponse) approvalLink() string {
	for _, l := range o.Links {
		if l.Rel == "approve" {
			return l.Href
		}
	}
	return ""
}

type captureResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Payer  struct {
		PayerID      string `json:"payer_id"`
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
				Amount struct {
					CurrencyCode string `json:"currency_code"`
					Value        string `json:"value"`
				} `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// CreateRemoteOrder registers a checkout order at the provider and returns its
// id together with the buyer approval URL.
func (c *Client) CreateRemoteOrder(ctx context.Context, correlationID string, amount decimal.Decimal, currency, description, returnURL, cancelURL string) (*RemoteOrder, error) {
	body := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{{
			"reference_id": correlationID,
			"description":  description,
			"amount": map[string]string{
				"currency_code": currency,
				"value":         amount.StringFixed(2),
			},
		}},
		"application_context": map[string]string{
			"return_url": returnURL,
			"cancel_url": cancelURL,
		},
	}

	var out orderResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v2/checkout/orders", body, &out); err != nil {
		return nil, err
	}

	approval := out.approvalLink()
	if approval == "" {
		c.logger.Error("PayPal order response has no approval link", zap.String("remote_order_id", out.ID))
		return nil, fmt.Errorf("order response missing approval link: %w", domain.ErrExternalService)
	}
	return &RemoteOrder{ID: out.ID, Status: out.Status, ApprovalURL: approval}, nil
}

// GetRemoteOrder re-reads an existing checkout order. Used when payment is
// re-initiated for an order that already has a provider order registered.
func (c *Client) GetRemoteOrder(ctx context.Context, remoteOrderID string) (*RemoteOrder, error) {
	var out orderResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v2/checkout/orders/"+remoteOrderID, nil, &out); err != nil {
		return nil, err
	}
	return &RemoteOrder{ID: out.ID, Status: out.Status, ApprovalURL: out.approvalLink()}, nil
}

// CaptureRemoteOrder collects the funds for an approved checkout order and
// returns the first capture record plus the payer identity.
func (c *Client) CaptureRemoteOrder(ctx context.Context, remoteOrderID string) (*CaptureResult, error) {
	var out captureResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v2/checkout/orders/"+remoteOrderID+"/capture", map[string]interface{}{}, &out); err != nil {
		return nil, err
	}

	for _, unit := range out.PurchaseUnits {
		for _, cap := range unit.Payments.Captures {
			amount, err := decimal.NewFromString(cap.Amount.Value)
			if err != nil {
				c.logger.Error("PayPal capture has a malformed amount",
					zap.String("remote_order_id", remoteOrderID),
					zap.String("value", cap.Amount.Value))
				return nil, fmt.Errorf("capture amount %q is not a decimal: %w", cap.Amount.Value, domain.ErrExternalService)
			}
			return &CaptureResult{
				CaptureID:  cap.ID,
				Status:     cap.Status,
				Amount:     amount,
				Currency:   cap.Amount.CurrencyCode,
				PayerID:    out.Payer.PayerID,
				PayerEmail: out.Payer.EmailAddress,
			}, nil
		}
	}

	c.logger.Error("PayPal capture response has no capture record", zap.String("remote_order_id", remoteOrderID))
	return nil, fmt.Errorf("capture response missing capture record: %w", domain.ErrExternalService)
}

// VerifyWebhookSignature asks the provider whether a webhook delivery is
// authentic. It never returns an error: any missing header, transport failure
// or non-SUCCESS verdict collapses to false.
func (c *Client) VerifyWebhookSignature(ctx context.Context, headers http.Header, eventBody []byte) bool {
	authAlgo := headers.Get("Paypal-Auth-Algo")
	certURL := headers.Get("Paypal-Cert-Url")
	transmissionID := headers.Get("Paypal-Transmission-Id")
	transmissionSig := headers.Get("Paypal-Transmission-Sig")
	transmissionTime := headers.Get("Paypal-Transmission-Time")
	if authAlgo == "" || certURL == "" || transmissionID == "" || transmissionSig == "" || transmissionTime == "" {
		c.logger.Warn("Webhook verification skipped, transmission headers incomplete",
			zap.String("transmission_id", transmissionID))
		return false
	}
	if !json.Valid(eventBody) {
		c.logger.Warn("Webhook verification skipped, event body is not valid JSON",
			zap.String("transmission_id", transmissionID))
		return false
	}

	body := map[string]interface{}{
		"auth_algo":         authAlgo,
		"cert_url":          certURL,
		"transmission_id":   transmissionID,
		"transmission_sig":  transmissionSig,
		"transmission_time": transmissionTime,
		"webhook_id":        c.webhookID,
		"webhook_event":     json.RawMessage(eventBody),
	}

	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/notification/verify-webhook-signature", body, &out); err != nil {
		c.logger.Error("Webhook signature verification call failed", zap.Error(err))
		return false
	}
	return out.VerificationStatus == "SUCCESS"
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("PayPal request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("request to %s failed: %w", path, domain.ErrExternalService)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, domain.ErrExternalService)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("PayPal returned an error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return fmt.Errorf("%s returned status %d: %w", path, resp.StatusCode, domain.ErrExternalService)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			c.logger.Error("PayPal response could not be decoded", zap.String("path", path), zap.Error(err))
			return fmt.Errorf("failed to decode response from %s: %w", path, domain.ErrExternalService)
		}
	}
	return nil
}

// getAccessToken returns the cached bearer token, refreshing it when expired.
// Concurrent callers hitting an expired cache may each refresh; tokens are
// interchangeable so the last write wins.
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.accessToken != "" && c.now().Before(c.tokenExpiry) {
		token := c.accessToken
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	return c.refreshAccessToken(ctx)
}

func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("PayPal token request failed", zap.Error(err))
		return "", fmt.Errorf("token request failed: %w", domain.ErrExternalService)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("PayPal token endpoint returned an error status", zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("token endpoint returned status %d: %w", resp.StatusCode, domain.ErrExternalService)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", domain.ErrExternalService)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token: %w", domain.ErrExternalService)
	}

	expiry := c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpirySkew)

	c.mu.Lock()
	c.accessToken = tr.AccessToken
	c.tokenExpiry = expiry
	c.mu.Unlock()

	c.logger.Debug("PayPal access token refreshed", zap.Time("expiry", expiry))
	return tr.AccessToken, nil
}
