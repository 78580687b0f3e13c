package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hostwatch/hostwatch/internal/config"
	"github.com/hostwatch/hostwatch/pkg/types"
)

const (
	webhookJSONName   = "webhook-json"
	webhookValuesName = "webhook-values"

	defaultWebhookBaseURL = "https://maker.ifttt.com"

	// EnvWebhookEvent is the trigger event name.
	EnvWebhookEvent = "WEBHOOK_EVENT"
	// EnvWebhookKey is the user API key.
	EnvWebhookKey = "WEBHOOK_KEY"
)

// webhookError is the structured error body the webhook service returns
// on client errors.
type webhookError struct {
	Errors []webhookErrorMessage `json:"errors"`
}

type webhookErrorMessage struct {
	Message string `json:"message"`
}

// Webhook posts a CheckResult to an IFTTT-style trigger endpoint. Two
// payload shapes exist behind the same credentials: "json" posts the raw
// CheckResult JSON, "values" posts a flattened
// {"value1": provider, "value2": "a,b"} object.
type Webhook struct {
	name   string
	url    string
	values bool
	client *http.Client
}

// WebhookOption configures a Webhook notifier.
type WebhookOption func(*webhookSettings)

type webhookSettings struct {
	baseURL string
	client  *http.Client
}

// WithWebhookBaseURL overrides the webhook service endpoint, for tests.
func WithWebhookBaseURL(u string) WebhookOption {
	return func(s *webhookSettings) { s.baseURL = u }
}

// WithWebhookHTTPClient overrides the default HTTP client.
func WithWebhookHTTPClient(c *http.Client) WebhookOption {
	return func(s *webhookSettings) { s.client = c }
}

func newWebhook(name, event, key string, values bool, opts []WebhookOption) (*Webhook, error) {
	// The upstream service does not publish a strict format for either
	// field, so validation stops at non-emptiness.
	if strings.TrimSpace(event) == "" {
		return nil, &types.ConfigError{Name: EnvWebhookEvent, Err: fmt.Errorf("event must not be empty")}
	}
	if strings.TrimSpace(key) == "" {
		return nil, &types.ConfigError{Name: EnvWebhookKey, Err: fmt.Errorf("key must not be empty")}
	}

	settings := &webhookSettings{
		baseURL: defaultWebhookBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(settings)
	}

	path := fmt.Sprintf("/trigger/%s/json/with/key/%s", event, key)
	if values {
		path = fmt.Sprintf("/trigger/%s/with/key/%s", event, key)
	}
	return &Webhook{
		name:   name,
		url:    settings.baseURL + path,
		values: values,
		client: settings.client,
	}, nil
}

// NewWebhookJSON creates a webhook-json notifier.
func NewWebhookJSON(event, key string, opts ...WebhookOption) (*Webhook, error) {
	return newWebhook(webhookJSONName, event, key, false, opts)
}

// NewWebhookValues creates a webhook-values notifier.
func NewWebhookValues(event, key string, opts ...WebhookOption) (*Webhook, error) {
	return newWebhook(webhookValuesName, event, key, true, opts)
}

func webhookEnv() (event, key string, err error) {
	event, err = config.Env(EnvWebhookEvent)
	if err != nil {
		return "", "", err
	}
	key, err = config.Env(EnvWebhookKey)
	if err != nil {
		return "", "", err
	}
	return event, key, nil
}

// NewWebhookJSONFromEnv builds the notifier from environment variables.
func NewWebhookJSONFromEnv() (Notifier, error) {
	event, key, err := webhookEnv()
	if err != nil {
		return nil, err
	}
	return NewWebhookJSON(event, key)
}

// NewWebhookValuesFromEnv builds the notifier from environment variables.
func NewWebhookValuesFromEnv() (Notifier, error) {
	event, key, err := webhookEnv()
	if err != nil {
		return nil, err
	}
	return NewWebhookValues(event, key)
}

// Name implements Notifier.
func (n *Webhook) Name() string { return n.name }

func (n *Webhook) payload(result *types.CheckResult) ([]byte, error) {
	if !n.values {
		return result.JSON()
	}
	body, err := json.Marshal(map[string]string{
		"value1": result.ProviderName,
		"value2": strings.Join(result.AvailableServers, ","),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding webhook values payload: %w", err)
	}
	return body, nil
}

// Notify implements Notifier. Client errors carry a structured body
// which is surfaced in the API error message.
func (n *Webhook) Notify(ctx context.Context, result *types.CheckResult) error {
	body, err := n.payload(result)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", n.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notifying via %s: %w", n.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, readErr := io.ReadAll(resp.Body)
	if readErr == nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var apiErr webhookError
		if json.Unmarshal(respBody, &apiErr) == nil && len(apiErr.Errors) > 0 {
			messages := make([]string, 0, len(apiErr.Errors))
			for _, e := range apiErr.Errors {
				messages = append(messages, e.Message)
			}
			return &types.APIError{
				Endpoint: n.name,
				Status:   resp.StatusCode,
				Message:  strings.Join(messages, " / "),
			}
		}
	}
	return &types.APIError{
		Endpoint: n.name,
		Status:   resp.StatusCode,
		Message:  strings.TrimSpace(string(respBody)),
	}
}

// Test implements Notifier.
func (n *Webhook) Test(ctx context.Context) error {
	return n.Notify(ctx, types.Dummy())
}
