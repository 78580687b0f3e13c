package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hostwatch/hostwatch/internal/config"
	"github.com/hostwatch/hostwatch/pkg/types"
)

const (
	simpleGetName  = "simple-get"
	simplePostName = "simple-post"
	simplePutName  = "simple-put"

	// EnvSimpleURL is the target URL shared by the three simple
	// notifiers.
	EnvSimpleURL = "SIMPLE_URL"
	// EnvSimpleParamProvider and EnvSimpleParamServers name the query
	// parameters used by simple-get.
	EnvSimpleParamProvider = "SIMPLE_GET_PARAM_NAME_PROVIDER"
	EnvSimpleParamServers  = "SIMPLE_GET_PARAM_NAME_SERVERS"
)

// sendRequest executes the request and classifies the reply: transport
// errors are wrapped, non-2xx replies become API errors with the body
// attached for debugging.
func sendRequest(client *http.Client, req *http.Request, notifierName string) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notifying via %s: %w", notifierName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		body = []byte("(body unreadable)")
	}
	return &types.APIError{
		Endpoint: notifierName,
		Status:   resp.StatusCode,
		Message:  strings.TrimSpace(string(body)),
	}
}

// SimpleGet sends a GET request to a custom URL, encoding the provider
// name and the comma-separated available servers as query parameters
// whose names are configurable.
type SimpleGet struct {
	url           string
	paramProvider string
	paramServers  string
	client        *http.Client
}

// SimpleOption configures the simple notifiers.
type SimpleOption func(*http.Client)

// WithSimpleHTTPClient overrides the default HTTP client.
func WithSimpleHTTPClient(c *http.Client) SimpleOption {
	return func(dst *http.Client) { *dst = *c }
}

func newSimpleClient(opts []SimpleOption) *http.Client {
	client := &http.Client{Timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// NewSimpleGet creates a simple-get notifier.
func NewSimpleGet(targetURL, paramProvider, paramServers string, opts ...SimpleOption) *SimpleGet {
	return &SimpleGet{
		url:           targetURL,
		paramProvider: paramProvider,
		paramServers:  paramServers,
		client:        newSimpleClient(opts),
	}
}

// NewSimpleGetFromEnv builds the notifier from environment variables.
func NewSimpleGetFromEnv() (Notifier, error) {
	targetURL, err := config.Env(EnvSimpleURL)
	if err != nil {
		return nil, err
	}
	paramProvider, err := config.Env(EnvSimpleParamProvider)
	if err != nil {
		return nil, err
	}
	paramServers, err := config.Env(EnvSimpleParamServers)
	if err != nil {
		return nil, err
	}
	return NewSimpleGet(targetURL, paramProvider, paramServers), nil
}

// Name implements Notifier.
func (n *SimpleGet) Name() string { return simpleGetName }

// Notify implements Notifier.
func (n *SimpleGet) Notify(ctx context.Context, result *types.CheckResult) error {
	query := url.Values{}
	query.Set(n.paramProvider, result.ProviderName)
	query.Set(n.paramServers, strings.Join(result.AvailableServers, ", "))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.url+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", n.Name(), err)
	}
	return sendRequest(n.client, req, n.Name())
}

// Test implements Notifier.
func (n *SimpleGet) Test(ctx context.Context) error {
	return n.Notify(ctx, types.Dummy())
}

// SimpleBody sends the CheckResult JSON as the body of a POST or PUT
// request to a custom URL. It backs both simple-post and simple-put.
type SimpleBody struct {
	name   string
	method string
	url    string
	client *http.Client
}

// NewSimplePost creates a simple-post notifier.
func NewSimplePost(targetURL string, opts ...SimpleOption) *SimpleBody {
	return &SimpleBody{
		name:   simplePostName,
		method: http.MethodPost,
		url:    targetURL,
		client: newSimpleClient(opts),
	}
}

// NewSimplePut creates a simple-put notifier.
func NewSimplePut(targetURL string, opts ...SimpleOption) *SimpleBody {
	return &SimpleBody{
		name:   simplePutName,
		method: http.MethodPut,
		url:    targetURL,
		client: newSimpleClient(opts),
	}
}

// NewSimplePostFromEnv builds the notifier from environment variables.
func NewSimplePostFromEnv() (Notifier, error) {
	targetURL, err := config.Env(EnvSimpleURL)
	if err != nil {
		return nil, err
	}
	return NewSimplePost(targetURL), nil
}

// NewSimplePutFromEnv builds the notifier from environment variables.
func NewSimplePutFromEnv() (Notifier, error) {
	targetURL, err := config.Env(EnvSimpleURL)
	if err != nil {
		return nil, err
	}
	return NewSimplePut(targetURL), nil
}

// Name implements Notifier.
func (n *SimpleBody) Name() string { return n.name }

// Notify implements Notifier.
func (n *SimpleBody) Notify(ctx context.Context, result *types.CheckResult) error {
	body, err := result.JSON()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, n.method, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", n.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return sendRequest(n.client, req, n.name)
}

// Test implements Notifier.
func (n *SimpleBody) Test(ctx context.Context) error {
	return n.Notify(ctx, types.Dummy())
}
