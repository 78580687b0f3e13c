package provider

import (
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
	onlineName           = "online"
	defaultOnlineBaseURL = "https://api.online.net"

	// EnvOnlineToken is the private API token (bearer auth).
	EnvOnlineToken = "ONLINE_PRIVATE_TOKEN"
	// EnvOnlineDatacenters optionally restricts availability to a
	// datacenter allow-list (e.g. "dc2,dc3").
	EnvOnlineDatacenters = "ONLINE_DATACENTERS"
)

// Online queries the Online/Dedibox plans API. The inventory reply is
// nested (product range -> slug -> product) and is flattened into the
// common ServerInfo shape.
type Online struct {
	baseURL     string
	client      *http.Client
	token       string
	datacenters []string
}

// OnlineOption configures an Online provider.
type OnlineOption func(*Online)

// WithOnlineBaseURL overrides the API endpoint, for tests.
func WithOnlineBaseURL(u string) OnlineOption {
	return func(p *Online) { p.baseURL = u }
}

// WithOnlineHTTPClient overrides the default HTTP client.
func WithOnlineHTTPClient(c *http.Client) OnlineOption {
	return func(p *Online) { p.client = c }
}

// NewOnline creates an Online provider. datacenters may be nil, in which
// case any stocked datacenter counts as available.
func NewOnline(token string, datacenters []string, opts ...OnlineOption) (*Online, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &types.ConfigError{
			Name: EnvOnlineToken,
			Err:  fmt.Errorf("api token must not be empty"),
		}
	}
	p := &Online{
		baseURL:     defaultOnlineBaseURL,
		client:      &http.Client{Timeout: 30 * time.Second},
		token:       token,
		datacenters: datacenters,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewOnlineFromEnv builds the provider from environment variables.
func NewOnlineFromEnv() (Provider, error) {
	token, err := config.Env(EnvOnlineToken)
	if err != nil {
		return nil, err
	}
	datacenters, err := config.EnvCSV(EnvOnlineDatacenters)
	if err != nil {
		return nil, err
	}
	return NewOnline(token, datacenters)
}

// onlineProduct is one dedibox plan, with only the fields we project.
type onlineProduct struct {
	ID     int                  `json:"id"`
	Slug   string               `json:"slug"`
	Specs  onlineProductSpecs   `json:"specs"`
	Stocks []onlineProductStock `json:"stocks"`
}

type onlineProductSpecs struct {
	CPU   string `json:"cpu"`
	RAM   string `json:"ram"`
	Disks string `json:"disks"`
}

type onlineProductStock struct {
	Datacenter onlineDatacenter `json:"datacenter"`
	Stock      int              `json:"stock"`
}

type onlineDatacenter struct {
	Name string `json:"name"`
}

func (p *onlineProduct) available() bool {
	for _, stock := range p.Stocks {
		if stock.Stock > 0 {
			return true
		}
	}
	return false
}

func (p *onlineProduct) serverInfo() types.ServerInfo {
	dcs := make([]string, 0, len(p.Stocks))
	for _, stock := range p.Stocks {
		dcs = append(dcs, stock.Datacenter.Name)
	}
	return types.ServerInfo{
		Reference: fmt.Sprintf("%d (%s@%s)", p.ID, p.Slug, strings.Join(dcs, ",")),
		Memory:    stripSpaces(p.Specs.RAM),
		Storage:   stripSpaces(p.Specs.Disks),
		Available: p.available(),
	}
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
}

// Name implements Provider.
func (p *Online) Name() string { return onlineName }

func (p *Online) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating Online request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying Online API: %w", err)
	}
	return resp, nil
}

// Inventory implements Provider. The plans endpoint groups products by
// range name; the two nesting levels are flattened away.
func (p *Online) Inventory(ctx context.Context, includeUnavailable bool) ([]types.ServerInfo, error) {
	resp, err := p.get(ctx, "/api/v1/dedibox/plans")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading Online response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &types.APIError{
			Endpoint: onlineName,
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(body)),
		}
	}

	var ranges map[string]map[string]onlineProduct
	if err := json.Unmarshal(body, &ranges); err != nil {
		return nil, fmt.Errorf("decoding Online plans: %w", err)
	}

	var infos []types.ServerInfo
	for _, products := range ranges {
		for _, product := range products {
			if !product.available() && !includeUnavailable {
				continue
			}
			infos = append(infos, product.serverInfo())
		}
	}
	return infos, nil
}

// onlineAvailability is the per-product availability reply: the list of
// datacenters currently carrying stock.
type onlineAvailability struct {
	Datacenters []string `json:"datacenters"`
}

// Check implements Provider. With a configured datacenter allow-list the
// product is available only when the intersection of allowed and stocked
// datacenters is non-empty; otherwise any stock counts.
func (p *Online) Check(ctx context.Context, serverID string) (bool, error) {
	resp, err := p.get(ctx, "/api/v1/dedibox/availability/"+serverID)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("reading Online response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return false, fmt.Errorf("server %q: %w", serverID, types.ErrUnknownServer)
	}
	if resp.StatusCode != http.StatusOK {
		return false, &types.APIError{
			Endpoint: onlineName,
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(body)),
		}
	}

	var availability onlineAvailability
	if err := json.Unmarshal(body, &availability); err != nil {
		return false, fmt.Errorf("decoding Online availability: %w", err)
	}

	if len(p.datacenters) == 0 {
		return len(availability.Datacenters) > 0, nil
	}
	for _, stocked := range availability.Datacenters {
		for _, allowed := range p.datacenters {
			if stocked == allowed {
				return true, nil
			}
		}
	}
	return false, nil
}
