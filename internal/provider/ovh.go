package provider

import (
	"context"
	"encoding/json"
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
	ovhName           = "ovh"
	defaultOVHBaseURL = "https://api.ovh.com/1.0"

	// EnvOVHExcludeDatacenters optionally lists datacenter identifiers
	// (e.g. "ca,bhs,gra") removed from availability queries.
	EnvOVHExcludeDatacenters = "OVH_EXCLUDE_DATACENTER"
)

// OVH queries the public dedicated-server datacenter availability
// endpoint. A single call returns every server type with a per-type list
// of per-datacenter availability; no authentication is required.
type OVH struct {
	baseURL             string
	client              *http.Client
	excludedDatacenters []string
}

// OVHOption configures an OVH provider.
type OVHOption func(*OVH)

// WithOVHBaseURL overrides the API endpoint, for tests.
func WithOVHBaseURL(u string) OVHOption {
	return func(p *OVH) { p.baseURL = u }
}

// WithOVHHTTPClient overrides the default HTTP client.
func WithOVHHTTPClient(c *http.Client) OVHOption {
	return func(p *OVH) { p.client = c }
}

// NewOVH creates an OVH provider. excludedDatacenters may be nil,
// meaning no filter.
func NewOVH(excludedDatacenters []string, opts ...OVHOption) *OVH {
	p := &OVH{
		baseURL:             defaultOVHBaseURL,
		client:              &http.Client{Timeout: 30 * time.Second},
		excludedDatacenters: excludedDatacenters,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewOVHFromEnv builds the provider from environment variables.
func NewOVHFromEnv() (Provider, error) {
	excluded, err := config.EnvCSV(EnvOVHExcludeDatacenters)
	if err != nil {
		return nil, err
	}
	return NewOVH(excluded), nil
}

// ovhServerAvailability is one server type in the availabilities reply.
type ovhServerAvailability struct {
	Server      string                      `json:"server"`
	Memory      string                      `json:"memory"`
	Storage     string                      `json:"storage"`
	Datacenters []ovhDatacenterAvailability `json:"datacenters"`
}

type ovhDatacenterAvailability struct {
	Datacenter   string `json:"datacenter"`
	Availability string `json:"availability"`
}

// available reports whether at least one datacenter carries stock.
// "unavailable" and "unknown" are the only non-stocked statuses; every
// other value (e.g. "1H-low", "72H") means orderable.
func (s *ovhServerAvailability) available() bool {
	for _, dc := range s.Datacenters {
		switch dc.Availability {
		case "unavailable", "unknown":
		default:
			return true
		}
	}
	return false
}

func (s *ovhServerAvailability) serverInfo() types.ServerInfo {
	dcs := make([]string, 0, len(s.Datacenters))
	for _, dc := range s.Datacenters {
		dcs = append(dcs, dc.Datacenter)
	}
	info := types.ServerInfo{
		Reference: fmt.Sprintf("%s (@%s)", s.Server, strings.Join(dcs, ",")),
		Memory:    s.Memory,
		Storage:   s.Storage,
		Available: s.available(),
	}
	if info.Memory == "" {
		info.Memory = "N/A"
	}
	if info.Storage == "" {
		info.Storage = "N/A"
	}
	return info
}

// Name implements Provider.
func (p *OVH) Name() string { return ovhName }

// availabilities queries the endpoint, optionally filtered to one server
// type.
func (p *OVH) availabilities(ctx context.Context, server string) ([]ovhServerAvailability, error) {
	query := url.Values{}
	if len(p.excludedDatacenters) == 0 {
		query.Set("excludeDatacenters", "false")
	} else {
		query.Set("excludeDatacenters", "true")
		query.Set("datacenters", strings.Join(p.excludedDatacenters, ","))
	}
	if server != "" {
		query.Set("server", server)
	}

	u := p.baseURL + "/dedicated/server/datacenter/availabilities?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating OVH request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying OVH availabilities: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading OVH response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &types.APIError{
			Endpoint: ovhName,
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(body)),
		}
	}

	var results []ovhServerAvailability
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decoding OVH availabilities: %w", err)
	}
	return results, nil
}

// Inventory implements Provider.
func (p *OVH) Inventory(ctx context.Context, includeUnavailable bool) ([]types.ServerInfo, error) {
	results, err := p.availabilities(ctx, "")
	if err != nil {
		return nil, err
	}

	infos := make([]types.ServerInfo, 0, len(results))
	for i := range results {
		if !results[i].available() && !includeUnavailable {
			continue
		}
		infos = append(infos, results[i].serverInfo())
	}
	return infos, nil
}

// Check implements Provider. The endpoint is re-queried filtered by
// server type: zero matches means the reference is unknown, more than
// one match is ambiguous and reported as an API error.
func (p *OVH) Check(ctx context.Context, serverID string) (bool, error) {
	results, err := p.availabilities(ctx, serverID)
	if err != nil {
		return false, err
	}

	switch len(results) {
	case 0:
		return false, fmt.Errorf("server %q: %w", serverID, types.ErrUnknownServer)
	case 1:
		return results[0].available(), nil
	default:
		return false, &types.APIError{
			Endpoint: ovhName,
			Message:  fmt.Sprintf("multiple references found for server %q", serverID),
		}
	}
}
