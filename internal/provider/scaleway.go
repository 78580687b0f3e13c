package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hostwatch/hostwatch/internal/config"
	"github.com/hostwatch/hostwatch/pkg/types"
)

const (
	scalewayName           = "scaleway"
	defaultScalewayBaseURL = "https://api.scaleway.com"

	// EnvScalewaySecretKey is the API secret key (a UUID).
	EnvScalewaySecretKey = "SCALEWAY_SECRET_KEY"
	// EnvScalewayZones lists the baremetal zones to query
	// (e.g. "fr-par-1,fr-par-2,nl-ams-1").
	EnvScalewayZones = "SCALEWAY_BAREMETAL_ZONES"
)

// Scaleway queries the baremetal offers API. Each configured zone is
// queried independently and results are merged per offer id with an
// upgrade-only rule: an offer recorded unavailable is upgraded when a
// later zone reports it available, but never downgraded.
type Scaleway struct {
	baseURL   string
	client    *http.Client
	secretKey string
	zones     []string
}

// ScalewayOption configures a Scaleway provider.
type ScalewayOption func(*Scaleway)

// WithScalewayBaseURL overrides the API endpoint, for tests.
func WithScalewayBaseURL(u string) ScalewayOption {
	return func(p *Scaleway) { p.baseURL = u }
}

// WithScalewayHTTPClient overrides the default HTTP client.
func WithScalewayHTTPClient(c *http.Client) ScalewayOption {
	return func(p *Scaleway) { p.client = c }
}

// NewScaleway creates a Scaleway provider. The secret key must be a
// well-formed UUID and at least one zone is required.
func NewScaleway(secretKey string, zones []string, opts ...ScalewayOption) (*Scaleway, error) {
	if _, err := uuid.Parse(secretKey); err != nil {
		return nil, &types.ConfigError{
			Name: EnvScalewaySecretKey,
			Err:  fmt.Errorf("secret key is not a valid UUID: %w", err),
		}
	}
	if len(zones) == 0 {
		return nil, &types.ConfigError{
			Name: EnvScalewayZones,
			Err:  fmt.Errorf("at least one zone is required"),
		}
	}
	p := &Scaleway{
		baseURL:   defaultScalewayBaseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		secretKey: secretKey,
		zones:     zones,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewScalewayFromEnv builds the provider from environment variables.
func NewScalewayFromEnv() (Provider, error) {
	secretKey, err := config.Env(EnvScalewaySecretKey)
	if err != nil {
		return nil, err
	}
	zonesCSV, err := config.Env(EnvScalewayZones)
	if err != nil {
		return nil, err
	}
	zones, err := config.SplitCSV(EnvScalewayZones, zonesCSV)
	if err != nil {
		return nil, err
	}
	return NewScaleway(secretKey, zones)
}

// scalewayOffer is one baremetal offer, with only the fields we project.
type scalewayOffer struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Stock    string             `json:"stock"` // "empty", "low" or "available"
	Enable   bool               `json:"enable"`
	Disks    []scalewayCapacity `json:"disks"`
	Memories []scalewayCapacity `json:"memories"`
}

type scalewayCapacity struct {
	Capacity uint64 `json:"capacity"`
}

type scalewayOfferList struct {
	Offers []scalewayOffer `json:"offers"`
}

func (o *scalewayOffer) available() bool {
	return o.Enable && o.Stock != "empty"
}

// upgradeFrom replaces the availability fields when other is available.
// The rule is monotonic: availability is only ever upgraded.
func (o *scalewayOffer) upgradeFrom(other *scalewayOffer) {
	if other.available() {
		o.Enable = other.Enable
		o.Stock = other.Stock
	}
}

func (o *scalewayOffer) serverInfo() types.ServerInfo {
	var memory, storage uint64
	for _, m := range o.Memories {
		memory += m.Capacity
	}
	for _, d := range o.Disks {
		storage += d.Capacity
	}
	return types.ServerInfo{
		Reference: fmt.Sprintf("%s (%s)", o.ID, o.Name),
		Memory:    fmt.Sprintf("%dG", memory/1_000_000_000),
		Storage:   fmt.Sprintf("%dG", storage/1_000_000_000),
		Available: o.available(),
	}
}

// Name implements Provider.
func (p *Scaleway) Name() string { return scalewayName }

func (p *Scaleway) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating Scaleway request: %w", err)
	}
	req.Header.Set("X-Auth-Token", p.secretKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying Scaleway API: %w", err)
	}
	return resp, nil
}

func (p *Scaleway) readAPIBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading Scaleway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &types.APIError{
			Endpoint: scalewayName,
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}

// zoneOffers lists every offer in one zone.
func (p *Scaleway) zoneOffers(ctx context.Context, zone string) ([]scalewayOffer, error) {
	resp, err := p.get(ctx, "/baremetal/v1/zones/"+zone+"/offers")
	if err != nil {
		return nil, err
	}
	body, err := p.readAPIBody(resp)
	if err != nil {
		return nil, err
	}

	var list scalewayOfferList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decoding Scaleway offers: %w", err)
	}
	return list.Offers, nil
}

// zoneOffer fetches a single offer in one zone. A 404 is not an error:
// it means the offer does not exist in that zone.
func (p *Scaleway) zoneOffer(ctx context.Context, zone, offerID string) (*scalewayOffer, error) {
	resp, err := p.get(ctx, "/baremetal/v1/zones/"+zone+"/offers/"+offerID)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, nil
	}
	body, err := p.readAPIBody(resp)
	if err != nil {
		return nil, err
	}

	var offer scalewayOffer
	if err := json.Unmarshal(body, &offer); err != nil {
		return nil, fmt.Errorf("decoding Scaleway offer: %w", err)
	}
	return &offer, nil
}

// mergedOffers aggregates offers across all configured zones.
func (p *Scaleway) mergedOffers(ctx context.Context) ([]scalewayOffer, error) {
	merged := make(map[string]*scalewayOffer)
	var order []string

	for _, zone := range p.zones {
		offers, err := p.zoneOffers(ctx, zone)
		if err != nil {
			return nil, fmt.Errorf("zone %s: %w", zone, err)
		}
		for i := range offers {
			offer := offers[i]
			if seen, ok := merged[offer.ID]; ok {
				seen.upgradeFrom(&offer)
				continue
			}
			merged[offer.ID] = &offer
			order = append(order, offer.ID)
		}
	}

	sort.Strings(order)
	results := make([]scalewayOffer, 0, len(order))
	for _, id := range order {
		results = append(results, *merged[id])
	}
	return results, nil
}

// Inventory implements Provider.
func (p *Scaleway) Inventory(ctx context.Context, includeUnavailable bool) ([]types.ServerInfo, error) {
	offers, err := p.mergedOffers(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]types.ServerInfo, 0, len(offers))
	for i := range offers {
		if !offers[i].available() && !includeUnavailable {
			continue
		}
		infos = append(infos, offers[i].serverInfo())
	}
	return infos, nil
}

// Check implements Provider. The offer is looked up in every configured
// zone; availability follows the same upgrade-only merge as Inventory.
// An offer found in no zone at all is an unknown server.
func (p *Scaleway) Check(ctx context.Context, serverID string) (bool, error) {
	var found *scalewayOffer

	for _, zone := range p.zones {
		offer, err := p.zoneOffer(ctx, zone, serverID)
		if err != nil {
			return false, fmt.Errorf("zone %s: %w", zone, err)
		}
		if offer == nil {
			continue
		}
		if found == nil {
			found = offer
			continue
		}
		found.upgradeFrom(offer)
	}

	if found == nil {
		return false, fmt.Errorf("server %q: %w", serverID, types.ErrUnknownServer)
	}
	return found.available(), nil
}
