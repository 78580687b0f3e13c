package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostwatch/hostwatch/pkg/types"
)

const scalewayTestKey = "7c3f4e6a-1f2d-4b5e-9a8c-0d1e2f3a4b5c"

// scalewayServer serves per-zone offer lists and single-offer lookups
// from a fixed zone -> offers table.
func scalewayServer(t *testing.T, zones map[string][]scalewayOffer) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, scalewayTestKey, r.Header.Get("X-Auth-Token"))

		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/baremetal/v1/zones/"), "/")
		require.GreaterOrEqual(t, len(parts), 2)
		zone := parts[0]

		offers, ok := zones[zone]
		if !ok {
			http.NotFound(w, r)
			return
		}

		if len(parts) == 2 {
			// zone offer list
			require.NoError(t, json.NewEncoder(w).Encode(scalewayOfferList{Offers: offers}))
			return
		}

		// single offer lookup; absent offers are a per-zone 404
		for _, offer := range offers {
			if offer.ID == parts[2] {
				require.NoError(t, json.NewEncoder(w).Encode(offer))
				return
			}
		}
		http.NotFound(w, r)
	}))
}

func scalewayOfferFixture(id string, available bool) scalewayOffer {
	stock := "empty"
	if available {
		stock = "available"
	}
	return scalewayOffer{
		ID:       id,
		Name:     "EM-" + id,
		Stock:    stock,
		Enable:   true,
		Disks:    []scalewayCapacity{{Capacity: 1_000_000_000_000}},
		Memories: []scalewayCapacity{{Capacity: 32_000_000_000}},
	}
}

func TestScalewayConstruction(t *testing.T) {
	t.Parallel()

	t.Run("secret key must be a UUID", func(t *testing.T) {
		t.Parallel()

		_, err := NewScaleway("not-a-uuid", []string{"fr-par-1"})
		var cfgErr *types.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, EnvScalewaySecretKey, cfgErr.Name)
	})

	t.Run("at least one zone required", func(t *testing.T) {
		t.Parallel()

		_, err := NewScaleway(scalewayTestKey, nil)
		var cfgErr *types.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, EnvScalewayZones, cfgErr.Name)
	})
}

func TestScalewayInventoryMergeIsUpgradeOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		zone1 bool // offer X availability in the first zone queried
		zone2 bool // and in the second
		want  bool
	}{
		{name: "unavailable then available upgrades", zone1: false, zone2: true, want: true},
		{name: "available then unavailable is not downgraded", zone1: true, zone2: false, want: true},
		{name: "unavailable everywhere stays unavailable", zone1: false, zone2: false, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			zones := map[string][]scalewayOffer{
				"fr-par-1": {scalewayOfferFixture("offer-x", tt.zone1)},
				"fr-par-2": {scalewayOfferFixture("offer-x", tt.zone2)},
			}
			srv := scalewayServer(t, zones)
			defer srv.Close()

			p, err := NewScaleway(scalewayTestKey,
				[]string{"fr-par-1", "fr-par-2"},
				WithScalewayBaseURL(srv.URL),
			)
			require.NoError(t, err)

			inventory, err := p.Inventory(context.Background(), true)
			require.NoError(t, err)
			require.Len(t, inventory, 1)
			assert.Equal(t, tt.want, inventory[0].Available)
		})
	}
}

func TestScalewayInventoryProjection(t *testing.T) {
	t.Parallel()

	zones := map[string][]scalewayOffer{
		"fr-par-1": {scalewayOfferFixture("offer-x", true)},
	}
	srv := scalewayServer(t, zones)
	defer srv.Close()

	p, err := NewScaleway(scalewayTestKey, []string{"fr-par-1"}, WithScalewayBaseURL(srv.URL))
	require.NoError(t, err)

	inventory, err := p.Inventory(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, inventory, 1)
	assert.Equal(t, "offer-x (EM-offer-x)", inventory[0].Reference)
	assert.Equal(t, "32G", inventory[0].Memory)
	assert.Equal(t, "1000G", inventory[0].Storage)
}

func TestScalewayCheck(t *testing.T) {
	t.Parallel()

	zones := map[string][]scalewayOffer{
		"fr-par-1": {scalewayOfferFixture("offer-x", false)},
		"fr-par-2": {
			scalewayOfferFixture("offer-x", true),
			scalewayOfferFixture("offer-y", false),
		},
	}
	srv := scalewayServer(t, zones)
	defer srv.Close()

	p, err := NewScaleway(scalewayTestKey,
		[]string{"fr-par-1", "fr-par-2"},
		WithScalewayBaseURL(srv.URL),
	)
	require.NoError(t, err)

	t.Run("upgraded across zones", func(t *testing.T) {
		available, err := p.Check(context.Background(), "offer-x")
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("zone 404 is skipped, not an error", func(t *testing.T) {
		// offer-y exists only in fr-par-2; fr-par-1 answers 404.
		available, err := p.Check(context.Background(), "offer-y")
		require.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("absent from every zone is unknown", func(t *testing.T) {
		_, err := p.Check(context.Background(), "offer-z")
		assert.ErrorIs(t, err, types.ErrUnknownServer)
	})
}

func TestScalewayDisabledOfferIsUnavailable(t *testing.T) {
	t.Parallel()

	offer := scalewayOfferFixture("offer-x", true)
	offer.Enable = false

	zones := map[string][]scalewayOffer{"fr-par-1": {offer}}
	srv := scalewayServer(t, zones)
	defer srv.Close()

	p, err := NewScaleway(scalewayTestKey, []string{"fr-par-1"}, WithScalewayBaseURL(srv.URL))
	require.NoError(t, err)

	available, err := p.Check(context.Background(), "offer-x")
	require.NoError(t, err)
	assert.False(t, available)
}
