package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostwatch/hostwatch/pkg/types"
)

func ovhHandler(t *testing.T, servers []ovhServerAvailability, gotQuery *map[string][]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dedicated/server/datacenter/availabilities", r.URL.Path)
		if gotQuery != nil {
			*gotQuery = r.URL.Query()
		}

		filtered := servers
		if wanted := r.URL.Query().Get("server"); wanted != "" {
			filtered = nil
			for _, s := range servers {
				if s.Server == wanted {
					filtered = append(filtered, s)
				}
			}
		}
		require.NoError(t, json.NewEncoder(w).Encode(filtered))
	}
}

func ovhFixture() []ovhServerAvailability {
	return []ovhServerAvailability{
		{
			Server:  "1801sk12",
			Memory:  "ram-32g-1333",
			Storage: "softraid-2x2000sa",
			Datacenters: []ovhDatacenterAvailability{
				{Datacenter: "gra", Availability: "unavailable"},
				{Datacenter: "rbx", Availability: "1H-low"},
			},
		},
		{
			Server: "1801sk13",
			Datacenters: []ovhDatacenterAvailability{
				{Datacenter: "gra", Availability: "unavailable"},
				{Datacenter: "rbx", Availability: "unknown"},
			},
		},
	}
}

func TestOVHInventory(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(ovhHandler(t, ovhFixture(), nil))
	defer srv.Close()

	p := NewOVH(nil, WithOVHBaseURL(srv.URL))

	t.Run("skips unavailable by default", func(t *testing.T) {
		inventory, err := p.Inventory(context.Background(), false)
		require.NoError(t, err)
		require.Len(t, inventory, 1)
		assert.Equal(t, "1801sk12 (@gra,rbx)", inventory[0].Reference)
		assert.Equal(t, "ram-32g-1333", inventory[0].Memory)
		assert.True(t, inventory[0].Available)
	})

	t.Run("includes unavailable on demand", func(t *testing.T) {
		inventory, err := p.Inventory(context.Background(), true)
		require.NoError(t, err)
		require.Len(t, inventory, 2)
		assert.False(t, inventory[1].Available)
		// Absent spec fields render as placeholders.
		assert.Equal(t, "N/A", inventory[1].Memory)
		assert.Equal(t, "N/A", inventory[1].Storage)
	})
}

func TestOVHDatacenterExclusion(t *testing.T) {
	t.Parallel()

	var gotQuery map[string][]string
	srv := httptest.NewServer(ovhHandler(t, ovhFixture(), &gotQuery))
	defer srv.Close()

	t.Run("no exclusions", func(t *testing.T) {
		p := NewOVH(nil, WithOVHBaseURL(srv.URL))
		_, err := p.Inventory(context.Background(), true)
		require.NoError(t, err)
		assert.Equal(t, []string{"false"}, gotQuery["excludeDatacenters"])
		assert.Empty(t, gotQuery["datacenters"])
	})

	t.Run("exclusion list forwarded", func(t *testing.T) {
		p := NewOVH([]string{"gra", "sbg"}, WithOVHBaseURL(srv.URL))
		_, err := p.Inventory(context.Background(), true)
		require.NoError(t, err)
		assert.Equal(t, []string{"true"}, gotQuery["excludeDatacenters"])
		assert.Equal(t, []string{"gra,sbg"}, gotQuery["datacenters"])
	})
}

func TestOVHCheck(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(ovhHandler(t, ovhFixture(), nil))
	defer srv.Close()

	p := NewOVH(nil, WithOVHBaseURL(srv.URL))

	t.Run("available server", func(t *testing.T) {
		available, err := p.Check(context.Background(), "1801sk12")
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("unavailable server", func(t *testing.T) {
		available, err := p.Check(context.Background(), "1801sk13")
		require.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("zero matches is unknown server", func(t *testing.T) {
		_, err := p.Check(context.Background(), "no-such-sku")
		assert.ErrorIs(t, err, types.ErrUnknownServer)
	})
}

func TestOVHCheckAmbiguousMatch(t *testing.T) {
	t.Parallel()

	// Two entries under the same server name: the reply is ambiguous.
	dupe := ovhFixture()
	dupe[1].Server = dupe[0].Server

	srv := httptest.NewServer(ovhHandler(t, dupe, nil))
	defer srv.Close()

	p := NewOVH(nil, WithOVHBaseURL(srv.URL))
	_, err := p.Check(context.Background(), "1801sk12")

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "multiple references")
}

func TestOVHAPIErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOVH(nil, WithOVHBaseURL(srv.URL))
	_, err := p.Inventory(context.Background(), false)

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}
