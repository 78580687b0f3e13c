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

const onlineTestToken = "test-token"

func onlinePlansBody() map[string]map[string]onlineProduct {
	return map[string]map[string]onlineProduct{
		"start": {
			"start-1-l": {
				ID:    101,
				Slug:  "start-1-l",
				Specs: onlineProductSpecs{CPU: "Intel C2350", RAM: "4 GB", Disks: "1 x 1 TB"},
				Stocks: []onlineProductStock{
					{Datacenter: onlineDatacenter{Name: "dc2"}, Stock: 0},
					{Datacenter: onlineDatacenter{Name: "dc3"}, Stock: 7},
				},
			},
		},
		"pro": {
			"pro-4-m": {
				ID:    202,
				Slug:  "pro-4-m",
				Specs: onlineProductSpecs{CPU: "Xeon E3", RAM: "32 GB", Disks: "2 x 2 TB"},
				Stocks: []onlineProductStock{
					{Datacenter: onlineDatacenter{Name: "dc2"}, Stock: 0},
				},
			},
		},
	}
}

func onlineServer(t *testing.T, availability map[string][]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/dedibox/plans", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+onlineTestToken, r.Header.Get("Authorization"))
		require.NoError(t, json.NewEncoder(w).Encode(onlinePlansBody()))
	})
	mux.HandleFunc("/api/v1/dedibox/availability/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/v1/dedibox/availability/"):]
		datacenters, ok := availability[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(onlineAvailability{Datacenters: datacenters}))
	})
	return httptest.NewServer(mux)
}

func TestOnlineConstruction(t *testing.T) {
	t.Parallel()

	t.Run("empty token rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewOnline("  ", nil)
		var cfgErr *types.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, EnvOnlineToken, cfgErr.Name)
	})
}

func TestOnlineInventoryFlattensRanges(t *testing.T) {
	t.Parallel()

	srv := onlineServer(t, nil)
	defer srv.Close()

	p, err := NewOnline(onlineTestToken, nil, WithOnlineBaseURL(srv.URL))
	require.NoError(t, err)

	inventory, err := p.Inventory(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, inventory, 2)

	byReference := map[string]types.ServerInfo{}
	for _, info := range inventory {
		byReference[info.Reference] = info
	}

	start, ok := byReference["101 (start-1-l@dc2,dc3)"]
	require.True(t, ok)
	assert.True(t, start.Available)
	assert.Equal(t, "4GB", start.Memory)
	assert.Equal(t, "1x1TB", start.Storage)

	pro, ok := byReference["202 (pro-4-m@dc2)"]
	require.True(t, ok)
	assert.False(t, pro.Available)
}

func TestOnlineInventorySkipsOutOfStock(t *testing.T) {
	t.Parallel()

	srv := onlineServer(t, nil)
	defer srv.Close()

	p, err := NewOnline(onlineTestToken, nil, WithOnlineBaseURL(srv.URL))
	require.NoError(t, err)

	inventory, err := p.Inventory(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, inventory, 1)
	assert.Contains(t, inventory[0].Reference, "start-1-l")
}

func TestOnlineCheck(t *testing.T) {
	t.Parallel()

	availability := map[string][]string{
		"101": {"dc3", "dc5"},
		"202": {},
	}
	srv := onlineServer(t, availability)
	t.Cleanup(srv.Close)

	tests := []struct {
		name        string
		datacenters []string
		serverID    string
		want        bool
		wantErr     error
	}{
		{name: "no allow-list, any stock counts", serverID: "101", want: true},
		{name: "no allow-list, no stock", serverID: "202", want: false},
		{name: "allow-list intersects stocked", datacenters: []string{"dc5"}, serverID: "101", want: true},
		{name: "allow-list disjoint from stocked", datacenters: []string{"dc2"}, serverID: "101", want: false},
		{name: "unknown product id", serverID: "999", wantErr: types.ErrUnknownServer},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := NewOnline(onlineTestToken, tt.datacenters, WithOnlineBaseURL(srv.URL))
			require.NoError(t, err)

			available, err := p.Check(context.Background(), tt.serverID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, available)
		})
	}
}
