// Package provider defines the capability contract for dedicated-server
// hosting inventory APIs and its concrete implementations (OVH,
// Online/Dedibox, Scaleway baremetal).
package provider

import (
	"context"
	"fmt"
	"sort"

	"github.com/hostwatch/hostwatch/pkg/types"
)

// Provider is the uniform contract over heterogeneous inventory APIs.
// Each implementation maps its own pagination, zone/datacenter semantics
// and availability encoding onto this interface.
type Provider interface {
	// Name returns the stable identifier used for registry lookup and
	// storage keys.
	Name() string

	// Inventory lists every server SKU known to the provider. Out of
	// stock SKUs are skipped unless includeUnavailable is set.
	Inventory(ctx context.Context, includeUnavailable bool) ([]types.ServerInfo, error)

	// Check reports whether the given server identifier is currently
	// available. Unrecognized identifiers yield types.ErrUnknownServer;
	// ambiguous matches yield a *types.APIError.
	Check(ctx context.Context, serverID string) (bool, error)
}

// Factory builds a provider from its environment configuration.
// Construction fails with a *types.ConfigError on malformed or missing
// required values.
type Factory func() (Provider, error)

// Registry is an immutable name-to-factory mapping built once at process
// start. All known providers are compiled in; there is no runtime plugin
// loading.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns the registry of compiled-in providers.
func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]Factory{
			ovhName:      NewOVHFromEnv,
			onlineName:   NewOnlineFromEnv,
			scalewayName: NewScalewayFromEnv,
		},
	}
}

// Get constructs the named provider from its environment configuration.
func (r *Registry) Get(name string) (Provider, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", name, types.ErrUnknownProvider)
	}
	p, err := factory()
	if err != nil {
		return nil, fmt.Errorf("setting up provider %s: %w", name, err)
	}
	return p, nil
}

// Names lists the known provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
