// Package types defines the domain records that flow between providers,
// notifiers and the check controller, plus the shared error taxonomy.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ServerInfo describes one server SKU as advertised by a provider.
// Instances are transient: rebuilt on every inventory call, never persisted.
type ServerInfo struct {
	// Reference is an opaque display identifier. Providers may embed
	// zone or datacenter lists in it.
	Reference string
	// Memory and Storage are free-form, provider-specific strings.
	Memory  string
	Storage string
	// Available is derived from the provider's stock/availability fields.
	Available bool
}

// CheckResult is the outcome of one check cycle against one provider.
// AvailableServers holds the requested identifiers that were found
// available, in request order, and is always a subset of the request.
type CheckResult struct {
	ProviderName     string   `json:"provider_name"`
	AvailableServers []string `json:"available_servers"`
}

// NewCheckResult creates an empty result for the given provider.
func NewCheckResult(providerName string) *CheckResult {
	return &CheckResult{
		ProviderName:     providerName,
		AvailableServers: []string{},
	}
}

// Dummy returns a fixed result used by notifier smoke tests. The values
// are deterministic so that `notifier test` is reproducible without a
// real provider.
func Dummy() *CheckResult {
	return &CheckResult{
		ProviderName:     "dummy_provider",
		AvailableServers: []string{"foo_server", "bar_server", "baz_server"},
	}
}

// JSON serializes the result for webhook payloads and fingerprinting.
func (r *CheckResult) JSON() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding check result: %w", err)
	}
	return data, nil
}

// String renders the human-readable report used for local output and
// email bodies.
func (r *CheckResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report of available server types for %s:\n\n", r.ProviderName)
	if len(r.AvailableServers) == 0 {
		b.WriteString("No server available for the selected types!\n")
		return b.String()
	}
	for _, server := range r.AvailableServers {
		fmt.Fprintf(&b, "- %s\n", server)
	}
	return b.String()
}
