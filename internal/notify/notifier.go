// Package notify defines the notification contract for delivering
// availability change reports, and its pluggable transports: generic
// HTTP requests, IFTTT-style webhooks, Discord webhooks and email.
package notify

import (
	"context"
	"fmt"
	"sort"

	"github.com/hostwatch/hostwatch/pkg/types"
)

// Notifier delivers one CheckResult through some outbound channel.
// Implementations make exactly one request/message per Notify call and
// never retry; failures propagate to the caller.
type Notifier interface {
	// Name returns the stable identifier used for registry lookup.
	Name() string

	// Notify delivers the result.
	Notify(ctx context.Context, result *types.CheckResult) error

	// Test delivers types.Dummy(), giving a reproducible smoke test
	// independent of any real provider.
	Test(ctx context.Context) error
}

// Factory builds a notifier from its environment configuration.
type Factory func() (Notifier, error)

// Registry is an immutable name-to-factory mapping built once at process
// start, mirroring the provider registry.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns the registry of compiled-in notifiers.
func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]Factory{
			simpleGetName:     NewSimpleGetFromEnv,
			simplePostName:    NewSimplePostFromEnv,
			simplePutName:     NewSimplePutFromEnv,
			webhookJSONName:   NewWebhookJSONFromEnv,
			webhookValuesName: NewWebhookValuesFromEnv,
			discordName:       NewDiscordFromEnv,
			emailSMTPName:     NewEmailSMTPFromEnv,
			emailSendmailName: NewEmailSendmailFromEnv,
		},
	}
}

// Get constructs the named notifier from its environment configuration.
func (r *Registry) Get(name string) (Notifier, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("notifier %q: %w", name, types.ErrUnknownNotifier)
	}
	n, err := factory()
	if err != nil {
		return nil, fmt.Errorf("setting up notifier %s: %w", name, err)
	}
	return n, nil
}

// Names lists the known notifier names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
