// Package watch orchestrates check cycles: provider query, change
// detection against the fingerprint store, and notification routing.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hostwatch/hostwatch/internal/metrics"
	"github.com/hostwatch/hostwatch/internal/notify"
	"github.com/hostwatch/hostwatch/internal/provider"
	"github.com/hostwatch/hostwatch/internal/storage"
	"github.com/hostwatch/hostwatch/pkg/types"
)

// Controller runs check cycles for one (provider, server-set) pair.
// A nil notifier means results are printed to the output writer instead.
type Controller struct {
	provider provider.Provider
	servers  []string
	notifier notify.Notifier
	store    *storage.Store
	log      *slog.Logger
	out      io.Writer
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier routes change notifications through n instead of local
// printing.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithOutput redirects local result printing, for tests.
func WithOutput(w io.Writer) Option {
	return func(c *Controller) { c.out = w }
}

// WithSleep replaces the inter-cycle sleep, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) { c.sleep = sleep }
}

// New creates a Controller for the given provider, requested servers and
// fingerprint store.
func New(p provider.Provider, servers []string, store *storage.Store, log *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		provider: p,
		servers:  servers,
		store:    store,
		log:      log,
		out:      os.Stdout,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// checkServers queries every requested server and accumulates the
// available ones in request order. A failing server check does not stop
// the cycle: all servers are attempted and the first error is surfaced
// only after the full pass, so one bad identifier cannot mask the
// availability of the others.
func (c *Controller) checkServers(ctx context.Context) (*types.CheckResult, error) {
	result := types.NewCheckResult(c.provider.Name())

	var firstErr error
	for _, server := range c.servers {
		available, err := c.provider.Check(ctx, server)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("checking server %s: %w", server, err)
			}
			continue
		}
		if available {
			result.AvailableServers = append(result.AvailableServers, server)
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

// errNotifyFailed tags notification failures so the interval loop can
// apply its separate escalation rule to them.
var errNotifyFailed = errors.New("notification failed")

// publish compares the result against the stored fingerprint and, on
// change, persists the new fingerprint and routes the notification.
// It reports whether a notification was delivered.
func (c *Controller) publish(ctx context.Context, result *types.CheckResult) (bool, error) {
	equal, err := c.store.IsEqual(c.provider.Name(), c.servers, result)
	if err != nil {
		return false, err
	}
	if equal {
		c.log.Debug("availability unchanged", "provider", c.provider.Name())
		return false, nil
	}

	if err := c.store.PutHash(c.provider.Name(), c.servers, result); err != nil {
		return false, err
	}
	metrics.ChangesDetectedTotal.WithLabelValues(c.provider.Name()).Inc()

	if c.notifier == nil {
		fmt.Fprint(c.out, result.String())
		return false, nil
	}

	if err := c.notifier.Notify(ctx, result); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues(c.notifier.Name()).Inc()
		return false, fmt.Errorf("%w: notifying via %s: %w", errNotifyFailed, c.notifier.Name(), err)
	}
	metrics.NotificationsSentTotal.WithLabelValues(c.notifier.Name()).Inc()
	c.log.Info("notification sent",
		"provider", c.provider.Name(),
		"notifier", c.notifier.Name(),
		"available", len(result.AvailableServers),
	)
	return true, nil
}

// runCycle performs one complete check cycle. The returned bool reports
// whether a notification was delivered during this cycle.
func (c *Controller) runCycle(ctx context.Context) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.CheckCycleDuration.Observe(time.Since(start).Seconds())
	}()
	metrics.CheckCyclesTotal.WithLabelValues(c.provider.Name()).Inc()

	result, err := c.checkServers(ctx)
	if err != nil {
		metrics.CheckFailuresTotal.WithLabelValues(c.provider.Name()).Inc()
		return false, fmt.Errorf("checking provider %s: %w", c.provider.Name(), err)
	}

	return c.publish(ctx, result)
}

// RunOnce runs exactly one check cycle.
func (c *Controller) RunOnce(ctx context.Context) error {
	_, err := c.runCycle(ctx)
	return err
}

// RunInterval repeats the cycle until ctx is cancelled, sleeping a fixed
// interval between iterations (none before the first).
//
// Failures escalate deliberately: the first cycle fails loud so that
// configuration mistakes surface immediately, while later check failures
// are logged and swallowed — a transient outage must not kill a
// long-running watch, and a failed cycle never touches the stored
// fingerprint. Notification failures terminate the loop until one
// notification has gone through; after that they are logged and
// tolerated too.
func (c *Controller) RunInterval(ctx context.Context, every time.Duration) error {
	notified := false

	for cycle := 0; ; cycle++ {
		delivered, err := c.runCycle(ctx)
		switch {
		case err == nil:
			if delivered {
				notified = true
			}
		case cycle == 0:
			return err
		case errors.Is(err, errNotifyFailed) && !notified:
			return err
		default:
			c.log.Error("check cycle failed",
				"provider", c.provider.Name(),
				"cycle", cycle,
				"error", err,
			)
		}

		if err := c.sleep(ctx, every); err != nil {
			return err
		}
	}
}
