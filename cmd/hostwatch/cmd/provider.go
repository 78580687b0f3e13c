package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hostwatch/hostwatch/internal/notify"
	"github.com/hostwatch/hostwatch/internal/provider"
	"github.com/hostwatch/hostwatch/internal/storage"
	"github.com/hostwatch/hostwatch/internal/watch"
)

var (
	inventoryAll     bool
	checkNotifier    string
	checkStorageDir  string
	checkInterval    uint
	checkMetricsAddr string
)

func providerCommand() *cobra.Command {
	providerCmd := &cobra.Command{
		Use:   "provider",
		Short: "Provider actions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List known provider types",
		RunE:  runProviderList,
	}

	inventoryCmd := &cobra.Command{
		Use:   "inventory <provider>",
		Short: "List server types known to a provider",
		Args:  cobra.ExactArgs(1),
		RunE:  runProviderInventory,
	}
	inventoryCmd.Flags().
		BoolVarP(&inventoryAll, "all", "a", false, "include currently unavailable server types")

	checkCmd := &cobra.Command{
		Use:   "check <provider> <servers...>",
		Short: "Check a provider for server availability, notifying on change",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runProviderCheck,
	}
	checkCmd.Flags().
		StringVarP(&checkNotifier, "notifier", "n", "", "notifier to route change notifications through")
	checkCmd.Flags().
		StringVarP(&checkStorageDir, "storage-dir", "s", "", "fingerprint storage directory (defaults to current)")
	checkCmd.Flags().
		UintVarP(&checkInterval, "interval", "i", 0, "repeat the check every N seconds (0 = run once)")
	checkCmd.Flags().
		StringVar(&checkMetricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address while watching")

	providerCmd.AddCommand(listCmd, inventoryCmd, checkCmd)
	return providerCmd
}

func runProviderList(cmd *cobra.Command, _ []string) error {
	cmd.Println("Available providers:")
	for _, name := range provider.NewRegistry().Names() {
		cmd.Println("- " + name)
	}
	return nil
}

func runProviderInventory(cmd *cobra.Command, args []string) error {
	p, err := provider.NewRegistry().Get(args[0])
	if err != nil {
		return err
	}

	inventory, err := p.Inventory(cmd.Context(), inventoryAll)
	if err != nil {
		return fmt.Errorf("getting inventory for provider %s: %w", p.Name(), err)
	}
	if len(inventory) == 0 {
		cmd.Println("No servers found")
		return nil
	}
	return printInventoryTable(cmd.OutOrStdout(), inventory)
}

func runProviderCheck(cmd *cobra.Command, args []string) error {
	log := newLogger()

	p, err := provider.NewRegistry().Get(args[0])
	if err != nil {
		return err
	}
	servers := args[1:]

	opts := []watch.Option{}
	if checkNotifier != "" {
		n, err := notify.NewRegistry().Get(checkNotifier)
		if err != nil {
			return err
		}
		opts = append(opts, watch.WithNotifier(n))
	}

	storageDir := checkStorageDir
	if storageDir == "" {
		storageDir = viper.GetString("storage_dir")
	}
	if storageDir == "" {
		if storageDir, err = os.Getwd(); err != nil {
			return fmt.Errorf("resolving current directory: %w", err)
		}
	}
	store, err := storage.New(storageDir, log)
	if err != nil {
		return err
	}

	controller := watch.New(p, servers, store, log, opts...)

	if checkInterval == 0 {
		return controller.RunOnce(cmd.Context())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if checkMetricsAddr != "" {
		srv := watch.NewMetricsServer(log)
		srv.Start(checkMetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("shutting down metrics endpoint", "error", err)
			}
		}()
	}

	err = controller.RunInterval(ctx, time.Duration(checkInterval)*time.Second)
	if ctx.Err() != nil {
		log.Info("watch stopped")
		return nil
	}
	return err
}
