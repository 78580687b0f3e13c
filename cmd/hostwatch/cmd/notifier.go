package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostwatch/hostwatch/internal/notify"
)

func notifierCommand() *cobra.Command {
	notifierCmd := &cobra.Command{
		Use:   "notifier",
		Short: "Notifier actions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available notifiers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println("Available notifiers:")
			for _, name := range notify.NewRegistry().Names() {
				cmd.Println("- " + name)
			}
			return nil
		},
	}

	testCmd := &cobra.Command{
		Use:   "test <notifier>",
		Short: "Send a test notification with fixed dummy values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := notify.NewRegistry().Get(args[0])
			if err != nil {
				return err
			}
			if err := n.Test(cmd.Context()); err != nil {
				return fmt.Errorf("testing notifier %s: %w", n.Name(), err)
			}
			cmd.Println("Notification sent")
			return nil
		},
	}

	notifierCmd.AddCommand(listCmd, testCmd)
	return notifierCmd
}
