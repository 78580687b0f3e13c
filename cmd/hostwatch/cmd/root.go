// Package cmd implements the hostwatch CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hostwatch/hostwatch/pkg/logger"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "hostwatch",
		Short: "Watch dedicated-server availability and notify on change",
		Long: "hostwatch polls dedicated-server hosting providers for the availability\n" +
			"of selected server types and routes a notification through a pluggable\n" +
			"channel whenever the availability set changes.",
		SilenceUsage: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default $HOME/.hostwatch.yaml)")
	rootCmd.PersistentFlags().
		String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().
		String("log-format", "text", "log format (text, json)")

	cobra.CheckErr(viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format")))

	rootCmd.AddCommand(providerCommand())
	rootCmd.AddCommand(notifierCommand())
	rootCmd.AddCommand(versionCommand())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".hostwatch")
	}

	viper.SetEnvPrefix("HOSTWATCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newLogger() *slog.Logger {
	return logger.New(viper.GetString("log_level"), viper.GetString("log_format"))
}
