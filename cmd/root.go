// Package cmd is the process entrypoint: the cobra root command plus the
// serve, migrate and create-user subcommands that wire every component
// together.
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wazecore/wazecore/config"
)

var rootCmd = &cobra.Command{
	Use:   "wazecore",
	Short: "wazecore is a multi-bot WhatsApp automation service",
	Long: "wazecore polls a WhatsApp gateway, dispatches inbound messages through " +
		"pluggable bots, runs scheduled sends, and exposes a REST surface for " +
		"managing chats, bot instances, assignments, and schedules.",
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// Execute runs the root command; main calls this and nothing else.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("command failed")
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	return cfg
}
