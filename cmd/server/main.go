// Package main is the entry point for the condominium administration server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/condo-admin/backend/internal/config"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "condo-admin",
		Short:         "Residential complex administration server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		createAdminCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies any flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("data") {
		cfg.DataDir, _ = flags.GetString("data")
	}
	if flags.Changed("static") {
		cfg.StaticDir, _ = flags.GetString("static")
	}
	return cfg, nil
}
