package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"seta-admin-backend/config"
	"seta-admin-backend/internal/logging"
)

var configPath string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "setadmind",
	Short: "Backend for the SETA learnership admin dashboard",
	Long: `setadmind mirrors the SETA learnership collections (students, host companies,
agreements, placements, funding windows, expenditures and activity logs) from the
upstream API and serves searchable, filterable, sortable and paginated list views.`,
	SilenceUsage: true,
}

func init() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "./config/config.yaml"
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "Path to the YAML configuration file (or set CONFIG_PATH)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
}

// loadConfig reads the configuration and builds the logger it asks for.
func loadConfig() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.Sugar(), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
