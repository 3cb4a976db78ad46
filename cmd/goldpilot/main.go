// Command goldpilot validates configuration, inspects the session table and
// replays recorded market data through the decision engine.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evdnx/goldpilot/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "goldpilot",
	Short:         "XAUUSD session-aware decision engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/goldpilot.yaml", "Path to the YAML configuration")
	rootCmd.AddCommand(validateCmd, sessionsCmd, replayCmd)
}

// loadConfig reads --config. An empty path means the stock configuration.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, config.ErrConfigInconsistency) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
