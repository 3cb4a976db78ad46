package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evdnx/goldpilot/config"
	"github.com/evdnx/goldpilot/engine"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the configuration and check it the way the engine will",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runValidate(cmd.OutOrStdout(), cfg)
	},
}

func runValidate(w io.Writer, cfg *config.Config) error {
	if _, err := engine.New(cfg, engine.Deps{}); err != nil {
		return err
	}
	names := make([]string, 0, len(cfg.Sessions))
	for _, s := range cfg.Sessions {
		names = append(names, s.Name)
	}
	fmt.Fprintf(w, "ok: %s, %d timeframes, sessions %s\n", cfg.Symbol, len(cfg.Timeframes), strings.Join(names, ","))
	return nil
}
