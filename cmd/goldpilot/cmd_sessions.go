package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/evdnx/goldpilot/config"
	"github.com/evdnx/goldpilot/session"
)

var sessionsAt string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show the sessions active at an instant and when that changes",
	Long: `Show the sessions active at an instant and when the set next changes.

Example usage:
  goldpilot sessions                              # now
  goldpilot sessions --at 2026-03-04T13:45:00Z    # a given instant`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		at := time.Now()
		if sessionsAt != "" {
			if at, err = time.Parse(time.RFC3339, sessionsAt); err != nil {
				return fmt.Errorf("parse --at: %w", err)
			}
		}
		return runSessions(cmd.OutOrStdout(), cfg, at)
	},
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsAt, "at", "", "RFC3339 instant (default now)")
}

func runSessions(w io.Writer, cfg *config.Config, at time.Time) error {
	c := session.New(cfg.Sessions)
	active := c.Active(at)
	peak := c.Peak(at)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tPEAK\tMULTIPLIER\tMAX SPREAD")
	for _, name := range active {
		p, _ := cfg.Profile(name)
		fmt.Fprintf(tw, "%s\t%t\t%.2f\t%.2f\n", name, peak.Contains(name), p.SizeMultiplier, p.MaxSpread)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if active.Empty() {
		fmt.Fprintln(w, "no session active")
	}
	if blackout, ok := c.Blackout(at); ok {
		fmt.Fprintf(w, "news blackout in %s\n", blackout)
	}
	if next, ok := c.NextChange(at); ok {
		fmt.Fprintf(w, "next change: %s\n", next.UTC().Format(time.RFC3339))
	}
	return nil
}
