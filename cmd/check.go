package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/cinedex/qbittorrent"
	"github.com/s0up4200/cinedex/radarr"
	"github.com/s0up4200/cinedex/tmdb"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the TMDB credentials and the configured services",
	Long: `Check connects to TMDB with the configured credentials and, when they are
configured, to Radarr and qBittorrent. It exits with an error when any of
them fails.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

type serviceCheck struct {
	name string
	run  func(ctx context.Context) error
}

func serviceChecks() []serviceCheck {
	checks := []serviceCheck{{
		name: "TMDB",
		run: func(ctx context.Context) error {
			if err := catalog.TestConnection(ctx); err != nil {
				return fmt.Errorf("%s", tmdb.UserMessage(err))
			}
			return nil
		},
	}}

	if cfg.Radarr.Enabled() {
		checks = append(checks, serviceCheck{
			name: "Radarr",
			run: func(ctx context.Context) error {
				_, err := radarr.NewClient(cfg.Radarr.URL, cfg.Radarr.APIKey, logger)
				return err
			},
		})
	}

	if cfg.QBittorrent.Enabled() {
		checks = append(checks, serviceCheck{
			name: "qBittorrent",
			run: func(ctx context.Context) error {
				_, err := qbittorrent.NewClient(cfg.QBittorrent.URL, cfg.QBittorrent.Username, cfg.QBittorrent.Password, logger)
				return err
			},
		})
	}

	return checks
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	checks := serviceChecks()

	var failed []string
	for i, check := range checks {
		prefix := "├──"
		if i == len(checks)-1 {
			prefix = "╰──"
		}

		if err := check.run(cmd.Context()); err != nil {
			logger.Debug().Err(err).Str("service", check.name).Msg("Check failed")
			fmt.Fprintf(out, "%s ✗ %s: %s\n", prefix, check.name, err)
			failed = append(failed, check.name)
			continue
		}
		fmt.Fprintf(out, "%s ✓ %s\n", prefix, check.name)
	}

	if len(failed) > 0 {
		return fmt.Errorf("check failed for %s", strings.Join(failed, ", "))
	}
	return nil
}
