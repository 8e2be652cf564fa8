package cmd

import (
	"fmt"
	"runtime"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const releaseRepository = "s0up4200/cinedex"

var (
	checkOnly   bool
	forceUpdate bool
)

// updateCmd replaces the running binary with the latest GitHub release
var updateCmd = &cobra.Command{
	Use:         "update",
	Short:       "Update cinedex to the latest release",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationStandalone: "true"},
	RunE:        runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&checkOnly, "check", false, "only report whether an update is available")
	updateCmd.Flags().BoolVar(&forceUpdate, "force", false, "update development builds too")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if _, err := semver.ParseTolerant(version); err != nil && !forceUpdate {
		return fmt.Errorf("version %q is not a release build, use --force to update anyway", version)
	}

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(releaseRepository))
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	newer, err := isNewer(version, latest.Version())
	if err != nil {
		return err
	}
	if !newer && !forceUpdate {
		fmt.Fprintf(cmd.OutOrStdout(), "cinedex %s is up to date\n", version)
		return nil
	}

	if checkOnly {
		fmt.Fprintf(cmd.OutOrStdout(), "Update available: %s -> %s\n", version, latest.Version())
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}

	logger.Info().
		Str("from", version).
		Str("to", latest.Version()).
		Str("asset", latest.AssetName).
		Msg("Updating")

	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("failed to update binary: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated to %s\n", latest.Version())
	return nil
}

// isNewer reports whether latest is a higher version than current. A current
// version that does not parse counts as older than any release.
func isNewer(current, latest string) (bool, error) {
	l, err := semver.ParseTolerant(latest)
	if err != nil {
		return false, fmt.Errorf("invalid release version %q: %w", latest, err)
	}
	c, err := semver.ParseTolerant(current)
	if err != nil {
		return true, nil
	}
	return l.GT(c), nil
}
