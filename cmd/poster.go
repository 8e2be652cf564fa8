package cmd

import (
	"fmt"
	"image/jpeg"
	"os"

	"github.com/spf13/cobra"
)

var posterOut string

// posterCmd downloads a poster through the image cache
var posterCmd = &cobra.Command{
	Use:   "poster <id>",
	Short: "Download a movie poster",
	Long:  `Download and decode a movie poster, print its size and optionally save it as JPEG.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPoster,
}

func init() {
	posterCmd.Flags().StringVarP(&posterOut, "out", "o", "", "save the poster to this file")
	rootCmd.AddCommand(posterCmd)
}

func runPoster(cmd *cobra.Command, args []string) error {
	id, err := parseMovieID(args[0])
	if err != nil {
		return err
	}

	movie, err := catalog.GetMovie(cmd.Context(), id)
	if err != nil {
		return catalogError(err)
	}

	url := movie.PosterURLAt(cfg.TMDB.ImageBaseURL)
	if url == "" {
		return fmt.Errorf("%s has no poster", movie)
	}

	img, ok := images.Load(cmd.Context(), url)
	if !ok {
		return fmt.Errorf("poster for %s is unavailable", movie)
	}

	b := img.Bounds()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d %s\n", movie, b.Dx(), b.Dy(), url)

	if posterOut == "" {
		return nil
	}

	f, err := os.Create(posterOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", posterOut, err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode poster: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", posterOut, err)
	}

	logger.Info().Str("file", posterOut).Msg("Saved poster")
	return nil
}
