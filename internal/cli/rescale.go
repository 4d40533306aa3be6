package cli

import (
	"fmt"
	"path/filepath"

	"github.com/raphaelgruber/skinsync/internal/config"
	"github.com/raphaelgruber/skinsync/internal/metrics"
	"github.com/raphaelgruber/skinsync/internal/service"
	"github.com/spf13/cobra"
)

var (
	rescaleSource string
	rescaleWidth  int
)

var rescaleCmd = &cobra.Command{
	Use:   "rescale",
	Short: "Rescale every PNG in a directory to a fixed width",
	Long: `Rewrite every *.png file in the source directory at the target width,
keeping the aspect ratio (height is truncated to a whole pixel) and using
Lanczos resampling. Files with an alpha channel keep it; all other files are
written as RGB. Files are overwritten in place without a backup.

Examples:
  skinsync rescale
  skinsync rescale --source ./client/assets/characters --width 512`,
	Args: cobra.NoArgs,
	RunE: runRescale,
}

func init() {
	defaults := config.Default()
	rescaleCmd.Flags().StringVarP(&rescaleSource, "source", "s", defaults.Source, "source directory with PNG files")
	rescaleCmd.Flags().IntVarP(&rescaleWidth, "width", "w", defaults.Width, "target width in pixels")
}

func runRescale(cmd *cobra.Command, args []string) error {
	source := cfg.Source
	if cmd.Flags().Changed("source") {
		source = rescaleSource
	}
	width := cfg.Width
	if cmd.Flags().Changed("width") {
		width = rescaleWidth
	}
	source = filepath.Clean(source)

	out := cmd.OutOrStdout()
	svc, err := service.NewRescaleService(source, width, service.RescaleOptions{
		Reporter: &rescaleTranscript{w: out, theme: defaultTheme},
		Logger:   logger,
		Metrics:  metrics.NewCollector(),
	})
	if err != nil {
		return err
	}

	files, err := svc.Files()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No PNG files found in %s\n", source)
		return nil
	}

	fmt.Fprintf(out, "Rescaling %d images to %dpx width...\n\n", len(files), width)

	res, err := svc.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("rescale interrupted: %w", err)
	}

	printSummary(out, defaultTheme, res, "rescaled")
	return nil
}
