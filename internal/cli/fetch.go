package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/raphaelgruber/skinsync/internal/assets"
	"github.com/raphaelgruber/skinsync/internal/client"
	"github.com/raphaelgruber/skinsync/internal/config"
	"github.com/raphaelgruber/skinsync/internal/metrics"
	"github.com/raphaelgruber/skinsync/internal/service"
	"github.com/raphaelgruber/skinsync/internal/wiki"
	"github.com/spf13/cobra"
)

var (
	fetchDest     string
	fetchNoBackup bool
	fetchOnly     []string
	fetchThrottle time.Duration
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download each character's default skin as a PNG",
	Long: `Resolve every catalog character to its default skin image on the wiki,
download it, convert it to RGBA and store it as <name>.png in the destination
directory. An existing file is renamed to <name>.png.bak first unless
--no-backup is given.

Characters without a default skin, and characters whose lookup or download
fails, are reported and skipped; the command still exits 0.

Examples:
  skinsync fetch
  skinsync fetch --dest ./client/assets/characters
  skinsync fetch --only Shelly,Colt --no-backup`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	defaults := config.Default()
	fetchCmd.Flags().StringVarP(&fetchDest, "dest", "d", defaults.Dest, "destination directory")
	fetchCmd.Flags().BoolVar(&fetchNoBackup, "no-backup", false, "do not backup existing files")
	fetchCmd.Flags().StringSliceVar(&fetchOnly, "only", nil, "fetch only these characters")
	fetchCmd.Flags().DurationVar(&fetchThrottle, "throttle", defaults.Throttle, "minimum delay between characters")
}

func runFetch(cmd *cobra.Command, args []string) error {
	dest := cfg.Dest
	if cmd.Flags().Changed("dest") {
		dest = fetchDest
	}
	throttle := cfg.Throttle
	if cmd.Flags().Changed("throttle") {
		if fetchThrottle < 0 {
			return fmt.Errorf("throttle must not be negative, got %s", fetchThrottle)
		}
		throttle = fetchThrottle
	}
	backup := cfg.Backup && !fetchNoBackup

	cat := cfg.Catalog()
	if len(fetchOnly) > 0 {
		var unknown []string
		cat, unknown = cat.Filter(fetchOnly)
		if len(unknown) > 0 {
			return fmt.Errorf("unknown characters: %s", strings.Join(unknown, ", "))
		}
	}

	store, err := assets.Open(dest)
	if err != nil {
		return err
	}

	httpClient := client.New(client.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.RequestTimeout,
		MaxBytes:  cfg.MaxImageBytes,
	})
	resolver := wiki.NewResolver(wiki.NewClient(cfg.APIURL, httpClient), logger)

	out := cmd.OutOrStdout()
	svc := service.NewFetchService(resolver, httpClient, store, service.FetchOptions{
		Throttle: throttle,
		Backup:   backup,
		Reporter: &fetchTranscript{w: out, theme: defaultTheme},
		Logger:   logger,
		Metrics:  metrics.NewCollector(),
	})

	res, err := svc.Run(cmd.Context(), cat)
	if err != nil {
		return fmt.Errorf("fetch interrupted after %d of %d: %w", len(res.Items), res.Total, err)
	}

	printSummary(out, defaultTheme, res, "downloaded")
	return nil
}
