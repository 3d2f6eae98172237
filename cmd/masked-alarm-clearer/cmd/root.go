package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pablo-flores/wa-3fecta/internal/config"
	"github.com/pablo-flores/wa-3fecta/internal/service/clearer"
	"github.com/pablo-flores/wa-3fecta/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// clearURL overrides the configured clear endpoint.
	clearURL string
	// once runs a single cycle.
	once bool

	// rootCmd represents the base command for the clearer daemon.
	rootCmd = &cobra.Command{
		Use:   "masked-alarm-clearer",
		Short: "Clear masked open alarms in the outage manager.",
		Long: `Periodically finds masked alarms that are still open and asks the outage
manager to clear them, one GET request per alarm id appended to the clear URL.

The first cycle starts immediately, later cycles follow the configured cron
schedule. Alarms cleared recently are remembered in a journal file and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &clearer.Options{
				ConfigPath: configPath,
				ClearURL:   clearURL,
				Once:       once,
			}

			return clearer.Run(ctx, options)
		},
	}
)

// Execute runs the masked-alarm-clearer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default "+config.DefaultConfigFilename+")")
	rootCmd.Flags().StringVarP(&clearURL, "clear-url", "u", "", "clear endpoint prefix, the alarm id is appended")
	rootCmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
}
