package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pablo-flores/wa-3fecta/internal/config"
	"github.com/pablo-flores/wa-3fecta/internal/service/query"
	"github.com/pablo-flores/wa-3fecta/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// inputFile is a mongoexport file used instead of MongoDB.
	inputFile string
	// outputFile receives the masked alarms instead of stdout.
	outputFile string
	// allowDiskUse lets the working set move to disk.
	allowDiskUse bool
	// pushdown runs the aggregation inside MongoDB.
	pushdown bool
	// serverAddress queries a remote masking server.
	serverAddress string

	// rootCmd represents the base command for the one-shot query.
	rootCmd = &cobra.Command{
		Use:   "masked-alarms",
		Short: "Print the alarms of masked groups.",
		Long: `Finds alarms whose group of network element and raised time holds both
a CLEARED record and at least one RAISED, UPDATED or RETRY record, and prints
every member of those groups as newline-delimited MongoDB Extended JSON.

Alarms are read from MongoDB, from a mongoexport file (--input) or from a
remote masking server (--server). Logs are written to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &query.Options{
				ConfigPath:    configPath,
				InputFile:     inputFile,
				OutputFile:    outputFile,
				Pushdown:      pushdown,
				ServerAddress: serverAddress,
				Stdout:        cmd.OutOrStdout(),
			}

			// Only an explicit flag overrides the configured policy.
			if cmd.Flags().Changed("allow-disk-use") {
				options.AllowDiskUse = &allowDiskUse
			}

			return query.Run(ctx, options)
		},
	}
)

// Execute runs the masked-alarms CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default "+config.DefaultConfigFilename+")")
	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "", "read alarms from a mongoexport file")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write masked alarms to a file instead of stdout")
	rootCmd.Flags().BoolVar(&allowDiskUse, "allow-disk-use", false, "let the working set spill to disk")
	rootCmd.Flags().BoolVar(&pushdown, "pushdown", false, "run the aggregation inside MongoDB")
	rootCmd.Flags().StringVarP(&serverAddress, "server", "s", "", "query a masking server at this address")
}
