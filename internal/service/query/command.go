package query

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pablo-flores/wa-3fecta/internal/config"
	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
	"github.com/pablo-flores/wa-3fecta/internal/logger"
	"github.com/pablo-flores/wa-3fecta/internal/repository/export"
	"github.com/pablo-flores/wa-3fecta/internal/service/common"
)

// Options configures a single query.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// InputFile overrides the configured source with a mongoexport file.
	InputFile string
	// OutputFile receives the result; empty means Stdout.
	OutputFile string
	// AllowDiskUse overrides the configured disk policy when set.
	AllowDiskUse *bool
	// Pushdown runs the aggregation inside MongoDB.
	Pushdown bool
	// ServerAddress queries a remote masking server instead of a local source.
	ServerAddress string
	// Stdout is the default destination, os.Stdout when nil.
	Stdout io.Writer
}

// Run executes the query and writes the masked alarms.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "masked-alarms")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = applyOverrides(settings, opts); err != nil {
		return err
	}

	if err = logger.Configure(settings.Log.Level, settings.Log.Format); err != nil {
		return err
	}

	records, err := find(ctx, settings, opts)
	if err != nil {
		return err
	}

	return write(ctx, records, opts)
}

// applyOverrides merges command line options into the settings.
func applyOverrides(settings *config.Config, opts *Options) error {
	if opts.InputFile != "" {
		settings.Masking.InputFile = opts.InputFile
	}

	if opts.Pushdown {
		settings.Masking.Mode = config.ModePushdown
	}

	if opts.AllowDiskUse != nil {
		settings.Masking.AllowDiskUse = *opts.AllowDiskUse
	}

	if err := config.Validate(settings); err != nil {
		return fmt.Errorf("apply options: %w", err)
	}

	return nil
}

// find runs the query remotely or against the configured source.
func find(ctx context.Context, settings *config.Config, opts *Options) ([]alarm.Record, error) {
	if opts.ServerAddress == "" {
		return common.NewFinder(settings).FindMaskedAlarms(ctx, settings.Masking.AllowDiskUse)
	}

	client, err := common.Dial(ctx, opts.ServerAddress, common.WithCallTimeout(settings.Timeout))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Querying masking server", "server_address", opts.ServerAddress)

	return client.FindMaskedAlarms(ctx, opts.AllowDiskUse)
}

// write encodes the records to the output file or Stdout.
func write(ctx context.Context, records []alarm.Record, opts *Options) (err error) {
	destination := opts.Stdout
	if destination == nil {
		destination = os.Stdout
	}

	if opts.OutputFile != "" {
		file, createErr := os.Create(filepath.Clean(opts.OutputFile))
		if createErr != nil {
			return fmt.Errorf("create output file: %w", createErr)
		}

		defer func() {
			if closeErr := file.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", closeErr)
			}
		}()

		destination = file
	}

	writer := export.NewWriter(destination)
	if err = writer.WriteAll(records); err != nil {
		return err
	}

	if err = writer.Flush(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Masked alarms written", "count", writer.Count(), "output_file", opts.OutputFile)

	return nil
}
