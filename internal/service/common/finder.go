//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"
	"time"

	"github.com/pablo-flores/wa-3fecta/internal/config"
	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
	"github.com/pablo-flores/wa-3fecta/internal/logger"
	"github.com/pablo-flores/wa-3fecta/internal/masking"
	"github.com/pablo-flores/wa-3fecta/internal/metrics"
	"github.com/pablo-flores/wa-3fecta/internal/repository/alarms"
	"github.com/pablo-flores/wa-3fecta/internal/repository/export"
)

// Finder runs the masking filter against the configured alarm source.
type Finder struct {
	// settings selects the source and the execution mode.
	settings *config.Config
	// engine runs the filter in process.
	engine *masking.Engine
}

// NewFinder returns a finder for validated settings.
func NewFinder(settings *config.Config) *Finder {
	return &Finder{
		settings: settings,
		engine: masking.NewEngine(masking.Options{
			AllowDiskUse:     settings.Masking.AllowDiskUse,
			MaxMemoryRecords: settings.Masking.MaxMemoryRecords,
			Workers:          settings.Masking.Workers,
			SpillDir:         settings.Masking.SpillDir,
			SpillMemoryLimit: settings.Masking.SpillMemoryLimit,
		}),
	}
}

// DefaultAllowDiskUse returns the configured disk policy.
func (f *Finder) DefaultAllowDiskUse() bool {
	return f.settings.Masking.AllowDiskUse
}

// FindMaskedAlarms returns every alarm that belongs to a masked group.
func (f *Finder) FindMaskedAlarms(ctx context.Context, allowDiskUse bool) ([]alarm.Record, error) {
	ctx = logger.WithKV(ctx, "mode", f.settings.Masking.Mode, "allow_disk_use", allowDiskUse)

	switch {
	case f.settings.Masking.Mode == config.ModePushdown:
		return f.findPushdown(ctx, allowDiskUse)
	case f.settings.Masking.InputFile != "":
		return f.findInFile(ctx, allowDiskUse)
	default:
		return f.findInCollection(ctx, allowDiskUse)
	}
}

// findInFile runs the engine over a mongoexport file.
func (f *Finder) findInFile(ctx context.Context, allowDiskUse bool) ([]alarm.Record, error) {
	reader, err := export.Open(f.settings.Masking.InputFile)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := reader.Close(); err != nil {
			logger.WarnKV(ctx, "Failed to close input file", "error", err)
		}
	}()

	logger.DebugKV(ctx, "Reading alarms from file", "input_file", f.settings.Masking.InputFile)

	result, err := f.engine.WithAllowDiskUse(allowDiskUse).Run(ctx, reader)
	if err != nil {
		return nil, fmt.Errorf("mask alarms from %s: %w", f.settings.Masking.InputFile, err)
	}

	return result.Records, nil
}

// findInCollection runs the engine over a cursor on the alarm collection.
func (f *Finder) findInCollection(ctx context.Context, allowDiskUse bool) ([]alarm.Record, error) {
	repo, err := alarms.Connect(ctx, &f.settings.Mongo, f.settings.Timeout)
	if err != nil {
		return nil, err
	}

	defer closeRepository(ctx, repo)

	source, err := repo.Scan(ctx)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := source.Close(context.WithoutCancel(ctx)); err != nil {
			logger.WarnKV(ctx, "Failed to close alarm cursor", "error", err)
		}
	}()

	result, err := f.engine.WithAllowDiskUse(allowDiskUse).Run(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("mask alarms from mongodb: %w", err)
	}

	return result.Records, nil
}

// findPushdown lets MongoDB run the whole aggregation.
func (f *Finder) findPushdown(ctx context.Context, allowDiskUse bool) ([]alarm.Record, error) {
	repo, err := alarms.Connect(ctx, &f.settings.Mongo, f.settings.Timeout)
	if err != nil {
		return nil, err
	}

	defer closeRepository(ctx, repo)

	started := time.Now()
	records, err := repo.AggregateMasked(ctx, allowDiskUse)

	metrics.RecordRun(config.ModePushdown, err, time.Since(started), metrics.RunStats{
		Emitted: len(records),
	})

	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Masking aggregation finished",
		"masked_records", len(records),
		"duration", time.Since(started),
	)

	return records, nil
}

func closeRepository(ctx context.Context, repo *alarms.Repository) {
	if err := repo.Close(context.WithoutCancel(ctx)); err != nil {
		logger.WarnKV(ctx, "Failed to disconnect from MongoDB", "error", err)
	}
}
