package clearer

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pablo-flores/wa-3fecta/internal/config"
	"github.com/pablo-flores/wa-3fecta/internal/logger"
	"github.com/pablo-flores/wa-3fecta/internal/metrics"
	"github.com/pablo-flores/wa-3fecta/internal/repository/journal"
	"github.com/pablo-flores/wa-3fecta/internal/service/common"
	"github.com/pablo-flores/wa-3fecta/internal/version"
)

// Options controls the masked-alarm-clearer process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ClearURL overrides the configured clear endpoint.
	ClearURL string
	// Once runs a single cycle and exits.
	Once bool
}

// ErrNoClearURL indicates a missing clear endpoint.
var ErrNoClearURL = errors.New("no clear url configured")

// Run clears masked alarms once or on the configured schedule until the
// context is canceled.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "masked-alarm-clearer")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if opts.ClearURL != "" {
		settings.Clearer.ClearURL = opts.ClearURL

		if err = config.Validate(settings); err != nil {
			return fmt.Errorf("apply options: %w", err)
		}
	}

	if settings.Clearer.ClearURL == "" {
		return ErrNoClearURL
	}

	if err = logger.Configure(settings.Log.Level, settings.Log.Format); err != nil {
		return err
	}

	clearer := New(
		common.NewFinder(settings),
		NewNotifier(NotifierOptions{
			BaseURL:            settings.Clearer.ClearURL,
			Pause:              settings.Clearer.Pause,
			Timeout:            settings.Clearer.RequestTimeout,
			InsecureSkipVerify: settings.Clearer.InsecureSkipVerify,
		}),
		journal.NewFileRepository(settings.Clearer.JournalFile),
		settings.Clearer.Cooldown,
	)

	if opts.Once {
		_, err = clearer.RunCycle(ctx)

		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if settings.MetricsAddress != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, settings.MetricsAddress)
		})
	}

	g.Go(func() error {
		return clearer.Schedule(gctx, settings.Clearer.Schedule)
	})

	return g.Wait()
}

// Schedule runs a cycle immediately and then on every tick of the cron
// schedule until the context is canceled. Overlapping ticks are skipped.
func (c *Clearer) Schedule(ctx context.Context, schedule string) error {
	cronLog := cronLogger{ctx: ctx}
	scheduler := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := scheduler.AddFunc(schedule, func() { c.runLogged(ctx) }); err != nil {
		return fmt.Errorf("schedule clear cycles: %w", err)
	}

	logger.InfoKV(ctx, "Clearer started", append(version.LogFields(), "schedule", schedule)...)

	c.runLogged(ctx)

	scheduler.Start()

	<-ctx.Done()

	<-scheduler.Stop().Done()

	logger.Info(ctx, "Clearer stopped")

	return nil
}

// runLogged runs one cycle and logs its outcome; errors never stop the schedule.
func (c *Clearer) runLogged(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	logger.Info(ctx, "Clear cycle started")

	report, err := c.RunCycle(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Clear cycle failed", "error", err)

		return
	}

	logger.InfoKV(ctx, "Clear cycle finished",
		"cleared", report.Cleared,
		"failed", report.Failed,
		"recent", report.Recent,
	)
}
