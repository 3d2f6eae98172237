package clearer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
	"github.com/pablo-flores/wa-3fecta/internal/logger"
	"github.com/pablo-flores/wa-3fecta/internal/metrics"
	"github.com/pablo-flores/wa-3fecta/internal/repository/journal"
)

// finder runs the masking filter.
type finder interface {
	FindMaskedAlarms(ctx context.Context, allowDiskUse bool) ([]alarm.Record, error)
	DefaultAllowDiskUse() bool
}

// notifier sends one clear request.
type notifier interface {
	Clear(ctx context.Context, alarmID string) error
}

// Report summarises one cycle.
type Report struct {
	// Masked is the number of alarms returned by the filter.
	Masked int
	// Candidates is the number of clear requests attempted.
	Candidates int
	// Incomplete is the number of active alarms missing an identifier.
	Incomplete int
	// Recent is the number of alarms skipped by the cooldown.
	Recent int
	// Cleared is the number of accepted clear requests.
	Cleared int
	// Failed is the number of rejected or failed clear requests.
	Failed int
}

// Clearer runs clear cycles.
type Clearer struct {
	// finder returns the masked alarms.
	finder finder
	// notifier sends clear requests.
	notifier notifier
	// journal remembers accepted clears.
	journal journal.Repository
	// cooldown suppresses repeated clears of the same alarm.
	cooldown time.Duration
	// now returns the current time.
	now func() time.Time
}

// New returns a clearer.
func New(f finder, n notifier, j journal.Repository, cooldown time.Duration) *Clearer {
	return &Clearer{
		finder:   f,
		notifier: n,
		journal:  j,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// RunCycle runs the filter and sends clear requests. Failed requests are
// logged and counted; only a failed query, journal access or cancellation
// fails the cycle.
func (c *Clearer) RunCycle(ctx context.Context) (*Report, error) {
	records, err := c.finder.FindMaskedAlarms(ctx, c.finder.DefaultAllowDiskUse())
	if err != nil {
		return nil, fmt.Errorf("find masked alarms: %w", err)
	}

	clearLog, err := c.journal.Load(ctx)

	switch {
	case err == nil:
	case errors.Is(err, journal.ErrNotFound):
		clearLog = alarm.NewClearLog()
	default:
		return nil, fmt.Errorf("load journal: %w", err)
	}

	selection := Select(records, clearLog, c.now(), c.cooldown)
	report := &Report{
		Masked:     len(records),
		Candidates: len(selection.Candidates),
		Incomplete: selection.Incomplete,
		Recent:     selection.Recent,
	}

	for range selection.Recent {
		metrics.RecordClear(metrics.ClearSkipped)
	}

	logger.InfoKV(ctx, "Masked alarms to clear",
		"masked", report.Masked,
		"candidates", report.Candidates,
		"incomplete", report.Incomplete,
		"recent", report.Recent,
	)

	sendErr := c.send(ctx, selection.Candidates, clearLog, report)

	clearLog.Prune(c.now().Add(-c.cooldown))

	if err = c.journal.Save(context.WithoutCancel(ctx), clearLog); err != nil {
		return report, fmt.Errorf("save journal: %w", err)
	}

	if sendErr != nil {
		return report, sendErr
	}

	return report, nil
}

// send issues the clear requests and marks accepted ones in the log.
func (c *Clearer) send(ctx context.Context, candidates []Candidate, clearLog *alarm.ClearLog, report *Report) error {
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.notifier.Clear(ctx, candidate.AlarmID)

		switch {
		case err == nil:
			clearLog.Mark(candidate.AlarmID, c.now())
			report.Cleared++
			metrics.RecordClear(metrics.ClearAccepted)

			logger.InfoKV(ctx, "Clear request accepted",
				"alarm_id", candidate.AlarmID,
				"origen_id", candidate.OrigenID,
				"alarm_state", candidate.State,
			)
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			report.Failed++
			metrics.RecordClear(metrics.ClearRejected)

			logger.ErrorKV(ctx, "Clear request failed",
				"alarm_id", candidate.AlarmID,
				"origen_id", candidate.OrigenID,
				"error", err,
			)
		}
	}

	return nil
}
