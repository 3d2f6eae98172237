package server

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
	"github.com/pablo-flores/wa-3fecta/internal/logger"
)

// finder runs the masking filter.
type finder interface {
	FindMaskedAlarms(ctx context.Context, allowDiskUse bool) ([]alarm.Record, error)
	DefaultAllowDiskUse() bool
}

// service serialises masking runs and applies the default disk policy.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// finder runs the filter against the configured source.
	finder finder
	// runs bounds the number of concurrent masking runs.
	runs *semaphore.Weighted
}

// newService creates a service allowing maxRuns concurrent runs.
func newService(f finder, maxRuns int64) *service {
	if maxRuns <= 0 {
		maxRuns = 1
	}

	return &service{
		finder: f,
		runs:   semaphore.NewWeighted(maxRuns),
	}
}

// FindMaskedAlarms runs the filter once a run slot is free.
func (s *service) FindMaskedAlarms(ctx context.Context, allowDiskUse *bool) ([]alarm.Record, error) {
	allow := s.finder.DefaultAllowDiskUse()
	if allowDiskUse != nil {
		allow = *allowDiskUse
	}

	if err := s.runs.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for a masking slot: %w", err)
	}
	defer s.runs.Release(1)

	records, err := s.finder.FindMaskedAlarms(ctx, allow)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Masked alarms requested", "allow_disk_use", allow, "masked_records", len(records))

	return records, nil
}
