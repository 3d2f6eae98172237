package masking

import (
	"context"
	"io"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
)

// Source yields alarm records one at a time. Next returns io.EOF once the
// source is exhausted.
type Source interface {
	Next(ctx context.Context) (alarm.Record, error)
}

// SliceSource serves records from memory.
type SliceSource struct {
	records []alarm.Record
	pos     int
}

// NewSliceSource returns a Source over the provided records.
func NewSliceSource(records []alarm.Record) *SliceSource {
	return &SliceSource{records: records}
}

// Next returns the next record or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (alarm.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.pos >= len(s.records) {
		return nil, io.EOF
	}

	r := s.records[s.pos]
	s.pos++

	return r, nil
}
