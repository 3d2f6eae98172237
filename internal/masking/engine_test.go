package masking

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
)

var errTestSource = errors.New("test source error")

// failingSource yields its records and then a fixed error.
type failingSource struct {
	records []alarm.Record
	err     error
}

// Next returns the queued records followed by the configured error.
func (f *failingSource) Next(context.Context) (alarm.Record, error) {
	if len(f.records) == 0 {
		return nil, f.err
	}

	r := f.records[0]
	f.records = f.records[1:]

	return r, nil
}

// TestEngine_MatchesFilter compares the sharded engine with the pure filter.
func TestEngine_MatchesFilter(t *testing.T) {
	t.Parallel()

	records := randomRecords(11, 3000)

	for _, workers := range []int{1, 3, 8} {
		engine := NewEngine(Options{Workers: workers})

		result, err := engine.Run(context.Background(), NewSliceSource(records))
		require.NoError(t, err)
		require.Equal(t, ids(Filter(records)), ids(result.Records), "workers=%d", workers)
		require.Equal(t, len(records), result.Stats.Scanned)
		require.Equal(t, len(result.Records), result.Stats.Emitted)
		require.False(t, result.Stats.Spilled)
		require.LessOrEqual(t, result.Stats.MaskedGroups, result.Stats.Groups)
	}
}

// TestEngine_Stats counts scanned, selected and grouped records.
func TestEngine_Stats(t *testing.T) {
	t.Parallel()

	records := []alarm.Record{
		rec("r", "NE1", 100, "RAISED"),
		rec("ack", "NE1", 100, "ACK"),
		rec("c", "NE1", 100, "CLEARED"),
		rec("lonely", "NE2", 100, "RAISED"),
	}

	result, err := NewEngine(Options{Workers: 2}).Run(context.Background(), NewSliceSource(records))
	require.NoError(t, err)

	require.Equal(t, Stats{
		Scanned:      4,
		Selected:     3,
		Groups:       2,
		MaskedGroups: 1,
		Emitted:      2,
	}, result.Stats)
}

// TestEngine_EmptySource returns an empty result.
func TestEngine_EmptySource(t *testing.T) {
	t.Parallel()

	result, err := NewEngine(Options{}).Run(context.Background(), NewSliceSource(nil))
	require.NoError(t, err)
	require.Empty(t, result.Records)
}

// TestEngine_BudgetExceededWithoutDisk fails the run with no partial output.
func TestEngine_BudgetExceededWithoutDisk(t *testing.T) {
	t.Parallel()

	engine := NewEngine(Options{MaxMemoryRecords: 10})

	result, err := engine.Run(context.Background(), NewSliceSource(randomRecords(3, 100)))
	require.ErrorIs(t, err, ErrWorkingSetExceeded)
	require.Nil(t, result)
}

// TestEngine_SpillsToDisk resolves the same groups on disk when permitted.
func TestEngine_SpillsToDisk(t *testing.T) {
	t.Parallel()

	records := randomRecords(5, 500)
	for i, r := range records {
		if i%7 == 0 {
			r[alarm.FieldID] = i
		}
	}

	engine := NewEngine(Options{
		AllowDiskUse:     true,
		MaxMemoryRecords: 25,
		SpillDir:         t.TempDir(),
	})

	result, err := engine.Run(context.Background(), NewSliceSource(records))
	require.NoError(t, err)
	require.True(t, result.Stats.Spilled)
	require.Equal(t, Filter(records), result.Records)

	for _, r := range result.Records {
		require.NotContains(t, r, alarm.FieldID)
	}
}

// TestEngine_SameValuesInMemoryAndOnDisk returns identical records from both paths
// when the input holds Go types the document store does not keep.
func TestEngine_SameValuesInMemoryAndOnDisk(t *testing.T) {
	t.Parallel()

	raised := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	records := []alarm.Record{
		{
			alarm.FieldAlarmID:          "A1",
			alarm.FieldNetworkElementID: "NE1",
			alarm.FieldRaisedTime:       raised,
			alarm.FieldState:            "RAISED",
			"severity":                  3,
			"tags":                      []string{"core", "power"},
		},
		{
			alarm.FieldAlarmID:          "A2",
			alarm.FieldNetworkElementID: "NE1",
			alarm.FieldRaisedTime:       raised,
			alarm.FieldState:            "CLEARED",
			"severity":                  1,
			"tags":                      []string{},
		},
	}

	inMemory, err := NewEngine(Options{}).Run(context.Background(), NewSliceSource(records))
	require.NoError(t, err)
	require.False(t, inMemory.Stats.Spilled)

	onDisk, err := NewEngine(Options{
		AllowDiskUse:     true,
		MaxMemoryRecords: 1,
		SpillDir:         t.TempDir(),
	}).Run(context.Background(), NewSliceSource(records))
	require.NoError(t, err)
	require.True(t, onDisk.Stats.Spilled)

	require.Len(t, inMemory.Records, 2)
	require.Equal(t, inMemory.Records, onDisk.Records)

	first := inMemory.Records[0]
	require.Equal(t, primitive.NewDateTimeFromTime(raised), first[alarm.FieldRaisedTime])
	require.Equal(t, int32(3), first["severity"])
	require.Equal(t, primitive.A{"core", "power"}, first["tags"])
}

// TestEngine_WithAllowDiskUse toggles disk use without touching the original.
func TestEngine_WithAllowDiskUse(t *testing.T) {
	t.Parallel()

	engine := NewEngine(Options{MaxMemoryRecords: 5, SpillDir: t.TempDir()})
	spilling := engine.WithAllowDiskUse(true)

	require.False(t, engine.Options().AllowDiskUse)
	require.True(t, spilling.Options().AllowDiskUse)

	_, err := spilling.Run(context.Background(), NewSliceSource(randomRecords(9, 60)))
	require.NoError(t, err)
}

// TestEngine_SpillOpenFailure surfaces the spill error.
func TestEngine_SpillOpenFailure(t *testing.T) {
	t.Parallel()

	engine := NewEngine(Options{AllowDiskUse: true, MaxMemoryRecords: 1})
	engine.openSpill = func(context.Context) (spillStore, error) {
		return nil, errTestSource
	}

	_, err := engine.Run(context.Background(), NewSliceSource(randomRecords(1, 50)))
	require.ErrorIs(t, err, errTestSource)
}

// TestEngine_SourceError aborts the run and wraps the source error.
func TestEngine_SourceError(t *testing.T) {
	t.Parallel()

	src := &failingSource{
		records: []alarm.Record{rec("r", "NE1", 1, "RAISED")},
		err:     errTestSource,
	}

	result, err := NewEngine(Options{}).Run(context.Background(), src)
	require.ErrorIs(t, err, errTestSource)
	require.Nil(t, result)

	eof := &failingSource{err: io.EOF}

	result, err = NewEngine(Options{}).Run(context.Background(), eof)
	require.NoError(t, err)
	require.Empty(t, result.Records)
}

// TestEngine_Canceled stops on a canceled context.
func TestEngine_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(Options{}).Run(ctx, NewSliceSource(randomRecords(2, 10)))
	require.ErrorIs(t, err, context.Canceled)
}
