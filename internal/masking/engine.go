package masking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
	"github.com/pablo-flores/wa-3fecta/internal/logger"
	"github.com/pablo-flores/wa-3fecta/internal/metrics"
	"github.com/pablo-flores/wa-3fecta/internal/spill"
)

const (
	// DefaultMaxMemoryRecords is the in-memory budget when none is configured.
	DefaultMaxMemoryRecords = 1_000_000

	// MetricsMode labels engine runs in metrics.
	MetricsMode = "local"

	// initialBufferSize caps the up-front allocation of the record buffer.
	initialBufferSize = 4096
)

// ErrWorkingSetExceeded is returned when the selected records do not fit in
// the memory budget and disk use is not allowed.
var ErrWorkingSetExceeded = errors.New("masking working set exceeds the memory budget and disk use is not allowed")

// Options controls an Engine.
type Options struct {
	// AllowDiskUse permits moving the working set to disk when it outgrows memory.
	AllowDiskUse bool
	// MaxMemoryRecords is the number of selected records kept in memory.
	MaxMemoryRecords int
	// Workers is the number of grouping shards; zero means one per CPU.
	Workers int
	// SpillDir is where on-disk groups are written.
	SpillDir string
	// SpillMemoryLimit caps the memory of the on-disk engine.
	SpillMemoryLimit string
}

// Stats describes a finished run.
type Stats struct {
	// Scanned is the number of records read from the source.
	Scanned int
	// Selected is the number of records in a relevant state.
	Selected int
	// Groups is the number of distinct groups.
	Groups int
	// MaskedGroups is the number of qualifying groups.
	MaskedGroups int
	// Emitted is the number of records returned.
	Emitted int
	// Spilled is true when the groups were resolved on disk.
	Spilled bool
}

// Result is the output of a run.
type Result struct {
	// Records are the members of masked groups in source order.
	Records []alarm.Record
	// Stats describes the run.
	Stats Stats
}

// spillStore is the part of spill.Store used by the engine.
type spillStore interface {
	Add(ctx context.Context, row spill.Row) error
	Masked(ctx context.Context) (*spill.Result, error)
	Close() error
}

// Engine runs the masking filter over a Source.
type Engine struct {
	// opts holds the effective options.
	opts Options
	// openSpill creates the on-disk store when the budget is exceeded.
	openSpill func(ctx context.Context) (spillStore, error)
}

// NewEngine returns an engine with defaults applied to opts.
func NewEngine(opts Options) *Engine {
	if opts.MaxMemoryRecords <= 0 {
		opts.MaxMemoryRecords = DefaultMaxMemoryRecords
	}

	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	e := &Engine{opts: opts}
	e.openSpill = func(ctx context.Context) (spillStore, error) {
		return spill.Open(ctx, spill.Options{
			Dir:         e.opts.SpillDir,
			MemoryLimit: e.opts.SpillMemoryLimit,
		})
	}

	return e
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// WithAllowDiskUse returns a copy of the engine with the disk toggle replaced.
func (e *Engine) WithAllowDiskUse(allow bool) *Engine {
	cloned := *e
	cloned.opts.AllowDiskUse = allow

	return &cloned
}

// Run reads the whole source and returns the members of masked groups.
// Field values come back as the document store would decode them, whichever
// path resolved the groups. A failed run returns no records.
func (e *Engine) Run(ctx context.Context, src Source) (*Result, error) {
	ctx = logger.WithName(ctx, "masking")

	var (
		stats   Stats
		started = time.Now()
	)

	records, err := e.run(ctx, src, &stats)

	metrics.RecordRun(MetricsMode, err, time.Since(started), metrics.RunStats{
		Scanned:      stats.Scanned,
		Selected:     stats.Selected,
		Groups:       stats.Groups,
		MaskedGroups: stats.MaskedGroups,
		Emitted:      stats.Emitted,
		Spilled:      stats.Spilled,
	})

	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Masking run finished",
		"scanned", stats.Scanned,
		"selected", stats.Selected,
		"groups", stats.Groups,
		"masked_groups", stats.MaskedGroups,
		"masked_records", stats.Emitted,
		"spilled", stats.Spilled,
		"duration", time.Since(started),
	)

	return &Result{Records: records, Stats: stats}, nil
}

func (e *Engine) run(ctx context.Context, src Source, stats *Stats) ([]alarm.Record, error) {
	buffer := make([]member, 0, min(e.opts.MaxMemoryRecords, initialBufferSize))

	for {
		m, err := nextSelected(ctx, src, stats)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		if len(buffer) >= e.opts.MaxMemoryRecords {
			if !e.opts.AllowDiskUse {
				return nil, fmt.Errorf("%w: more than %d selected records", ErrWorkingSetExceeded, e.opts.MaxMemoryRecords)
			}

			return e.runSpilled(ctx, src, append(buffer, m), stats)
		}

		buffer = append(buffer, m)
	}

	return e.runSharded(ctx, buffer, stats)
}

// nextSelected pulls records until one in a relevant state shows up.
// It returns io.EOF when the source is exhausted.
func nextSelected(ctx context.Context, src Source, stats *Stats) (member, error) {
	for {
		if err := ctx.Err(); err != nil {
			return member{}, err
		}

		r, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return member{}, io.EOF
		}

		if err != nil {
			return member{}, fmt.Errorf("read alarm record: %w", err)
		}

		seq := uint64(stats.Scanned) //nolint:gosec // Scanned is never negative.
		stats.Scanned++

		if !r.State().IsRelevant() {
			continue
		}

		stats.Selected++

		r, err = normalize(r)
		if err != nil {
			return member{}, fmt.Errorf("record %d: %w", seq, err)
		}

		return member{seq: seq, key: r.Key(), record: r}, nil
	}
}

// normalize rewrites the record with the types the document store decodes
// into, so in-memory and on-disk runs return identical values.
func normalize(r alarm.Record) (alarm.Record, error) {
	data, err := bson.Marshal(map[string]any(r))
	if err != nil {
		return nil, fmt.Errorf("encode alarm record: %w", err)
	}

	var doc bson.M
	if err = bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode alarm record: %w", err)
	}

	return alarm.Record(doc), nil
}

// shardResult is the output of one grouping shard.
type shardResult struct {
	members []member
	groups  int
	masked  int
}

// runSharded groups the buffered records on several goroutines. Records are
// routed by key hash, so every group lives in exactly one shard.
func (e *Engine) runSharded(ctx context.Context, buffer []member, stats *Stats) ([]alarm.Record, error) {
	workers := min(e.opts.Workers, max(len(buffer), 1))
	shards := make([][]member, workers)

	for _, m := range buffer {
		i := m.key.Hash() % uint64(workers) //nolint:gosec // workers is positive.
		shards[i] = append(shards[i], m)
	}

	results := make([]shardResult, workers)
	g, gctx := errgroup.WithContext(ctx)

	for i, shard := range shards {
		g.Go(func() error {
			grouping := newGrouping(len(shard))
			for _, m := range shard {
				grouping.add(m)
			}

			if err := gctx.Err(); err != nil {
				return err
			}

			members, masked := grouping.masked()
			results[i] = shardResult{
				members: members,
				groups:  len(grouping.groups),
				masked:  masked,
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []member

	for _, r := range results {
		stats.Groups += r.groups
		stats.MaskedGroups += r.masked
		all = append(all, r.members...)
	}

	records := flatten(all)
	stats.Emitted = len(records)

	return records, nil
}

// runSpilled moves the buffered records to disk, streams the rest of the
// source after them and resolves masked groups there.
func (e *Engine) runSpilled(ctx context.Context, src Source, buffered []member, stats *Stats) ([]alarm.Record, error) {
	logger.WarnKV(ctx, "Working set exceeds memory budget, spilling groups to disk",
		"max_memory_records", e.opts.MaxMemoryRecords,
		"spill_dir", e.opts.SpillDir,
	)

	store, err := e.openSpill(ctx)
	if err != nil {
		return nil, fmt.Errorf("open spill store: %w", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			logger.ErrorKV(ctx, "Failed to remove spill store", "error", err)
		}
	}()

	stats.Spilled = true

	for i := range buffered {
		if err := store.Add(ctx, toRow(buffered[i])); err != nil {
			return nil, fmt.Errorf("spill alarm record: %w", err)
		}

		// Let the collector reclaim records already on disk.
		buffered[i] = member{}
	}

	for {
		m, err := nextSelected(ctx, src, stats)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		if err := store.Add(ctx, toRow(m)); err != nil {
			return nil, fmt.Errorf("spill alarm record: %w", err)
		}
	}

	spilled, err := store.Masked(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve spilled groups: %w", err)
	}

	records := make([]alarm.Record, 0, len(spilled.Records))
	for _, r := range spilled.Records {
		records = append(records, r.Public())
	}

	stats.Groups = spilled.Groups
	stats.MaskedGroups = spilled.MaskedGroups
	stats.Emitted = len(records)

	return records, nil
}

func toRow(m member) spill.Row {
	return spill.Row{
		Seq:    m.seq,
		Key:    m.key,
		State:  m.record.State(),
		Record: m.record,
	}
}
