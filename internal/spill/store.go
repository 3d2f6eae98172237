package spill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // Registers the duckdb database/sql driver.
	"go.mongodb.org/mongo-driver/bson"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
)

// DefaultBatchSize is the number of rows written per transaction.
const DefaultBatchSize = 5000

// Options configures a Store.
type Options struct {
	// Dir is the parent directory for the database and DuckDB temp files.
	// Empty means os.TempDir().
	Dir string
	// MemoryLimit caps DuckDB memory, e.g. "512MB". Empty keeps the DuckDB default.
	MemoryLimit string
	// BatchSize is the number of rows buffered before a flush.
	BatchSize int
}

// Row is one selected alarm record destined for the store.
type Row struct {
	// Seq is the arrival position of the record, used to restore input order.
	Seq uint64
	// Key is the group key of the record.
	Key alarm.GroupKey
	// State is the alarm state of the record.
	State alarm.State
	// Record is the full alarm document.
	Record alarm.Record
}

// Result holds the output of a masked-groups query.
type Result struct {
	// Records are the members of masked groups in arrival order.
	Records []alarm.Record
	// Groups is the number of distinct groups stored.
	Groups int
	// MaskedGroups is the number of groups that qualified.
	MaskedGroups int
}

// Store is an on-disk staging area for masking groups.
type Store struct {
	// db is the DuckDB handle, pinned to a single connection.
	db *sql.DB
	// dir is the private directory removed on Close.
	dir string
	// pending buffers rows until the next flush.
	pending []Row
	// batchSize is the flush threshold for pending.
	batchSize int
}

// errStoreClosed is returned when a closed store is used.
var errStoreClosed = errors.New("spill store is closed")

// Open creates a new store in a private directory below opts.Dir.
func Open(ctx context.Context, opts Options) (*Store, error) {
	parent := opts.Dir
	if parent == "" {
		parent = os.TempDir()
	}

	if err := os.MkdirAll(parent, 0o750); err != nil {
		return nil, fmt.Errorf("create spill parent dir: %w", err)
	}

	dir, err := os.MkdirTemp(parent, "wa3fecta-spill-")
	if err != nil {
		return nil, fmt.Errorf("create spill dir: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(dir, "groups.duckdb"))
	if err != nil {
		_ = os.RemoveAll(dir)

		return nil, fmt.Errorf("open spill database: %w", err)
	}

	// Settings are per connection.
	db.SetMaxOpenConns(1)

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	s := &Store{
		db:        db,
		dir:       dir,
		pending:   make([]Row, 0, batchSize),
		batchSize: batchSize,
	}

	if err := s.init(ctx, opts.MemoryLimit); err != nil {
		_ = s.Close()

		return nil, err
	}

	return s, nil
}

// init applies settings and creates the staging table.
func (s *Store) init(ctx context.Context, memoryLimit string) error {
	statements := []string{
		"SET temp_directory = " + quote(filepath.Join(s.dir, "tmp")),
		"SET preserve_insertion_order = false",
		createTableSQL,
	}

	if memoryLimit != "" {
		statements = append(statements, "SET memory_limit = "+quote(memoryLimit))
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("prepare spill database: %w", err)
		}
	}

	return nil
}

// Add buffers a row and flushes when the batch is full.
func (s *Store) Add(ctx context.Context, row Row) error {
	if s.db == nil {
		return errStoreClosed
	}

	s.pending = append(s.pending, row)
	if len(s.pending) < s.batchSize {
		return nil
	}

	return s.flush(ctx)
}

// flush writes pending rows in one transaction.
func (s *Store) flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin spill batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		_ = tx.Rollback()

		return fmt.Errorf("prepare spill insert: %w", err)
	}

	for _, row := range s.pending {
		doc, err := bson.Marshal(map[string]any(row.Record))
		if err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()

			return fmt.Errorf("encode alarm record %d: %w", row.Seq, err)
		}

		//nolint:gosec // Sequence numbers stay far below the int64 range.
		_, err = stmt.ExecContext(ctx, int64(row.Seq), row.Key.NetworkElement, row.Key.RaisedTime, string(row.State), doc)
		if err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()

			return fmt.Errorf("insert spill row: %w", err)
		}
	}

	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()

		return fmt.Errorf("close spill insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit spill batch: %w", err)
	}

	s.pending = s.pending[:0]

	return nil
}

// Masked flushes pending rows and returns the members of masked groups.
func (s *Store) Masked(ctx context.Context) (*Result, error) {
	if s.db == nil {
		return nil, errStoreClosed
	}

	if err := s.flush(ctx); err != nil {
		return nil, err
	}

	args := stateArgs()
	result := new(Result)

	if err := s.db.QueryRowContext(ctx, countGroupsSQL, args...).Scan(&result.Groups, &result.MaskedGroups); err != nil {
		return nil, fmt.Errorf("count spilled groups: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, maskedMembersSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query masked groups: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			seq int64
			doc []byte
		)

		if err := rows.Scan(&seq, &doc); err != nil {
			return nil, fmt.Errorf("scan masked row: %w", err)
		}

		var record bson.M
		if err := bson.Unmarshal(doc, &record); err != nil {
			return nil, fmt.Errorf("decode alarm record %d: %w", seq, err)
		}

		result.Records = append(result.Records, alarm.Record(record))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate masked rows: %w", err)
	}

	return result, nil
}

// Close releases the database and removes every file the store created.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}

	closeErr := s.db.Close()
	s.db = nil

	removeErr := os.RemoveAll(s.dir)

	return errors.Join(closeErr, removeErr)
}

// stateArgs binds the cleared state followed by the active states.
func stateArgs() []any {
	args := []any{string(alarm.StateCleared)}
	for _, state := range alarm.ActiveStates() {
		args = append(args, string(state))
	}

	return args
}

// quote renders a SQL string literal.
func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
