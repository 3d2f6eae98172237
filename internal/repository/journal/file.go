package journal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pablo-flores/wa-3fecta/internal/config"
	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
)

// Repository defines persistence operations for the clear log.
type Repository interface {
	Load(ctx context.Context) (*alarm.ClearLog, error)
	Save(ctx context.Context, log *alarm.ClearLog) error
}

// FileRepository persists the clear log to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON journal.
	path string
	// mu protects concurrent access to the journal file.
	mu sync.Mutex
}

// ErrNotFound is returned when the journal file does not exist yet.
var ErrNotFound = errors.New("journal not found")

// clearedField holds the alarm map inside the JSON document.
const clearedField = "cleared"

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the clear log from disk.
func (r *FileRepository) Load(_ context.Context) (*alarm.ClearLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read journal file: %w", err)
	}

	var document structpb.Struct
	if err = protojson.Unmarshal(contents, &document); err != nil {
		return nil, fmt.Errorf("decode journal file: %w", err)
	}

	return fromProto(&document)
}

// Save writes the clear log to disk.
func (r *FileRepository) Save(_ context.Context, log *alarm.ClearLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	document, err := toProto(log)
	if err != nil {
		return err
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline: true,
	}

	data, err := marshalOptions.Marshal(document)
	if err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write journal file: %w", err)
	}

	return nil
}

// fromProto converts the JSON document into the clear log.
func fromProto(document *structpb.Struct) (*alarm.ClearLog, error) {
	log := alarm.NewClearLog()

	entries := document.GetFields()[clearedField].GetStructValue()
	for id, value := range entries.GetFields() {
		at, err := time.Parse(time.RFC3339Nano, value.GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("decode clear time of alarm %q: %w", id, err)
		}

		log.Mark(id, at)
	}

	return log, nil
}

// toProto converts the clear log into a JSON document.
func toProto(log *alarm.ClearLog) (*structpb.Struct, error) {
	ids := make([]string, 0, len(log.Cleared))
	for id := range log.Cleared {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	entries := make(map[string]any, len(ids))
	for _, id := range ids {
		entries[id] = log.Cleared[id].UTC().Format(time.RFC3339Nano)
	}

	document, err := structpb.NewStruct(map[string]any{
		clearedField: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("encode journal: %w", err)
	}

	return document, nil
}
