package export

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
)

// MaxLineSize bounds a single exported document.
const MaxLineSize = 16 << 20

// Reader decodes one document per line.
type Reader struct {
	// scanner splits the input into lines.
	scanner *bufio.Scanner
	// closer is the underlying file, if the reader opened one.
	closer io.Closer
	// line is the number of the last line read, for error messages.
	line int
}

// NewReader returns a reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	return &Reader{scanner: scanner}
}

// Open returns a reader over the file at path.
func Open(path string) (*Reader, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}

	reader := NewReader(file)
	reader.closer = file

	return reader, nil
}

// Next returns the next document or io.EOF. Blank lines are skipped.
func (r *Reader) Next(ctx context.Context) (alarm.Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read export line %d: %w", r.line+1, err)
			}

			return nil, io.EOF
		}

		r.line++

		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		record, err := UnmarshalRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}

		return record, nil
	}
}

// ReadAll drains the reader.
func (r *Reader) ReadAll(ctx context.Context) ([]alarm.Record, error) {
	var records []alarm.Record

	for {
		record, err := r.Next(ctx)
		if errors.Is(err, io.EOF) {
			return records, nil
		}

		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}
}

// Close closes the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}
