package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
)

// Writer encodes one document per line.
type Writer struct {
	// buf batches small writes to the destination.
	buf *bufio.Writer
	// count is the number of records written.
	count int
}

// NewWriter returns a writer to w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{buf: bufio.NewWriter(w)}
}

// Write encodes a record followed by a newline.
func (w *Writer) Write(r alarm.Record) error {
	data, err := MarshalRecord(r)
	if err != nil {
		return err
	}

	if _, err := w.buf.Write(data); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	w.count++

	return nil
}

// WriteAll encodes every record.
func (w *Writer) WriteAll(records []alarm.Record) error {
	for _, r := range records {
		if err := w.Write(r); err != nil {
			return err
		}
	}

	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.count
}

// Flush writes buffered data to the destination.
func (w *Writer) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}

	return nil
}
