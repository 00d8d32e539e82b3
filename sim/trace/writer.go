package trace

import (
	"bufio"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// EventWriter is the storage boundary for exported rows. Implementations
// are called only from the metrics loop's single goroutine.
type EventWriter interface {
	Write(row *Row) error
	Close() error
}

// NopWriter discards every row. Used when export is off.
type NopWriter struct{}

func (NopWriter) Write(*Row) error { return nil }
func (NopWriter) Close() error     { return nil }

// JSONLWriter appends one JSON object per row to a buffered file.
type JSONLWriter struct {
	file *os.File
	buf  *bufio.Writer
	enc  *jsoniter.Encoder
}

// NewJSONLWriter creates (or truncates) the file at path.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating event export file: %w", err)
	}
	buf := bufio.NewWriter(file)
	return &JSONLWriter{
		file: file,
		buf:  buf,
		enc:  jsoniter.ConfigFastest.NewEncoder(buf),
	}, nil
}

func (w *JSONLWriter) Write(row *Row) error {
	return w.enc.Encode(row)
}

// Close flushes the buffer and closes the file. The flush error wins over
// the close error, since it means rows were lost.
func (w *JSONLWriter) Close() error {
	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	if flushErr != nil {
		return fmt.Errorf("flushing event export: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing event export: %w", closeErr)
	}
	return nil
}
