package output

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/jmylchreest/tabula/pkg/table"
)

// JSONWriter writes rows as one JSON array. An empty writer emits [].
type JSONWriter struct {
	w      *bufio.Writer
	pretty bool
	indent string
	rows   []table.Row
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
		rows:   make([]table.Row, 0),
	}
}

// Write buffers a single row.
func (w *JSONWriter) Write(row table.Row) error {
	w.rows = append(w.rows, row)
	return nil
}

// WriteAll buffers rows.
func (w *JSONWriter) WriteAll(rows []table.Row) error {
	w.rows = append(w.rows, rows...)
	return nil
}

// Flush writes the buffered rows as a JSON array.
func (w *JSONWriter) Flush() error {
	enc := json.NewEncoder(w.w)
	// Accented names stay readable; nothing here is embedded in HTML.
	enc.SetEscapeHTML(false)
	if w.pretty {
		enc.SetIndent("", w.indent)
	}
	if err := enc.Encode(w.rows); err != nil {
		return err
	}
	w.rows = w.rows[:0]
	return w.w.Flush()
}

// Close flushes and closes the writer.
func (w *JSONWriter) Close() error {
	return w.Flush()
}

// JSONLWriter writes newline-delimited JSON (JSONL), one row per line.
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{
		w: bufio.NewWriter(w),
	}
}

// Write writes a single row as a JSON line.
func (w *JSONLWriter) Write(row table.Row) error {
	enc := json.NewEncoder(w.w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(row); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes multiple rows as JSON lines.
func (w *JSONLWriter) WriteAll(rows []table.Row) error {
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
