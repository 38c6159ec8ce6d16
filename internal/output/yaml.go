package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/tabula/pkg/table"
)

// YAMLWriter writes rows as a YAML sequence, keeping field order.
type YAMLWriter struct {
	w    *bufio.Writer
	rows []table.Row
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w:    bufio.NewWriter(w),
		rows: make([]table.Row, 0),
	}
}

// Write buffers a single row.
func (w *YAMLWriter) Write(row table.Row) error {
	w.rows = append(w.rows, row)
	return nil
}

// WriteAll buffers rows.
func (w *YAMLWriter) WriteAll(rows []table.Row) error {
	w.rows = append(w.rows, rows...)
	return nil
}

// Flush writes the buffered rows as YAML.
func (w *YAMLWriter) Flush() error {
	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)

	if err := encoder.Encode(w.rows); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	w.rows = w.rows[:0]
	return w.w.Flush()
}

// Close flushes and closes the writer.
func (w *YAMLWriter) Close() error {
	return w.Flush()
}
