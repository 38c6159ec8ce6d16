package output

import (
	"bufio"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jmylchreest/tabula/pkg/table"
)

// TableWriter renders rows as an aligned plain-text table. Headers use the
// column labels; when zones are configured a trailing column names the zone
// of each row's rank.
type TableWriter struct {
	w         *bufio.Writer
	columns   []table.Column
	rankField string
	zones     []table.Zone
	rows      []table.Row
}

// NewTableWriter creates a table writer. With no columns, the first row's
// keys are used.
func NewTableWriter(w io.Writer, columns []table.Column, rankField string, zones []table.Zone) *TableWriter {
	return &TableWriter{
		w:         bufio.NewWriter(w),
		columns:   columns,
		rankField: rankField,
		zones:     zones,
	}
}

// Write buffers a single row.
func (w *TableWriter) Write(row table.Row) error {
	w.rows = append(w.rows, row)
	return nil
}

// WriteAll buffers rows.
func (w *TableWriter) WriteAll(rows []table.Row) error {
	w.rows = append(w.rows, rows...)
	return nil
}

// Flush renders the buffered rows.
func (w *TableWriter) Flush() error {
	cols := w.columns
	if len(cols) == 0 && len(w.rows) > 0 {
		cols = table.ColumnsFor(w.rows[0].Keys())
	}
	withZone := w.rankField != "" && len(w.zones) > 0

	tw := tabwriter.NewWriter(w.w, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		header = append(header, c.Label)
	}
	if withZone {
		header = append(header, "")
	}
	if _, err := io.WriteString(tw, strings.Join(header, "\t")+"\n"); err != nil {
		return err
	}

	for _, row := range w.rows {
		cells := make([]string, 0, len(cols)+1)
		for _, c := range cols {
			cells = append(cells, cell(row.String(c.Field)))
		}
		if withZone {
			z, _ := table.ZoneFor(w.zones, row.Int(w.rankField))
			cells = append(cells, z.Label)
		}
		if _, err := io.WriteString(tw, strings.Join(cells, "\t")+"\n"); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	w.rows = w.rows[:0]
	return w.w.Flush()
}

// Close flushes the writer.
func (w *TableWriter) Close() error {
	return w.Flush()
}

// cell keeps a value on one line so it cannot break the alignment.
func cell(s string) string {
	s = strings.NewReplacer("\t", " ", "\n", " ", "\r", "").Replace(s)
	if s == "" {
		return "-"
	}
	return s
}

// RenderTable writes rows as a table in one call.
func RenderTable(w io.Writer, columns []table.Column, rows []table.Row, rankField string, zones []table.Zone) error {
	tw := NewTableWriter(w, columns, rankField, zones)
	if err := tw.WriteAll(rows); err != nil {
		return err
	}
	return tw.Close()
}
