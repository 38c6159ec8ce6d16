package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmylchreest/tabula/pkg/table"
)

// DumpIndent is the indentation of dump files.
const DumpIndent = "    "

// WriteDump writes rows to dir/name as an indented UTF-8 JSON array,
// replacing any previous dump. It returns the written path.
func WriteDump(dir, name string, rows []table.Row) (string, error) {
	if rows == nil {
		rows = []table.Row{}
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create dump directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", DumpIndent)
	if err := enc.Encode(rows); err != nil {
		return "", fmt.Errorf("failed to encode dump: %w", err)
	}

	path := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create dump file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write dump: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write dump: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to replace dump: %w", err)
	}
	return path, nil
}

// ReadDump loads rows written by WriteDump.
func ReadDump(path string) ([]table.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []table.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("invalid dump %s: %w", path, err)
	}
	return rows, nil
}
