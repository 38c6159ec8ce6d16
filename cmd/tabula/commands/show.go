package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tabula/internal/output"
	"github.com/jmylchreest/tabula/pkg/domain"
	"github.com/jmylchreest/tabula/pkg/table"
)

var showCmd = &cobra.Command{
	Use:   "show <domain|dump-file>",
	Short: "Print a saved dump without fetching anything",
	Long: `Print rows saved by a previous run. The argument is a built-in domain name
(its dump file is read from --output-dir) or a path to a dump file.

Examples:
  tabula show standings
  tabula show out/data_acoes.json --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	flags := showCmd.Flags()
	flags.StringP("format", "f", string(output.FormatTable), "output format: table, json, jsonl, yaml")
	flags.String("output-dir", ".", "directory holding dump files")
	flags.StringP("output", "o", "", "output file (default: stdout)")
}

func runShow(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("output-dir")
	d, path := dumpTarget(dir, args[0])

	rows, err := output.ReadDump(path)
	if err != nil {
		return err
	}

	var opts []output.WriterOption
	if d != nil {
		opts = append(opts,
			output.WithColumns(d.DisplayColumns()),
			output.WithZones(d.Rules.RankField, d.Zones))
	} else if len(rows) > 0 {
		opts = append(opts, output.WithColumns(table.ColumnsFor(rows[0].Keys())))
	}

	out, closeOut, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	formatStr, _ := cmd.Flags().GetString("format")
	w, err := output.NewWriter(out, output.Format(formatStr), opts...)
	if err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Close()
}

// dumpTarget maps a domain name or a dump path to the domain (when known)
// and the file to read.
func dumpTarget(dir, arg string) (*domain.Domain, string) {
	if d, err := domain.Load(arg); err == nil {
		return d, filepath.Join(dir, d.DumpFile)
	}
	base := filepath.Base(arg)
	for _, name := range domain.Names() {
		if d, err := domain.Load(name); err == nil && d.DumpFile == base {
			return d, arg
		}
	}
	if _, err := os.Stat(arg); err != nil {
		return nil, filepath.Join(dir, arg)
	}
	return nil, arg
}
