package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/tabula/internal/logger"
	"github.com/jmylchreest/tabula/internal/output"
	"github.com/jmylchreest/tabula/pkg/domain"
	"github.com/jmylchreest/tabula/pkg/tabula"
)

var runCmd = &cobra.Command{
	Use:   "run [domain]",
	Short: "Extract and reconcile a domain's table",
	Long: `Run a domain pipeline: fetch its pages, locate candidate blocks, extract
records with the LLM, reconcile them and write the dump file.

The rows are also printed (table by default). Fetch and extraction failures
are reported as warnings; when too few entities were extracted, the domain's
reference dataset is used and the output says so.

Examples:
  tabula run standings
  tabula run stocks --format jsonl --output stocks.jsonl
  tabula run --domain-file cities.yaml --url https://example.com/cities`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		return runDomain(cmd, name)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
	runCmd.Flags().String("domain-file", "", "path to a domain YAML file")

	// One shortcut command per built-in domain: tabula standings, ...
	for _, name := range domain.Names() {
		d, err := domain.Load(name)
		if err != nil {
			continue
		}
		cmd := &cobra.Command{
			Use:   d.Name,
			Short: d.Title,
			Long:  d.Description,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runDomain(cmd, name)
			},
		}
		addRunFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
}

func addRunFlags(cmd *cobra.Command) {
	addFetchFlags(cmd)
	flags := cmd.Flags()
	flags.StringSliceP("url", "u", nil, "URL(s) to scrape instead of the domain defaults (can be repeated)")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.StringP("format", "f", string(output.FormatTable), "output format: table, json, jsonl, yaml")
	flags.String("output-dir", ".", "directory for the dump file")
	flags.Bool("no-dump", false, "do not write the dump file")
}

func runDomain(cmd *cobra.Command, name string) error {
	ctx, cancel := signalContext()
	defer cancel()

	d, err := selectDomain(cmd, name)
	if err != nil {
		return err
	}
	log := logger.Component("cli").With("domain", d.Name)

	// Reject a bad format before spending any LLM calls.
	formatStr, _ := cmd.Flags().GetString("format")
	format := output.Format(formatStr)
	if _, err := output.NewWriter(io.Discard, format); err != nil {
		return err
	}

	cred, err := resolveCredential(cmd)
	if err != nil {
		return err
	}
	s, err := newScraper(cmd, cred)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	urls, _ := cmd.Flags().GetStringSlice("url")
	logInfo("Running %s (%s) with %s...", d.Name, d.Title, s.Provider())

	rep, err := s.Run(ctx, d, urls)
	if err != nil {
		return err
	}
	reportStatus(rep)

	if noDump, _ := cmd.Flags().GetBool("no-dump"); !noDump {
		dir, _ := cmd.Flags().GetString("output-dir")
		path, err := output.WriteDump(dir, d.DumpFile, rep.Rows)
		if err != nil {
			return err
		}
		logInfo("Saved %d rows to %s", len(rep.Rows), path)
	}

	out, closeOut, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	w, err := output.NewWriter(out, format,
		output.WithColumns(d.DisplayColumns()),
		output.WithZones(d.Rules.RankField, d.Zones))
	if err != nil {
		return err
	}
	if err := w.WriteAll(rep.Rows); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	log.Debug("run finished",
		"source", rep.Source,
		"tokens", rep.Usage.Total(),
		"cost", fmt.Sprintf("$%.4f", rep.Cost))
	return nil
}

// reportStatus tells the user where the rows came from and what went wrong.
func reportStatus(rep *tabula.Report) {
	for _, w := range rep.Warnings() {
		logInfo("warning: %s", w)
	}
	switch {
	case rep.Insufficient:
		logInfo("Only %d of %d required entities were extracted; showing incomplete live data.",
			rep.Stats.Distinct, rep.Stats.Required)
	case !rep.Live():
		logInfo("Only %d of %d required entities were extracted; showing reference data.",
			rep.Stats.Distinct, rep.Stats.Required)
	default:
		logInfo("Extracted %d rows live from %d blocks.", len(rep.Rows), rep.Blocks)
	}
	logInfo("LLM usage: %s tokens in, %s out, %s",
		humanize.Comma(int64(rep.Usage.InputTokens)),
		humanize.Comma(int64(rep.Usage.OutputTokens)),
		rep.Duration.Round(time.Millisecond))
}
