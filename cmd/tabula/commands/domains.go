package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/tabula/pkg/domain"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List built-in domains",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tTITLE\tSTRATEGY\tDUMP FILE\tURLS")
		for _, name := range domain.Names() {
			d, err := domain.Load(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Name, d.Title, d.Strategy, d.DumpFile, strings.Join(d.URLs, " "))
		}
		return tw.Flush()
	},
}

var domainsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a domain definition as YAML",
	Long: `Print a built-in domain as YAML. The output is a valid domain file and
can be edited and passed back with --domain-file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		d, err := domain.Load(args[0])
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	},
}

var domainsCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a domain file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		d, err := domain.FromFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: ok (%d fields, %d canonical names, %d reference rows)\n",
			d.Name, len(d.Schema.Fields), len(d.Vocabulary.Canonical), len(d.Reference))
		return nil
	},
}

func init() {
	domainsCmd.AddCommand(domainsShowCmd, domainsCheckCmd)
	rootCmd.AddCommand(domainsCmd)
}
