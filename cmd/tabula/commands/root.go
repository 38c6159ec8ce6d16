// Package commands implements the CLI commands for tabula.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/tabula/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tabula",
	Short: "LLM-assisted extraction of ranked tables from web pages",
	Long: `Tabula fetches web pages, locates the table you care about, asks an
LLM to read it, and reconciles the result against a known vocabulary.

When live extraction cannot cover enough of the expected entities, the
domain's reference dataset is returned instead and marked as such.

Examples:
  # League table, written to data_brasileirao.json and printed
  tabula standings

  # Top scorers as JSON on stdout
  tabula scorers --format json

  # Large-cap stocks from a JavaScript-rendered page
  tabula stocks --fetch-mode dynamic

  # A custom domain file
  tabula run --domain-file cities.yaml

  # Ask the browser agent a question
  tabula agent "Quem é o lanterna do Brasileirão?"

  # Interactive presenter on http://localhost:8501
  tabula serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Init(logger.Options{
			Debug: viper.GetBool("debug"),
			Quiet: viper.GetBool("quiet"),
			JSON:  viper.GetBool("log_json"),
		})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pflags := rootCmd.PersistentFlags()
	pflags.String("config", "", "config file (default $HOME/.tabula.yaml)")
	pflags.Bool("debug", false, "enable debug logging")
	pflags.BoolP("quiet", "q", false, "suppress progress output")
	pflags.Bool("log-json", false, "log as JSON")

	// LLM settings, shared by every command that calls a model
	pflags.StringP("provider", "p", "openai", "LLM provider: openai, anthropic")
	pflags.StringP("model", "m", "", "model name (provider default when empty)")
	pflags.StringP("api-key", "k", "", "API key (or OPENAI_API_KEY / ANTHROPIC_API_KEY, or a .env file)")
	pflags.String("base-url", "", "custom API base URL")

	_ = viper.BindPFlag("config", pflags.Lookup("config"))
	_ = viper.BindPFlag("debug", pflags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", pflags.Lookup("quiet"))
	_ = viper.BindPFlag("log_json", pflags.Lookup("log-json"))
	_ = viper.BindPFlag("provider", pflags.Lookup("provider"))
	_ = viper.BindPFlag("model", pflags.Lookup("model"))
	_ = viper.BindPFlag("base_url", pflags.Lookup("base-url"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".tabula")
		viper.SetConfigType("yaml")
	}

	// TABULA_API_KEY, TABULA_MODEL, ...
	viper.SetEnvPrefix("TABULA")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logError("%v", err)
	}
	return err
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
