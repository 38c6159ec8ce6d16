package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/tabula/internal/logger"
	"github.com/jmylchreest/tabula/internal/ui"
	"github.com/jmylchreest/tabula/pkg/agent"
	"github.com/jmylchreest/tabula/pkg/domain"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive presenter",
	Long: `Serve a small web UI: choose the league table (with top scorers), the
stock screener or the browser agent, run it, and inspect the result.

Without an API key the UI still starts and explains how to configure one.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addFetchFlags(serveCmd)

	flags := serveCmd.Flags()
	flags.String("addr", "localhost:8501", "listen address")
	flags.String("output-dir", "", "write dump files here after each run")
	flags.Duration("run-timeout", 5*time.Minute, "timeout for one run")
	flags.Int("max-steps", agent.DefaultMaxSteps, "maximum LLM calls per agent run")
	_ = viper.BindPFlag("serve.addr", flags.Lookup("addr"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	standings, err := domain.Load("standings")
	if err != nil {
		return err
	}
	stocks, err := domain.Load("stocks")
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	dumpDir, _ := flags.GetString("output-dir")
	runTimeout, _ := flags.GetDuration("run-timeout")
	maxSteps, _ := flags.GetInt("max-steps")
	timeout, _ := flags.GetDuration("timeout")
	userAgent, _ := flags.GetString("user-agent")
	stealth, _ := flags.GetBool("stealth")

	cfg := ui.Config{
		Domains:    []*domain.Domain{standings, stocks},
		DumpDir:    dumpDir,
		RunTimeout: runTimeout,
	}

	cred, err := resolveCredential(cmd)
	if err != nil {
		logger.Warn("starting without a credential", "error", err)
	} else {
		s, err := newScraper(cmd, cred)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		cfg.Runner = s

		p, err := newProvider(cred)
		if err != nil {
			return err
		}
		cfg.Agent = func(ctx context.Context, question string) (*agent.Answer, error) {
			b := agent.NewChromeBrowser(agent.ChromeConfig{UserAgent: userAgent, Stealth: stealth, Timeout: timeout})
			defer func() { _ = b.Close() }()
			return agent.New(p, b, agent.Config{MaxSteps: maxSteps}).Run(ctx, question)
		}
	}

	srv, err := ui.New(cfg)
	if err != nil {
		return err
	}
	addr := viper.GetString("serve.addr")
	logInfo("Serving on http://%s", addr)
	return srv.ListenAndServe(ctx, addr)
}
