package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tabula/pkg/agent"
)

var agentCmd = &cobra.Command{
	Use:   "agent [question]",
	Short: "Answer a question by letting the LLM browse",
	Long: `Start a headless browser and let the LLM drive it with navigation and
extraction tools until it can answer the question.

Without a question, the agent is asked which team leads the Brasileirão
table and which is in last place.

Each step is one billed LLM call; --max-steps bounds the run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAgent,
}

func init() {
	rootCmd.AddCommand(agentCmd)

	flags := agentCmd.Flags()
	flags.Int("max-steps", agent.DefaultMaxSteps, "maximum LLM calls")
	flags.Duration("timeout", 30*time.Second, "timeout per browser action")
	flags.String("user-agent", "", "override the browser user agent")
	flags.Bool("stealth", false, "mask headless Chrome")
	flags.Bool("json", false, "print the full answer with every step as JSON")
}

func runAgent(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	question := ""
	if len(args) > 0 {
		question = strings.TrimSpace(args[0])
	}

	cred, err := resolveCredential(cmd)
	if err != nil {
		return err
	}
	p, err := newProvider(cred)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	maxSteps, _ := flags.GetInt("max-steps")
	timeout, _ := flags.GetDuration("timeout")
	userAgent, _ := flags.GetString("user-agent")
	stealth, _ := flags.GetBool("stealth")

	browser := agent.NewChromeBrowser(agent.ChromeConfig{UserAgent: userAgent, Stealth: stealth, Timeout: timeout})
	defer func() { _ = browser.Close() }()

	logInfo("Running agent with %s/%s (up to %d steps)...", p.Name(), p.Model(), maxSteps)
	ans, err := agent.New(p, browser, agent.Config{MaxSteps: maxSteps}).Run(ctx, question)
	if err != nil && !errors.Is(err, agent.ErrStepBudget) {
		return err
	}

	if asJSON, _ := flags.GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(ans); encErr != nil {
			return encErr
		}
	} else {
		for i, s := range ans.Steps {
			logInfo("%2d. %s %s", i+1, s.Action, s.Input)
		}
		if ans.Output != "" {
			fmt.Println(ans.Output)
		}
	}
	return err
}
