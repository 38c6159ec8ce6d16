// Package agent answers questions about live web pages with a tool-using
// language model. The model drives a browser through a fixed toolkit in a
// Thought/Action/Observation loop until it emits a final answer or the step
// budget runs out.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/tabula/internal/logger"
	"github.com/jmylchreest/tabula/pkg/extractor"
	"github.com/jmylchreest/tabula/pkg/llm"
)

// DefaultMaxSteps bounds billed model calls per run.
const DefaultMaxSteps = 10

// ErrStepBudget is returned when no final answer arrives within MaxSteps.
var ErrStepBudget = errors.New("agent stopped due to step limit")

// Config configures an Agent.
type Config struct {
	MaxSteps    int
	Temperature float64
	MaxTokens   int
	// MaxObservation truncates tool output fed back to the model. 0 = 8000 bytes.
	MaxObservation int
	Observer       llm.LLMObserver
}

// Step is one model decision and what its tool returned.
type Step struct {
	Thought     string
	Action      string
	Input       string
	Observation string
	Err         error
}

// Answer is the result of a run.
type Answer struct {
	Question string
	Output   string
	Steps    []Step
	Usage    llm.Usage
	Cost     float64
	Duration time.Duration
}

// Agent drives a Browser with an llm.Provider.
type Agent struct {
	provider llm.Provider
	browser  Browser
	config   Config
	tools    map[string]Tool
	prompt   string
}

// New creates an agent.
func New(p llm.Provider, b Browser, cfg Config) *Agent {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.MaxObservation <= 0 {
		cfg.MaxObservation = 8000
	}

	tools := Tools()
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
	}
	return &Agent{
		provider: p,
		browser:  b,
		config:   cfg,
		tools:    byName,
		prompt:   SystemPrompt(tools),
	}
}

// Run answers question. Tool failures and malformed replies are fed back to
// the model as observations and consume a step; provider errors abort.
// On ErrStepBudget the partial answer is returned with the error.
func (a *Agent) Run(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		question = DefaultQuestion
	}
	log := logger.Component("agent")
	start := time.Now()
	ans := &Answer{Question: question}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: a.prompt},
		{Role: llm.RoleUser, Content: "Question: " + question},
	}

	for step := 1; step <= a.config.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return ans, err
		}

		resp, err := llm.Observe(ctx, a.provider, a.config.Observer, "agent", len(messages[len(messages)-1].Content), llm.Request{
			Messages:    messages,
			MaxTokens:   a.config.MaxTokens,
			Temperature: a.config.Temperature,
		})
		if err != nil {
			ans.Duration = time.Since(start)
			if ctx.Err() != nil {
				return ans, ctx.Err()
			}
			return ans, fmt.Errorf("step %d: %w", step, err)
		}
		ans.Usage.Add(resp.Usage)
		ans.Cost += resp.Cost
		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})

		act, err := ParseAction(resp.Content)
		if err != nil {
			log.Debug("unparseable reply", "step", step, "error", err)
			obs := fmt.Sprintf("Invalid or incomplete response: %v. Reply with one action JSON blob.", err)
			ans.Steps = append(ans.Steps, Step{Thought: act.Thought, Observation: obs, Err: err})
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: "Observation: " + obs})
			continue
		}

		if act.Name == FinalAnswer {
			ans.Output = finalText(act)
			ans.Steps = append(ans.Steps, Step{Thought: act.Thought, Action: act.Name, Input: ans.Output})
			ans.Duration = time.Since(start)
			log.Info("agent finished", "steps", step, "tokens", ans.Usage.Total(), "duration", ans.Duration)
			return ans, nil
		}

		s := a.act(ctx, act)
		if err := ctx.Err(); err != nil {
			return ans, err
		}
		log.Debug("tool step", "step", step, "action", s.Action, "input", s.Input, "error", s.Err)
		ans.Steps = append(ans.Steps, s)
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: "Observation: " + s.Observation})
	}

	ans.Duration = time.Since(start)
	log.Warn("step budget exhausted", "max_steps", a.config.MaxSteps)
	return ans, ErrStepBudget
}

// act runs one tool call. Errors become the observation.
func (a *Agent) act(ctx context.Context, act Action) Step {
	s := Step{Thought: act.Thought, Action: act.Name}

	tool, ok := a.tools[act.Name]
	if !ok {
		s.Err = fmt.Errorf("unknown tool %q", act.Name)
		s.Observation = fmt.Sprintf("%s is not a valid tool, try one of [%s].", act.Name, a.toolNames())
		return s
	}

	args := act.Args
	if args == nil {
		args = map[string]any{}
	}
	if act.Text != "" && tool.Primary != "" {
		if _, set := args[tool.Primary]; !set {
			args[tool.Primary] = act.Text
		}
	}
	s.Input = describeArgs(args)

	out, err := tool.run(ctx, a.browser, args)
	if err != nil {
		s.Err = err
		s.Observation = "Error: " + err.Error()
		return s
	}
	s.Observation = extractor.TruncateContent(out, a.config.MaxObservation)
	return s
}

func (a *Agent) toolNames() string {
	names := make([]string, 0, len(a.tools))
	for _, t := range Tools() {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}

func finalText(act Action) string {
	if act.Text != "" {
		return act.Text
	}
	if len(act.Args) > 0 {
		if s, err := toJSON(act.Args); err == nil {
			return s
		}
	}
	return ""
}

func describeArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	s, err := toJSON(args)
	if err != nil {
		return fmt.Sprint(args)
	}
	return s
}
