package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FinalAnswer is the action that ends a run.
const FinalAnswer = "Final Answer"

var errNoAction = errors.New("no JSON action found")

// Action is one parsed model decision.
type Action struct {
	Thought string
	Name    string
	// Args holds action_input when it is an object. A bare string input is
	// stored under the tool's primary argument, or in Text.
	Args map[string]any
	Text string
}

// ParseAction reads a reply of the form
//
//	Thought: ...
//	Action:
//	```json
//	{"action": "...", "action_input": ...}
//	```
//
// The fenced block is optional; the first balanced JSON object is used.
func ParseAction(reply string) (Action, error) {
	var act Action
	if i := strings.Index(reply, "Thought:"); i >= 0 {
		thought := reply[i+len("Thought:"):]
		if j := strings.Index(thought, "Action:"); j >= 0 {
			thought = thought[:j]
		} else if j := strings.Index(thought, "{"); j >= 0 {
			thought = thought[:j]
		}
		act.Thought = strings.TrimSpace(strings.Trim(strings.TrimSpace(thought), "`"))
	}

	blob, err := firstObject(reply)
	if err != nil {
		return act, err
	}
	var raw struct {
		Action      string          `json:"action"`
		ActionInput json.RawMessage `json:"action_input"`
	}
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return act, fmt.Errorf("invalid action JSON: %w", err)
	}
	if strings.TrimSpace(raw.Action) == "" {
		return act, fmt.Errorf("action JSON has no \"action\" key")
	}
	act.Name = strings.TrimSpace(raw.Action)

	input := strings.TrimSpace(string(raw.ActionInput))
	switch {
	case input == "" || input == "null":
	case strings.HasPrefix(input, "{"):
		if err := json.Unmarshal(raw.ActionInput, &act.Args); err != nil {
			return act, fmt.Errorf("invalid action_input: %w", err)
		}
	case strings.HasPrefix(input, "\""):
		if err := json.Unmarshal(raw.ActionInput, &act.Text); err != nil {
			return act, fmt.Errorf("invalid action_input: %w", err)
		}
	default:
		act.Text = input
	}
	return act, nil
}

// firstObject returns the first balanced {...} in s, skipping braces inside
// JSON strings.
func firstObject(s string) (string, error) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", errNoAction
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced braces", errNoAction)
}
