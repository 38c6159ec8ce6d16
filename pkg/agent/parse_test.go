package agent

import (
	"errors"
	"testing"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		wantName string
		wantText string
		wantArg  string
		thought  string
		wantErr  bool
	}{
		{
			name:     "fenced",
			reply:    "Thought: go\nAction:\n```json\n{\"action\": \"navigate_browser\", \"action_input\": {\"url\": \"https://a.b/\"}}\n```",
			wantName: "navigate_browser",
			wantArg:  "https://a.b/",
			thought:  "go",
		},
		{
			name:     "bare string input",
			reply:    `{"action": "Final Answer", "action_input": "Flamengo"}`,
			wantName: "Final Answer",
			wantText: "Flamengo",
		},
		{
			name:     "braces inside strings",
			reply:    `Action: {"action": "Final Answer", "action_input": "use {x} and \"}\""} trailing`,
			wantName: "Final Answer",
			wantText: `use {x} and "}"`,
		},
		{
			name:     "numeric input",
			reply:    `{"action": "Final Answer", "action_input": 20}`,
			wantName: "Final Answer",
			wantText: "20",
		},
		{
			name:     "null input",
			reply:    `{"action": "current_webpage", "action_input": null}`,
			wantName: "current_webpage",
		},
		{name: "no json", reply: "Thought: hmm", wantErr: true, thought: "hmm"},
		{name: "unbalanced", reply: `{"action": "x"`, wantErr: true},
		{name: "no action key", reply: `{"tool": "x"}`, wantErr: true},
		{name: "bad object input", reply: `{"action": "x", "action_input": {1: 2}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.reply)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got.Thought != tt.thought {
				t.Errorf("Thought = %q, want %q", got.Thought, tt.thought)
			}
			if tt.wantErr {
				return
			}
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
			if tt.wantArg != "" && got.Args["url"] != tt.wantArg {
				t.Errorf("Args = %v", got.Args)
			}
		})
	}
}

func TestParseAction_NoJSON(t *testing.T) {
	_, err := ParseAction("just prose")
	if !errors.Is(err, errNoAction) {
		t.Errorf("error = %v, want errNoAction", err)
	}
}
