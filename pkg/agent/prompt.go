package agent

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultQuestion asks for the leader and the last placed team of the league.
const DefaultQuestion = "qual time está na primeira colocação do brasileirão na tabela do site " +
	"https://ge.globo.com/futebol/brasileirao-serie-a/? E o último colocado?"

const promptPrefix = `Respond to the human as helpfully and accurately as possible. You have access to the following tools:

`

const promptFormat = `
Use a json blob to specify a tool by providing an action key (tool name) and an action_input key (tool input).

Valid "action" values: "Final Answer" or %s

Provide only ONE action per $JSON_BLOB, as shown:

` + "```" + `
{
  "action": $TOOL_NAME,
  "action_input": $INPUT
}
` + "```" + `

Follow this format:

Question: input question to answer
Thought: consider previous and subsequent steps
Action:
` + "```" + `
$JSON_BLOB
` + "```" + `
Observation: action result
... (repeat Thought/Action/Observation N times)
Thought: I know what to respond
Action:
` + "```" + `
{
  "action": "Final Answer",
  "action_input": "Final response to human"
}
` + "```" + `

Begin! Reminder to ALWAYS respond with a valid json blob of a single action. Use tools if necessary. Respond directly if appropriate. Format is Action:` + "```$JSON_BLOB```" + `then Observation`

// SystemPrompt renders the tool list and reply format.
func SystemPrompt(tools []Tool) string {
	var b strings.Builder
	b.WriteString(promptPrefix)

	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = fmt.Sprintf("%q", t.Name)
		fmt.Fprintf(&b, "%s: %s, args: %s\n", t.Name, t.Description, argsSchema(t.Args))
	}
	fmt.Fprintf(&b, promptFormat, strings.Join(names, ", "))
	return b.String()
}

func argsSchema(args map[string]string) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("'%s': {'type': '%s'}", k, args[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
