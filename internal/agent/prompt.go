package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pavel-shyrko/MCP-Server/internal/adapter"
	"github.com/pavel-shyrko/MCP-Server/internal/registry"
)

// SystemPrompt enumerates the tool catalogue with each tool's exact argument
// shape and instructs the model to answer with a single {"tool","args"} JSON
// object when it wants a lookup, or plain text otherwise. The model is
// expected — not guaranteed — to comply; the parser enforces the contract.
func SystemPrompt(reg *registry.Registry) string {
	specs := reg.Specs()

	var sb strings.Builder
	fmt.Fprintf(&sb, "You have %d tools you can call:\n", len(specs))
	for i, spec := range specs {
		fmt.Fprintf(&sb, "%d) %s — %s Args schema: %s.\n",
			i+1, spec.Name, spec.Description, schemaLiteral(spec.Params))
	}
	sb.WriteString(`
When the user asks for information one of the tools can provide:
- Output *only* valid JSON with exactly the keys "tool" and "args".
- "tool" must be one of the tool names above, spelled exactly.
- "args" must follow that tool's schema.
- Do not output any extra text, and never output more than one JSON object.

If no tool applies, answer the user in plain language with no JSON at all.`)
	return sb.String()
}

func schemaLiteral(params map[string]registry.ParamSpec) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%q: <%s>", k, typeLiteral(params[k].Type)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func typeLiteral(t registry.ParamType) string {
	if t == registry.TypeIdentifier {
		return "integer"
	}
	return string(t)
}

// synthesisPrompt asks the model to phrase a tool result for the user. Only
// used for ok results; failures get deterministic templates instead, so one
// unreliable generation is never compounded with another.
func synthesisPrompt(query string, res adapter.Result) string {
	return fmt.Sprintf(
		"The user asked: %q\n\nThe %s lookup returned this JSON:\n%s\n\n"+
			"Answer the user's question in one or two short sentences using only this data. "+
			"Do not mention tools or JSON.",
		query, res.ToolName, string(res.Payload))
}
