// Package parser turns raw model output into a validated tool invocation.
// It is the sole gate between unstructured model text and code execution:
// everything downstream of Parse may assume the invocation is on-schema.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pavel-shyrko/MCP-Server/internal/registry"
)

// ErrNoInvocation signals that the output contains no JSON object at all —
// the model answered in plain language and the turn skips dispatch.
var ErrNoInvocation = errors.New("no tool invocation in model output")

// AmbiguousOutputError is returned when the output contains more than one
// complete JSON object. Picking one silently is never acceptable here.
type AmbiguousOutputError struct {
	Count int
}

func (e *AmbiguousOutputError) Error() string {
	return fmt.Sprintf("ambiguous model output: found %d JSON objects, want exactly 1", e.Count)
}

// MalformedInvocationError is returned when the single JSON object does not
// have exactly the two top-level keys "tool" and "args" with the right shapes.
type MalformedInvocationError struct {
	Reason string
}

func (e *MalformedInvocationError) Error() string {
	return "malformed invocation: " + e.Reason
}

// ArgumentTypeError names the argument whose value has the wrong type.
type ArgumentTypeError struct {
	Key  string
	Want registry.ParamType
}

func (e *ArgumentTypeError) Error() string {
	return fmt.Sprintf("argument %q: expected %s", e.Key, e.Want)
}

// MissingArgumentError names the required argument that is absent.
type MissingArgumentError struct {
	Key string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("missing required argument %q", e.Key)
}

// Invocation is a validated tool call. It is only ever constructed by Parse
// (or by the direct-invocation path, which runs the same validation), so
// holding one is structural evidence the arguments satisfy the tool's schema.
type Invocation struct {
	ToolName string         `json:"tool"`
	Args     map[string]any `json:"args"`
}

// Parse extracts the single JSON object from raw model output, requires it to
// be shaped {"tool": <name>, "args": {...}}, resolves the name against the
// registry and validates every argument. Pure function of its input and the
// sealed registry.
func Parse(raw string, reg *registry.Registry) (*Invocation, error) {
	objs := extractObjects(raw)
	switch {
	case len(objs) == 0:
		return nil, ErrNoInvocation
	case len(objs) > 1:
		return nil, &AmbiguousOutputError{Count: len(objs)}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(objs[0]), &top); err != nil {
		// extractObjects already decoded this text, so this cannot happen
		return nil, &MalformedInvocationError{Reason: err.Error()}
	}

	toolRaw, hasTool := top["tool"]
	argsRaw, hasArgs := top["args"]
	if !hasTool {
		return nil, &MalformedInvocationError{Reason: `missing "tool" key`}
	}
	if !hasArgs {
		return nil, &MalformedInvocationError{Reason: `missing "args" key`}
	}
	if len(top) != 2 {
		return nil, &MalformedInvocationError{Reason: fmt.Sprintf("expected exactly 2 top-level keys, got %d", len(top))}
	}

	var toolName string
	if err := json.Unmarshal(toolRaw, &toolName); err != nil {
		return nil, &MalformedInvocationError{Reason: `"tool" must be a string`}
	}

	var args map[string]json.RawMessage
	if err := json.Unmarshal(argsRaw, &args); err != nil {
		return nil, &MalformedInvocationError{Reason: `"args" must be an object`}
	}

	spec, err := reg.Lookup(toolName)
	if err != nil {
		return nil, err
	}

	validated, err := ValidateArgs(spec, args)
	if err != nil {
		return nil, err
	}

	return &Invocation{ToolName: toolName, Args: validated}, nil
}

// ValidateArgs checks every argument against the spec's schema. Wrong types
// and missing required keys fail; unexpected extra keys are dropped silently
// so newer models emitting extra fields stay compatible.
func ValidateArgs(spec registry.ToolSpec, args map[string]json.RawMessage) (map[string]any, error) {
	validated := make(map[string]any, len(spec.Params))
	for key, param := range spec.Params {
		raw, ok := args[key]
		if !ok {
			if param.Required {
				return nil, &MissingArgumentError{Key: key}
			}
			continue
		}
		val, err := coerce(key, param.Type, raw)
		if err != nil {
			return nil, err
		}
		validated[key] = val
	}
	return validated, nil
}

func coerce(key string, want registry.ParamType, raw json.RawMessage) (any, error) {
	switch want {
	case registry.TypeString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, &ArgumentTypeError{Key: key, Want: want}
		}
		return s, nil
	case registry.TypeBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, &ArgumentTypeError{Key: key, Want: want}
		}
		return b, nil
	case registry.TypeNumber:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, &ArgumentTypeError{Key: key, Want: want}
		}
		return f, nil
	case registry.TypeInt:
		n, ok := asInt(raw)
		if !ok {
			return nil, &ArgumentTypeError{Key: key, Want: want}
		}
		return n, nil
	case registry.TypeIdentifier:
		// A literal id, or a string surface form resolved later by the
		// orchestrator ("that post"). Resolution never happens here.
		if n, ok := asInt(raw); ok {
			return n, nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, &ArgumentTypeError{Key: key, Want: want}
		}
		return s, nil
	default:
		return nil, &ArgumentTypeError{Key: key, Want: want}
	}
}

func asInt(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	n := int(f)
	if float64(n) != f {
		return 0, false
	}
	return n, true
}

// extractObjects finds every complete top-level JSON object in text,
// tolerating surrounding prose. Objects nested inside a matched object are
// not counted again; a brace that never closes into valid JSON is ignored.
func extractObjects(text string) []string {
	var objs []string
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var obj map[string]json.RawMessage
		if err := dec.Decode(&obj); err != nil {
			continue
		}
		end := i + int(dec.InputOffset())
		objs = append(objs, text[i:end])
		i = end - 1
	}
	return objs
}
