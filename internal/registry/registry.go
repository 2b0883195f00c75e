// Package registry holds the static catalogue of tools the agent may invoke.
// Registration happens once at process start; after Seal the catalogue is
// immutable and safe for unrestricted concurrent reads.
package registry

import (
	"fmt"
	"sort"

	"github.com/pavel-shyrko/MCP-Server/internal/adapter"
)

// ParamType is the primitive type expected for a tool argument.
type ParamType string

const (
	TypeString ParamType = "string"
	TypeInt    ParamType = "integer"
	TypeNumber ParamType = "number"
	TypeBool   ParamType = "boolean"
	// TypeIdentifier accepts a positive integer or a string surface form
	// ("that post") that the orchestrator resolves through session context.
	TypeIdentifier ParamType = "identifier"
)

// ParamSpec describes one argument slot in a tool's schema.
type ParamSpec struct {
	Type     ParamType
	Required bool
}

// ToolSpec describes one invocable tool: its stable name, argument schema and
// the adapter that executes it. EntityKind names the kind of entity its
// identifier argument refers to ("post", "user"); IDParam names that argument.
// AuthScope is reserved for a future access-control layer and is not enforced.
type ToolSpec struct {
	Name        string
	Description string
	Params      map[string]ParamSpec
	EntityKind  string
	IDParam     string
	AuthScope   string
	Adapter     adapter.Fetcher
}

// DuplicateToolError is returned by Register when the name is already taken.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

// UnknownToolError is returned by Lookup for names absent from the catalogue.
// Lookup is case-sensitive; a case-mismatched name is as unknown as an
// invented one.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// Registry maps tool names to their specs.
type Registry struct {
	specs  map[string]ToolSpec
	sealed bool
}

func New() *Registry {
	return &Registry{specs: make(map[string]ToolSpec)}
}

// Register adds a tool to the catalogue. It fails on duplicate names and
// panics if called after Seal — registration is a startup-only activity.
func (r *Registry) Register(spec ToolSpec) error {
	if r.sealed {
		panic("registry: Register after Seal")
	}
	if _, ok := r.specs[spec.Name]; ok {
		return &DuplicateToolError{Name: spec.Name}
	}
	r.specs[spec.Name] = spec
	return nil
}

// Seal freezes the catalogue. All reads after Seal are lock-free and safe
// for concurrent use.
func (r *Registry) Seal() {
	r.sealed = true
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (ToolSpec, error) {
	spec, ok := r.specs[name]
	if !ok {
		return ToolSpec{}, &UnknownToolError{Name: name}
	}
	return spec, nil
}

// SchemaFor returns the argument schema registered under name.
func (r *Registry) SchemaFor(name string) (map[string]ParamSpec, error) {
	spec, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return spec.Params, nil
}

// Specs returns all registered specs sorted by name, for prompt building.
func (r *Registry) Specs() []ToolSpec {
	out := make([]ToolSpec, 0, len(r.specs))
	for _, spec := range r.specs {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
