package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pavel-shyrko/MCP-Server/internal/adapter"
	"github.com/pavel-shyrko/MCP-Server/internal/registry"
)

type nopFetcher struct{}

func (nopFetcher) Fetch(ctx context.Context, id int) adapter.Result {
	return adapter.Result{Status: adapter.StatusOK}
}

func postSpec() registry.ToolSpec {
	return registry.ToolSpec{
		Name:        "post_call",
		Description: "Fetch a post.",
		Params: map[string]registry.ParamSpec{
			"post_id": {Type: registry.TypeIdentifier, Required: true},
		},
		EntityKind: "post",
		IDParam:    "post_id",
		Adapter:    nopFetcher{},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	reg := registry.New()
	spec := postSpec()
	if err := reg.Register(spec); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg.Seal()

	got, err := reg.Lookup("post_call")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Name != spec.Name || got.EntityKind != spec.EntityKind || got.IDParam != spec.IDParam {
		t.Errorf("lookup returned a different spec: %+v", got)
	}
}

func TestRegisterDuplicateFails(t *testing.T) {
	reg := registry.New()
	if err := reg.Register(postSpec()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := reg.Register(postSpec())
	var dup *registry.DuplicateToolError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateToolError, got %v", err)
	}
	if dup.Name != "post_call" {
		t.Errorf("name = %q, want post_call", dup.Name)
	}
}

func TestLookupUnknown(t *testing.T) {
	reg := registry.New()
	reg.Seal()

	_, err := reg.Lookup("delete_everything")
	var unknown *registry.UnknownToolError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownToolError, got %v", err)
	}
}

func TestSchemaFor(t *testing.T) {
	reg := registry.New()
	if err := reg.Register(postSpec()); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg.Seal()

	schema, err := reg.SchemaFor("post_call")
	if err != nil {
		t.Fatalf("schema_for: %v", err)
	}
	param, ok := schema["post_id"]
	if !ok {
		t.Fatal("schema missing post_id")
	}
	if param.Type != registry.TypeIdentifier || !param.Required {
		t.Errorf("post_id = %+v, want required identifier", param)
	}

	if _, err := reg.SchemaFor("nope"); err == nil {
		t.Error("schema_for unknown tool should fail")
	}
}

func TestSpecsSortedByName(t *testing.T) {
	reg := registry.New()
	for _, name := range []string{"zeta_call", "alpha_call", "mid_call"} {
		spec := postSpec()
		spec.Name = name
		if err := reg.Register(spec); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	reg.Seal()

	specs := reg.Specs()
	want := []string{"alpha_call", "mid_call", "zeta_call"}
	if len(specs) != len(want) {
		t.Fatalf("got %d specs, want %d", len(specs), len(want))
	}
	for i, name := range want {
		if specs[i].Name != name {
			t.Errorf("specs[%d] = %q, want %q", i, specs[i].Name, name)
		}
	}
}

func TestConcurrentLookupAfterSeal(t *testing.T) {
	reg := registry.New()
	if err := reg.Register(postSpec()); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg.Seal()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				if _, err := reg.Lookup("post_call"); err != nil {
					t.Errorf("lookup: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
