package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pavel-shyrko/MCP-Server/internal/adapter"
	"github.com/pavel-shyrko/MCP-Server/internal/agent"
	"github.com/pavel-shyrko/MCP-Server/internal/handler"
	"github.com/pavel-shyrko/MCP-Server/internal/models"
	"github.com/pavel-shyrko/MCP-Server/internal/registry"
	"github.com/pavel-shyrko/MCP-Server/internal/security"
	"github.com/pavel-shyrko/MCP-Server/internal/session"
)

type staticLLM struct {
	response string
}

func (f *staticLLM) Name() string { return "static" }

func (f *staticLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	return f.response, nil
}

type staticFetcher struct {
	result adapter.Result
}

func (f *staticFetcher) Fetch(ctx context.Context, id int) adapter.Result {
	return f.result
}

func newOrchestrator(t *testing.T, model *staticLLM, res adapter.Result) *agent.Orchestrator {
	t.Helper()
	reg := registry.New()
	err := reg.Register(registry.ToolSpec{
		Name:        adapter.ToolPostCall,
		Description: "Fetch a post.",
		Params:      map[string]registry.ParamSpec{"post_id": {Type: registry.TypeIdentifier, Required: true}},
		EntityKind:  "post",
		IDParam:     "post_id",
		Adapter:     &staticFetcher{result: res},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	reg.Seal()

	store := session.NewMemoryStore()
	t.Cleanup(store.Close)
	return agent.New(model, reg, store, security.NewAuditLogger(false), time.Second, time.Second)
}

func TestAskMintsSessionID(t *testing.T) {
	orch := newOrchestrator(t, &staticLLM{response: "Plain answer."}, adapter.Result{})
	h := handler.NewAskHandler(orch)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask",
		strings.NewReader(`{"query":"hello"}`))
	rr := httptest.NewRecorder()
	h.Ask(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp models.AskResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("a fresh session id should be minted and echoed back")
	}
	if resp.Turn.FinalText != "Plain answer." {
		t.Errorf("final text = %q", resp.Turn.FinalText)
	}
}

func TestAskRejectsEmptyQuery(t *testing.T) {
	orch := newOrchestrator(t, &staticLLM{}, adapter.Result{})
	h := handler.NewAskHandler(orch)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.Ask(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestToolCallDirect(t *testing.T) {
	res := adapter.Result{
		ToolName: adapter.ToolPostCall,
		Status:   adapter.StatusOK,
		Payload:  json.RawMessage(`{"id":2}`),
	}
	orch := newOrchestrator(t, &staticLLM{}, res)
	h := handler.NewToolHandler(orch, security.NewAuditLogger(false))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tool-call",
		strings.NewReader(`{"tool":"post_call","args":{"post_id":2}}`))
	rr := httptest.NewRecorder()
	h.ToolCall(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp models.ToolCallResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Result.Status != adapter.StatusOK {
		t.Errorf("result status = %s, want ok", resp.Result.Status)
	}
}

func TestToolCallUnknownToolIs404(t *testing.T) {
	orch := newOrchestrator(t, &staticLLM{}, adapter.Result{})
	h := handler.NewToolHandler(orch, security.NewAuditLogger(false))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tool-call",
		strings.NewReader(`{"tool":"delete_everything","args":{}}`))
	rr := httptest.NewRecorder()
	h.ToolCall(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestHealthReportsChecks(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	store := session.NewMemoryStore()
	t.Cleanup(store.Close)
	h := handler.NewHealthHandler(store, upstream.URL, "anthropic")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.Health(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if resp.Checks["session_store"] != "ok" || resp.Checks["upstream"] != "ok" {
		t.Errorf("checks = %v, want session_store and upstream ok", resp.Checks)
	}
	// The model provider is reported, not probed.
	if resp.Checks["llm_provider"] != "anthropic" {
		t.Errorf("llm_provider = %q, want anthropic", resp.Checks["llm_provider"])
	}
}

func TestToolCallBadArgsIs400(t *testing.T) {
	orch := newOrchestrator(t, &staticLLM{}, adapter.Result{})
	h := handler.NewToolHandler(orch, security.NewAuditLogger(false))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tool-call",
		strings.NewReader(`{"tool":"post_call","args":{}}`))
	rr := httptest.NewRecorder()
	h.ToolCall(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}
