package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pavel-shyrko/MCP-Server/internal/agent"
	"github.com/pavel-shyrko/MCP-Server/internal/models"
	"github.com/pavel-shyrko/MCP-Server/internal/registry"
	"github.com/pavel-shyrko/MCP-Server/internal/security"
)

// ToolHandler handles POST /api/v1/tool-call — the direct-invocation path
// for callers that already know which tool they want.
type ToolHandler struct {
	orch  *agent.Orchestrator
	audit *security.AuditLogger
}

func NewToolHandler(orch *agent.Orchestrator, audit *security.AuditLogger) *ToolHandler {
	return &ToolHandler{orch: orch, audit: audit}
}

func (h *ToolHandler) ToolCall(w http.ResponseWriter, r *http.Request) {
	var req models.ToolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Tool == "" {
		models.WriteError(w, http.StatusBadRequest, "tool is required")
		return
	}

	start := time.Now()
	result, err := h.orch.InvokeTool(r.Context(), req.Tool, req.Args)
	if err != nil {
		var unknown *registry.UnknownToolError
		if errors.As(err, &unknown) {
			models.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		// Validation failures: the caller sent a bad argument bag.
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.audit.LogToolCall(req.Tool, string(result.Status), time.Since(start).Milliseconds())

	models.WriteJSON(w, http.StatusOK, models.ToolCallResponse{
		Status: "success",
		Result: result,
	})
}
