package models

import (
	"github.com/pavel-shyrko/MCP-Server/internal/adapter"
	"github.com/pavel-shyrko/MCP-Server/internal/agent"
)

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// AskResponse is returned by POST /api/v1/ask
type AskResponse struct {
	SessionID string           `json:"session_id"`
	Turn      agent.TurnResult `json:"turn"`
}

// ToolCallResponse is returned by POST /api/v1/tool-call
type ToolCallResponse struct {
	Status string         `json:"status"`
	Result adapter.Result `json:"result"`
}
