package models

import "encoding/json"

// AskRequest for POST /api/v1/ask. SessionID may be empty on the first turn;
// the handler mints one and echoes it back.
type AskRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Query     string `json:"query"`
}

// ToolCallRequest for POST /api/v1/tool-call — the direct-invocation path
// that bypasses natural-language routing.
type ToolCallRequest struct {
	Tool string                     `json:"tool"`
	Args map[string]json.RawMessage `json:"args"`
}
