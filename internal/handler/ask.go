package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/pavel-shyrko/MCP-Server/internal/agent"
	"github.com/pavel-shyrko/MCP-Server/internal/models"
)

// AskHandler handles POST /api/v1/ask — one natural-language turn.
type AskHandler struct {
	orch *agent.Orchestrator
}

func NewAskHandler(orch *agent.Orchestrator) *AskHandler {
	return &AskHandler{orch: orch}
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		models.WriteError(w, http.StatusBadRequest, "query is required")
		return
	}
	// First turn of a conversation: mint the session id and echo it back so
	// the caller can thread follow-up turns through the same context.
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	turn, err := h.orch.HandleTurn(r.Context(), req.SessionID, req.Query)
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	models.WriteJSON(w, http.StatusOK, models.AskResponse{
		SessionID: req.SessionID,
		Turn:      *turn,
	})
}
