package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pavel-shyrko/MCP-Server/internal/models"
	"github.com/pavel-shyrko/MCP-Server/internal/session"
	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

// HealthHandler handles GET /health with dependency checks. Checks run
// concurrently under a short timeout so a slow upstream cannot stall the
// probe.
type HealthHandler struct {
	store       session.Store
	upstreamURL string
	llmProvider string
	client      *http.Client
}

func NewHealthHandler(store session.Store, upstreamURL, llmProvider string) *HealthHandler {
	return &HealthHandler{
		store:       store,
		upstreamURL: upstreamURL,
		llmProvider: llmProvider,
		client:      &http.Client{Timeout: 5 * time.Second},
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	checks := map[string]string{
		"server":       "ok",
		"llm_provider": h.llmProvider,
	}
	degraded := false
	record := func(name, status string, bad bool) {
		mu.Lock()
		defer mu.Unlock()
		checks[name] = status
		if bad {
			degraded = true
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := h.store.Ping(gctx); err != nil {
			record("session_store", "unavailable: "+err.Error(), true)
		} else {
			record("session_store", "ok", false)
		}
		return nil
	})
	g.Go(func() error {
		req, err := http.NewRequestWithContext(gctx, http.MethodHead, h.upstreamURL, nil)
		if err != nil {
			record("upstream", "unavailable: "+err.Error(), true)
			return nil
		}
		resp, err := h.client.Do(req)
		if err != nil {
			record("upstream", "unavailable: "+err.Error(), true)
			return nil
		}
		resp.Body.Close()
		record("upstream", "ok", false)
		return nil
	})
	g.Wait()

	status := "healthy"
	code := http.StatusOK
	if degraded {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	models.WriteJSON(w, code, models.HealthResponse{
		Status:  status,
		Version: version,
		Checks:  checks,
	})
}
