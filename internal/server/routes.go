package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pavel-shyrko/MCP-Server/internal/adapter"
	"github.com/pavel-shyrko/MCP-Server/internal/agent"
	"github.com/pavel-shyrko/MCP-Server/internal/handler"
	"github.com/pavel-shyrko/MCP-Server/internal/llm"
	"github.com/pavel-shyrko/MCP-Server/internal/middleware"
	"github.com/pavel-shyrko/MCP-Server/internal/registry"
	"github.com/pavel-shyrko/MCP-Server/internal/security"
	"github.com/pavel-shyrko/MCP-Server/internal/session"
	"github.com/rs/zerolog/log"
)

// setupRoutes returns (router, store, error) so the session store can be
// closed on shutdown.
func (s *Server) setupRoutes() (http.Handler, session.Store, error) {
	cfg := s.cfg
	ctx := context.Background()

	// ─── Session store ──────────────────────────────────────────────────────────
	var store session.Store
	if cfg.PostgresDSN != "" {
		pgStore, err := session.NewPGStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres session store: %w", err)
		}
		store = pgStore
	} else {
		store = session.NewMemoryStore()
		log.Info().Msg("using in-memory session store")
	}

	// ─── Model backend ──────────────────────────────────────────────────────────
	var client llm.Client
	switch cfg.LLMProvider {
	case "ollama":
		ollamaClient, err := llm.NewOllamaClient(cfg.OllamaHost, cfg.OllamaModel)
		if err != nil {
			return nil, nil, fmt.Errorf("ollama client: %w", err)
		}
		client = ollamaClient
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Warn().Msg("ANTHROPIC_API_KEY not set - model calls will fail")
		}
		client = llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL)
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}

	// ─── Tool catalogue ─────────────────────────────────────────────────────────
	adapterTimeout := time.Duration(cfg.AdapterTimeout) * time.Second
	reg, err := buildRegistry(cfg.JSONPlaceholderBaseURL, adapterTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("build registry: %w", err)
	}

	log.Info().
		Str("llm_provider", client.Name()).
		Bool("postgres_sessions", cfg.PostgresDSN != "").
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Int("tools", len(reg.Specs())).
		Msg("service configuration")

	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - all API requests will be rejected")
	}

	// ─── Orchestrator ───────────────────────────────────────────────────────────
	audit := security.NewAuditLogger(cfg.EnableAuditLogging)
	orch := agent.New(client, reg, store, audit,
		time.Duration(cfg.ModelTimeout)*time.Second, adapterTimeout)

	// ─── Handlers ───────────────────────────────────────────────────────────────
	healthH := handler.NewHealthHandler(store, cfg.JSONPlaceholderBaseURL, client.Name())
	askH := handler.NewAskHandler(orch)
	toolH := handler.NewToolHandler(orch, audit)

	// ─── Router ─────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)

	apiMiddleware := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitPerMinute),
	}
	if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Post("/ask", askH.Ask)
			r.Post("/tool-call", toolH.ToolCall)
		})
	})

	return r, store, nil
}

// buildRegistry registers the JSONPlaceholder tool catalogue and seals it.
func buildRegistry(baseURL string, timeout time.Duration) (*registry.Registry, error) {
	reg := registry.New()

	specs := []registry.ToolSpec{
		{
			Name:        adapter.ToolPostCall,
			Description: "Fetch a post.",
			Params: map[string]registry.ParamSpec{
				"post_id": {Type: registry.TypeIdentifier, Required: true},
			},
			EntityKind: "post",
			IDParam:    "post_id",
			Adapter:    adapter.NewPostAdapter(baseURL, timeout),
		},
		{
			Name:        adapter.ToolCommentsCall,
			Description: "Fetch comments for a post.",
			Params: map[string]registry.ParamSpec{
				"post_id": {Type: registry.TypeIdentifier, Required: true},
			},
			EntityKind: "post",
			IDParam:    "post_id",
			Adapter:    adapter.NewCommentsAdapter(baseURL, timeout),
		},
		{
			Name:        adapter.ToolUserCall,
			Description: "Fetch a user profile.",
			Params: map[string]registry.ParamSpec{
				"user_id": {Type: registry.TypeIdentifier, Required: true},
			},
			EntityKind: "user",
			IDParam:    "user_id",
			Adapter:    adapter.NewUserAdapter(baseURL, timeout),
		},
	}

	for _, spec := range specs {
		if err := reg.Register(spec); err != nil {
			return nil, err
		}
	}
	reg.Seal()
	return reg, nil
}
