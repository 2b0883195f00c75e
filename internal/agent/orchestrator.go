// Package agent implements the per-turn orchestration state machine: rewrite
// anaphora, prompt the model, parse its output, dispatch at most one adapter
// and phrase the final answer.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pavel-shyrko/MCP-Server/internal/adapter"
	"github.com/pavel-shyrko/MCP-Server/internal/llm"
	"github.com/pavel-shyrko/MCP-Server/internal/parser"
	"github.com/pavel-shyrko/MCP-Server/internal/registry"
	"github.com/pavel-shyrko/MCP-Server/internal/security"
	"github.com/pavel-shyrko/MCP-Server/internal/session"
	"github.com/rs/zerolog/log"
)

// State names one step of a turn. A turn moves strictly forward; ERROR is
// absorbing and reachable from every step.
type State string

const (
	StateAwaitingQuery      State = "AWAITING_QUERY"
	StatePromptingModel     State = "PROMPTING_MODEL"
	StateParsingOutput      State = "PARSING_OUTPUT"
	StateDispatchingTool    State = "DISPATCHING_TOOL"
	StateSynthesizingAnswer State = "SYNTHESIZING_ANSWER"
	StateDone               State = "DONE"
	StateError              State = "ERROR"
)

// TurnResult is the terminal artifact of one orchestration cycle. Never
// mutated after construction.
type TurnResult struct {
	Status     string             `json:"status"` // "success" | "error"
	State      State              `json:"state"`
	FinalText  string             `json:"final_text"`
	Invocation *parser.Invocation `json:"invocation,omitempty"`
	ToolResult *adapter.Result    `json:"tool_result,omitempty"`
}

// Orchestrator coordinates one turn at a time. It holds no per-session state
// itself: conversation context is threaded in and out through the store.
type Orchestrator struct {
	llm            llm.Client
	reg            *registry.Registry
	store          session.Store
	audit          *security.AuditLogger
	modelTimeout   time.Duration
	adapterTimeout time.Duration
}

func New(
	client llm.Client,
	reg *registry.Registry,
	store session.Store,
	audit *security.AuditLogger,
	modelTimeout, adapterTimeout time.Duration,
) *Orchestrator {
	return &Orchestrator{
		llm:            client,
		reg:            reg,
		store:          store,
		audit:          audit,
		modelTimeout:   modelTimeout,
		adapterTimeout: adapterTimeout,
	}
}

// HandleTurn runs one query-to-answer cycle for a session. Turns of the same
// session are serialized by the store; the context snapshot a turn works on
// is committed only when the turn reaches its terminal ok result, so a failed
// turn leaves the session exactly as it found it.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, query string) (*TurnResult, error) {
	start := time.Now()
	var result *TurnResult

	err := o.store.Update(ctx, sessionID, func(conv session.Context) (session.Context, error) {
		result = o.runTurn(ctx, &conv, query)
		return conv, nil
	})
	if err != nil {
		return nil, fmt.Errorf("session update: %w", err)
	}

	toolName := ""
	if result.Invocation != nil {
		toolName = result.Invocation.ToolName
	}
	o.audit.LogTurn(sessionID, query, toolName, result.Status, time.Since(start).Milliseconds())
	return result, nil
}

// runTurn drives the state machine. It mutates conv only on the terminal ok
// path — everything before that works on the snapshot without touching it.
func (o *Orchestrator) runTurn(ctx context.Context, conv *session.Context, query string) *TurnResult {
	// AWAITING_QUERY → PROMPTING_MODEL: rewrite anaphora, build the prompt
	rewritten := conv.Rewrite(query)
	if rewritten != query {
		log.Debug().Str("session", conv.SessionID).Str("rewritten", rewritten).Msg("anaphora rewritten")
	}

	raw, err := o.complete(ctx, SystemPrompt(o.reg), rewritten)
	if err != nil {
		log.Warn().Err(err).Str("session", conv.SessionID).Msg("model call failed")
		return errorTurn("The language model is unreachable right now. Please try again.")
	}

	// PROMPTING_MODEL → PARSING_OUTPUT
	inv, err := parser.Parse(raw, o.reg)
	if errors.Is(err, parser.ErrNoInvocation) {
		// PARSING_OUTPUT → SYNTHESIZING_ANSWER: direct natural-language answer
		return &TurnResult{Status: "success", State: StateDone, FinalText: strings.TrimSpace(raw)}
	}
	if err != nil {
		log.Warn().Err(err).Str("session", conv.SessionID).Str("state", string(StateParsingOutput)).Msg("invocation rejected")
		return errorTurn(parseFailureMessage(err))
	}

	// PARSING_OUTPUT → DISPATCHING_TOOL: the name is resolved again at
	// dispatch time, and identifier arguments go through the session context.
	spec, err := o.reg.Lookup(inv.ToolName)
	if err != nil {
		return errorTurn(parseFailureMessage(err))
	}

	id, err := o.resolveIdentifier(spec, inv, *conv)
	if err != nil {
		var noRef *session.NoPriorReferenceError
		if errors.As(err, &noRef) {
			return errorTurn(fmt.Sprintf("I don't know which %s you mean yet — please give an explicit id.", noRef.Kind))
		}
		return errorTurn(parseFailureMessage(err))
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, o.adapterTimeout)
	defer cancel()
	res := spec.Adapter.Fetch(dispatchCtx, id)

	log.Info().
		Str("session", conv.SessionID).
		Str("tool", spec.Name).
		Int("id", id).
		Str("result", string(res.Status)).
		Msg("tool dispatched")

	// DISPATCHING_TOOL → SYNTHESIZING_ANSWER
	switch res.Status {
	case adapter.StatusOK:
		phrased, err := o.complete(ctx, "", synthesisPrompt(query, res))
		if err != nil {
			log.Warn().Err(err).Str("session", conv.SessionID).Msg("synthesis call failed")
			return errorTurn("The language model is unreachable right now. Please try again.")
		}
		// Terminal ok: this is the only place the snapshot is mutated.
		conv.Record(spec.EntityKind, id)
		conv.TurnCount++
		return &TurnResult{
			Status:     "success",
			State:      StateDone,
			FinalText:  strings.TrimSpace(phrased),
			Invocation: inv,
			ToolResult: &res,
		}
	case adapter.StatusNotFound:
		return &TurnResult{
			Status:     "success",
			State:      StateDone,
			FinalText:  fmt.Sprintf("No %s found with id %d.", spec.EntityKind, id),
			Invocation: inv,
			ToolResult: &res,
		}
	default:
		return &TurnResult{
			Status:     "success",
			State:      StateDone,
			FinalText:  fmt.Sprintf("The %s lookup failed: %s. Please try again later.", spec.EntityKind, res.RawError),
			Invocation: inv,
			ToolResult: &res,
		}
	}
}

// InvokeTool is the direct-invocation path for callers that already know
// which tool they want. It bypasses the model and the session entirely but
// runs the exact same schema validation as the parser.
func (o *Orchestrator) InvokeTool(ctx context.Context, toolName string, args map[string]json.RawMessage) (adapter.Result, error) {
	spec, err := o.reg.Lookup(toolName)
	if err != nil {
		return adapter.Result{}, err
	}
	validated, err := parser.ValidateArgs(spec, args)
	if err != nil {
		return adapter.Result{}, err
	}

	id, ok := validated[spec.IDParam].(int)
	if !ok {
		// No session on this path, so anaphoric surface forms cannot resolve.
		return adapter.Result{}, &parser.ArgumentTypeError{Key: spec.IDParam, Want: registry.TypeInt}
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, o.adapterTimeout)
	defer cancel()
	res := spec.Adapter.Fetch(dispatchCtx, id)
	log.Info().Str("tool", toolName).Int("id", id).Str("result", string(res.Status)).Msg("direct tool call")
	return res, nil
}

func (o *Orchestrator) complete(ctx context.Context, system, prompt string) (string, error) {
	mctx, cancel := context.WithTimeout(ctx, o.modelTimeout)
	defer cancel()
	return o.llm.Complete(mctx, system, prompt)
}

// resolveIdentifier extracts the tool's identifier argument, resolving string
// surface forms ("that post") through the session context.
func (o *Orchestrator) resolveIdentifier(spec registry.ToolSpec, inv *parser.Invocation, conv session.Context) (int, error) {
	val, ok := inv.Args[spec.IDParam]
	if !ok {
		return 0, &parser.MissingArgumentError{Key: spec.IDParam}
	}
	switch v := val.(type) {
	case int:
		return v, nil
	case string:
		return conv.ResolveReference(spec.EntityKind, v)
	default:
		return 0, &parser.ArgumentTypeError{Key: spec.IDParam, Want: registry.TypeIdentifier}
	}
}

func errorTurn(message string) *TurnResult {
	return &TurnResult{Status: "error", State: StateError, FinalText: message}
}

// parseFailureMessage maps a parser or registry error to the single
// user-visible message that ends the turn.
func parseFailureMessage(err error) string {
	var (
		ambiguous *parser.AmbiguousOutputError
		malformed *parser.MalformedInvocationError
		unknown   *registry.UnknownToolError
		badType   *parser.ArgumentTypeError
		missing   *parser.MissingArgumentError
	)
	switch {
	case errors.As(err, &ambiguous):
		return "The model produced an ambiguous tool request. Please rephrase your question."
	case errors.As(err, &malformed):
		return "The model produced a malformed tool request. Please rephrase your question."
	case errors.As(err, &unknown):
		return fmt.Sprintf("The model asked for a tool %q that does not exist. Please rephrase your question.", unknown.Name)
	case errors.As(err, &badType):
		return fmt.Sprintf("The model supplied an invalid value for %q. Please rephrase your question.", badType.Key)
	case errors.As(err, &missing):
		return fmt.Sprintf("The model omitted the required argument %q. Please rephrase your question.", missing.Key)
	default:
		return "The request could not be processed. Please try again."
	}
}
