// Package security holds the audit trail for agent activity. Queries are
// logged as hashes so the trail never stores user text verbatim.
package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

// AuditLogger records one structured event per completed turn or direct tool
// call. Disabled loggers are no-ops.
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// LogTurn records an orchestrated turn.
func (a *AuditLogger) LogTurn(sessionID, query, tool, status string, executionTimeMs int64) {
	if !a.enabled {
		return
	}
	log.Info().
		Str("event", "turn_audit").
		Str("session_hash", hashStr(sessionID)[:16]).
		Str("query_hash", hashStr(query)[:16]).
		Str("tool", tool).
		Str("status", status).
		Int64("execution_time_ms", executionTimeMs).
		Msg("audit")
}

// LogToolCall records a direct tool invocation that bypassed the model.
func (a *AuditLogger) LogToolCall(tool, status string, executionTimeMs int64) {
	if !a.enabled {
		return
	}
	log.Info().
		Str("event", "tool_call_audit").
		Str("tool", tool).
		Str("status", status).
		Int64("execution_time_ms", executionTimeMs).
		Msg("audit")
}

func hashStr(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
