// Package session tracks conversational state across turns: which entities a
// session has already looked at, so follow-up queries like "that post" resolve
// deterministically instead of being re-asked of the model.
package session

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NoPriorReferenceError is returned when a query refers back to an entity
// kind the session has never resolved. The user is asked to be explicit.
type NoPriorReferenceError struct {
	Kind string
}

func (e *NoPriorReferenceError) Error() string {
	return fmt.Sprintf("no prior %s reference in this session", e.Kind)
}

// Context is one session's conversational memory. It is passed into and out
// of each turn explicitly; only the orchestrator mutates it, and only after a
// tool result with status ok.
type Context struct {
	SessionID    string         `json:"session_id"`
	LastEntities map[string]int `json:"last_entities"`
	TurnCount    int            `json:"turn_count"`
}

func NewContext(sessionID string) Context {
	return Context{SessionID: sessionID, LastEntities: map[string]int{}}
}

// Clone returns an independent copy, so a turn can work on a snapshot and
// commit it atomically (or throw it away on failure).
func (c Context) Clone() Context {
	entities := make(map[string]int, len(c.LastEntities))
	for k, v := range c.LastEntities {
		entities[k] = v
	}
	return Context{SessionID: c.SessionID, LastEntities: entities, TurnCount: c.TurnCount}
}

// ResolveReference maps a surface form to an identifier. An explicit numeric
// literal is returned verbatim; anything else is treated as an anaphoric
// reference ("it", "that post") and resolved against the last recorded entity
// of that kind.
func (c Context) ResolveReference(kind, surface string) (int, error) {
	s := strings.TrimSpace(surface)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	id, ok := c.LastEntities[kind]
	if !ok {
		return 0, &NoPriorReferenceError{Kind: kind}
	}
	return id, nil
}

// Record remembers the most recent identifier for an entity kind. Single
// most-recent-wins, no history stack.
func (c *Context) Record(kind string, id int) {
	if c.LastEntities == nil {
		c.LastEntities = map[string]int{}
	}
	c.LastEntities[kind] = id
}

// anaphora markers recognized inside a query, per entity kind: "that post",
// "this post", "the post", "the last post".
var anaphoraPrefixes = []string{"that", "this", "the last", "the previous", "the"}

// Rewrite replaces anaphoric phrases in a query with the explicit identifiers
// recorded in this session, so the model sees "post 2" instead of "that
// post". Kinds with no recorded entity are left alone — the parser and
// context resolution downstream still get their chance to object.
func (c Context) Rewrite(query string) string {
	out := query
	for kind, id := range c.LastEntities {
		explicit := fmt.Sprintf("%s %d", kind, id)
		for _, prefix := range anaphoraPrefixes {
			out = rewritePhrase(out, prefix+" "+kind, explicit)
		}
	}
	return out
}

// rewritePhrase replaces case-insensitive occurrences of phrase in s with
// repl. Matching is rune-by-rune on the original string; case folding can
// change byte length, so offsets from a lowered copy are never reused.
// A match inside a longer word is left alone, as is a phrase followed by an
// explicit number — "the post 5" already names its id.
func rewritePhrase(s, phrase, repl string) string {
	var sb strings.Builder
	for i := 0; i < len(s); {
		n, ok := foldMatch(s[i:], phrase)
		if !ok || !replaceableAt(s, i, n) {
			_, size := utf8.DecodeRuneInString(s[i:])
			sb.WriteString(s[i : i+size])
			i += size
			continue
		}
		sb.WriteString(repl)
		i += n
	}
	return sb.String()
}

// foldMatch reports whether s begins with a case-insensitive match of phrase,
// and the match's length in bytes of s.
func foldMatch(s, phrase string) (int, bool) {
	i := 0
	for _, pr := range phrase {
		r, size := utf8.DecodeRuneInString(s[i:])
		if size == 0 || unicode.ToLower(r) != unicode.ToLower(pr) {
			return 0, false
		}
		i += size
	}
	return i, true
}

// replaceableAt reports whether the match of n bytes at start sits on word
// boundaries and is not followed by an explicit number.
func replaceableAt(s string, start, n int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	rest := s[start+n:]
	if r, _ := utf8.DecodeRuneInString(rest); unicode.IsLetter(r) {
		return false
	}
	if r, _ := utf8.DecodeRuneInString(strings.TrimLeft(rest, " ")); unicode.IsDigit(r) {
		return false
	}
	return true
}
