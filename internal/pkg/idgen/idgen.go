// Package idgen mints entity identifiers, in the style of
// hivemind/handler/v1/chat_completions.go and
// hivemind/service/agents/domain/service/runtime/runner.go's use of
// google/uuid for run/session/message ids.
package idgen

import "github.com/google/uuid"

// New returns a fresh random identifier.
func New() string {
	return uuid.NewString()
}

// NewPrefixed returns a fresh identifier with a human-readable prefix,
// e.g. NewPrefixed("tx") -> "tx_3f29...".
func NewPrefixed(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
