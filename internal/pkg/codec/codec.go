// Package codec centralizes JSON encoding of the opaque sub-documents the
// Store persists (rule params, transaction metadata, audit reasoning).
// It wraps bytedance/sonic, in the style of
// internal/hivemind/service/agents/store/boltdb/agent_store.go's own
// internal pkg/utils/json shim.
package codec

import "github.com/bytedance/sonic"

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}
