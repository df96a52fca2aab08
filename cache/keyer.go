package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Keyer generates deterministic cache keys from request payloads.
//
// Contract:
// - Determinism: semantically equal payloads must produce the same key,
//   regardless of map iteration order. Array order is significant.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key from a request payload.
	Key(payload any) (string, error)
}

// DefaultKeyer hashes the canonical JSON form of a payload.
type DefaultKeyer struct{}

func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key returns "resp:" followed by the hex SHA-256 digest of the
// payload's canonical JSON. Map keys are sorted at every nesting
// level; array order is preserved. Payloads that cannot be serialized
// (cycles, channels, funcs) are reported as errors without touching
// any store.
func (k *DefaultKeyer) Key(payload any) (string, error) {
	var buf bytes.Buffer
	enc := &canonicalizer{out: &buf, seen: make(map[uintptr]struct{})}
	if err := enc.encode(payload); err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize payload: %w", err)
	}

	digest := sha256.Sum256(buf.Bytes())
	return "resp:" + hex.EncodeToString(digest[:]), nil
}

// canonicalizer writes deterministic JSON. seen holds the data
// pointers of maps and slices on the current recursion path, so
// reference cycles surface as ErrCyclicPayload instead of recursing
// forever.
type canonicalizer struct {
	out  *bytes.Buffer
	seen map[uintptr]struct{}
}

func (c *canonicalizer) encode(v any) error {
	if v == nil {
		c.out.WriteString("null")
		return nil
	}

	switch val := v.(type) {
	case map[string]any:
		return c.guarded(reflect.ValueOf(val).Pointer(), func() error {
			return c.encodeMap(val)
		})
	case []any:
		if len(val) == 0 {
			c.out.WriteString("[]")
			return nil
		}
		return c.guarded(reflect.ValueOf(val).Pointer(), func() error {
			return c.encodeSlice(val)
		})
	default:
		// Everything else round-trips through standard JSON first, so
		// structs and typed maps normalize to the map/slice forms above.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return err
		}
		switch decoded.(type) {
		case map[string]any, []any:
			return c.encode(decoded)
		}
		c.out.Write(raw)
		return nil
	}
}

func (c *canonicalizer) guarded(ptr uintptr, encode func() error) error {
	if _, ok := c.seen[ptr]; ok {
		return ErrCyclicPayload
	}
	c.seen[ptr] = struct{}{}
	err := encode()
	delete(c.seen, ptr)
	return err
}

func (c *canonicalizer) encodeMap(m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	c.out.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			c.out.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return err
		}
		c.out.Write(keyBytes)
		c.out.WriteByte(':')
		if err := c.encode(m[k]); err != nil {
			return err
		}
	}
	c.out.WriteByte('}')
	return nil
}

func (c *canonicalizer) encodeSlice(s []any) error {
	c.out.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			c.out.WriteByte(',')
		}
		if err := c.encode(v); err != nil {
			return err
		}
	}
	c.out.WriteByte(']')
	return nil
}

var _ Keyer = (*DefaultKeyer)(nil)
