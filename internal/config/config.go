// Package config implements the YAML-backed configuration tree of §6:
// a key/value tree read once at startup, exposed through typed
// accessors mirroring the original property-tree's get(key, default)
// shape.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tree is a parsed configuration document navigable by dotted key paths,
// e.g. "device0.options.baud_rate".
type Tree struct {
	data map[string]any
}

// Load reads and parses the YAML document at path.
func Load(path string) (*Tree, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &Tree{data: normalize(data)}, nil
}

// normalize recursively converts yaml.v3's map[string]interface{} nodes
// (which may come back as map[string]interface{} already, but nested
// maps under `any` need the same treatment) into a consistent shape.
func normalize(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalize(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[fmt.Sprintf("%v", k)] = normalizeValue(vv)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = normalizeValue(vv)
		}
		return out
	default:
		return v
	}
}

// lookup walks a dotted key path, returning the value and whether every
// segment resolved.
func (t *Tree) lookup(key string) (any, bool) {
	if t == nil {
		return nil, false
	}
	parts := strings.Split(key, ".")
	var cur any = t.data
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[p]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// GetString returns the string at key, or def if absent. A non-string
// value is returned in its %v formatting.
func (t *Tree) GetString(key, def string) string {
	v, ok := t.lookup(key)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return s
}

// GetBool returns the bool at key, or def if absent or unparseable.
func (t *Tree) GetBool(key string, def bool) bool {
	v, ok := t.lookup(key)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// GetInt returns the int at key, or def if absent or unparseable.
func (t *Tree) GetInt(key string, def int) int {
	v, ok := t.lookup(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// GetFloat returns the float64 at key, or def if absent or unparseable.
func (t *Tree) GetFloat(key string, def float64) float64 {
	v, ok := t.lookup(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// Sub returns the subtree rooted at key, or an empty Tree if absent.
func (t *Tree) Sub(key string) *Tree {
	v, ok := t.lookup(key)
	if !ok {
		return &Tree{data: map[string]any{}}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return &Tree{data: map[string]any{}}
	}
	return &Tree{data: m}
}

// Keys returns the top-level keys of this subtree.
func (t *Tree) Keys() []string {
	out := make([]string, 0, len(t.data))
	for k := range t.data {
		out = append(out, k)
	}
	return out
}
