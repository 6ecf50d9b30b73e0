package admin

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Root produces the value exposed under one introspection root
type Root func() any

// Introspector renders values reachable from a fixed set of roots as JSON.
// Values are serialized before traversal, so only exported data is visible
// and nothing outside the registered roots can be reached.
type Introspector struct {
	roots map[string]Root
}

// NewIntrospector creates an introspector over roots
func NewIntrospector(roots map[string]Root) *Introspector {
	return &Introspector{roots: roots}
}

// Roots returns the root names in ascending order
func (in *Introspector) Roots() []string {
	names := make([]string, 0, len(in.roots))
	for name := range in.roots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup renders the value at a dotted path such as "scores.1234.score".
// Unknown roots and missing properties render as "undefined".
func (in *Introspector) Lookup(path string) (string, error) {
	parts := strings.Split(strings.TrimSpace(path), ".")
	root, ok := in.roots[parts[0]]
	if !ok {
		return "undefined", nil
	}

	value, err := toGeneric(root())
	if err != nil {
		return "", fmt.Errorf("failed to serialize %s: %w", parts[0], err)
	}

	for _, prop := range parts[1:] {
		value, ok = descend(value, prop)
		if !ok {
			return "undefined", nil
		}
	}

	out, err := json.MarshalIndent(value, "", " ")
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", path, err)
	}
	return string(out), nil
}

func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func descend(value any, prop string) (any, bool) {
	switch v := value.(type) {
	case map[string]any:
		child, ok := v[prop]
		return child, ok
	case []any:
		i, err := strconv.Atoi(prop)
		if err != nil || i < 0 || i >= len(v) {
			return nil, false
		}
		return v[i], true
	default:
		return nil, false
	}
}
