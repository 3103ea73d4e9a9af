package model

import (
	"fmt"
	"sort"
	"strings"
)

// Element is one raw model element as produced by an extraction agent.
// Only id, type and parentId are guaranteed to be meaningful; every other
// key is type-specific payload that is carried through the pipeline
// untouched unless it is a known reference field.
type Element map[string]any

// ID returns the element's batch-local identifier.
func (e Element) ID() string { return e.String("id") }

// Type returns the element's vocabulary tag, e.g. "Block".
func (e Element) Type() string { return e.String("type") }

// Name returns the element's name or an empty string.
func (e Element) Name() string { return e.String("name") }

// ParentID returns the containing element's id or an empty string.
func (e Element) ParentID() string { return e.String("parentId") }

// Description returns the free-text description of the element, if any.
func (e Element) Description() string { return e.String("description") }

// String returns the field as a string. Numbers are formatted, nil and
// missing fields yield "".
func (e Element) String(field string) string {
	return stringValue(e[field])
}

// Has reports whether the field is present and non-empty. Empty strings,
// empty lists and empty objects count as absent.
func (e Element) Has(field string) bool {
	v, ok := e[field]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

// StringList returns the field as a list of non-empty strings. A single
// string value is treated as a one-element list.
func (e Element) StringList(field string) []string {
	switch t := e[field].(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s := stringValue(v); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		out := make([]string, 0, len(t))
		for _, s := range t {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	}
	return nil
}

// Object returns the field as a nested JSON object, or nil.
func (e Element) Object(field string) map[string]any {
	if m, ok := e[field].(map[string]any); ok {
		return m
	}
	return nil
}

// Set assigns a field.
func (e Element) Set(field string, v any) { e[field] = v }

// Delete removes a field.
func (e Element) Delete(field string) { delete(e, field) }

// Clone returns a deep copy of the element.
func (e Element) Clone() Element {
	if e == nil {
		return nil
	}
	return Element(cloneValue(map[string]any(e)).(map[string]any))
}

// Keys returns the element's field names in sorted order.
func (e Element) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case int, int64, int32:
		return fmt.Sprintf("%d", t)
	case bool:
		return fmt.Sprintf("%t", t)
	}
	return ""
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case Element:
		return Element(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	}
	return v
}
