package settings

import "strings"

// Tree is a parsed settings document. Nested sections are map[string]any and
// are addressed with dotted paths such as "database.pool.max-open".
type Tree map[string]any

// Get returns the value at path.
func (t Tree) Get(path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur map[string]any = t
	for i, p := range parts {
		v, ok := cur[p]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		if cur, ok = section(v); !ok {
			return nil, false
		}
	}
	return nil, false
}

// Set stores v at path, creating or replacing intermediate sections.
func (t Tree) Set(path string, v any) {
	parts := strings.Split(path, ".")
	var cur map[string]any = t
	for _, p := range parts[:len(parts)-1] {
		next, ok := section(cur[p])
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}

// Delete removes the value at path and reports whether it existed.
func (t Tree) Delete(path string) bool {
	parts := strings.Split(path, ".")
	var cur map[string]any = t
	for _, p := range parts[:len(parts)-1] {
		next, ok := section(cur[p])
		if !ok {
			return false
		}
		cur = next
	}
	last := parts[len(parts)-1]
	if _, ok := cur[last]; !ok {
		return false
	}
	delete(cur, last)
	return true
}

// Rename moves the value at from to to. It reports false when from is absent.
func (t Tree) Rename(from, to string) bool {
	v, ok := t.Get(from)
	if !ok {
		return false
	}
	t.Delete(from)
	t.Set(to, v)
	return true
}

// Clone returns a deep copy of t.
func (t Tree) Clone() Tree {
	return Tree(cloneMap(t))
}

func section(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Tree:
		return m, true
	}
	return nil, false
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case Tree:
		return cloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
