package engine

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Node wraps a decoded JSON value (map[string]any / []any / scalar) and
// offers panic-free navigation. Every accessor returns a zero value on a
// missing or mistyped field; the upstream shapes are undocumented and the
// extractors are expected to degrade to defaults, not fail.
type Node struct {
	v any
}

// N wraps an already-decoded JSON value.
func N(v any) Node { return Node{v: v} }

// ParseNode decodes raw JSON into a Node.
func ParseNode(data []byte) (Node, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Node{}, err
	}
	return Node{v: v}, nil
}

// Get walks the given path. Keys may be strings (object fields) or ints
// (array indexes). A negative index counts from the end.
func (n Node) Get(path ...any) Node {
	cur := n.v
	for _, p := range path {
		switch key := p.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return Node{}
			}
			cur = m[key]
		case int:
			a, ok := cur.([]any)
			if !ok {
				return Node{}
			}
			idx := key
			if idx < 0 {
				idx += len(a)
			}
			if idx < 0 || idx >= len(a) {
				return Node{}
			}
			cur = a[idx]
		default:
			return Node{}
		}
	}
	return Node{v: cur}
}

// Exists reports whether the node holds any value.
func (n Node) Exists() bool { return n.v != nil }

// Raw returns the underlying decoded value.
func (n Node) Raw() any { return n.v }

// Str returns the string value, or "" for non-strings.
func (n Node) Str() string {
	s, _ := n.v.(string)
	return s
}

// StrOr returns the string value, or def when missing.
func (n Node) StrOr(def string) string {
	if s, ok := n.v.(string); ok {
		return s
	}
	return def
}

// Int64 coerces a JSON number (or numeric string) to int64.
func (n Node) Int64() int64 {
	switch v := n.v.(type) {
	case float64:
		return int64(v)
	case string:
		var out int64
		for _, r := range v {
			if r < '0' || r > '9' {
				return out
			}
			out = out*10 + int64(r-'0')
		}
		return out
	}
	return 0
}

// Float returns the numeric value, or 0 for non-numbers.
func (n Node) Float() float64 {
	f, _ := n.v.(float64)
	return f
}

// Bool returns the bool value, or false.
func (n Node) Bool() bool {
	b, _ := n.v.(bool)
	return b
}

// Arr returns array elements, or nil for non-arrays.
func (n Node) Arr() []Node {
	a, ok := n.v.([]any)
	if !ok {
		return nil
	}
	out := make([]Node, len(a))
	for i, v := range a {
		out[i] = Node{v: v}
	}
	return out
}

// Keys returns object field names, or nil for non-objects.
func (n Node) Keys() []string {
	m, ok := n.v.(map[string]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// SimpleText resolves YouTube's two text encodings: a bare string, a
// {"simpleText": ...} object, or a {"runs": [{"text": ...}, ...]} object.
func (n Node) SimpleText() string {
	if s, ok := n.v.(string); ok {
		return s
	}
	if st := n.Get("simpleText").Str(); st != "" {
		return st
	}
	var b strings.Builder
	for _, run := range n.Get("runs").Arr() {
		b.WriteString(run.Get("text").Str())
	}
	return b.String()
}

// FindKey depth-first searches for the first object containing key and
// returns its value.
func (n Node) FindKey(key string) Node {
	switch v := n.v.(type) {
	case map[string]any:
		if val, ok := v[key]; ok {
			return Node{v: val}
		}
		for _, child := range v {
			if found := (Node{v: child}).FindKey(key); found.Exists() {
				return found
			}
		}
	case []any:
		for _, child := range v {
			if found := (Node{v: child}).FindKey(key); found.Exists() {
				return found
			}
		}
	}
	return Node{}
}

// FindAll collects every value stored under key, anywhere in the tree.
func (n Node) FindAll(key string) []Node {
	var found []Node
	n.findAll(key, &found)
	return found
}

func (n Node) findAll(key string, out *[]Node) {
	switch v := n.v.(type) {
	case map[string]any:
		if val, ok := v[key]; ok {
			*out = append(*out, Node{v: val})
		}
		for _, child := range v {
			(Node{v: child}).findAll(key, out)
		}
	case []any:
		for _, child := range v {
			(Node{v: child}).findAll(key, out)
		}
	}
}

// AllStrings collects every string leaf in the tree.
func (n Node) AllStrings() []string {
	var out []string
	n.allStrings(&out)
	return out
}

func (n Node) allStrings(out *[]string) {
	switch v := n.v.(type) {
	case map[string]any:
		for _, child := range v {
			(Node{v: child}).allStrings(out)
		}
	case []any:
		for _, child := range v {
			(Node{v: child}).allStrings(out)
		}
	case string:
		*out = append(*out, v)
	}
}

var leadingNumberRE = regexp.MustCompile(`[\d][\d,. ]*`)

// SearchNumberNear scans every string leaf for one mentioning any of the
// given words and extracts the first number from it. Last-resort fallback
// when the structured paths move.
func (n Node) SearchNumberNear(words ...string) string {
	for _, s := range n.AllStrings() {
		sl := strings.ToLower(s)
		for _, w := range words {
			if strings.Contains(sl, w) {
				if m := leadingNumberRE.FindString(s); m != "" {
					return strings.NewReplacer(" ", "", ",", "").Replace(m)
				}
				break
			}
		}
	}
	return ""
}
