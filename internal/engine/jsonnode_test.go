package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, raw string) Node {
	t.Helper()
	n, err := ParseNode([]byte(raw))
	require.NoError(t, err)
	return n
}

func TestNodeGet(t *testing.T) {
	n := parse(t, `{"a":{"b":[{"c":"found"},{"c":"second"}]},"n":42}`)

	if got := n.Get("a", "b", 0, "c").Str(); got != "found" {
		t.Errorf("Get path = %q, want %q", got, "found")
	}
	if got := n.Get("a", "b", -1, "c").Str(); got != "second" {
		t.Errorf("negative index = %q, want %q", got, "second")
	}
	if got := n.Get("n").Int64(); got != 42 {
		t.Errorf("Int64 = %d, want 42", got)
	}
	if n.Get("missing", "deeper", 5).Exists() {
		t.Error("missing path should not exist")
	}
	if got := n.Get("missing").StrOr("default"); got != "default" {
		t.Errorf("StrOr = %q", got)
	}
}

func TestNodeSimpleText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare string", `"hello"`, "hello"},
		{"simpleText", `{"simpleText":"hi"}`, "hi"},
		{"runs", `{"runs":[{"text":"a"},{"text":"b"}]}`, "ab"},
		{"empty object", `{}`, ""},
		{"null", `null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parse(t, tt.raw).SimpleText(); got != tt.want {
				t.Errorf("SimpleText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindKey(t *testing.T) {
	n := parse(t, `{"outer":[{"x":1},{"wrap":{"videoRenderer":{"videoId":"abc123xyz00"}}}]}`)
	found := n.FindKey("videoRenderer")
	if !found.Exists() {
		t.Fatal("videoRenderer not found")
	}
	if got := found.Get("videoId").Str(); got != "abc123xyz00" {
		t.Errorf("videoId = %q", got)
	}
	if n.FindKey("absent").Exists() {
		t.Error("absent key reported as found")
	}
}

func TestFindAll(t *testing.T) {
	n := parse(t, `{"a":{"token":"t1"},"b":[{"token":"t2"},{"c":{"token":"t3"}}]}`)
	got := n.FindAll("token")
	if len(got) != 3 {
		t.Fatalf("FindAll returned %d nodes, want 3", len(got))
	}
}

func TestSearchNumberNear(t *testing.T) {
	n := parse(t, `{"a":"irrelevant","b":{"c":"12,345 likes on this"}}`)
	if got := n.SearchNumberNear("like", "likes"); got != "12345" {
		t.Errorf("SearchNumberNear = %q, want 12345", got)
	}
	if got := n.SearchNumberNear("comment"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestNodeInt64Coercion(t *testing.T) {
	n := parse(t, `{"s":"1234","f":56.9,"bad":"12x34"}`)
	if got := n.Get("s").Int64(); got != 1234 {
		t.Errorf("string coercion = %d", got)
	}
	if got := n.Get("f").Int64(); got != 56 {
		t.Errorf("float coercion = %d", got)
	}
	if got := n.Get("bad").Int64(); got != 12 {
		t.Errorf("partial coercion = %d", got)
	}
}
