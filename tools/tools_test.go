package tools

import (
	"context"
	"testing"
)

// fakeTool is a scriptable tool for dispatcher and validation tests.
type fakeTool struct {
	name string
	args []Argument
	fn   func(ctx context.Context, actx *Context, args Args) (string, error)
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "fake tool for tests" }
func (f *fakeTool) Args() []Argument    { return f.args }

func (f *fakeTool) Execute(ctx context.Context, actx *Context, args Args) (string, error) {
	return f.fn(ctx, actx, args)
}

func TestIsCommandAllowed(t *testing.T) {
	allowed := []string{"^ls( .*)?$", "^go (build|test)( .*)?$", "make["} // last one is invalid regex

	cases := []struct {
		command string
		want    bool
	}{
		{"ls", true},
		{"ls -la", true},
		{"go test ./...", true},
		{"go run main.go", false},
		{"rm -rf /", false},
		{"make[", true}, // invalid regex falls back to literal match
		{"", false},
		{"   ", false},
	}
	for _, c := range cases {
		if got := isCommandAllowed(c.command, allowed); got != c.want {
			t.Errorf("isCommandAllowed(%q) = %v, want %v", c.command, got, c.want)
		}
	}
}

func TestIsPathRestricted(t *testing.T) {
	patterns := []string{".env", "secrets/**", "**/*.pem"}

	cases := []struct {
		path string
		want bool
	}{
		{".env", true},
		{"secrets/db/password.txt", true},
		{"certs/server.pem", true},
		{"main.go", false},
		{"internal/env.go", false},
	}
	for _, c := range cases {
		got, err := isPathRestricted(c.path, patterns)
		if err != nil {
			t.Fatalf("isPathRestricted(%q) failed: %v", c.path, err)
		}
		if got != c.want {
			t.Errorf("isPathRestricted(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestIsPathRestrictedBadPattern(t *testing.T) {
	if _, err := isPathRestricted("x", []string{"[bad"}); err == nil {
		t.Error("Expected an error for an invalid glob pattern")
	}
}

func TestArgsAccessors(t *testing.T) {
	args := Args{
		"file":       "main.go",
		"start_line": float64(10), // JSON numbers decode as float64
		"recursive":  true,
	}

	if s, err := args.String("file"); err != nil || s != "main.go" {
		t.Errorf("String(file) = %q, %v", s, err)
	}
	if _, err := args.String("missing"); err == nil {
		t.Error("Expected an error for a missing string argument")
	}
	if _, err := args.String("recursive"); err == nil {
		t.Error("Expected an error for a type mismatch")
	}
	if n, err := args.Int("start_line"); err != nil || n != 10 {
		t.Errorf("Int(start_line) = %d, %v", n, err)
	}
	if b, err := args.Bool("recursive"); err != nil || !b {
		t.Errorf("Bool(recursive) = %v, %v", b, err)
	}
	if got := args.StringOr("missing", "fallback"); got != "fallback" {
		t.Errorf("StringOr default = %q", got)
	}
	if got := args.IntOr("missing", 7); got != 7 {
		t.Errorf("IntOr default = %d", got)
	}
}

func TestContextChild(t *testing.T) {
	root := &Context{Depth: 0, MaxDepth: 2}

	c1, err := root.Child()
	if err != nil {
		t.Fatalf("First Child failed: %v", err)
	}
	c2, err := c1.Child()
	if err != nil {
		t.Fatalf("Second Child failed: %v", err)
	}
	if c2.Depth != 2 {
		t.Errorf("Expected depth 2, got %d", c2.Depth)
	}
	if _, err := c2.Child(); err != ErrNestingTooDeep {
		t.Errorf("Expected ErrNestingTooDeep, got %v", err)
	}
}
