package tools

import (
	"context"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/quillai/quill/errors"
)

// ArgType is the semantic type of a tool argument.
type ArgType string

const (
	ArgString  ArgType = "string"
	ArgInteger ArgType = "integer"
	ArgBoolean ArgType = "boolean"
	ArgEnum    ArgType = "enum"
)

// Argument describes one parameter of a tool. The same specification drives
// both the schema shown to the model and validation of incoming payloads.
type Argument struct {
	Name        string
	Description string
	Type        ArgType
	Required    bool
	Enum        []string
}

// Tool defines the interface for any action the agent can take.
type Tool interface {
	Name() string
	Description() string
	Args() []Argument
	Execute(ctx context.Context, actx *Context, args Args) (string, error)
}

// Args is a validated tool-call payload.
type Args map[string]any

// String returns the named string argument.
func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", errors.New("missing argument '%s'", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.New("argument '%s' is not a string", key)
	}
	return s, nil
}

// StringOr returns the named string argument or a default when absent.
func (a Args) StringOr(key, def string) string {
	s, err := a.String(key)
	if err != nil {
		return def
	}
	return s
}

// Int returns the named integer argument. JSON numbers arrive as float64.
func (a Args) Int(key string) (int, error) {
	v, ok := a[key]
	if !ok {
		return 0, errors.New("missing argument '%s'", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, errors.New("argument '%s' is not an integer", key)
}

// IntOr returns the named integer argument or a default when absent.
func (a Args) IntOr(key string, def int) int {
	n, err := a.Int(key)
	if err != nil {
		return def
	}
	return n
}

// Bool returns the named boolean argument.
func (a Args) Bool(key string) (bool, error) {
	v, ok := a[key]
	if !ok {
		return false, errors.New("missing argument '%s'", key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.New("argument '%s' is not a boolean", key)
	}
	return b, nil
}

// isPathRestricted checks if a path matches any of the glob patterns.
func isPathRestricted(path string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		match, err := doublestar.PathMatch(pattern, path)
		if err != nil {
			return false, errors.New("invalid glob pattern '%s': %v", pattern, err)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// isCommandAllowed checks if a command is in the allowlist (with regex support).
func isCommandAllowed(command string, allowed []string) bool {
	if strings.TrimSpace(command) == "" {
		return false
	}
	for _, pattern := range allowed {
		re, err := regexp.Compile(pattern)
		if err != nil {
			// Fall back to literal comparison when the pattern is not a
			// valid regex.
			if command == pattern {
				return true
			}
			continue
		}
		if re.MatchString(command) {
			return true
		}
	}
	return false
}
