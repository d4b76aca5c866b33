package tools

import (
	"context"
	"strings"
	"testing"
)

func validationTool() Tool {
	return &fakeTool{
		name: "read_file",
		args: []Argument{
			{Name: "file", Type: ArgString, Required: true},
			{Name: "start_line", Type: ArgInteger},
			{Name: "mode", Type: ArgEnum, Enum: []string{"plain", "numbered"}},
		},
		fn: func(ctx context.Context, actx *Context, args Args) (string, error) {
			return "", nil
		},
	}
}

func TestValidateArgsMissingRequired(t *testing.T) {
	_, err := ValidateArgs(validationTool(), map[string]any{"start_line": float64(3)})
	if err == nil || !strings.Contains(err.Error(), "file") {
		t.Errorf("Expected missing-argument error naming 'file', got %v", err)
	}
}

func TestValidateArgsTypeMismatch(t *testing.T) {
	_, err := ValidateArgs(validationTool(), map[string]any{
		"file":       "main.go",
		"start_line": "ten",
	})
	if err == nil || !strings.Contains(err.Error(), "start_line") {
		t.Errorf("Expected type error naming 'start_line', got %v", err)
	}
}

func TestValidateArgsFractionalInteger(t *testing.T) {
	_, err := ValidateArgs(validationTool(), map[string]any{
		"file":       "main.go",
		"start_line": float64(3.5),
	})
	if err == nil {
		t.Error("Expected an error for a fractional integer argument")
	}
}

func TestValidateArgsEnum(t *testing.T) {
	if _, err := ValidateArgs(validationTool(), map[string]any{
		"file": "main.go",
		"mode": "numbered",
	}); err != nil {
		t.Errorf("Valid enum value rejected: %v", err)
	}

	_, err := ValidateArgs(validationTool(), map[string]any{
		"file": "main.go",
		"mode": "fancy",
	})
	if err == nil || !strings.Contains(err.Error(), "mode") {
		t.Errorf("Expected enum error naming 'mode', got %v", err)
	}
}

func TestValidateArgsIgnoresExtraKeys(t *testing.T) {
	args, err := ValidateArgs(validationTool(), map[string]any{
		"file":      "main.go",
		"made_up":   "by the model",
		"also_fake": float64(1),
	})
	if err != nil {
		t.Fatalf("Extra keys must not fail validation: %v", err)
	}
	if got := args.StringOr("file", ""); got != "main.go" {
		t.Errorf("Expected declared args to pass through, got %q", got)
	}
}

func TestValidateArgsNilPayload(t *testing.T) {
	noArgs := &fakeTool{name: "tree", fn: func(ctx context.Context, actx *Context, args Args) (string, error) {
		return "", nil
	}}
	if _, err := ValidateArgs(noArgs, nil); err != nil {
		t.Errorf("Nil payload for an argless tool must validate, got %v", err)
	}
}
