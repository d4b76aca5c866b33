package tools

import (
	"context"
	"os/exec"

	"github.com/quillai/quill/errors"
)

const grepMaxMatches = "50"

// GrepTool is a regex search over the project backed by ripgrep.
type GrepTool struct{}

func (t *GrepTool) Name() string { return "grep_search" }

func (t *GrepTool) Description() string {
	return "Fast text-based regex search that finds exact pattern matches within files, " +
		"utilizing the ripgrep command. Results are formatted in ripgrep style with line numbers " +
		"and are capped at 50 matches to avoid overwhelming output."
}

func (t *GrepTool) Args() []Argument {
	return []Argument{
		{Name: "pattern", Description: "the ripgrep pattern", Type: ArgString, Required: true},
	}
}

func (t *GrepTool) Execute(ctx context.Context, actx *Context, args Args) (string, error) {
	pattern, err := args.String("pattern")
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, "rg", "-n", "-m", grepMaxMatches, pattern)
	cmd.Dir = actx.WorkDir

	output, err := cmd.CombinedOutput()
	if err != nil {
		// rg exits 1 when nothing matched, which is a result, not a failure.
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return "no matches found", nil
		}
		return "", errors.Wrapf(err, "search failed. Output:\n%s", string(output))
	}
	return string(output), nil
}
