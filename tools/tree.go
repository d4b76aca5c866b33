package tools

import (
	"context"
	"os/exec"
	"strings"

	"github.com/quillai/quill/errors"
)

const treeMaxLines = 500

// TreeTool prints the project file tree via the tree command.
type TreeTool struct{}

func (t *TreeTool) Name() string { return "list_project_file_tree" }

func (t *TreeTool) Description() string {
	return "Prints the current project structure with all file paths. " +
		"Essential for understanding the directory layout and locating files within the project. " +
		"Any question by the user is most likely related to at least one file, making this tool highly relevant."
}

func (t *TreeTool) Args() []Argument { return nil }

func (t *TreeTool) Execute(ctx context.Context, actx *Context, _ Args) (string, error) {
	cmd := exec.CommandContext(ctx, "tree", "-f", "-i", "--gitignore")
	cmd.Dir = actx.WorkDir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", errors.Wrapf(err, "tree failed. Output:\n%s", string(output))
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > treeMaxLines {
		lines = lines[:treeMaxLines]
	}
	return strings.Join(lines, "\n"), nil
}
