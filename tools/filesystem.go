package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quillai/quill/config"
	"github.com/quillai/quill/errors"
)

const readWindowLines = 250

// ReadFileTool returns a numbered window of a file's contents.
type ReadFileTool struct {
	fsAccess *config.FilesystemAccess
}

func NewReadFileTool(fsAccess *config.FilesystemAccess) *ReadFileTool {
	return &ReadFileTool{fsAccess: fsAccess}
}

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Description() string {
	return fmt.Sprintf("Reads the contents of a file. The output is 1-indexed numbered lines "+
		"starting at start_line, at most %d lines at a time. If the part you viewed is "+
		"insufficient, call this tool again with a different start_line to view more.", readWindowLines)
}

func (t *ReadFileTool) Args() []Argument {
	return []Argument{
		{Name: "file", Description: "the file path", Type: ArgString, Required: true},
		{Name: "start_line", Description: "1-indexed line to start reading from", Type: ArgInteger},
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, actx *Context, args Args) (string, error) {
	path, err := args.String("file")
	if err != nil {
		return "", err
	}
	start := args.IntOr("start_line", 1)
	if start < 1 {
		start = 1
	}

	if err := t.guard(path); err != nil {
		return "", err
	}

	content, err := os.ReadFile(resolve(actx.WorkDir, path))
	if err != nil {
		return "", errors.Wrapf(err, "failed to read file '%s'", path)
	}

	lines := strings.Split(string(content), "\n")
	if start > len(lines) {
		return "", errors.New("start_line %d is past the end of '%s' (%d lines)", start, path, len(lines))
	}
	end := start + readWindowLines
	if end > len(lines)+1 {
		end = len(lines) + 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<content lines %d-%d of %d>\n", start, end-1, len(lines))
	for i := start; i < end; i++ {
		fmt.Fprintf(&b, "%6d\t%s\n", i, lines[i-1])
	}
	b.WriteString("</content>")
	return b.String(), nil
}

func (t *ReadFileTool) guard(path string) error {
	hidden, err := isPathRestricted(path, t.fsAccess.Hidden)
	if err != nil {
		return err
	}
	if hidden {
		return errors.New("access denied: path '%s' is hidden", path)
	}
	return nil
}

// WriteFileTool replaces a file's contents entirely. Confirm-gated.
type WriteFileTool struct {
	fsAccess *config.FilesystemAccess
}

func NewWriteFileTool(fsAccess *config.FilesystemAccess) *WriteFileTool {
	return &WriteFileTool{fsAccess: fsAccess}
}

func (t *WriteFileTool) Name() string { return "write_file" }

func (t *WriteFileTool) Description() string {
	return "Writes content to a file, replacing it entirely. The user will automatically receive " +
		"a confirmation popup; you must not ask for permission yourself."
}

func (t *WriteFileTool) Args() []Argument {
	return []Argument{
		{Name: "path", Description: "the file path", Type: ArgString, Required: true},
		{Name: "content", Description: "the full new file content", Type: ArgString, Required: true},
	}
}

func (t *WriteFileTool) Execute(ctx context.Context, actx *Context, args Args) (string, error) {
	path, err := args.String("path")
	if err != nil {
		return "", err
	}
	content, err := args.String("content")
	if err != nil {
		return "", err
	}

	hidden, err := isPathRestricted(path, t.fsAccess.Hidden)
	if err != nil {
		return "", err
	}
	if hidden {
		return "", errors.New("access denied: path '%s' is hidden", path)
	}
	readOnly, err := isPathRestricted(path, t.fsAccess.ReadOnly)
	if err != nil {
		return "", err
	}
	if readOnly {
		return "", errors.New("access denied: path '%s' is read-only", path)
	}

	if !actx.confirm(fmt.Sprintf("The agent wants to write %d bytes to `%s`", len(content), path)) {
		return "user declined", nil
	}

	if err := os.WriteFile(resolve(actx.WorkDir, path), []byte(content), 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write to file '%s'", path)
	}
	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path), nil
}

// MkdirTool creates a directory tree. Confirm-gated.
type MkdirTool struct{}

func (t *MkdirTool) Name() string { return "create_dir" }

func (t *MkdirTool) Description() string {
	return "Creates a new directory, including missing parents. The user will automatically receive " +
		"a confirmation popup; you must not ask for permission yourself."
}

func (t *MkdirTool) Args() []Argument {
	return []Argument{
		{Name: "dir_path", Description: "the directory path", Type: ArgString, Required: true},
	}
}

func (t *MkdirTool) Execute(ctx context.Context, actx *Context, args Args) (string, error) {
	path, err := args.String("dir_path")
	if err != nil {
		return "", err
	}

	if !actx.confirm(fmt.Sprintf("The agent wants to create a dir `%s`", path)) {
		return "user declined", nil
	}

	if err := os.MkdirAll(resolve(actx.WorkDir, path), 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create directory '%s'", path)
	}
	return fmt.Sprintf("created %s", path), nil
}

// resolve anchors relative tool paths at the agent's working directory.
func resolve(workdir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workdir, path)
}
