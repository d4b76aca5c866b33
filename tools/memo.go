package tools

import (
	"context"
	"os"
	"path/filepath"

	"github.com/quillai/quill/errors"
)

const memoFile = ".quill/memo.md"

// SaveMemoTool appends markdown notes to the project memo. The memo is
// injected into every agent's system prompt, so saved information persists
// across runs.
type SaveMemoTool struct{}

func (t *SaveMemoTool) Name() string { return "save_information" }

func (t *SaveMemoTool) Description() string {
	return "Add important information to your permanent memory. " +
		"Any piece of information has to be provided in markdown using headers and lists."
}

func (t *SaveMemoTool) Args() []Argument {
	return []Argument{
		{Name: "information", Description: "the information markdown string", Type: ArgString, Required: true},
	}
}

func (t *SaveMemoTool) Execute(ctx context.Context, actx *Context, args Args) (string, error) {
	content, err := args.String("information")
	if err != nil {
		return "", err
	}

	path := filepath.Join(actx.WorkDir, memoFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errors.Wrapf(err, "could not create memo directory")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", errors.Wrapf(err, "could not open memo file")
	}
	defer f.Close()

	if _, err := f.WriteString(content + "\n"); err != nil {
		return "", errors.Wrapf(err, "could not write memo")
	}
	return "memory written", nil
}

// ReadMemo returns the accumulated memo for a working directory, or an empty
// string when none exists.
func ReadMemo(workdir string) string {
	data, err := os.ReadFile(filepath.Join(workdir, memoFile))
	if err != nil {
		return ""
	}
	return string(data)
}
