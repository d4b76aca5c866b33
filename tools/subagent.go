package tools

import (
	"context"
	"fmt"

	"github.com/quillai/quill/config"
	"github.com/quillai/quill/errors"
)

// CompressFileTool spawns a child agent that reads a file and distills its
// signatures into the project memo. The child's final answer becomes this
// tool's result.
type CompressFileTool struct {
	child Instruction
}

func NewCompressFileTool(fsAccess *config.FilesystemAccess) *CompressFileTool {
	return &CompressFileTool{
		child: &StaticInstruction{
			Prompt: compressPrompt,
			Tools: []Tool{
				&TreeTool{},
				NewReadFileTool(fsAccess),
				&SaveMemoTool{},
			},
		},
	}
}

func (t *CompressFileTool) Name() string { return "compress_file" }

func (t *CompressFileTool) Description() string {
	return "Compresses the content of a file into your context/memory. " +
		"Use this to remember the shape of a large file without keeping its full text around."
}

func (t *CompressFileTool) Args() []Argument {
	return []Argument{
		{Name: "file_path", Description: "the file that you want to compress", Type: ArgString, Required: true},
	}
}

func (t *CompressFileTool) Execute(ctx context.Context, actx *Context, args Args) (string, error) {
	file, err := args.String("file_path")
	if err != nil {
		return "", err
	}
	if actx.Spawn == nil {
		return "", errors.New("child agents are not available in this context")
	}

	final, err := actx.Spawn(ctx, t.child, fmt.Sprintf("find '%s' and compress it", file))
	if err != nil {
		return "", errors.Wrapf(err, "compression agent failed")
	}
	return final.Content, nil
}
