package tools

import (
	"context"

	"github.com/quillai/quill/tools/mcp"
)

// mcpAdapter makes an MCP server tool satisfy the Tool interface. The server
// owns the argument schema and validates payloads itself, so no Arguments
// are declared here and the dispatcher passes the payload through untouched.
type mcpAdapter struct {
	tool *mcp.Tool
}

func (a *mcpAdapter) Name() string        { return a.tool.Name() }
func (a *mcpAdapter) Description() string { return a.tool.Description() }
func (a *mcpAdapter) Args() []Argument    { return nil }

func (a *mcpAdapter) Execute(ctx context.Context, _ *Context, args Args) (string, error) {
	return a.tool.Call(ctx, map[string]any(args))
}

func wrapMCPTools(ts []*mcp.Tool) []Tool {
	out := make([]Tool, 0, len(ts))
	for _, t := range ts {
		out = append(out, &mcpAdapter{t})
	}
	return out
}
