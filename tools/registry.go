package tools

import (
	"log/slog"
	"strings"

	"github.com/quillai/quill/config"
	"github.com/quillai/quill/errors"
	"github.com/quillai/quill/tools/mcp"
)

// Registry holds all available tools, builtin and MCP-provided.
type Registry struct {
	tools      map[string]Tool
	mcpClients map[string]*mcp.Client
}

// NewRegistry registers the builtin tools and connects the configured MCP
// servers. A server that fails to start is logged and skipped rather than
// failing agent construction.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{
		tools:      make(map[string]Tool),
		mcpClients: make(map[string]*mcp.Client),
	}

	r.Register(&TreeTool{})
	r.Register(NewReadFileTool(&cfg.FilesystemAccess))
	r.Register(NewWriteFileTool(&cfg.FilesystemAccess))
	r.Register(&MkdirTool{})
	r.Register(&GrepTool{})
	r.Register(NewReadWebsiteTool())
	r.Register(NewRunTerminalTool(cfg.AllowedCommands))
	r.Register(&SaveMemoTool{})
	r.Register(NewCompressFileTool(&cfg.FilesystemAccess))

	for _, srv := range cfg.AdditionalMCPServers {
		client, err := mcp.NewClient(srv.Name, srv.Command, srv.Args)
		if err != nil {
			slog.Warn("skipping MCP server", "name", srv.Name, "error", err)
			continue
		}
		r.mcpClients[srv.Name] = client
	}

	return r
}

func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

func (r *Registry) GetTool(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// ActiveTools resolves a configured toolset into tool instances. MCP tools
// are addressed as "<server>:<tool>"; "<server>:*" selects every tool the
// server advertises.
func (r *Registry) ActiveTools(ts *config.Toolset) ([]Tool, error) {
	var active []Tool
	for _, name := range ts.Tools {
		if server, tool, ok := strings.Cut(name, ":"); ok {
			client, found := r.mcpClients[server]
			if !found {
				return nil, errors.New("MCP server '%s' from toolset '%s' is not configured", server, ts.Name)
			}
			if tool == "*" {
				active = append(active, wrapMCPTools(client.Tools())...)
				continue
			}
			t, found := client.GetTool(tool)
			if !found {
				return nil, errors.New("MCP server '%s' does not provide tool '%s'", server, tool)
			}
			active = append(active, &mcpAdapter{t})
			continue
		}

		t, ok := r.GetTool(name)
		if !ok {
			return nil, errors.New("tool '%s' from toolset '%s' is not registered", name, ts.Name)
		}
		active = append(active, t)
	}
	return active, nil
}

// Instruction builds a runnable instruction from a system prompt and a
// configured toolset.
func (r *Registry) Instruction(sysPrompt string, ts *config.Toolset) (Instruction, error) {
	active, err := r.ActiveTools(ts)
	if err != nil {
		return nil, err
	}
	return &StaticInstruction{Prompt: sysPrompt, Tools: active}, nil
}

// Close terminates all MCP server subprocesses.
func (r *Registry) Close() {
	for name, client := range r.mcpClients {
		if err := client.Stop(); err != nil {
			slog.Warn("failed to stop MCP server", "name", name, "error", err)
		}
	}
}
