package tools

import (
	"context"
	"errors"

	"github.com/quillai/quill/session"
)

// ErrNestingTooDeep is returned when a tool tries to spawn a child agent
// past the configured ceiling.
var ErrNestingTooDeep = errors.New("child agent nesting limit reached")

// SpawnFunc starts a nested agent with its own transcript and toolset and
// blocks until it reaches a final answer.
type SpawnFunc func(ctx context.Context, inst Instruction, prompt string) (*session.Message, error)

// ConfirmFunc asks the user to approve a destructive action. A nil func
// means auto-approve.
type ConfirmFunc func(prompt string) bool

// Instruction bundles a system prompt with the toolset it may use.
type Instruction interface {
	SysPrompt() string
	Toolset() []Tool
}

// StaticInstruction is the plain data implementation of Instruction.
type StaticInstruction struct {
	Prompt string
	Tools  []Tool
}

func (s *StaticInstruction) SysPrompt() string { return s.Prompt }
func (s *StaticInstruction) Toolset() []Tool   { return s.Tools }

// Context is the shared handle passed into every tool execution. It is
// read-only for tools; the notify channel is append-only. Tools running
// concurrently within one dispatch phase share the same instance.
type Context struct {
	WorkDir  string
	Notify   chan<- session.Message
	Depth    int
	MaxDepth int
	Spawn    SpawnFunc
	Confirm  ConfirmFunc
}

// Child returns a copy one nesting level deeper, or ErrNestingTooDeep when
// the ceiling is reached.
func (c *Context) Child() (*Context, error) {
	if c.Depth+1 > c.MaxDepth {
		return nil, ErrNestingTooDeep
	}
	child := *c
	child.Depth++
	return &child, nil
}

// confirm is nil-safe; absent a confirm handler the action is approved.
func (c *Context) confirm(prompt string) bool {
	if c.Confirm == nil {
		return true
	}
	return c.Confirm(prompt)
}

// emit sends a progress notification without blocking the tool. Delivery is
// best-effort; only the final message of a run is authoritative.
func (c *Context) emit(msg session.Message) {
	if c.Notify == nil {
		return
	}
	select {
	case c.Notify <- msg:
	default:
	}
}
