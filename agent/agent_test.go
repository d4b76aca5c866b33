package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/quillai/quill/config"
	"github.com/quillai/quill/errors"
	"github.com/quillai/quill/llm"
	"github.com/quillai/quill/session"
	"github.com/quillai/quill/tools"
)

// scriptedClient replays a fixed sequence of provider responses.
type scriptedClient struct {
	mu    sync.Mutex
	steps []scriptStep
	calls int
}

type scriptStep struct {
	reply session.Message
	err   error
}

func (c *scriptedClient) Chat(ctx context.Context, messages []session.Message, toolset []tools.Tool) (*session.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.calls >= len(c.steps) {
		return nil, errors.New("script exhausted after %d calls", c.calls)
	}
	step := c.steps[c.calls]
	c.calls++
	if step.err != nil {
		return nil, step.err
	}
	reply := step.reply
	return &reply, nil
}

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// echoTool returns its text argument.
type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echoes text" }
func (echoTool) Args() []tools.Argument {
	return []tools.Argument{{Name: "text", Type: tools.ArgString, Required: true}}
}
func (echoTool) Execute(ctx context.Context, actx *tools.Context, args tools.Args) (string, error) {
	return args.StringOr("text", ""), nil
}

// delegateTool hands its prompt to a child agent.
type delegateTool struct{}

func (delegateTool) Name() string        { return "delegate" }
func (delegateTool) Description() string { return "delegates to a child agent" }
func (delegateTool) Args() []tools.Argument {
	return []tools.Argument{{Name: "prompt", Type: tools.ArgString, Required: true}}
}
func (delegateTool) Execute(ctx context.Context, actx *tools.Context, args tools.Args) (string, error) {
	final, err := actx.Spawn(ctx, &tools.StaticInstruction{Prompt: "You are a helper."}, args.StringOr("prompt", ""))
	if err != nil {
		return "", err
	}
	return final.Content, nil
}

func testConfig() *config.Config {
	return &config.Config{MaxRetries: 1, MaxAgentDepth: 3}
}

func newTestAgent(t *testing.T, client llm.Client, toolset ...tools.Tool) *Agent {
	t.Helper()
	inst := &tools.StaticInstruction{Prompt: "You are a test agent.", Tools: toolset}
	sess := session.New("test-project", nil)
	return New(testConfig(), sess, client, inst, t.TempDir())
}

func TestRunSingleTurn(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{reply: session.Assistant("all done")},
	}}
	a := newTestAgent(t, client)
	a.Push("do the thing")

	final, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if final.Content != "all done" {
		t.Errorf("Expected final answer, got %q", final.Content)
	}
	if a.State() != StateDone {
		t.Errorf("Expected StateDone, got %v", a.State())
	}

	msgs := a.Session().Messages
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages (system, user, assistant), got %d", len(msgs))
	}
	if msgs[0].Role != session.RoleSystem {
		t.Errorf("Expected the system prompt at position 0, got role %q", msgs[0].Role)
	}
	if msgs[1].Role != session.RoleUser || msgs[2].Role != session.RoleAssistant {
		t.Errorf("Transcript out of order: %+v", msgs)
	}
}

func TestRunRequiresUserMessage(t *testing.T) {
	a := newTestAgent(t, &scriptedClient{})
	if _, err := a.Run(context.Background()); err != ErrNoUserMessage {
		t.Errorf("Expected ErrNoUserMessage, got %v", err)
	}
}

func TestRunToolTurn(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{reply: session.Message{
			Role: session.RoleAssistant,
			ToolCalls: []session.ToolCall{
				{ID: "call_1", Name: "echo", Args: map[string]any{"text": "ping"}},
			},
		}},
		{reply: session.Assistant("got ping")},
	}}
	a := newTestAgent(t, client, echoTool{})
	a.Push("echo ping")

	final, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if final.Content != "got ping" {
		t.Errorf("Expected final answer, got %q", final.Content)
	}

	msgs := a.Session().Messages
	if len(msgs) != 5 {
		t.Fatalf("Expected 5 messages, got %d: %+v", len(msgs), msgs)
	}
	if !msgs[2].RequestsTools() {
		t.Errorf("Expected the tool-call turn at position 2, got %+v", msgs[2])
	}
	if msgs[3].Role != session.RoleTool || msgs[3].ToolCallID != "call_1" {
		t.Errorf("Tool result not linked to its call: %+v", msgs[3])
	}
	if msgs[3].Content != "ping" {
		t.Errorf("Expected the tool output, got %q", msgs[3].Content)
	}
}

func TestRunRetriesTransientErrors(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{err: &llm.Error{Kind: llm.KindRateLimited, Provider: "test", Err: errors.New("slow down")}},
		{err: &llm.Error{Kind: llm.KindRateLimited, Provider: "test", Err: errors.New("slow down")}},
		{err: &llm.Error{Kind: llm.KindRateLimited, Provider: "test", Err: errors.New("slow down")}},
	}}
	a := newTestAgent(t, client)
	a.Push("hi")

	final, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run must resolve provider failure to a message, got error %v", err)
	}
	// MaxRetries=1 means one initial attempt plus one retry.
	if got := client.callCount(); got != 2 {
		t.Errorf("Expected 2 provider calls, got %d", got)
	}
	if final.Role != session.RoleAssistant || !strings.Contains(final.Content, "slow down") {
		t.Errorf("Expected a synthetic assistant message naming the cause, got %+v", final)
	}
	if a.State() != StateDone {
		t.Errorf("Expected StateDone, got %v", a.State())
	}
}

func TestRunFatalErrorEndsImmediately(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{err: &llm.Error{Kind: llm.KindUnauthorized, Provider: "test", Err: errors.New("bad key")}},
		{reply: session.Assistant("should never be reached")},
	}}
	a := newTestAgent(t, client)
	a.Push("hi")

	final, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := client.callCount(); got != 1 {
		t.Errorf("Fatal errors must not be retried, got %d calls", got)
	}
	if !strings.Contains(final.Content, "bad key") {
		t.Errorf("Expected the cause in the final message, got %q", final.Content)
	}

	msgs := a.Session().Messages
	if msgs[len(msgs)-1].Role != session.RoleAssistant {
		t.Errorf("Transcript must end with the synthetic assistant message: %+v", msgs)
	}
}

func TestRunDoneIdempotence(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{reply: session.Assistant("done")},
	}}
	a := newTestAgent(t, client)
	a.Push("hi")

	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("First Run failed: %v", err)
	}
	if _, err := a.Run(context.Background()); err != ErrDone {
		t.Errorf("Expected ErrDone on replay, got %v", err)
	}
	if got := client.callCount(); got != 1 {
		t.Errorf("Replay must not issue provider calls, got %d", got)
	}
}

func TestRunCancellation(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{reply: session.Assistant("too late")},
	}}
	a := newTestAgent(t, client)
	a.Push("hi")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	final, err := a.Run(ctx)
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if final != nil {
		t.Errorf("A cancelled run must not yield a final message, got %+v", final)
	}
	for _, m := range a.Session().Messages {
		if m.Role == session.RoleAssistant {
			t.Errorf("A cancelled run must not append assistant messages: %+v", m)
		}
	}
}

func TestRunEmitsNotifications(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{reply: session.Message{
			Role: session.RoleAssistant,
			ToolCalls: []session.ToolCall{
				{ID: "call_1", Name: "echo", Args: map[string]any{"text": "pong"}},
			},
		}},
		{reply: session.Assistant("final")},
	}}
	a := newTestAgent(t, client, echoTool{})
	a.Push("go")

	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var seen []session.Message
	for {
		select {
		case m := <-a.Notifications():
			seen = append(seen, m)
			continue
		default:
		}
		break
	}
	if len(seen) < 3 {
		t.Fatalf("Expected tool-call turn, tool result and final on the channel, got %d", len(seen))
	}
	if !seen[0].RequestsTools() {
		t.Errorf("First notification should be the tool-call turn: %+v", seen[0])
	}
	if seen[1].Role != session.RoleTool || seen[1].Content != "pong" {
		t.Errorf("Second notification should be the tool result: %+v", seen[1])
	}
	if seen[len(seen)-1].Content != "final" {
		t.Errorf("Last notification should be the final answer: %+v", seen[len(seen)-1])
	}
}

func TestChildAgentSpawn(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{reply: session.Message{
			Role: session.RoleAssistant,
			ToolCalls: []session.ToolCall{
				{ID: "call_1", Name: "delegate", Args: map[string]any{"prompt": "summarize"}},
			},
		}},
		// The child agent's single turn.
		{reply: session.Assistant("child says hi")},
		{reply: session.Assistant("parent done")},
	}}
	a := newTestAgent(t, client, delegateTool{})
	a.Push("use the helper")

	final, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if final.Content != "parent done" {
		t.Errorf("Expected the parent's final answer, got %q", final.Content)
	}

	msgs := a.Session().Messages
	var toolResult *session.Message
	for i := range msgs {
		if msgs[i].Role == session.RoleTool {
			toolResult = &msgs[i]
		}
	}
	if toolResult == nil || toolResult.Content != "child says hi" {
		t.Errorf("Expected the child's answer as the tool result, got %+v", toolResult)
	}
	// The child's own transcript must not leak into the parent session.
	for _, m := range msgs {
		if m.Role == session.RoleUser && m.Content == "summarize" {
			t.Errorf("Child prompt leaked into the parent transcript")
		}
	}
}

func TestSpawnDepthLimit(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{reply: session.Message{
			Role: session.RoleAssistant,
			ToolCalls: []session.ToolCall{
				{ID: "call_1", Name: "delegate", Args: map[string]any{"prompt": "go deeper"}},
			},
		}},
		{reply: session.Assistant("stopped")},
	}}
	inst := &tools.StaticInstruction{Prompt: "You are a test agent.", Tools: []tools.Tool{delegateTool{}}}
	cfg := testConfig()
	cfg.MaxAgentDepth = 0
	a := New(cfg, session.New("test-project", nil), client, inst, t.TempDir())
	a.Push("use the helper")

	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var toolResult *session.Message
	msgs := a.Session().Messages
	for i := range msgs {
		if msgs[i].Role == session.RoleTool {
			toolResult = &msgs[i]
		}
	}
	if toolResult == nil {
		t.Fatal("Expected a tool result message")
	}
	if !strings.Contains(toolResult.Content, "[ERROR]") || !strings.Contains(toolResult.Content, "nesting") {
		t.Errorf("Expected a nesting-limit error, got %q", toolResult.Content)
	}
}

func TestSystemPromptIncludesMemo(t *testing.T) {
	workdir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(workdir, ".quill"), 0755); err != nil {
		t.Fatal(err)
	}
	memo := "The build uses make, not go build directly."
	if err := os.WriteFile(filepath.Join(workdir, ".quill", "memo.md"), []byte(memo), 0644); err != nil {
		t.Fatal(err)
	}

	client := &scriptedClient{steps: []scriptStep{
		{reply: session.Assistant("ok")},
	}}
	inst := &tools.StaticInstruction{Prompt: "You are a test agent."}
	a := New(testConfig(), session.New("test-project", nil), client, inst, workdir)
	a.Push("hi")

	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	sys := a.Session().Messages[0]
	if sys.Role != session.RoleSystem {
		t.Fatalf("Expected system prompt first, got %q", sys.Role)
	}
	if !strings.Contains(sys.Content, "<memory.md>") || !strings.Contains(sys.Content, memo) {
		t.Errorf("Expected the memo inside the system prompt, got %q", sys.Content)
	}
}

func TestSystemPromptInjectedOnce(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{reply: session.Assistant("ok")},
	}}
	sess := session.New("test-project", nil)
	sess.AddMessage(session.System("existing prompt"))
	sess.AddMessage(session.User("earlier turn"))
	sess.AddMessage(session.Assistant("earlier answer"))
	sess.AddMessage(session.User("new turn"))

	inst := &tools.StaticInstruction{Prompt: "You are a test agent."}
	a := New(testConfig(), sess, client, inst, t.TempDir())

	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	count := 0
	for _, m := range a.Session().Messages {
		if m.Role == session.RoleSystem {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected exactly one system message, got %d", count)
	}
	if a.Session().Messages[0].Content != "existing prompt" {
		t.Errorf("Resumed system prompt must stay at position 0")
	}
}
