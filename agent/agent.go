// Package agent implements the run loop at the heart of quill: it owns a
// transcript, a toolset and a provider client, and drives the
// request/respond/dispatch cycle until the model yields a final answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quillai/quill/config"
	"github.com/quillai/quill/llm"
	"github.com/quillai/quill/session"
	"github.com/quillai/quill/tools"
)

// State tracks where a run is in its lifecycle.
type State int

const (
	StateAwaitingInput State = iota
	StateAwaitingReply
	StateDispatching
	StateDone
)

// ErrDone is returned when Run is invoked on an agent whose run already
// completed. A finished agent never re-issues provider calls.
var ErrDone = errors.New("agent run already completed")

// ErrNoUserMessage is returned when Run is invoked before the caller pushed
// the first user message.
var ErrNoUserMessage = errors.New("transcript has no user message")

const notifyBuffer = 128

// Agent owns one conversation run. The transcript is mutated exclusively by
// the agent once Run starts; the front end only seeds the initial user
// message.
type Agent struct {
	cfg         *config.Config
	session     *session.Session
	client      llm.Client
	instruction tools.Instruction
	toolset     []tools.Tool
	workdir     string
	confirm     tools.ConfirmFunc
	notify      chan session.Message
	state       State
	depth       int
}

// New builds an agent bound to a working directory. The instruction supplies
// the system prompt and toolset for this run.
func New(cfg *config.Config, sess *session.Session, client llm.Client, inst tools.Instruction, workdir string) *Agent {
	return &Agent{
		cfg:         cfg,
		session:     sess,
		client:      client,
		instruction: inst,
		toolset:     inst.Toolset(),
		workdir:     workdir,
		notify:      make(chan session.Message, notifyBuffer),
	}
}

// SetConfirm installs the handler that approves destructive tool actions.
func (a *Agent) SetConfirm(f tools.ConfirmFunc) { a.confirm = f }

// Push seeds a user message. Must be called before Run.
func (a *Agent) Push(text string) {
	a.session.AddMessage(session.User(text))
}

// Notifications yields intermediate and final messages for display.
// Intermediate delivery is best-effort; only the final message returned by
// Run is authoritative.
func (a *Agent) Notifications() <-chan session.Message { return a.notify }

// State returns the current lifecycle state.
func (a *Agent) State() State { return a.state }

// Session exposes the transcript, e.g. for the front end to render history.
func (a *Agent) Session() *session.Session { return a.session }

// Run drives the request/respond/dispatch loop until the model yields a
// final answer. Cancellation is checked before every provider call and every
// tool execution; a cancelled run returns the context error with no final
// message. Every other failure path resolves to a user-visible assistant
// message, so the transcript never ends mid-air.
func (a *Agent) Run(ctx context.Context) (*session.Message, error) {
	if a.state == StateDone {
		return nil, ErrDone
	}
	if !a.hasUserMessage() {
		return nil, ErrNoUserMessage
	}

	a.ensureSystemPrompt()

	actx := &tools.Context{
		WorkDir:  a.workdir,
		Notify:   a.notify,
		Depth:    a.depth,
		MaxDepth: a.cfg.MaxAgentDepth,
		Confirm:  a.confirm,
	}
	actx.Spawn = a.spawnFunc(actx)

	for {
		if err := ctx.Err(); err != nil {
			a.state = StateDone
			return nil, err
		}

		a.state = StateAwaitingReply
		reply, err := a.chatWithRetry(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				a.state = StateDone
				return nil, err
			}
			return a.finishWithError(err), nil
		}

		a.session.AddMessage(*reply)
		a.emit(*reply)
		a.save()

		if !reply.RequestsTools() {
			a.state = StateDone
			return reply, nil
		}

		a.state = StateDispatching
		results := tools.Dispatch(ctx, actx, a.toolset, reply.ToolCalls, a.cfg.SerialToolCalls)
		for _, r := range results {
			a.session.AddMessage(r)
		}
		a.save()
	}
}

// chatWithRetry issues one logical provider call, retrying transient
// failures up to cfg.MaxRetries times with doubling backoff. Fatal kinds
// (unauthorized, malformed response) are returned on first sight.
func (a *Agent) chatWithRetry(ctx context.Context) (*session.Message, error) {
	backoff := time.Second
	var lastErr error

	for attempt := 0; attempt <= a.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reply, err := a.client.Chat(ctx, a.session.Messages, a.toolset)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !llm.Retryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// finishWithError ends the run with a synthetic assistant message so the
// user always sees why the conversation stopped.
func (a *Agent) finishWithError(cause error) *session.Message {
	msg := session.Assistant(fmt.Sprintf("I could not reach the model and had to stop: %v", cause))
	a.session.AddMessage(msg)
	a.emit(msg)
	a.save()
	a.state = StateDone
	return &msg
}

// ensureSystemPrompt injects the instruction's system prompt once, at
// transcript position 0, together with the accumulated project memo.
func (a *Agent) ensureSystemPrompt() {
	if len(a.session.Messages) > 0 && a.session.Messages[0].Role == session.RoleSystem {
		return
	}

	prompt := a.instruction.SysPrompt()
	if memo := tools.ReadMemo(a.workdir); memo != "" {
		prompt = fmt.Sprintf("%s\n\n<memory.md>\n%s\n</memory.md>", prompt, memo)
	}
	a.session.Messages = append([]session.Message{session.System(prompt)}, a.session.Messages...)
}

func (a *Agent) hasUserMessage() bool {
	for _, m := range a.session.Messages {
		if m.Role == session.RoleUser {
			return true
		}
	}
	return false
}

// spawnFunc builds the child-agent spawner handed to tools. The child gets
// a fresh ephemeral transcript and its own toolset but shares the provider
// client, the notify channel and the cancellation signal.
func (a *Agent) spawnFunc(actx *tools.Context) tools.SpawnFunc {
	return func(ctx context.Context, inst tools.Instruction, prompt string) (*session.Message, error) {
		cctx, err := actx.Child()
		if err != nil {
			return nil, err
		}

		child := New(a.cfg, session.New(a.session.Project, nil), a.client, inst, a.workdir)
		child.confirm = a.confirm
		child.notify = a.notify
		child.depth = cctx.Depth
		child.Push(prompt)
		return child.Run(ctx)
	}
}

func (a *Agent) emit(msg session.Message) {
	select {
	case a.notify <- msg:
	default:
	}
}

func (a *Agent) save() {
	if err := a.session.Save(); err != nil {
		a.emit(session.Assistant(fmt.Sprintf("Warning: failed to save session: %v", err)))
	}
}
