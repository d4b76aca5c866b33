// Package terminal implements the interactive CLI front end.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/quillai/quill/agent"
	"github.com/quillai/quill/config"
	"github.com/quillai/quill/llm"
	"github.com/quillai/quill/session"
	"github.com/quillai/quill/tools"
)

// Verbosity controls how much tool activity is echoed to the terminal.
type Verbosity int

const (
	VerbosityNone Verbosity = iota
	VerbosityInfo
	VerbosityAll
)

// Terminal handles the terminal/CLI interaction mode. Each user turn runs on
// a fresh agent over the shared session, so a finished run is never reused.
type Terminal struct {
	cfg         *config.Config
	session     *session.Session
	client      llm.Client
	instruction tools.Instruction
	workdir     string

	Verbosity   Verbosity
	AutoApprove bool

	// Concurrent tool calls may ask for confirmation at the same time;
	// serialize the prompts so answers cannot cross.
	confirmMu sync.Mutex
}

// New creates a new Terminal instance.
func New(cfg *config.Config, sess *session.Session, client llm.Client, inst tools.Instruction, workdir string) *Terminal {
	return &Terminal{
		cfg:         cfg,
		session:     sess,
		client:      client,
		instruction: inst,
		workdir:     workdir,
	}
}

// Run starts the interactive terminal session.
func (t *Terminal) Run(ctx context.Context, initialPrompt string) error {
	// If there's an initial prompt from the command line, use it first
	if initialPrompt != "" {
		if err := t.processTurn(ctx, initialPrompt); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Print("You: ")
		if !scanner.Scan() {
			// EOF or read error ends the session
			break
		}

		userInput := strings.TrimSpace(scanner.Text())
		if userInput == "" {
			continue
		}

		// Exit commands
		if userInput == "/quit" || userInput == "/exit" {
			break
		}

		if err := t.processTurn(ctx, userInput); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return nil
}

// processTurn handles a single user input turn. The agent runs in a
// goroutine while the terminal drains its notifications for display.
func (t *Terminal) processTurn(ctx context.Context, userInput string) error {
	a := agent.New(t.cfg, t.session, t.client, t.instruction, t.workdir)
	a.SetConfirm(t.confirm)
	a.Push(userInput)

	type result struct {
		final *session.Message
		err   error
	}
	done := make(chan result, 1)
	go func() {
		final, err := a.Run(ctx)
		done <- result{final, err}
	}()

	for {
		select {
		case msg := <-a.Notifications():
			t.display(msg)
		case r := <-done:
			// Show anything emitted after the last select iteration.
			for {
				select {
				case msg := <-a.Notifications():
					t.display(msg)
				default:
					if r.err != nil {
						return r.err
					}
					if r.final != nil && r.final.Content != "" {
						fmt.Printf("Quill: %s\n", r.final.Content)
					}
					return nil
				}
			}
		}
	}
}

// display echoes an intermediate message. Final answers are printed from the
// run result instead, so assistant messages without tool calls are skipped
// here to avoid double output.
func (t *Terminal) display(msg session.Message) {
	switch msg.Role {
	case session.RoleAssistant:
		if len(msg.ToolCalls) == 0 {
			return
		}
		if msg.Content != "" {
			fmt.Printf("Quill: %s\n", msg.Content)
		}
		for _, tc := range msg.ToolCalls {
			switch t.Verbosity {
			case VerbosityAll:
				fmt.Printf("Quill calls tool `%s` with args: %v\n", tc.Name, tc.Args)
			case VerbosityInfo:
				fmt.Printf("Quill calls tool `%s`\n", tc.Name)
			}
		}
	case session.RoleTool:
		if t.Verbosity == VerbosityAll {
			fmt.Printf("Tool output: %s\n", msg.Content)
		}
	}
}

// confirm asks the user to approve a destructive tool action.
func (t *Terminal) confirm(prompt string) bool {
	if t.AutoApprove {
		return true
	}

	t.confirmMu.Lock()
	defer t.confirmMu.Unlock()

	fmt.Printf("%s (y/n): ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(strings.ToLower(answer)) == "y"
}
