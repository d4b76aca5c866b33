package tools

import (
	"context"
	"fmt"
	"os/exec"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/quillai/quill/errors"
)

// RunTerminalTool runs a shell command on the user's system, limited to the
// configured allowlist and gated behind a confirmation prompt.
type RunTerminalTool struct {
	allowedCommands []string
}

func NewRunTerminalTool(allowed []string) *RunTerminalTool {
	return &RunTerminalTool{allowedCommands: allowed}
}

func (t *RunTerminalTool) Name() string { return "run_terminal" }

func (t *RunTerminalTool) Description() string {
	if len(t.allowedCommands) == 0 {
		return "Proposes a shell command to run on behalf of the user. No commands are currently allowed."
	}
	desc := "Proposes a shell command to run on behalf of the user. " +
		"The user has to approve the command before it is executed and may reject it.\n" +
		"Allowed command patterns:\n"
	for _, cmd := range t.allowedCommands {
		desc += fmt.Sprintf("- %s\n", cmd)
	}
	return desc
}

func (t *RunTerminalTool) Args() []Argument {
	return []Argument{
		{Name: "command", Description: "the command with arguments", Type: ArgString, Required: true},
	}
}

func (t *RunTerminalTool) Execute(ctx context.Context, actx *Context, args Args) (string, error) {
	command, err := args.String("command")
	if err != nil {
		return "", err
	}

	if !isCommandAllowed(command, t.allowedCommands) {
		return "", errors.New("command '%s' is not in the list of allowed commands", command)
	}

	parts, err := shellwords.Parse(command)
	if err != nil {
		return "", errors.Wrapf(err, "could not parse command '%s'", command)
	}
	if len(parts) == 0 {
		return "", errors.New("empty command")
	}

	if !actx.confirm(fmt.Sprintf("The agent wants to run\n`%s`", command)) {
		return "user declined", nil
	}

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = actx.WorkDir

	output, err := cmd.CombinedOutput()
	if err != nil {
		// A failing command is reported back to the model with its output so
		// it can decide whether to retry differently.
		return "", errors.Wrapf(err, "command execution failed. Output:\n%s", string(output))
	}
	return fmt.Sprintf("Command executed successfully. Output:\n%s", string(output)), nil
}
