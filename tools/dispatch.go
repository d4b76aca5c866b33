package tools

import (
	"context"

	"github.com/quillai/quill/session"
	"golang.org/x/sync/errgroup"
)

// Dispatch executes the tool calls requested by one assistant turn. Calls
// are independent and run concurrently unless serial is set; results are
// returned in request order regardless of completion order so replay stays
// deterministic. Every failure mode resolves to an error-flavored tool
// message; a bad call never aborts the run.
func Dispatch(ctx context.Context, actx *Context, toolset []Tool, calls []session.ToolCall, serial bool) []session.Message {
	results := make([]session.Message, len(calls))

	if serial {
		for i, call := range calls {
			results[i] = runCall(ctx, actx, toolset, call)
		}
		return results
	}

	g := new(errgroup.Group)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = runCall(ctx, actx, toolset, call)
			return nil
		})
	}
	g.Wait()
	return results
}

func runCall(ctx context.Context, actx *Context, toolset []Tool, call session.ToolCall) session.Message {
	if err := ctx.Err(); err != nil {
		return session.ToolError(call.ID, "%v", err)
	}

	var tool Tool
	for _, t := range toolset {
		if t.Name() == call.Name {
			tool = t
			break
		}
	}
	if tool == nil {
		return session.ToolError(call.ID, "unknown tool '%s'", call.Name)
	}

	args, err := ValidateArgs(tool, call.Args)
	if err != nil {
		return session.ToolError(call.ID, "invalid arguments for '%s': %v", call.Name, err)
	}

	out, err := tool.Execute(ctx, actx, args)
	if err != nil {
		return session.ToolError(call.ID, "%v", err)
	}

	result := session.Tool(out, call.ID)
	actx.emit(result)
	return result
}
