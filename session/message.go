package session

import "fmt"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a request from the model to execute a named tool.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Message is a single conversation turn. Assistant messages may carry tool
// call requests; tool messages carry the ID of the call they answer.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Tool builds a tool-result message linked back to its originating call.
func Tool(content, callID string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// ToolError builds the error-flavored tool message fed back to the model so
// it can self-correct on the next turn.
func ToolError(callID string, format string, a ...any) Message {
	return Message{
		Role:       RoleTool,
		Content:    fmt.Sprintf("[ERROR]: %s", fmt.Sprintf(format, a...)),
		ToolCallID: callID,
	}
}

// RequestsTools reports whether the message asks for tool execution.
func (m Message) RequestsTools() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}
