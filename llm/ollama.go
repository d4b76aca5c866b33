package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	qerrors "github.com/quillai/quill/errors"
	"github.com/quillai/quill/session"
	"github.com/quillai/quill/tools"
)

// OllamaClient talks to a local Ollama server over its native chat API.
// There is no official Go SDK, so this client speaks the JSON wire format
// directly.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaClient creates a client for the given server, e.g.
// "http://localhost:11434".
func NewOllamaClient(baseURL, modelName string) (*OllamaClient, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   modelName,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaToolCall struct {
	Function ollamaFuncCall `json:"function"`
}

type ollamaFuncCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type ollamaTool struct {
	Type     string         `json:"type"`
	Function ollamaFunction `json:"function"`
}

type ollamaFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Error   string        `json:"error,omitempty"`
}

// Chat sends one chat request and converts the response into the internal
// session.Message format.
func (o *OllamaClient) Chat(ctx context.Context, messages []session.Message, toolset []tools.Tool) (*session.Message, error) {
	reqBody := ollamaChatRequest{
		Model:    o.model,
		Messages: convertMessagesToOllama(messages),
		Tools:    convertToolsToOllama(toolset),
		Stream:   false,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, qerrors.Wrapf(err, "failed to encode chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, newError(KindNetwork, "ollama", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, newError(KindNetwork, "ollama", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindNetwork, "ollama", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus("ollama", resp.StatusCode,
			qerrors.New("chat request failed: %s", string(body)))
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, newError(KindMalformedResponse, "ollama", err)
	}
	if chatResp.Error != "" {
		return nil, newError(KindMalformedResponse, "ollama", qerrors.New("%s", chatResp.Error))
	}

	msg := &session.Message{
		Role:    session.RoleAssistant,
		Content: chatResp.Message.Content,
	}
	for _, tc := range chatResp.Message.ToolCalls {
		// Ollama does not assign call IDs; synthesize them so tool results
		// can be linked back to their requests.
		msg.ToolCalls = append(msg.ToolCalls, session.ToolCall{
			ID:   uuid.NewString(),
			Name: tc.Function.Name,
			Args: tc.Function.Arguments,
		})
	}
	return msg, nil
}

func convertMessagesToOllama(messages []session.Message) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(messages))
	for _, msg := range messages {
		om := ollamaMessage{Role: string(msg.Role), Content: msg.Content}
		for _, tc := range msg.ToolCalls {
			om.ToolCalls = append(om.ToolCalls, ollamaToolCall{
				Function: ollamaFuncCall{Name: tc.Name, Arguments: tc.Args},
			})
		}
		out = append(out, om)
	}
	return out
}

func convertToolsToOllama(ts []tools.Tool) []ollamaTool {
	var out []ollamaTool
	for _, t := range ts {
		props, required := schemaProperties(t.Args())
		out = append(out, ollamaTool{
			Type: "function",
			Function: ollamaFunction{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters: map[string]any{
					"type":       "object",
					"properties": props,
					"required":   required,
				},
			},
		})
	}
	return out
}
