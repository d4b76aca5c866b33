package llm

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
	qerrors "github.com/quillai/quill/errors"
	"github.com/quillai/quill/session"
	"github.com/quillai/quill/tools"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiClient talks to the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a client. Credentials are resolved by the caller.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, qerrors.New("Gemini API key is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, qerrors.Wrapf(err, "failed to create genai client")
	}
	return &GeminiClient{client: client, model: modelName}, nil
}

// Chat sends one chat request and converts the response into the internal
// session.Message format.
func (g *GeminiClient) Chat(ctx context.Context, messages []session.Message, toolset []tools.Tool) (*session.Message, error) {
	history, sysPrompt := convertMessagesToGemini(messages)
	if len(history) == 0 {
		return nil, newError(KindMalformedResponse, "gemini", qerrors.New("transcript has no sendable messages"))
	}

	// The last message is the new prompt; the rest is history.
	last := history[len(history)-1]
	chat := g.requestModel(toolset, sysPrompt).StartChat()
	chat.History = history[:len(history)-1]

	resp, err := chat.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, classifyGemini(err)
	}
	return processGeminiResponse(resp)
}

// requestModel builds a GenerativeModel configured for one request. Chat may
// be called from concurrently running child agents sharing this client, so
// per-request toolset and system prompt must never land on shared state.
func (g *GeminiClient) requestModel(toolset []tools.Tool, sysPrompt string) *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.model)
	model.Tools = convertToolsToGemini(toolset)
	if sysPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(sysPrompt)}}
	}
	return model
}

func classifyGemini(err error) error {
	var apierr *googleapi.Error
	if errors.As(err, &apierr) {
		return classifyStatus("gemini", apierr.Code, err)
	}
	return newError(KindNetwork, "gemini", err)
}

// convertMessagesToGemini maps the transcript onto Gemini content. Gemini
// has no tool-call IDs, so the function name doubles as the call ID and tool
// results are sent back as FunctionResponse parts.
func convertMessagesToGemini(messages []session.Message) ([]*genai.Content, string) {
	var contents []*genai.Content
	var sysPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case session.RoleSystem:
			sysPrompt = msg.Content
		case session.RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: tc.Args})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case session.RoleTool:
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []genai.Part{genai.FunctionResponse{
					Name:     msg.ToolCallID,
					Response: map[string]any{"output": msg.Content},
				}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}
	return contents, sysPrompt
}

func convertToolsToGemini(ts []tools.Tool) []*genai.Tool {
	if len(ts) == 0 {
		return nil
	}
	var decls []*genai.FunctionDeclaration
	for _, t := range ts {
		props := map[string]*genai.Schema{}
		var required []string
		for _, a := range t.Args() {
			s := &genai.Schema{Description: a.Description}
			switch a.Type {
			case tools.ArgInteger:
				s.Type = genai.TypeInteger
			case tools.ArgBoolean:
				s.Type = genai.TypeBoolean
			case tools.ArgEnum:
				s.Type = genai.TypeString
				s.Enum = a.Enum
			default:
				s.Type = genai.TypeString
			}
			props[a.Name] = s
			if a.Required {
				required = append(required, a.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   required,
			},
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func processGeminiResponse(resp *genai.GenerateContentResponse) (*session.Message, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, newError(KindMalformedResponse, "gemini", qerrors.New("received an empty response"))
	}

	var content string
	var calls []session.ToolCall

	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			content += string(v)
		case genai.FunctionCall:
			calls = append(calls, session.ToolCall{
				ID:   v.Name,
				Name: v.Name,
				Args: v.Args,
			})
		default:
			return nil, newError(KindMalformedResponse, "gemini",
				qerrors.New("unsupported part type in response: %T", v))
		}
	}

	return &session.Message{
		Role:      session.RoleAssistant,
		Content:   content,
		ToolCalls: calls,
	}, nil
}
