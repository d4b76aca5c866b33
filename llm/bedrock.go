package llm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	qerrors "github.com/quillai/quill/errors"
	"github.com/quillai/quill/session"
	"github.com/quillai/quill/tools"
)

// BedrockClient talks to Anthropic models hosted on AWS Bedrock using the
// raw InvokeModel JSON dialect.
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrockClient creates a client. AWS credentials come from the standard
// SDK resolution chain.
func NewBedrockClient(ctx context.Context, modelID string) (*BedrockClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, qerrors.Wrapf(err, "failed to load AWS config")
	}
	return &BedrockClient{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
	}, nil
}

// Chat sends one chat request and converts the response into the internal
// session.Message format.
func (b *BedrockClient) Chat(ctx context.Context, messages []session.Message, toolset []tools.Tool) (*session.Message, error) {
	body, err := buildBedrockRequest(messages, toolset)
	if err != nil {
		return nil, qerrors.Wrapf(err, "failed to build Bedrock request")
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, classifyBedrock(err)
	}
	return processBedrockResponse(resp.Body)
}

func classifyBedrock(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException", "ServiceQuotaExceededException":
			return newError(KindRateLimited, "bedrock", err)
		case "AccessDeniedException", "UnrecognizedClientException", "ExpiredTokenException":
			return newError(KindUnauthorized, "bedrock", err)
		case "ValidationException":
			return newError(KindMalformedResponse, "bedrock", err)
		}
	}
	return newError(KindNetwork, "bedrock", err)
}

// buildBedrockRequest assembles the Anthropic-on-Bedrock JSON body. The
// dialect mirrors the Messages API: tool_use blocks on assistant turns,
// tool_result blocks wrapped in user turns.
func buildBedrockRequest(messages []session.Message, toolset []tools.Tool) ([]byte, error) {
	var body []map[string]any
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case session.RoleSystem:
			systemPrompt = msg.Content
		case session.RoleUser:
			body = append(body, map[string]any{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": msg.Content},
				},
			})
		case session.RoleAssistant:
			var blocks []map[string]any
			if msg.Content != "" {
				blocks = append(blocks, map[string]any{"type": "text", "text": msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, map[string]any{
					"type":  "tool_use",
					"id":    tc.ID,
					"name":  tc.Name,
					"input": tc.Args,
				})
			}
			if len(blocks) == 0 {
				continue
			}
			body = append(body, map[string]any{"role": "assistant", "content": blocks})
		case session.RoleTool:
			body = append(body, map[string]any{
				"role": "user",
				"content": []map[string]any{{
					"type":        "tool_result",
					"tool_use_id": msg.ToolCallID,
					"content":     msg.Content,
				}},
			})
		}
	}

	request := map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        anthropicMaxTokens,
		"messages":          body,
	}
	if systemPrompt != "" {
		request["system"] = systemPrompt
	}
	if len(toolset) > 0 {
		var defs []map[string]any
		for _, t := range toolset {
			props, required := schemaProperties(t.Args())
			defs = append(defs, map[string]any{
				"name":        t.Name(),
				"description": t.Description(),
				"input_schema": map[string]any{
					"type":       "object",
					"properties": props,
					"required":   required,
				},
			})
		}
		request["tools"] = defs
	}

	return json.Marshal(request)
}

func processBedrockResponse(body []byte) (*session.Message, error) {
	var response struct {
		Content []struct {
			Type  string         `json:"type"`
			Text  string         `json:"text"`
			ID    string         `json:"id"`
			Name  string         `json:"name"`
			Input map[string]any `json:"input"`
		} `json:"content"`
		Error any `json:"error"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, newError(KindMalformedResponse, "bedrock", err)
	}
	if response.Error != nil {
		return nil, newError(KindMalformedResponse, "bedrock", qerrors.New("API error: %v", response.Error))
	}

	msg := &session.Message{Role: session.RoleAssistant}
	for _, item := range response.Content {
		switch item.Type {
		case "text":
			msg.Content += item.Text
		case "tool_use":
			msg.ToolCalls = append(msg.ToolCalls, session.ToolCall{
				ID:   item.ID,
				Name: item.Name,
				Args: item.Input,
			})
		}
	}
	return msg, nil
}
