package models

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicLLM implements Model using Anthropic's Messages API with tool use.
type AnthropicLLM struct {
	Client *anthropic.Client
	Model  string
}

// NewAnthropicLLM constructs a client. It reads ANTHROPIC_API_KEY from the env.
func NewAnthropicLLM(model string) *AnthropicLLM {
	cl := anthropic.NewClient(
		anthropicopt.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &AnthropicLLM{Client: &cl, Model: model}
}

func (a *AnthropicLLM) Complete(ctx context.Context, req Request) (Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: int64(req.MaxTokens),
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}

	var messages []anthropic.MessageParam
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Content})
		case RoleAssistant:
			if msg.FunctionCall != nil {
				messages = append(messages, anthropic.MessageParam{
					Role: anthropic.MessageParamRoleAssistant,
					Content: []anthropic.ContentBlockParamUnion{{
						OfToolUse: &anthropic.ToolUseBlockParam{
							ID:    toolUseID(msg.FunctionCall.Name),
							Name:  msg.FunctionCall.Name,
							Input: json.RawMessage(msg.FunctionCall.Arguments),
						},
					}},
				})
				continue
			}
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		case RoleFunction:
			// Tool results travel as user-role blocks in the Messages API.
			messages = append(messages, anthropic.MessageParam{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{{
					OfToolResult: &anthropic.ToolResultBlockParam{
						ToolUseID: toolUseID(msg.FunctionName),
						Content: []anthropic.ToolResultBlockParamContentUnion{{
							OfText: &anthropic.TextBlockParam{Text: msg.Content},
						}},
					},
				}},
			})
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	params.Messages = messages

	if len(req.Functions) > 0 && req.FunctionCallPolicy != FunctionCallNone {
		for _, fn := range req.Functions {
			tool := anthropic.ToolParam{
				Name:        fn.Name,
				Description: anthropic.String(fn.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: fn.Parameters["properties"],
				},
			}
			if required, ok := fn.Parameters["required"].([]string); ok {
				tool.InputSchema.Required = required
			}
			params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &tool})
		}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	}

	msg, err := a.Client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, err
	}

	var text strings.Builder
	for _, cb := range msg.Content {
		switch block := cb.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(block.Text)
		case anthropic.ToolUseBlock:
			return Response{FunctionCall: &FunctionCall{
				Name:      block.Name,
				Arguments: string(block.Input),
			}}, nil
		}
	}
	return Response{Content: text.String()}, nil
}

// toolUseID derives a stable block id so a replayed tool_use and its
// tool_result pair up within one request.
func toolUseID(name string) string {
	return "toolu_" + name
}

var _ Model = (*AnthropicLLM)(nil)
