package models

import (
	"context"
	"errors"
	"os"

	"github.com/sashabaranov/go-openai"
)

// OpenAILLM implements Model on top of the OpenAI chat completion API using
// its classic function-calling surface.
type OpenAILLM struct {
	Client *openai.Client
	Model  string
}

// NewOpenAILLM constructs a client. It reads OPENAI_API_KEY from the env, with
// OPENAI_KEY as a fallback.
func NewOpenAILLM(model string) *OpenAILLM {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_KEY")
	}
	return &OpenAILLM{Client: openai.NewClient(apiKey), Model: model}
}

func (o *OpenAILLM) Complete(ctx context.Context, req Request) (Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       o.Model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	if len(req.Functions) > 0 && req.FunctionCallPolicy != FunctionCallNone {
		chatReq.Functions = toOpenAIFunctions(req.Functions)
		chatReq.FunctionCall = FunctionCallAuto
	}

	resp, err := o.Client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Response{}, err
	}
	if len(resp.Choices) == 0 {
		return Response{}, errors.New("no response from OpenAI")
	}

	choice := resp.Choices[0].Message
	if choice.FunctionCall != nil {
		return Response{FunctionCall: &FunctionCall{
			Name:      choice.FunctionCall.Name,
			Arguments: choice.FunctionCall.Arguments,
		}}, nil
	}
	return Response{Content: choice.Content}, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		converted := openai.ChatCompletionMessage{Content: msg.Content}
		switch msg.Role {
		case RoleSystem:
			converted.Role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			converted.Role = openai.ChatMessageRoleAssistant
			if msg.FunctionCall != nil {
				converted.FunctionCall = &openai.FunctionCall{
					Name:      msg.FunctionCall.Name,
					Arguments: msg.FunctionCall.Arguments,
				}
			}
		case RoleFunction:
			converted.Role = openai.ChatMessageRoleFunction
			converted.Name = msg.FunctionName
		default:
			converted.Role = openai.ChatMessageRoleUser
		}
		out = append(out, converted)
	}
	return out
}

func toOpenAIFunctions(functions []FunctionSchema) []openai.FunctionDefinition {
	out := make([]openai.FunctionDefinition, 0, len(functions))
	for _, fn := range functions {
		out = append(out, openai.FunctionDefinition{
			Name:        fn.Name,
			Description: fn.Description,
			Parameters:  fn.Parameters,
		})
	}
	return out
}

var _ Model = (*OpenAILLM)(nil)
