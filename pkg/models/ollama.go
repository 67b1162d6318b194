package models

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaLLM implements Model against a local Ollama server with native tool
// calling.
type OllamaLLM struct {
	Client *ollama.Client
	Model  string
}

// NewOllamaLLM constructs a client for OLLAMA_HOST (default localhost:11434).
func NewOllamaLLM(model string) (*OllamaLLM, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}

	httpClient := &http.Client{
		Timeout: 60 * time.Second,
	}

	return &OllamaLLM{Client: ollama.NewClient(u, httpClient), Model: model}, nil
}

func (o *OllamaLLM) Complete(ctx context.Context, req Request) (Response, error) {
	messages := make([]ollama.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch {
		case msg.Role == RoleFunction:
			messages = append(messages, ollama.Message{Role: "tool", Content: msg.Content})
		case msg.Role == RoleAssistant && msg.FunctionCall != nil:
			var args ollama.ToolCallFunctionArguments
			if err := json.Unmarshal([]byte(msg.FunctionCall.Arguments), &args); err != nil {
				return Response{}, fmt.Errorf("replay tool call %s: %w", msg.FunctionCall.Name, err)
			}
			messages = append(messages, ollama.Message{
				Role: "assistant",
				ToolCalls: []ollama.ToolCall{{
					Function: ollama.ToolCallFunction{Name: msg.FunctionCall.Name, Arguments: args},
				}},
			})
		default:
			messages = append(messages, ollama.Message{Role: msg.Role, Content: msg.Content})
		}
	}

	chatReq := &ollama.ChatRequest{
		Model:    o.Model,
		Messages: messages,
		Options: map[string]any{
			"temperature": float64(req.Temperature),
			"num_predict": req.MaxTokens,
		},
	}
	stream := false
	chatReq.Stream = &stream

	if len(req.Functions) > 0 && req.FunctionCallPolicy != FunctionCallNone {
		chatReq.Tools = toOllamaTools(req.Functions)
	}

	var final ollama.ChatResponse
	if err := o.Client.Chat(ctx, chatReq, func(resp ollama.ChatResponse) error {
		final = resp
		return nil
	}); err != nil {
		return Response{}, err
	}

	if len(final.Message.ToolCalls) > 0 {
		call := final.Message.ToolCalls[0]
		args, err := json.Marshal(call.Function.Arguments)
		if err != nil {
			return Response{}, fmt.Errorf("ollama tool call args: %w", err)
		}
		return Response{FunctionCall: &FunctionCall{
			Name:      call.Function.Name,
			Arguments: string(args),
		}}, nil
	}
	return Response{Content: final.Message.Content}, nil
}

func toOllamaTools(functions []FunctionSchema) []ollama.Tool {
	tools := make([]ollama.Tool, 0, len(functions))
	for _, fn := range functions {
		tool := ollama.Tool{Type: "function"}
		tool.Function.Name = fn.Name
		tool.Function.Description = fn.Description
		tool.Function.Parameters.Type = "object"
		if required, ok := fn.Parameters["required"].([]string); ok {
			tool.Function.Parameters.Required = required
		}
		properties := map[string]ollama.ToolProperty{}
		if raw, ok := fn.Parameters["properties"].(map[string]any); ok {
			for name, value := range raw {
				prop, ok := value.(map[string]any)
				if !ok {
					continue
				}
				tp := ollama.ToolProperty{}
				if typ, ok := prop["type"].(string); ok {
					tp.Type = ollama.PropertyType{typ}
				}
				if desc, ok := prop["description"].(string); ok {
					tp.Description = desc
				}
				if enum, ok := prop["enum"].([]string); ok {
					for _, v := range enum {
						tp.Enum = append(tp.Enum, v)
					}
				}
				properties[name] = tp
			}
		}
		tool.Function.Parameters.Properties = properties
		tools = append(tools, tool)
	}
	return tools
}

var _ Model = (*OllamaLLM)(nil)
