package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiLLM implements Model using Google's Gemini API with function
// declarations.
type GeminiLLM struct {
	Client *genai.Client
	Model  string
}

// NewGeminiLLM constructs a client from GOOGLE_API_KEY or GEMINI_API_KEY.
func NewGeminiLLM(ctx context.Context, model string) (*GeminiLLM, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &GeminiLLM{Client: client, Model: model}, nil
}

func (g *GeminiLLM) Complete(ctx context.Context, req Request) (Response, error) {
	model := g.Client.GenerativeModel(g.Model)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	if len(req.Functions) > 0 && req.FunctionCallPolicy != FunctionCallNone {
		model.Tools = []*genai.Tool{{FunctionDeclarations: toGeminiDeclarations(req.Functions)}}
		model.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingAuto},
		}
	}

	contents := toGeminiContents(req.Messages, model)
	if len(contents) == 0 {
		return Response{}, errors.New("gemini: empty conversation")
	}

	chat := model.StartChat()
	chat.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	resp, err := chat.SendMessage(ctx, last.Parts...)
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Response{}, errors.New("gemini: empty response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil {
				return Response{}, fmt.Errorf("gemini function call args: %w", err)
			}
			return Response{FunctionCall: &FunctionCall{
				Name:      p.Name,
				Arguments: string(args),
			}}, nil
		}
	}
	return Response{Content: text.String()}, nil
}

func toGeminiContents(messages []Message, model *genai.GenerativeModel) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(msg.Content)}}
		case RoleAssistant:
			if msg.FunctionCall != nil {
				var args map[string]any
				_ = json.Unmarshal([]byte(msg.FunctionCall.Arguments), &args)
				contents = append(contents, &genai.Content{
					Role:  "model",
					Parts: []genai.Part{genai.FunctionCall{Name: msg.FunctionCall.Name, Args: args}},
				})
				continue
			}
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		case RoleFunction:
			var payload map[string]any
			if err := json.Unmarshal([]byte(msg.Content), &payload); err != nil {
				payload = map[string]any{"content": msg.Content}
			}
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.FunctionResponse{Name: msg.FunctionName, Response: payload}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}
	return contents
}

func toGeminiDeclarations(functions []FunctionSchema) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(functions))
	for _, fn := range functions {
		schema := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: map[string]*genai.Schema{},
		}
		if required, ok := fn.Parameters["required"].([]string); ok {
			schema.Required = required
		}
		if properties, ok := fn.Parameters["properties"].(map[string]any); ok {
			for name, raw := range properties {
				prop, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				ps := &genai.Schema{Type: geminiType(prop["type"])}
				if desc, ok := prop["description"].(string); ok {
					ps.Description = desc
				}
				if enum, ok := prop["enum"].([]string); ok {
					ps.Enum = enum
				}
				schema.Properties[name] = ps
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        fn.Name,
			Description: fn.Description,
			Parameters:  schema,
		})
	}
	return decls
}

func geminiType(raw any) genai.Type {
	switch raw {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

var _ Model = (*GeminiLLM)(nil)
