// Package models adapts third-party completion APIs to the single interface
// the dispatcher calls. Each adapter translates the shared conversation shape
// into the provider's native function-calling request.
package models

import (
	"context"
)

// Message roles used across all providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
)

// Function-call policies accepted by Request.FunctionCallPolicy.
const (
	FunctionCallAuto = "auto"
	FunctionCallNone = "none"
)

// FunctionCall is a model's request to invoke one named tool. Arguments is the
// raw JSON text emitted by the model; the dispatcher is responsible for
// parsing (and rejecting) it.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one turn in a conversation. Content carries text for
// system/user/assistant turns; FunctionCall is set only on assistant turns
// requesting a tool; FunctionName is set only on function-result turns.
type Message struct {
	Role         string        `json:"role"`
	Content      string        `json:"content,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
	FunctionName string        `json:"name,omitempty"`
}

// FunctionSchema is the provider-neutral description of a callable function.
// Parameters is a JSON-schema object map.
type FunctionSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a single completion call.
type Request struct {
	Messages           []Message
	Functions          []FunctionSchema
	FunctionCallPolicy string
	Temperature        float32
	MaxTokens          int
}

// Response is the model's reply: either final text or a function-call request.
type Response struct {
	Content      string
	FunctionCall *FunctionCall
}

// Model is a chat completion provider.
type Model interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
