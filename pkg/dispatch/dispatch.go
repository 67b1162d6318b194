// Package dispatch implements the agent dispatch loop: resolve an agent,
// offer its tool schemas to a completion model, execute at most one requested
// tool call through the gateway, and fold the result into a final answer.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Protocol-Lattice/go-careagent/pkg/agents"
	"github.com/Protocol-Lattice/go-careagent/pkg/models"
	"github.com/Protocol-Lattice/go-careagent/pkg/schema"
)

// Completion budgets per call site. The first call needs headroom for either
// a direct answer or a function-call stub; the second composes the final
// answer from a tool result.
const (
	callTemperature    = 0.7
	firstCallMaxTokens = 1000
	finalCallMaxTokens = 1500
)

// errAgentNotFound is the terminal routing failure surfaced verbatim to
// callers; it signals stale caller state, not a retryable condition.
const errAgentNotFound = "Agent not found"

// ToolGateway executes a named tool remotely and returns its normalized
// result.
type ToolGateway interface {
	CallTool(ctx context.Context, name string, arguments map[string]any, sessionID string) (any, error)
}

// UsageRecorder observes completed tool invocations. Recording failures never
// fail a dispatch.
type UsageRecorder interface {
	Record(sessionID, tool string) error
}

// Result is the envelope returned for every dispatch. Error and Response are
// mutually exclusive.
type Result struct {
	Response   string   `json:"response,omitempty"`
	AgentName  string   `json:"agent_name,omitempty"`
	ToolsUsed  []string `json:"tools_used"`
	ToolResult any      `json:"tool_result,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Options configure a new Dispatcher.
type Options struct {
	Agents  *agents.Registry
	Schemas *schema.Registry
	Model   models.Model
	Gateway ToolGateway
	Usage   UsageRecorder
	Logger  *slog.Logger
}

// Dispatcher routes queries to agents. It is the trust boundary between
// unreliable upstream calls and the caller: every failure mode is converted
// into Result.Error and nothing escapes.
type Dispatcher struct {
	agents  *agents.Registry
	schemas *schema.Registry
	model   models.Model
	gateway ToolGateway
	usage   UsageRecorder
	log     *slog.Logger
}

// New creates a Dispatcher with the provided options.
func New(opts Options) (*Dispatcher, error) {
	if opts.Agents == nil {
		return nil, errors.New("dispatcher requires an agent registry")
	}
	if opts.Schemas == nil {
		return nil, errors.New("dispatcher requires a schema registry")
	}
	if opts.Model == nil {
		return nil, errors.New("dispatcher requires a completion model")
	}
	if opts.Gateway == nil {
		return nil, errors.New("dispatcher requires a tool gateway")
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		agents:  opts.Agents,
		schemas: opts.Schemas,
		model:   opts.Model,
		gateway: opts.Gateway,
		usage:   opts.Usage,
		log:     log,
	}, nil
}

// Dispatch handles one query end to end with at most one tool round-trip.
func (d *Dispatcher) Dispatch(ctx context.Context, agentID, sessionID, query string) Result {
	agent, ok := d.agents.Find(agentID)
	if !ok {
		d.log.Warn("dispatch to unknown agent", "agent_id", agentID)
		return Result{Error: errAgentNotFound, ToolsUsed: []string{}}
	}

	conversation := []models.Message{
		{Role: models.RoleSystem, Content: systemMessage(agent)},
		{Role: models.RoleUser, Content: query},
	}

	first, err := d.model.Complete(ctx, models.Request{
		Messages:           conversation,
		Functions:          d.functionSchemas(agent),
		FunctionCallPolicy: models.FunctionCallAuto,
		Temperature:        callTemperature,
		MaxTokens:          firstCallMaxTokens,
	})
	if err != nil {
		return d.fail(agent, fmt.Errorf("completion failed: %w", err))
	}

	if first.FunctionCall == nil {
		d.log.Info("dispatch answered directly", "agent_id", agent.ID)
		return Result{Response: first.Content, AgentName: agent.Name, ToolsUsed: []string{}}
	}

	call := first.FunctionCall
	var arguments map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &arguments); err != nil {
		return d.fail(agent, fmt.Errorf("model returned malformed arguments for tool %s: %w", call.Name, err))
	}

	if !agent.Permits(call.Name) {
		// Schema filtering is advisory to the model, not an enforced
		// boundary; out-of-set requests proceed but are worth noticing.
		d.log.Warn("model requested tool outside agent set", "agent_id", agent.ID, "tool", call.Name)
	}

	d.log.Info("executing tool", "agent_id", agent.ID, "tool", call.Name)
	toolResult, err := d.gateway.CallTool(ctx, call.Name, arguments, sessionID)
	if err != nil {
		return d.fail(agent, fmt.Errorf("tool %s failed: %w", call.Name, err))
	}
	d.recordUsage(sessionID, call.Name)

	resultJSON, err := json.Marshal(toolResult)
	if err != nil {
		return d.fail(agent, fmt.Errorf("tool %s produced unserializable result: %w", call.Name, err))
	}

	conversation = append(conversation,
		models.Message{Role: models.RoleAssistant, FunctionCall: call},
		models.Message{Role: models.RoleFunction, FunctionName: call.Name, Content: string(resultJSON)},
	)

	// No schemas on the second call: the model must compose a final answer,
	// not chain another tool.
	final, err := d.model.Complete(ctx, models.Request{
		Messages:           conversation,
		FunctionCallPolicy: models.FunctionCallNone,
		Temperature:        callTemperature,
		MaxTokens:          finalCallMaxTokens,
	})
	if err != nil {
		return d.fail(agent, fmt.Errorf("completion after tool %s failed: %w", call.Name, err))
	}

	return Result{
		Response:   final.Content,
		AgentName:  agent.Name,
		ToolsUsed:  []string{call.Name},
		ToolResult: toolResult,
	}
}

func (d *Dispatcher) recordUsage(sessionID, tool string) {
	if d.usage == nil {
		return
	}
	if err := d.usage.Record(sessionID, tool); err != nil {
		d.log.Warn("usage recording failed", "tool", tool, "error", err)
	}
}

func (d *Dispatcher) fail(agent agents.Agent, err error) Result {
	d.log.Error("dispatch failed", "agent_id", agent.ID, "error", err)
	return Result{AgentName: agent.Name, ToolsUsed: []string{}, Error: err.Error()}
}

func (d *Dispatcher) functionSchemas(agent agents.Agent) []models.FunctionSchema {
	specs := d.schemas.Filter(agent.Tools)
	functions := make([]models.FunctionSchema, 0, len(specs))
	for _, spec := range specs {
		functions = append(functions, models.FunctionSchema{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.FunctionDefinition(),
		})
	}
	return functions
}

// systemMessage prepends the agent's prompt with an enumeration of its tool
// names so the model knows its capability set before seeing formal schemas.
func systemMessage(agent agents.Agent) string {
	if len(agent.Tools) == 0 {
		return agent.SystemPrompt
	}
	var sb strings.Builder
	sb.WriteString(agent.SystemPrompt)
	sb.WriteString("\n\nAvailable tools: ")
	sb.WriteString(strings.Join(agent.Tools, ", "))
	return sb.String()
}
