// Package schema holds the static registry of tool parameter schemas that the
// dispatch loop forwards to completion models and the remote tool gateway.
package schema

import (
	"fmt"
	"strings"
	"sync"
)

// Property describes a single tool parameter.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

// ToolSchema describes one invocable tool: its wire name, a description the
// model uses for tool selection, and a JSON-schema style parameter object.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]Property
	Required    []string
}

// FunctionDefinition renders the schema as the JSON-schema object expected by
// function-calling completion APIs.
func (s ToolSchema) FunctionDefinition() map[string]any {
	properties := make(map[string]any, len(s.Parameters))
	for name, prop := range s.Parameters {
		p := map[string]any{"type": prop.Type}
		if prop.Description != "" {
			p["description"] = prop.Description
		}
		if len(prop.Enum) > 0 {
			p["enum"] = prop.Enum
		}
		if prop.Default != nil {
			p["default"] = prop.Default
		}
		properties[name] = p
	}
	required := s.Required
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// Registry is an immutable-after-construction catalog of tool schemas keyed by
// lower-cased name, preserving registration order.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]ToolSchema
	order []string
}

// NewRegistry constructs a registry seeded with the provided schemas.
func NewRegistry(specs []ToolSchema) (*Registry, error) {
	r := &Registry{specs: make(map[string]ToolSchema, len(specs))}
	for _, spec := range specs {
		if err := r.register(spec); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(spec ToolSchema) error {
	key := strings.ToLower(strings.TrimSpace(spec.Name))
	if key == "" {
		return fmt.Errorf("tool schema name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[key]; exists {
		return fmt.Errorf("tool schema %s already registered", spec.Name)
	}
	for _, req := range spec.Required {
		if _, ok := spec.Parameters[req]; !ok {
			return fmt.Errorf("tool schema %s requires unknown parameter %s", spec.Name, req)
		}
	}
	r.specs[key] = spec
	r.order = append(r.order, key)
	return nil
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (ToolSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[strings.ToLower(strings.TrimSpace(name))]
	return spec, ok
}

// Specs returns a snapshot of all schemas in registration order.
func (r *Registry) Specs() []ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]ToolSchema, 0, len(r.order))
	for _, key := range r.order {
		specs = append(specs, r.specs[key])
	}
	return specs
}

// Filter resolves the given tool names in input order. Unknown names are
// dropped silently; the agent directory is trusted static data and a stale
// entry should degrade a query, not abort it.
func (r *Registry) Filter(names []string) []ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]ToolSchema, 0, len(names))
	for _, name := range names {
		if spec, ok := r.specs[strings.ToLower(strings.TrimSpace(name))]; ok {
			specs = append(specs, spec)
		}
	}
	return specs
}
