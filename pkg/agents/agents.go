// Package agents holds the static directory of dispatch personas. Each agent
// pairs a system prompt with the subset of gateway tools it may invoke.
package agents

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Protocol-Lattice/go-careagent/pkg/schema"
)

// Agent is a named persona bound to a capability subset.
type Agent struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	SystemPrompt string   `json:"-"`
	Tools        []string `json:"tools"`
}

// Permits reports whether the tool name is in the agent's capability subset.
func (a Agent) Permits(tool string) bool {
	for _, t := range a.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

// Registry is an immutable-after-construction agent directory.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
	order  []string
}

// NewRegistry validates and indexes the provided agents. Every tool an agent
// references must exist in the schema registry; a dangling reference is a
// configuration bug caught at startup rather than mid-query.
func NewRegistry(list []Agent, schemas *schema.Registry) (*Registry, error) {
	r := &Registry{agents: make(map[string]Agent, len(list))}
	for _, agent := range list {
		key := strings.TrimSpace(agent.ID)
		if key == "" {
			return nil, fmt.Errorf("agent id is empty")
		}
		if _, exists := r.agents[key]; exists {
			return nil, fmt.Errorf("agent %s already registered", agent.ID)
		}
		if schemas != nil {
			for _, tool := range agent.Tools {
				if _, ok := schemas.Lookup(tool); !ok {
					return nil, fmt.Errorf("agent %s references unknown tool %s", agent.ID, tool)
				}
			}
		}
		r.agents[key] = agent
		r.order = append(r.order, key)
	}
	return r, nil
}

// List returns all agents in registration order. The order is stable so UI
// listings stay deterministic.
func (r *Registry) List() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]Agent, 0, len(r.order))
	for _, key := range r.order {
		agents = append(agents, r.agents[key])
	}
	return agents
}

// Find resolves an agent by id.
func (r *Registry) Find(id string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, ok := r.agents[strings.TrimSpace(id)]
	return agent, ok
}
