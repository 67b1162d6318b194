package agents

import (
	"testing"

	"github.com/Protocol-Lattice/go-careagent/pkg/schema"
)

func TestDefaultDirectory(t *testing.T) {
	registry, err := Default(schema.Default())
	if err != nil {
		t.Fatalf("Default error: %v", err)
	}

	want := []string{
		"fda_agent",
		"clinical_research_agent",
		"interaction_checker_agent",
		"medical_literature_agent",
		"health_education_agent",
		"medical_coding_agent",
		"general_assistant",
	}
	list := registry.List()
	if len(list) != len(want) {
		t.Fatalf("expected %d agents, got %d", len(want), len(list))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("agent[%d] = %s, want %s", i, list[i].ID, id)
		}
		if len(list[i].Tools) == 0 {
			t.Fatalf("agent %s has no tools", id)
		}
	}
}

func TestFindKnownAndUnknown(t *testing.T) {
	registry, err := Default(schema.Default())
	if err != nil {
		t.Fatalf("Default error: %v", err)
	}

	agent, ok := registry.Find("fda_agent")
	if !ok {
		t.Fatal("fda_agent not found")
	}
	if agent.Name != "FDA Drug Information Agent" {
		t.Fatalf("unexpected display name: %s", agent.Name)
	}

	if _, ok := registry.Find("no_such_agent"); ok {
		t.Fatal("expected lookup miss for unknown id")
	}
}

func TestGeneralAssistantHasAllTools(t *testing.T) {
	schemas := schema.Default()
	registry, err := Default(schemas)
	if err != nil {
		t.Fatalf("Default error: %v", err)
	}

	agent, _ := registry.Find("general_assistant")
	if len(agent.Tools) != len(schemas.Specs()) {
		t.Fatalf("general_assistant has %d tools, registry has %d", len(agent.Tools), len(schemas.Specs()))
	}
}

func TestPermits(t *testing.T) {
	agent := Agent{ID: "a", Tools: []string{"fda_drug_lookup", "pubmed_search"}}
	if !agent.Permits("pubmed_search") {
		t.Fatal("expected pubmed_search to be permitted")
	}
	if agent.Permits("health_topics") {
		t.Fatal("expected health_topics to be denied")
	}
}

func TestNewRegistryRejectsUnknownTool(t *testing.T) {
	_, err := NewRegistry([]Agent{{
		ID:    "broken",
		Name:  "Broken",
		Tools: []string{"not_a_tool"},
	}}, schema.Default())
	if err == nil {
		t.Fatal("expected unknown tool reference to fail")
	}
}

func TestNewRegistryRejectsDuplicateID(t *testing.T) {
	_, err := NewRegistry([]Agent{
		{ID: "dup", Name: "A"},
		{ID: "dup", Name: "B"},
	}, nil)
	if err == nil {
		t.Fatal("expected duplicate id to fail")
	}
}
