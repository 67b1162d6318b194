package schema

// Default returns the registry of tools exposed by the healthcare MCP gateway.
// Names and parameter contracts match the gateway's wire API and must not
// drift from it.
func Default() *Registry {
	registry, err := NewRegistry(defaultSchemas())
	if err != nil {
		// The default table is static; a construction failure is a programming
		// error, not a runtime condition.
		panic(err)
	}
	return registry
}

func defaultSchemas() []ToolSchema {
	return []ToolSchema{
		{
			Name:        "fda_drug_lookup",
			Description: "Look up drug information from the FDA database",
			Parameters: map[string]Property{
				"drug_name": {
					Type:        "string",
					Description: "Name of the drug to search for",
				},
				"search_type": {
					Type:        "string",
					Description: "Type of information to retrieve: 'general', 'label', or 'adverse_events'",
					Enum:        []string{"general", "label", "adverse_events"},
					Default:     "general",
				},
			},
			Required: []string{"drug_name"},
		},
		{
			Name:        "pubmed_search",
			Description: "Search for medical literature in the PubMed database",
			Parameters: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Search query for medical literature",
				},
				"max_results": {
					Type:        "integer",
					Description: "Maximum number of results to return",
					Default:     5,
				},
				"date_range": {
					Type:        "string",
					Description: "Limit to articles published within the given number of years",
				},
			},
			Required: []string{"query"},
		},
		{
			Name:        "clinical_trials_search",
			Description: "Search for clinical trials by condition and status",
			Parameters: map[string]Property{
				"condition": {
					Type:        "string",
					Description: "Medical condition or disease to search for",
				},
				"status": {
					Type:        "string",
					Description: "Trial status to filter by",
					Enum:        []string{"recruiting", "completed", "active", "not_recruiting", "all"},
					Default:     "recruiting",
				},
				"max_results": {
					Type:        "integer",
					Description: "Maximum number of results to return",
					Default:     10,
				},
			},
			Required: []string{"condition"},
		},
		{
			Name:        "health_topics",
			Description: "Get evidence-based health information from Health.gov",
			Parameters: map[string]Property{
				"topic": {
					Type:        "string",
					Description: "Health topic to search for information",
				},
				"language": {
					Type:        "string",
					Description: "Language for content",
					Enum:        []string{"en", "es"},
					Default:     "en",
				},
			},
			Required: []string{"topic"},
		},
		{
			Name:        "lookup_icd_code",
			Description: "Look up ICD-10 codes by code or description",
			Parameters: map[string]Property{
				"code": {
					Type:        "string",
					Description: "ICD-10 code to look up",
				},
				"description": {
					Type:        "string",
					Description: "Medical condition description to search for",
				},
				"max_results": {
					Type:        "integer",
					Description: "Maximum number of results to return",
					Default:     10,
				},
			},
		},
		{
			Name:        "medical_terminology_search",
			Description: "Look up definitions of medical terminology",
			Parameters: map[string]Property{
				"term": {
					Type:        "string",
					Description: "Medical term to define",
				},
			},
			Required: []string{"term"},
		},
		{
			Name:        "ai_clinical_search",
			Description: "Run an AI-assisted search across clinical knowledge sources",
			Parameters: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Clinical question to research",
				},
			},
			Required: []string{"query"},
		},
		{
			Name:        "interaction_checker",
			Description: "Check for known interactions between two drugs",
			Parameters: map[string]Property{
				"drug1": {
					Type:        "string",
					Description: "First drug name",
				},
				"drug2": {
					Type:        "string",
					Description: "Second drug name",
				},
			},
			Required: []string{"drug1", "drug2"},
		},
	}
}
