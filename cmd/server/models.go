package main

// API request and response models

// EvaluateRequest represents the request body for evaluating a decision.
// Exactly one of decisionId and decisionKey must be set. tenantId and
// withoutTenant narrow key lookups to a tenant scope; leaving both unset
// matches any tenant. version 0 means "latest".
type EvaluateRequest struct {
	DecisionID    string         `json:"decisionId,omitempty"`
	DecisionKey   string         `json:"decisionKey,omitempty"`
	TenantID      string         `json:"tenantId,omitempty"`
	WithoutTenant bool           `json:"withoutTenant,omitempty"`
	Version       int            `json:"version,omitempty"`
	Variables     map[string]any `json:"variables"`
}

// EvaluateResponse represents the response for a decision evaluation.
// Results holds one entry per matched rule, in rule declaration order.
type EvaluateResponse struct {
	Results        []map[string]any `json:"results"`
	EvaluationTime string           `json:"evaluationTime"`
}

// DefinitionResponse represents a deployed decision definition.
type DefinitionResponse struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name,omitempty"`
	Version  int    `json:"version"`
	TenantID string `json:"tenantId,omitempty"`
}

// DefinitionsListResponse represents the response for listing definitions.
type DefinitionsListResponse struct {
	Definitions []DefinitionResponse `json:"definitions"`
}
