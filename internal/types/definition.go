package types

// GraphDefinition is the backend's declarative description of a graph:
// agents keyed by id, each naming the tools it can use and the agents it
// can transfer or delegate to. It is the wire format of the management
// plane; the canvas representation is derived from it and folded back
// into it on save.
type GraphDefinition struct {
	ID                 string                               `json:"id,omitempty"`
	Name               string                               `json:"name"`
	Description        string                               `json:"description,omitempty"`
	DefaultAgentID     string                               `json:"defaultAgentId"`
	Agents             map[string]AgentDefinition           `json:"agents"`
	ExternalAgents     map[string]ExternalAgentDefinition   `json:"externalAgents,omitempty"`
	Tools              map[string]ToolDefinition            `json:"tools,omitempty"`
	DataComponents     map[string]DataComponentDefinition   `json:"dataComponents,omitempty"`
	ArtifactComponents map[string]ArtifactComponentDefinition `json:"artifactComponents,omitempty"`
}

// AgentDefinition describes one internal agent and its relationships.
type AgentDefinition struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	Prompt             string    `json:"prompt,omitempty"`
	Models             []string  `json:"models,omitempty"`
	CanUse             []ToolUse `json:"canUse,omitempty"`
	CanTransferTo      []string  `json:"canTransferTo,omitempty"`
	CanDelegateTo      []string  `json:"canDelegateTo,omitempty"`
	DataComponents     []string  `json:"dataComponents,omitempty"`
	ArtifactComponents []string  `json:"artifactComponents,omitempty"`
}

// ToolUse is one agent→tool relationship. AgentToolRelationID is assigned
// by the backend on save; a new relationship travels without one.
type ToolUse struct {
	ToolID              string            `json:"toolId"`
	AgentToolRelationID string            `json:"agentToolRelationId,omitempty"`
	ToolSelection       []string          `json:"toolSelection,omitempty"`
	Headers             map[string]string `json:"headers,omitempty"`
}

// ExternalAgentDefinition describes an agent reachable only by delegation.
type ExternalAgentDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BaseURL     string `json:"baseUrl,omitempty"`
}

// ToolDefinition is a catalog entry for an MCP tool server.
type ToolDefinition struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	ImageURL       string           `json:"imageUrl,omitempty"`
	AvailableTools []ToolCapability `json:"availableTools,omitempty"`
}

// DataComponentDefinition is a catalog entry for a data component.
type DataComponentDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ArtifactComponentDefinition is a catalog entry for an artifact component.
type ArtifactComponentDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
