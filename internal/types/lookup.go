package types

// ToolCapability is a single capability exposed by an MCP tool server.
type ToolCapability struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Tool is a catalog entry the canvas can instantiate MCP nodes from.
type Tool struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	ImageURL     string           `json:"imageUrl,omitempty"`
	Capabilities []ToolCapability `json:"capabilities,omitempty"`
}

// ToolLookup indexes the tool catalog by tool id.
type ToolLookup map[string]Tool

// DataComponent is a structured-output component agents can attach.
type DataComponent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DataComponentLookup indexes data components by id.
type DataComponentLookup map[string]DataComponent

// ArtifactComponent is an artifact-producing component agents can attach.
type ArtifactComponent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ArtifactComponentLookup indexes artifact components by id.
type ArtifactComponentLookup map[string]ArtifactComponent

// AgentToolConfig captures how one agent uses one tool: an optional
// ordered subset of the tool's capabilities and optional request headers.
type AgentToolConfig struct {
	ToolID        string            `json:"toolId"`
	ToolSelection []string          `json:"toolSelection,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
}

// Clone returns a copy sharing no mutable state with the original.
func (c AgentToolConfig) Clone() AgentToolConfig {
	c.ToolSelection = append([]string(nil), c.ToolSelection...)
	if c.Headers != nil {
		headers := make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			headers[k] = v
		}
		c.Headers = headers
	}
	return c
}

// AgentToolConfigLookup maps agent id → relationship id → tool config.
// It is derived from a persisted definition once at load time and
// re-synchronized with server-assigned relationship ids after each save.
type AgentToolConfigLookup map[string]map[string]AgentToolConfig

// Config returns the config for an agent/relationship pair.
func (l AgentToolConfigLookup) Config(agentID, relationshipID string) (AgentToolConfig, bool) {
	rels, ok := l[agentID]
	if !ok {
		return AgentToolConfig{}, false
	}
	cfg, ok := rels[relationshipID]
	return cfg, ok
}

// Set stores the config for an agent/relationship pair.
func (l AgentToolConfigLookup) Set(agentID, relationshipID string, cfg AgentToolConfig) {
	rels, ok := l[agentID]
	if !ok {
		rels = make(map[string]AgentToolConfig)
		l[agentID] = rels
	}
	rels[relationshipID] = cfg
}

// Clone returns a deep copy of the lookup.
func (l AgentToolConfigLookup) Clone() AgentToolConfigLookup {
	if l == nil {
		return nil
	}
	out := make(AgentToolConfigLookup, len(l))
	for agentID, rels := range l {
		m := make(map[string]AgentToolConfig, len(rels))
		for relID, cfg := range rels {
			m[relID] = cfg.Clone()
		}
		out[agentID] = m
	}
	return out
}
