package graph

import (
	"sort"

	"github.com/avi3tal/agentcanvas/internal/types"
	"github.com/pkg/errors"
)

// Serialize folds the canvas representation back into the backend's
// declarative definition: per-edge relationship flags become each agent's
// canUse/canTransferTo/canDelegateTo fields, and referenced data/artifact
// components are attached by id. A graph id is assigned when the metadata
// has none yet.
func Serialize(
	nodes []types.Node,
	edges []types.Edge,
	meta types.GraphMetadata,
	dataComponents types.DataComponentLookup,
	artifactComponents types.ArtifactComponentLookup,
	toolConfigs types.AgentToolConfigLookup,
) (*types.GraphDefinition, error) {
	byID := make(map[string]types.Node, len(nodes))
	for _, n := range nodes {
		if _, exists := byID[n.ID]; exists {
			return nil, NewConversionError("serialize", n.ID, ErrDuplicateNode)
		}
		byID[n.ID] = n
	}

	defaultAgentID := ""
	for _, n := range nodes {
		if !n.IsDefaultAgent() {
			continue
		}
		if defaultAgentID != "" {
			return nil, ErrMultipleDefaultAgents
		}
		defaultAgentID = n.ID
	}
	if defaultAgentID == "" {
		return nil, ErrNoDefaultAgent
	}

	graphID := meta.ID
	if graphID == "" {
		graphID = NewGraphID(meta.Name)
	}

	def := &types.GraphDefinition{
		ID:             graphID,
		Name:           meta.Name,
		Description:    meta.Description,
		DefaultAgentID: defaultAgentID,
		Agents:         make(map[string]types.AgentDefinition),
	}

	agents := make(map[string]*types.AgentDefinition)
	for _, n := range nodes {
		switch data := n.Data.(type) {
		case types.AgentData:
			agents[n.ID] = &types.AgentDefinition{
				ID:                 n.ID,
				Name:               data.Name,
				Description:        data.Description,
				Prompt:             data.Prompt,
				Models:             append([]string(nil), data.Models...),
				DataComponents:     append([]string(nil), data.DataComponentIDs...),
				ArtifactComponents: append([]string(nil), data.ArtifactComponentIDs...),
			}
		case types.ExternalAgentData:
			if def.ExternalAgents == nil {
				def.ExternalAgents = make(map[string]types.ExternalAgentDefinition)
			}
			def.ExternalAgents[n.ID] = types.ExternalAgentDefinition{
				ID:          n.ID,
				Name:        data.Name,
				Description: data.Description,
				BaseURL:     data.BaseURL,
			}
		case types.ToolData:
			if def.Tools == nil {
				def.Tools = make(map[string]types.ToolDefinition)
			}
			if _, seen := def.Tools[data.ToolID]; !seen {
				def.Tools[data.ToolID] = types.ToolDefinition{
					ID:       data.ToolID,
					Name:     data.Name,
					ImageURL: data.ImageURL,
				}
			}
		case nil:
			return nil, NewConversionError("serialize", n.ID, errors.New("node has no payload"))
		default:
			return nil, NewConversionError("serialize", n.ID, errors.Errorf("unhandled node type %q", n.Type))
		}
	}

	for _, e := range edges {
		if err := foldEdge(e, byID, agents, toolConfigs); err != nil {
			return nil, err
		}
	}

	for id, agent := range agents {
		sort.Strings(agent.CanTransferTo)
		sort.Strings(agent.CanDelegateTo)
		sort.Slice(agent.CanUse, func(i, j int) bool {
			if agent.CanUse[i].ToolID != agent.CanUse[j].ToolID {
				return agent.CanUse[i].ToolID < agent.CanUse[j].ToolID
			}
			return agent.CanUse[i].AgentToolRelationID < agent.CanUse[j].AgentToolRelationID
		})
		attachComponents(def, agent, dataComponents, artifactComponents)
		def.Agents[id] = *agent
	}

	return def, nil
}

// foldEdge folds one edge's relationship flags into the agent definitions.
func foldEdge(
	e types.Edge,
	byID map[string]types.Node,
	agents map[string]*types.AgentDefinition,
	toolConfigs types.AgentToolConfigLookup,
) error {
	switch e.Type {
	case types.EdgeTypeA2A:
		source, ok := agents[e.Source]
		if !ok {
			return NewConversionError("serialize", e.ID, errors.Wrapf(ErrNodeNotFound, "edge source %s", e.Source))
		}
		target, ok := agents[e.Target]
		if !ok {
			return NewConversionError("serialize", e.ID, errors.Wrapf(ErrNodeNotFound, "edge target %s", e.Target))
		}
		if e.Relationships.TransferSourceToTarget {
			source.CanTransferTo = append(source.CanTransferTo, e.Target)
		}
		if e.Relationships.TransferTargetToSource {
			target.CanTransferTo = append(target.CanTransferTo, e.Source)
		}
		if e.Relationships.DelegateSourceToTarget {
			source.CanDelegateTo = append(source.CanDelegateTo, e.Target)
		}
		if e.Relationships.DelegateTargetToSource {
			target.CanDelegateTo = append(target.CanDelegateTo, e.Source)
		}

	case types.EdgeTypeSelfLoop:
		agent, ok := agents[e.Source]
		if !ok {
			return NewConversionError("serialize", e.ID, errors.Wrapf(ErrNodeNotFound, "edge source %s", e.Source))
		}
		if e.Relationships.TransferSourceToTarget {
			agent.CanTransferTo = append(agent.CanTransferTo, e.Source)
		}
		if e.Relationships.DelegateSourceToTarget {
			agent.CanDelegateTo = append(agent.CanDelegateTo, e.Source)
		}

	case types.EdgeTypeA2AExternal:
		agent, ok := agents[e.Source]
		if !ok {
			return NewConversionError("serialize", e.ID, errors.Wrapf(ErrNodeNotFound, "edge source %s", e.Source))
		}
		// Delegation toward the external agent is the only direction the
		// backend accepts; any other flag on this edge carries no meaning.
		if e.Relationships.DelegateSourceToTarget {
			agent.CanDelegateTo = append(agent.CanDelegateTo, e.Target)
		}

	case types.EdgeTypeMCP:
		agent, ok := agents[e.Source]
		if !ok {
			return NewConversionError("serialize", e.ID, errors.Wrapf(ErrNodeNotFound, "edge source %s", e.Source))
		}
		node, ok := byID[e.Target]
		if !ok {
			return NewConversionError("serialize", e.ID, errors.Wrapf(ErrNodeNotFound, "edge target %s", e.Target))
		}
		tool, ok := node.ToolData()
		if !ok {
			return NewConversionError("serialize", e.ID, errors.Errorf("edge target %s is not a tool node", e.Target))
		}
		use := types.ToolUse{
			ToolID:              tool.ToolID,
			AgentToolRelationID: tool.RelationshipID,
		}
		if cfg, ok := toolConfigs.Config(e.Source, tool.RelationshipID); ok {
			use.ToolSelection = append([]string(nil), cfg.ToolSelection...)
			if len(cfg.Headers) > 0 {
				use.Headers = make(map[string]string, len(cfg.Headers))
				for k, v := range cfg.Headers {
					use.Headers[k] = v
				}
			}
		}
		agent.CanUse = append(agent.CanUse, use)

	case types.EdgeTypeDefault:
		// No relationship payload to fold.

	default:
		return NewConversionError("serialize", e.ID, errors.Errorf("unhandled edge type %q", e.Type))
	}
	return nil
}

// attachComponents resolves the agent's component references against the
// lookups and records the resolved definitions on the graph. References
// missing from a lookup stay on the agent but add no catalog entry.
func attachComponents(
	def *types.GraphDefinition,
	agent *types.AgentDefinition,
	dataComponents types.DataComponentLookup,
	artifactComponents types.ArtifactComponentLookup,
) {
	for _, id := range agent.DataComponents {
		component, ok := dataComponents[id]
		if !ok {
			continue
		}
		if def.DataComponents == nil {
			def.DataComponents = make(map[string]types.DataComponentDefinition)
		}
		def.DataComponents[id] = types.DataComponentDefinition{
			ID:          component.ID,
			Name:        component.Name,
			Description: component.Description,
		}
	}
	for _, id := range agent.ArtifactComponents {
		component, ok := artifactComponents[id]
		if !ok {
			continue
		}
		if def.ArtifactComponents == nil {
			def.ArtifactComponents = make(map[string]types.ArtifactComponentDefinition)
		}
		def.ArtifactComponents[id] = types.ArtifactComponentDefinition{
			ID:          component.ID,
			Name:        component.Name,
			Description: component.Description,
		}
	}
}
