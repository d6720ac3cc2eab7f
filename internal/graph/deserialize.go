package graph

import (
	"fmt"
	"sort"

	"github.com/avi3tal/agentcanvas/internal/types"
	"github.com/pkg/errors"
)

// Grid layout applied to nodes loaded from a definition. The backend does
// not persist canvas positions, so placement is derived deterministically:
// agents and external agents on the first row, tool nodes below.
const (
	layoutOriginX     = 80.0
	layoutOriginY     = 120.0
	layoutColumnWidth = 260.0
	layoutRowHeight   = 220.0
)

// Deserialize converts a backend definition into canvas nodes and edges:
// one node per agent, external agent and tool relationship, one edge per
// relationship with type and directional flags inferred from the
// relationship kind. For any definition produced by Serialize it is a
// right inverse, up to id stability and position defaulting.
func Deserialize(def *types.GraphDefinition) ([]types.Node, []types.Edge, error) {
	if def == nil {
		return nil, nil, ErrNilDefinition
	}

	agentIDs := sortedKeys(def.Agents)
	externalIDs := sortedKeys(def.ExternalAgents)

	var nodes []types.Node
	column := 0
	for _, id := range agentIDs {
		agent := def.Agents[id]
		isDefault := id == def.DefaultAgentID
		nodes = append(nodes, types.Node{
			ID:        id,
			Type:      types.NodeTypeAgent,
			Position:  gridPosition(column, 0),
			Deletable: !isDefault,
			Data: types.AgentData{
				Name:                 agent.Name,
				Description:          agent.Description,
				Prompt:               agent.Prompt,
				Models:               append([]string(nil), agent.Models...),
				DefaultAgent:         isDefault,
				DataComponentIDs:     append([]string(nil), agent.DataComponents...),
				ArtifactComponentIDs: append([]string(nil), agent.ArtifactComponents...),
			},
		})
		column++
	}
	for _, id := range externalIDs {
		external := def.ExternalAgents[id]
		nodes = append(nodes, types.Node{
			ID:        id,
			Type:      types.NodeTypeExternalAgent,
			Position:  gridPosition(column, 0),
			Deletable: true,
			Data: types.ExternalAgentData{
				Name:        external.Name,
				Description: external.Description,
				BaseURL:     external.BaseURL,
			},
		})
		column++
	}

	var edges []types.Edge
	toolColumn := 0
	for _, agentID := range agentIDs {
		for _, use := range def.Agents[agentID].CanUse {
			node := toolNode(def, agentID, use)
			node.Position = gridPosition(toolColumn, 1)
			toolColumn++
			nodes = append(nodes, node)
			edges = append(edges, types.Edge{
				ID:           EdgeID(agentID, node.ID),
				Source:       agentID,
				Target:       node.ID,
				SourceHandle: types.HandleAgentSource,
				TargetHandle: types.HandleMCPTarget,
				Type:         types.EdgeTypeMCP,
			})
		}
	}

	relationship, err := relationshipEdges(def, agentIDs)
	if err != nil {
		return nil, nil, err
	}
	edges = append(edges, relationship...)

	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return nodes, edges, nil
}

// toolNode builds the canvas node for one agent→tool relationship. The
// relationship id names the node when the backend has assigned one;
// unsaved relationships derive a placeholder id from the pair.
func toolNode(def *types.GraphDefinition, agentID string, use types.ToolUse) types.Node {
	id := use.AgentToolRelationID
	if id == "" {
		id = fmt.Sprintf("mcp-%s-%s", agentID, use.ToolID)
	}
	data := types.ToolData{
		ToolID:         use.ToolID,
		AgentID:        agentID,
		RelationshipID: use.AgentToolRelationID,
	}
	if tool, ok := def.Tools[use.ToolID]; ok {
		data.Name = tool.Name
		data.ImageURL = tool.ImageURL
	}
	return types.Node{
		ID:        id,
		Type:      types.NodeTypeMCP,
		Deletable: true,
		Data:      data,
	}
}

// relationshipEdges merges each agent's transfer/delegate targets into one
// edge per unordered endpoint pair, accumulating the four directional
// flags. Internal pairs are normalized so the lexically smaller id is the
// source; external delegation keeps the internal agent as the source.
func relationshipEdges(def *types.GraphDefinition, agentIDs []string) ([]types.Edge, error) {
	merged := make(map[string]*types.Edge)

	add := func(agentID, targetID string, transfer bool) error {
		switch {
		case targetID == agentID:
			id := SelfLoopEdgeID(agentID)
			e, ok := merged[id]
			if !ok {
				e = &types.Edge{
					ID:           id,
					Source:       agentID,
					Target:       agentID,
					SourceHandle: types.HandleAgentSource,
					TargetHandle: types.HandleAgentTarget,
					Type:         types.EdgeTypeSelfLoop,
				}
				merged[id] = e
			}
			if transfer {
				e.Relationships.TransferSourceToTarget = true
			} else {
				e.Relationships.DelegateSourceToTarget = true
			}

		case isExternal(def, targetID):
			if transfer {
				return NewConversionError("deserialize", targetID,
					errors.New("transfer to external agent is not supported"))
			}
			id := EdgeID(agentID, targetID)
			e, ok := merged[id]
			if !ok {
				e = &types.Edge{
					ID:           id,
					Source:       agentID,
					Target:       targetID,
					SourceHandle: types.HandleAgentSource,
					TargetHandle: types.HandleExternalAgentTarget,
					Type:         types.EdgeTypeA2AExternal,
				}
				merged[id] = e
			}
			e.Relationships.DelegateSourceToTarget = true

		default:
			if _, ok := def.Agents[targetID]; !ok {
				return NewConversionError("deserialize", targetID, ErrNodeNotFound)
			}
			source, target := agentID, targetID
			if source > target {
				source, target = target, source
			}
			id := EdgeID(source, target)
			e, ok := merged[id]
			if !ok {
				e = &types.Edge{
					ID:           id,
					Source:       source,
					Target:       target,
					SourceHandle: types.HandleAgentSource,
					TargetHandle: types.HandleAgentTarget,
					Type:         types.EdgeTypeA2A,
				}
				merged[id] = e
			}
			forward := agentID == source
			switch {
			case transfer && forward:
				e.Relationships.TransferSourceToTarget = true
			case transfer && !forward:
				e.Relationships.TransferTargetToSource = true
			case !transfer && forward:
				e.Relationships.DelegateSourceToTarget = true
			default:
				e.Relationships.DelegateTargetToSource = true
			}
		}
		return nil
	}

	for _, agentID := range agentIDs {
		agent := def.Agents[agentID]
		for _, target := range agent.CanTransferTo {
			if err := add(agentID, target, true); err != nil {
				return nil, err
			}
		}
		for _, target := range agent.CanDelegateTo {
			if err := add(agentID, target, false); err != nil {
				return nil, err
			}
		}
	}

	edges := make([]types.Edge, 0, len(merged))
	for _, e := range merged {
		edges = append(edges, *e)
	}
	return edges, nil
}

// BuildAgentToolConfigLookup derives the per-agent tool configuration from
// a persisted definition. Relationships the backend has not assigned an id
// to yet are skipped; they gain an entry after the next save.
func BuildAgentToolConfigLookup(def *types.GraphDefinition) types.AgentToolConfigLookup {
	lookup := make(types.AgentToolConfigLookup)
	if def == nil {
		return lookup
	}
	for agentID, agent := range def.Agents {
		for _, use := range agent.CanUse {
			if use.AgentToolRelationID == "" {
				continue
			}
			cfg := types.AgentToolConfig{
				ToolID:        use.ToolID,
				ToolSelection: append([]string(nil), use.ToolSelection...),
			}
			if len(use.Headers) > 0 {
				cfg.Headers = make(map[string]string, len(use.Headers))
				for k, v := range use.Headers {
					cfg.Headers[k] = v
				}
			}
			lookup.Set(agentID, use.AgentToolRelationID, cfg)
		}
	}
	return lookup
}

// PendingToolAssignments matches tool nodes that still lack a relationship
// id against a saved definition. Candidates match on agent id + tool id;
// each server-assigned id is consumed at most once so two new nodes
// referencing the same tool never share an id.
func PendingToolAssignments(nodes []types.Node, saved *types.GraphDefinition) map[string]string {
	assignments := make(map[string]string)
	if saved == nil {
		return assignments
	}

	pending := make([]types.Node, 0)
	for _, n := range nodes {
		if tool, ok := n.ToolData(); ok && tool.RelationshipID == "" && tool.AgentID != "" {
			pending = append(pending, n)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })

	consumed := make(map[string]bool)
	for _, n := range pending {
		tool, _ := n.ToolData()
		agent, ok := saved.Agents[tool.AgentID]
		if !ok {
			continue
		}
		for _, use := range agent.CanUse {
			if use.ToolID != tool.ToolID || use.AgentToolRelationID == "" {
				continue
			}
			if consumed[use.AgentToolRelationID] {
				continue
			}
			consumed[use.AgentToolRelationID] = true
			assignments[n.ID] = use.AgentToolRelationID
			break
		}
	}
	return assignments
}

func isExternal(def *types.GraphDefinition, id string) bool {
	_, ok := def.ExternalAgents[id]
	return ok
}

func gridPosition(column, row int) types.Position {
	return types.Position{
		X: layoutOriginX + float64(column)*layoutColumnWidth,
		Y: layoutOriginY + float64(row)*layoutRowHeight,
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
