package graph

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/avi3tal/agentcanvas/internal/types"
)

//---------------------------//
//    Fixtures               //
//---------------------------//

func agentNode(id, name string, isDefault bool) types.Node {
	return types.Node{
		ID:        id,
		Type:      types.NodeTypeAgent,
		Deletable: !isDefault,
		Data: types.AgentData{
			Name:         name,
			Prompt:       "You are " + name,
			DefaultAgent: isDefault,
		},
	}
}

func externalNode(id, name, baseURL string) types.Node {
	return types.Node{
		ID:        id,
		Type:      types.NodeTypeExternalAgent,
		Deletable: true,
		Data: types.ExternalAgentData{
			Name:    name,
			BaseURL: baseURL,
		},
	}
}

func canvasFixture() ([]types.Node, []types.Edge, types.GraphMetadata, types.AgentToolConfigLookup) {
	planner := agentNode("planner", "Planner", true)
	planner.Data = types.AgentData{
		Name:             "Planner",
		Prompt:           "You are Planner",
		DefaultAgent:     true,
		DataComponentIDs: []string{"dc-order"},
	}

	nodes := []types.Node{
		planner,
		agentNode("support", "Support", false),
		externalNode("vendor", "Vendor", "https://vendor.example.com"),
		{
			ID:        "rel-7",
			Type:      types.NodeTypeMCP,
			Deletable: true,
			Data: types.ToolData{
				ToolID:         "search",
				Name:           "Search",
				AgentID:        "planner",
				RelationshipID: "rel-7",
			},
		},
	}

	edges := []types.Edge{
		{
			ID:           EdgeID("planner", "support"),
			Source:       "planner",
			Target:       "support",
			SourceHandle: types.HandleAgentSource,
			TargetHandle: types.HandleAgentTarget,
			Type:         types.EdgeTypeA2A,
			Relationships: types.Relationships{
				TransferSourceToTarget: true,
				DelegateTargetToSource: true,
			},
		},
		{
			ID:           SelfLoopEdgeID("support"),
			Source:       "support",
			Target:       "support",
			SourceHandle: types.HandleAgentSource,
			TargetHandle: types.HandleAgentTarget,
			Type:         types.EdgeTypeSelfLoop,
			Relationships: types.Relationships{
				TransferSourceToTarget: true,
			},
		},
		{
			ID:           EdgeID("planner", "vendor"),
			Source:       "planner",
			Target:       "vendor",
			SourceHandle: types.HandleAgentSource,
			TargetHandle: types.HandleExternalAgentTarget,
			Type:         types.EdgeTypeA2AExternal,
			Relationships: types.Relationships{
				DelegateSourceToTarget: true,
			},
		},
		{
			ID:           EdgeID("planner", "rel-7"),
			Source:       "planner",
			Target:       "rel-7",
			SourceHandle: types.HandleAgentSource,
			TargetHandle: types.HandleMCPTarget,
			Type:         types.EdgeTypeMCP,
		},
	}

	meta := types.GraphMetadata{Name: "Support Desk", Description: "Routing demo"}

	configs := make(types.AgentToolConfigLookup)
	configs.Set("planner", "rel-7", types.AgentToolConfig{
		ToolID:        "search",
		ToolSelection: []string{"web_search"},
		Headers:       map[string]string{"X-Key": "k"},
	})

	return nodes, edges, meta, configs
}

//---------------------------//
//    Serialize              //
//---------------------------//

func TestSerialize(t *testing.T) {
	t.Parallel()

	nodes, edges, meta, configs := canvasFixture()
	dataComponents := types.DataComponentLookup{
		"dc-order": {ID: "dc-order", Name: "Order", Description: "Order schema"},
	}

	def, err := Serialize(nodes, edges, meta, dataComponents, nil, configs)
	require.NoError(t, err)

	require.Equal(t, "planner", def.DefaultAgentID)
	require.Equal(t, "Support Desk", def.Name)
	require.Contains(t, def.ID, "Support-Desk-", "unsaved graphs get a name-derived id")

	planner := def.Agents["planner"]
	require.Equal(t, []string{"support"}, planner.CanTransferTo)
	require.Equal(t, []string{"vendor"}, planner.CanDelegateTo)
	require.Len(t, planner.CanUse, 1)
	require.Equal(t, "search", planner.CanUse[0].ToolID)
	require.Equal(t, "rel-7", planner.CanUse[0].AgentToolRelationID)
	require.Equal(t, []string{"web_search"}, planner.CanUse[0].ToolSelection)
	require.Equal(t, map[string]string{"X-Key": "k"}, planner.CanUse[0].Headers)

	support := def.Agents["support"]
	require.Equal(t, []string{"support"}, support.CanTransferTo, "self-loop folds to a self transfer")
	require.Equal(t, []string{"planner"}, support.CanDelegateTo, "reverse flag folds onto the target agent")

	require.Contains(t, def.ExternalAgents, "vendor")
	require.Equal(t, "https://vendor.example.com", def.ExternalAgents["vendor"].BaseURL)

	require.Equal(t, "Search", def.Tools["search"].Name)
	require.Equal(t, "Order", def.DataComponents["dc-order"].Name)
}

func TestSerializeKeepsExistingGraphID(t *testing.T) {
	t.Parallel()

	nodes, edges, meta, configs := canvasFixture()
	meta.ID = "support-desk-existing"

	def, err := Serialize(nodes, edges, meta, nil, nil, configs)
	require.NoError(t, err)
	require.Equal(t, "support-desk-existing", def.ID)
}

func TestSerializeDirectionInsensitive(t *testing.T) {
	t.Parallel()

	// The same a2a edge expressed from the other endpoint, with mirrored
	// flags, must fold to the same definition.
	nodes, edges, meta, configs := canvasFixture()
	forward, err := Serialize(nodes, edges, meta, nil, nil, configs)
	require.NoError(t, err)

	for i, e := range edges {
		if e.Type != types.EdgeTypeA2A {
			continue
		}
		edges[i] = types.Edge{
			ID:           e.ID,
			Source:       e.Target,
			Target:       e.Source,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
			Type:         e.Type,
			Relationships: types.Relationships{
				TransferSourceToTarget: e.Relationships.TransferTargetToSource,
				TransferTargetToSource: e.Relationships.TransferSourceToTarget,
				DelegateSourceToTarget: e.Relationships.DelegateTargetToSource,
				DelegateTargetToSource: e.Relationships.DelegateSourceToTarget,
			},
		}
	}

	reversed, err := Serialize(nodes, edges, meta, nil, nil, configs)
	require.NoError(t, err)
	require.Equal(t, forward.Agents, reversed.Agents)
}

func TestSerializeErrors(t *testing.T) {
	t.Parallel()

	t.Run("no default agent", func(t *testing.T) {
		t.Parallel()
		nodes := []types.Node{agentNode("a", "A", false)}
		_, err := Serialize(nodes, nil, types.GraphMetadata{Name: "g"}, nil, nil, nil)
		require.ErrorIs(t, err, ErrNoDefaultAgent)
	})

	t.Run("multiple default agents", func(t *testing.T) {
		t.Parallel()
		nodes := []types.Node{agentNode("a", "A", true), agentNode("b", "B", true)}
		_, err := Serialize(nodes, nil, types.GraphMetadata{Name: "g"}, nil, nil, nil)
		require.ErrorIs(t, err, ErrMultipleDefaultAgents)
	})

	t.Run("duplicate node id", func(t *testing.T) {
		t.Parallel()
		nodes := []types.Node{agentNode("a", "A", true), agentNode("a", "A again", false)}
		_, err := Serialize(nodes, nil, types.GraphMetadata{Name: "g"}, nil, nil, nil)
		require.ErrorIs(t, err, ErrDuplicateNode)

		var conv *ConversionError
		require.True(t, errors.As(err, &conv))
		require.Equal(t, "a", conv.Element)
	})

	t.Run("edge to missing node", func(t *testing.T) {
		t.Parallel()
		nodes := []types.Node{agentNode("a", "A", true)}
		edges := []types.Edge{{
			ID:            EdgeID("a", "ghost"),
			Source:        "a",
			Target:        "ghost",
			Type:          types.EdgeTypeA2A,
			Relationships: types.Relationships{TransferSourceToTarget: true},
		}}
		_, err := Serialize(nodes, edges, types.GraphMetadata{Name: "g"}, nil, nil, nil)
		require.ErrorIs(t, err, ErrNodeNotFound)
	})
}

//---------------------------//
//    Deserialize            //
//---------------------------//

func TestDeserializeNil(t *testing.T) {
	t.Parallel()

	_, _, err := Deserialize(nil)
	require.ErrorIs(t, err, ErrNilDefinition)
}

func TestDeserializeRejectsTransferToExternal(t *testing.T) {
	t.Parallel()

	def := &types.GraphDefinition{
		ID:             "g",
		DefaultAgentID: "a",
		Agents: map[string]types.AgentDefinition{
			"a": {ID: "a", Name: "A", CanTransferTo: []string{"x"}},
		},
		ExternalAgents: map[string]types.ExternalAgentDefinition{
			"x": {ID: "x", Name: "X"},
		},
	}

	_, _, err := Deserialize(def)
	require.Error(t, err)
	var conv *ConversionError
	require.True(t, errors.As(err, &conv))
	require.Equal(t, "x", conv.Element)
}

func TestDeserializePlaceholderToolNodeID(t *testing.T) {
	t.Parallel()

	def := &types.GraphDefinition{
		ID:             "g",
		DefaultAgentID: "a",
		Agents: map[string]types.AgentDefinition{
			"a": {ID: "a", Name: "A", CanUse: []types.ToolUse{{ToolID: "search"}}},
		},
	}

	nodes, edges, err := Deserialize(def)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Len(t, edges, 1)

	tool := nodes[1]
	require.Equal(t, "mcp-a-search", tool.ID, "unsaved relationships derive a deterministic placeholder id")
	require.Equal(t, types.NodeTypeMCP, tool.Type)
	require.Equal(t, EdgeID("a", "mcp-a-search"), edges[0].ID)
}

//---------------------------//
//    Round trip             //
//---------------------------//

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	nodes, edges, meta, configs := canvasFixture()
	def, err := Serialize(nodes, edges, meta, nil, nil, configs)
	require.NoError(t, err)

	gotNodes, gotEdges, err := Deserialize(def)
	require.NoError(t, err)

	// Node identity, type and payload survive; positions are recomputed so
	// they are not compared.
	wantByID := nodesByID(t, nodes)
	gotByID := nodesByID(t, gotNodes)
	require.Equal(t, len(wantByID), len(gotByID))
	for id, want := range wantByID {
		got, ok := gotByID[id]
		require.True(t, ok, "node %s missing after round trip", id)
		require.Equal(t, want.Type, got.Type, "node %s", id)
		require.Equal(t, want.Deletable, got.Deletable, "node %s", id)
		require.Equal(t, want.Data, got.Data, "node %s", id)
	}

	wantEdges := edgesByID(t, edges)
	gotEdgesMap := edgesByID(t, gotEdges)
	require.Equal(t, len(wantEdges), len(gotEdgesMap))
	for id, want := range wantEdges {
		got, ok := gotEdgesMap[id]
		require.True(t, ok, "edge %s missing after round trip", id)
		require.Equal(t, want.Source, got.Source, "edge %s", id)
		require.Equal(t, want.Target, got.Target, "edge %s", id)
		require.Equal(t, want.Type, got.Type, "edge %s", id)
		require.Equal(t, want.Relationships, got.Relationships, "edge %s", id)
	}

	// The metadata and tool configuration derived from the definition match
	// what went in.
	require.Equal(t, types.GraphMetadata{ID: def.ID, Name: meta.Name, Description: meta.Description},
		ExtractGraphMetadata(def))
	require.Equal(t, configs, BuildAgentToolConfigLookup(def))
}

func nodesByID(t *testing.T, nodes []types.Node) map[string]types.Node {
	t.Helper()
	m := make(map[string]types.Node, len(nodes))
	for _, n := range nodes {
		require.NotContains(t, m, n.ID)
		m[n.ID] = n
	}
	return m
}

func edgesByID(t *testing.T, edges []types.Edge) map[string]types.Edge {
	t.Helper()
	m := make(map[string]types.Edge, len(edges))
	for _, e := range edges {
		require.NotContains(t, m, e.ID)
		m[e.ID] = e
	}
	return m
}

//---------------------------//
//    Reconciliation         //
//---------------------------//

func TestBuildAgentToolConfigLookup(t *testing.T) {
	t.Parallel()

	def := &types.GraphDefinition{
		Agents: map[string]types.AgentDefinition{
			"a": {
				ID: "a",
				CanUse: []types.ToolUse{
					{ToolID: "search", AgentToolRelationID: "rel-1", ToolSelection: []string{"web_search"}},
					{ToolID: "mail"}, // not yet saved, no relationship id
				},
			},
		},
	}

	lookup := BuildAgentToolConfigLookup(def)
	cfg, ok := lookup.Config("a", "rel-1")
	require.True(t, ok)
	require.Equal(t, "search", cfg.ToolID)
	require.Equal(t, []string{"web_search"}, cfg.ToolSelection)

	_, ok = lookup.Config("a", "")
	require.False(t, ok, "unsaved relationships must not gain entries")

	require.Empty(t, BuildAgentToolConfigLookup(nil))
}

func TestPendingToolAssignments(t *testing.T) {
	t.Parallel()

	pendingTool := func(nodeID, toolID, agentID string) types.Node {
		return types.Node{
			ID:   nodeID,
			Type: types.NodeTypeMCP,
			Data: types.ToolData{ToolID: toolID, AgentID: agentID},
		}
	}

	nodes := []types.Node{
		pendingTool("node-b", "search", "planner"),
		pendingTool("node-a", "search", "planner"),
		pendingTool("node-c", "mail", "ghost"), // agent absent from the saved graph
		{
			ID:   "rel-0",
			Type: types.NodeTypeMCP,
			Data: types.ToolData{ToolID: "mail", AgentID: "planner", RelationshipID: "rel-0"},
		},
	}

	saved := &types.GraphDefinition{
		Agents: map[string]types.AgentDefinition{
			"planner": {
				ID: "planner",
				CanUse: []types.ToolUse{
					{ToolID: "search", AgentToolRelationID: "rel-1"},
					{ToolID: "search", AgentToolRelationID: "rel-2"},
					{ToolID: "mail", AgentToolRelationID: "rel-0"},
				},
			},
		},
	}

	assignments := PendingToolAssignments(nodes, saved)

	// Two pending nodes for the same tool receive distinct server ids,
	// matched in node-id order.
	require.Equal(t, map[string]string{
		"node-a": "rel-1",
		"node-b": "rel-2",
	}, assignments)

	require.Empty(t, PendingToolAssignments(nodes, nil))
}

//---------------------------//
//    Metadata               //
//---------------------------//

func TestExtractGraphMetadata(t *testing.T) {
	t.Parallel()

	require.Equal(t, types.GraphMetadata{}, ExtractGraphMetadata(nil))

	def := &types.GraphDefinition{ID: "g-1", Name: "Desk", Description: "demo"}
	require.Equal(t, types.GraphMetadata{ID: "g-1", Name: "Desk", Description: "demo"}, ExtractGraphMetadata(def))
}
