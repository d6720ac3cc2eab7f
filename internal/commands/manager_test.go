package commands

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avi3tal/agentcanvas/internal/graph"
	"github.com/avi3tal/agentcanvas/internal/store"
	"github.com/avi3tal/agentcanvas/internal/types"
)

func newHistory(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	s := store.New()
	nodes, edges := store.NewDefaultGraph()
	s.Hydrate(nodes, edges, types.GraphMetadata{Name: "history"}, store.Lookups{})
	return NewManager(s), s
}

func node(id string) types.Node {
	return types.Node{
		ID:        id,
		Type:      types.NodeTypeAgent,
		Deletable: true,
		Data:      types.AgentData{Name: id},
	}
}

func edgeBetween(a, b string) types.Edge {
	return types.Edge{
		ID:            graph.EdgeID(a, b),
		Source:        a,
		Target:        b,
		SourceHandle:  types.HandleAgentSource,
		TargetHandle:  types.HandleAgentTarget,
		Type:          types.EdgeTypeA2A,
		Relationships: types.Relationships{TransferSourceToTarget: true},
	}
}

func TestExecuteUndoRedo(t *testing.T) {
	t.Parallel()

	m, s := newHistory(t)
	base := len(s.Nodes())

	require.NoError(t, m.Execute(AddNode{Node: node("a")}))
	require.NoError(t, m.Execute(AddNode{Node: node("b")}))
	require.Len(t, s.Nodes(), base+2)
	require.True(t, m.CanUndo())
	require.False(t, m.CanRedo())

	require.NoError(t, m.Undo())
	require.Len(t, s.Nodes(), base+1)
	_, ok := s.Node("b")
	require.False(t, ok)
	require.True(t, m.CanRedo())

	require.NoError(t, m.Redo())
	require.Len(t, s.Nodes(), base+2)
	_, ok = s.Node("b")
	require.True(t, ok)
	require.False(t, m.CanRedo())
}

func TestExecuteClearsRedo(t *testing.T) {
	t.Parallel()

	m, _ := newHistory(t)

	require.NoError(t, m.Execute(AddNode{Node: node("a")}))
	require.NoError(t, m.Undo())
	require.True(t, m.CanRedo())

	require.NoError(t, m.Execute(AddNode{Node: node("c")}))
	require.False(t, m.CanRedo(), "a new command discards the redo branch")
}

func TestEmptyStacksAreNoOps(t *testing.T) {
	t.Parallel()

	m, s := newHistory(t)

	require.NoError(t, m.Undo())
	require.NoError(t, m.Redo())
	require.False(t, s.Dirty())
}

func TestFailedApplyNotRecorded(t *testing.T) {
	t.Parallel()

	m, s := newHistory(t)
	require.NoError(t, m.Execute(AddNode{Node: node("a")}))

	err := m.Execute(AddNode{Node: node("a")})
	require.Error(t, err)
	require.ErrorIs(t, err, graph.ErrDuplicateNode)

	// The failed command must not be undoable.
	require.NoError(t, m.Undo())
	_, ok := s.Node("a")
	require.False(t, ok)
	require.False(t, m.CanUndo())
}

func TestDirtyMarking(t *testing.T) {
	t.Parallel()

	m, s := newHistory(t)

	require.NoError(t, m.Execute(AddNode{Node: node("a")}, WithoutDirty()))
	require.False(t, s.Dirty())

	require.NoError(t, m.Execute(AddNode{Node: node("b")}))
	require.True(t, s.Dirty())

	s.MarkSaved(nil)
	require.False(t, s.Dirty())

	require.NoError(t, m.Undo())
	require.True(t, s.Dirty(), "undo reintroduces unsaved changes")
}

func TestAddPreparedEdge(t *testing.T) {
	t.Parallel()

	m, s := newHistory(t)
	require.NoError(t, m.Execute(AddNode{Node: node("a")}))
	require.NoError(t, m.Execute(AddNode{Node: node("b")}))
	require.NoError(t, m.Execute(AddNode{Node: node("c")}))

	first := edgeBetween("a", "b")
	first.Selected = true
	require.NoError(t, m.Execute(AddPreparedEdge{Edge: first, DeselectOthers: true}))

	second := edgeBetween("b", "c")
	second.Selected = true
	require.NoError(t, m.Execute(AddPreparedEdge{Edge: second, DeselectOthers: true}))

	selected := s.SelectedEdges()
	require.Len(t, selected, 1, "at most one agent link stays selected")
	require.Equal(t, second.ID, selected[0].ID)

	require.NoError(t, m.Undo())
	_, ok := s.Edge(second.ID)
	require.False(t, ok)
	_, ok = s.Edge(first.ID)
	require.True(t, ok)
}
