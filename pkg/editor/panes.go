package editor

import (
	"net/url"

	"github.com/avi3tal/agentcanvas/internal/store"
	"github.com/avi3tal/agentcanvas/internal/types"
)

// Pane names the side pane the current selection routes to.
type Pane string

const (
	PaneGraph Pane = "graph"
	PaneNode  Pane = "node"
	PaneEdge  Pane = "edge"
)

// PaneState is the navigable routing state: which pane is open and for
// which element. It round-trips through url.Values so links, back and
// forward reproduce the same pane.
type PaneState struct {
	Pane   Pane
	NodeID string
	EdgeID string
}

const (
	paneParam = "pane"
	nodeParam = "node"
	edgeParam = "edge"
)

// Values encodes the state for a shareable URL.
func (p PaneState) Values() url.Values {
	v := url.Values{}
	switch p.Pane {
	case PaneNode:
		v.Set(paneParam, string(PaneNode))
		v.Set(nodeParam, p.NodeID)
	case PaneEdge:
		v.Set(paneParam, string(PaneEdge))
		v.Set(edgeParam, p.EdgeID)
	default:
		v.Set(paneParam, string(PaneGraph))
	}
	return v
}

// PaneStateFromValues decodes routing state, falling back to the graph
// overview for anything malformed.
func PaneStateFromValues(v url.Values) PaneState {
	switch Pane(v.Get(paneParam)) {
	case PaneNode:
		if id := v.Get(nodeParam); id != "" {
			return PaneState{Pane: PaneNode, NodeID: id}
		}
	case PaneEdge:
		if id := v.Get(edgeParam); id != "" {
			return PaneState{Pane: PaneEdge, EdgeID: id}
		}
	}
	return PaneState{Pane: PaneGraph}
}

// edgePaneType reports whether an edge type carries a detail pane. Only
// agent links have editable relationship flags.
func edgePaneType(t types.EdgeType) bool {
	return t == types.EdgeTypeA2A || t == types.EdgeTypeSelfLoop
}

// PaneState derives the routing state from the current selection: exactly
// one selected node opens the node pane, exactly one selected agent link
// (and nothing else) opens the edge pane, anything else shows the graph
// overview.
func (e *Editor) PaneState() PaneState {
	selectedNodes := e.store.SelectedNodes()
	selectedEdges := e.store.SelectedEdges()

	if len(selectedNodes) == 1 && len(selectedEdges) == 0 {
		return PaneState{Pane: PaneNode, NodeID: selectedNodes[0].ID}
	}
	if len(selectedNodes) == 0 && len(selectedEdges) == 1 && edgePaneType(selectedEdges[0].Type) {
		return PaneState{Pane: PaneEdge, EdgeID: selectedEdges[0].ID}
	}
	return PaneState{Pane: PaneGraph}
}

// RestorePaneState applies decoded routing state to the selection, used
// when entering the editor through a deep link. Unknown elements fall
// back to the overview.
func (e *Editor) RestorePaneState(v url.Values) {
	state := PaneStateFromValues(v)
	e.store.ClearSelection()

	switch state.Pane {
	case PaneNode:
		if _, ok := e.store.Node(state.NodeID); ok {
			e.store.ApplyNodeChanges([]store.NodeChange{store.SelectNode(state.NodeID, true)})
		}
	case PaneEdge:
		if edge, ok := e.store.Edge(state.EdgeID); ok && edgePaneType(edge.Type) {
			e.store.ApplyEdgeChanges([]store.EdgeChange{store.SelectEdge(state.EdgeID, true)})
		}
	}
}

// onStoreEvent keeps pane routing current and schedules a viewport fit
// whenever the pane actually changes.
func (e *Editor) onStoreEvent(ev store.Event) {
	switch ev.Kind {
	case store.EventSelection, store.EventHydrated, store.EventNodes, store.EventEdges:
	default:
		return
	}

	pane := e.PaneState()

	e.paneMu.Lock()
	changed := pane != e.lastPane
	e.lastPane = pane
	e.paneMu.Unlock()

	if !changed {
		return
	}
	if e.paneListener != nil {
		e.paneListener(pane)
	}
	e.fit.schedule()
}
