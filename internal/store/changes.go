package store

import "github.com/avi3tal/agentcanvas/internal/types"

// ChangeKind discriminates canvas-originated deltas. Position and select
// changes are transient UI state; remove is structural.
type ChangeKind string

const (
	ChangePosition ChangeKind = "position"
	ChangeSelect   ChangeKind = "select"
	ChangeRemove   ChangeKind = "remove"
)

// NodeChange is one canvas delta against a node. Position is read for
// ChangePosition, Selected for ChangeSelect.
type NodeChange struct {
	ID       string
	Kind     ChangeKind
	Position types.Position
	Selected bool
}

// EdgeChange is one canvas delta against an edge. Selected is read for
// ChangeSelect.
type EdgeChange struct {
	ID       string
	Kind     ChangeKind
	Selected bool
}

// MoveNode builds a position delta.
func MoveNode(id string, pos types.Position) NodeChange {
	return NodeChange{ID: id, Kind: ChangePosition, Position: pos}
}

// SelectNode builds a node selection delta.
func SelectNode(id string, selected bool) NodeChange {
	return NodeChange{ID: id, Kind: ChangeSelect, Selected: selected}
}

// RemoveNodeChange builds a node removal delta.
func RemoveNodeChange(id string) NodeChange {
	return NodeChange{ID: id, Kind: ChangeRemove}
}

// SelectEdge builds an edge selection delta.
func SelectEdge(id string, selected bool) EdgeChange {
	return EdgeChange{ID: id, Kind: ChangeSelect, Selected: selected}
}

// RemoveEdgeChange builds an edge removal delta.
func RemoveEdgeChange(id string) EdgeChange {
	return EdgeChange{ID: id, Kind: ChangeRemove}
}
