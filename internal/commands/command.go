// Package commands provides the undoable mutations behind the canvas.
// Only structural edits become commands; selection and node movement stay
// outside the history.
package commands

import (
	"github.com/avi3tal/agentcanvas/internal/store"
	"github.com/avi3tal/agentcanvas/internal/types"
)

// Command is one reversible graph mutation. Apply and Revert must be
// exact inverses so the history can replay in either direction.
type Command interface {
	Name() string
	Apply(s *store.Store) error
	Revert(s *store.Store) error
}

// AddNode inserts a node on apply and removes it by id on revert.
type AddNode struct {
	Node types.Node
}

func (c AddNode) Name() string { return "add-node" }

func (c AddNode) Apply(s *store.Store) error {
	return s.AddNode(c.Node)
}

func (c AddNode) Revert(s *store.Store) error {
	return s.RemoveNode(c.Node.ID)
}

// AddPreparedEdge inserts a fully-formed edge. DeselectOthers first
// deselects every other edge, which keeps at most one agent link selected
// at a time; that is a UI affordance, not a data invariant, so revert
// does not restore the previous selection.
type AddPreparedEdge struct {
	Edge           types.Edge
	DeselectOthers bool
}

func (c AddPreparedEdge) Name() string { return "add-edge" }

func (c AddPreparedEdge) Apply(s *store.Store) error {
	if c.DeselectOthers {
		s.DeselectEdges(c.Edge.ID)
	}
	return s.AddEdge(c.Edge)
}

func (c AddPreparedEdge) Revert(s *store.Store) error {
	return s.RemoveEdge(c.Edge.ID)
}
