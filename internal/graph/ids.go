package graph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const defaultGraphName = "graph"

// NewGraphID mints a graph id from the graph's name. Spaces are replaced
// so the id stays URL-safe; unnamed graphs fall back to a generic prefix.
func NewGraphID(name string) string {
	if name == "" {
		name = defaultGraphName
	}
	name = strings.ReplaceAll(name, " ", "-")
	return fmt.Sprintf("%s-%s", name, uuid.New().String())
}

// NewNodeID mints a canvas node id.
func NewNodeID() string {
	return uuid.New().String()
}

// EdgeID derives the id for an edge between two nodes. Endpoints are
// sorted first, so the id is independent of connection direction and
// reconnecting the same pair in reverse resolves to the same edge.
// Self-loops use a dedicated pattern keyed on the single node id.
func EdgeID(a, b string) string {
	if a == b {
		return SelfLoopEdgeID(a)
	}
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("edge-%s-%s", a, b)
}

// SelfLoopEdgeID derives the id for a node's self-loop edge.
func SelfLoopEdgeID(nodeID string) string {
	return fmt.Sprintf("edge-self-%s", nodeID)
}
