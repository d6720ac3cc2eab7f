package graph

import (
	"github.com/avi3tal/agentcanvas/internal/types"
)

// Connection describes an attempted edge between two handles, as reported
// by the canvas when the user finishes a drag.
type Connection struct {
	Source       string
	Target       string
	SourceHandle string
	TargetHandle string
}

// ValidConnection is the connect-time validity predicate. Only tool-to-tool
// connections are rejected here; deeper semantic validation is the
// backend's job on save.
func ValidConnection(sourceHandle, targetHandle string) bool {
	return !(types.KindOfHandle(sourceHandle) == types.HandleKindMCP &&
		types.KindOfHandle(targetHandle) == types.HandleKindMCP)
}

// InferConnection derives the edge type and default relationship flags for
// a new connection. The result is a pure function of the endpoints and
// handles:
//
//   - same node on both ends → self-loop, transfer to self
//   - agent handle to agent handle → a2a, transfer source→target
//   - agent handle to external-agent handle → a2a-external, delegate
//     source→target (the only legal direction for external agents)
//   - agent handle to MCP handle → mcp tool link, no relationship payload
//   - anything else → default edge, no relationship payload
func InferConnection(conn Connection) (types.EdgeType, types.Relationships) {
	if conn.Source == conn.Target {
		return types.EdgeTypeSelfLoop, types.Relationships{TransferSourceToTarget: true}
	}

	sourceKind := types.KindOfHandle(conn.SourceHandle)
	targetKind := types.KindOfHandle(conn.TargetHandle)

	if sourceKind == types.HandleKindAgent {
		switch targetKind {
		case types.HandleKindAgent:
			return types.EdgeTypeA2A, types.Relationships{TransferSourceToTarget: true}
		case types.HandleKindExternalAgent:
			return types.EdgeTypeA2AExternal, types.Relationships{DelegateSourceToTarget: true}
		case types.HandleKindMCP:
			return types.EdgeTypeMCP, types.Relationships{}
		}
	}

	return types.EdgeTypeDefault, types.Relationships{}
}

// PrepareEdge builds the fully-formed edge for a validated connection,
// with the id derived from the endpoint pair.
func PrepareEdge(conn Connection) types.Edge {
	edgeType, rels := InferConnection(conn)
	return types.Edge{
		ID:            EdgeID(conn.Source, conn.Target),
		Source:        conn.Source,
		Target:        conn.Target,
		SourceHandle:  conn.SourceHandle,
		TargetHandle:  conn.TargetHandle,
		Type:          edgeType,
		Relationships: rels,
	}
}
