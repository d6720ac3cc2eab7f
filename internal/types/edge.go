package types

// EdgeType discriminates canvas edges.
type EdgeType string

const (
	// EdgeTypeA2A links two internal agents with transfer/delegate semantics.
	EdgeTypeA2A EdgeType = "a2a"

	// EdgeTypeA2AExternal links an internal agent to an external agent.
	// Delegation toward the external agent is the only legal direction.
	EdgeTypeA2AExternal EdgeType = "a2a-external"

	// EdgeTypeSelfLoop lets an agent transfer or delegate to itself.
	EdgeTypeSelfLoop EdgeType = "self-loop"

	// EdgeTypeMCP links an agent to an MCP tool node it can use.
	EdgeTypeMCP EdgeType = "mcp"

	// EdgeTypeDefault is a connection without relationship semantics.
	EdgeTypeDefault EdgeType = "default"
)

// Handle identifiers encode port semantics on node boundaries.
const (
	HandleAgentSource         = "agent-source"
	HandleAgentTarget         = "agent-target"
	HandleExternalAgentTarget = "external-agent-target"
	HandleMCPTarget           = "mcp-target"
)

// HandleKind groups handle identifiers by the port semantics they encode.
type HandleKind string

const (
	HandleKindAgent         HandleKind = "agent"
	HandleKindExternalAgent HandleKind = "external-agent"
	HandleKindMCP           HandleKind = "mcp"
	HandleKindDefault       HandleKind = "default"
)

// KindOfHandle classifies a handle identifier. Unknown handles are default.
func KindOfHandle(handle string) HandleKind {
	switch handle {
	case HandleAgentSource, HandleAgentTarget:
		return HandleKindAgent
	case HandleExternalAgentTarget:
		return HandleKindExternalAgent
	case HandleMCPTarget:
		return HandleKindMCP
	default:
		return HandleKindDefault
	}
}

// Relationships carries the directional control semantics between the two
// endpoints of an edge. Transfer hands conversational control permanently;
// delegate hands it temporarily with an implied return. The four flags are
// independent.
type Relationships struct {
	TransferSourceToTarget bool `json:"transferSourceToTarget,omitempty"`
	TransferTargetToSource bool `json:"transferTargetToSource,omitempty"`
	DelegateSourceToTarget bool `json:"delegateSourceToTarget,omitempty"`
	DelegateTargetToSource bool `json:"delegateTargetToSource,omitempty"`
}

// Any reports whether at least one relationship flag is set.
func (r Relationships) Any() bool {
	return r.TransferSourceToTarget || r.TransferTargetToSource ||
		r.DelegateSourceToTarget || r.DelegateTargetToSource
}

// Edge connects two canvas nodes through named handles. Ids derive from
// the endpoint pair, so at most one edge exists per unordered pair
// (self-loops key on the single node id).
type Edge struct {
	ID            string        `json:"id"`
	Source        string        `json:"source"`
	Target        string        `json:"target"`
	SourceHandle  string        `json:"sourceHandle,omitempty"`
	TargetHandle  string        `json:"targetHandle,omitempty"`
	Type          EdgeType      `json:"type"`
	Selected      bool          `json:"selected,omitempty"`
	Relationships Relationships `json:"relationships"`
}

// IsSelfLoop reports whether both endpoints are the same node.
func (e Edge) IsSelfLoop() bool { return e.Source == e.Target }

// Clone returns a copy of the edge.
func (e Edge) Clone() Edge { return e }
