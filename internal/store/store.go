package store

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/avi3tal/agentcanvas/internal/diagnostics"
	"github.com/avi3tal/agentcanvas/internal/graph"
	"github.com/avi3tal/agentcanvas/internal/types"
)

var errNotATool = errors.New("node is not a tool node")

// Lookups bundles the catalog state a graph is hydrated with.
type Lookups struct {
	Tools              types.ToolLookup
	DataComponents     types.DataComponentLookup
	ArtifactComponents types.ArtifactComponentLookup
	ToolConfigs        types.AgentToolConfigLookup
}

// Store is the authoritative container for the live canvas state. It
// exclusively owns the node/edge records; converters and commands receive
// copies and mutate only through its methods. A single mutex keeps the API
// safe for the asynchronous save callback, the only off-loop writer.
type Store struct {
	mu  sync.RWMutex
	log *zap.Logger

	hydrated bool

	nodes    []types.Node
	edges    []types.Edge
	metadata types.GraphMetadata

	tools              types.ToolLookup
	dataComponents     types.DataComponentLookup
	artifactComponents types.ArtifactComponentLookup
	toolConfigs        types.AgentToolConfigLookup

	dirty       bool
	diagnostics *diagnostics.Summary

	subscribers    []subscriber
	nextSubscriber int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// New creates an empty, not-yet-hydrated store.
func New(opts ...Option) *Store {
	s := &Store{
		log:         zap.NewNop(),
		toolConfigs: make(types.AgentToolConfigLookup),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDefaultGraph builds the starting state for a brand-new graph: a
// single non-deletable default agent and no edges.
func NewDefaultGraph() ([]types.Node, []types.Edge) {
	node := types.Node{
		ID:        graph.NewNodeID(),
		Type:      types.NodeTypeAgent,
		Position:  types.Position{X: 80, Y: 120},
		Deletable: false,
		Data: types.AgentData{
			Name:         "Default Agent",
			DefaultAgent: true,
		},
	}
	return []types.Node{node}, nil
}

//---------------------------//
//    Hydration              //
//---------------------------//

// Hydrate installs the initial state. It runs exactly once per store;
// later calls are ignored so re-triggering loads cannot clobber edits in
// progress.
func (s *Store) Hydrate(nodes []types.Node, edges []types.Edge, meta types.GraphMetadata, lookups Lookups) {
	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		s.log.Debug("store already hydrated, ignoring", zap.String("graph", meta.ID))
		return
	}
	s.hydrated = true
	s.nodes = cloneNodes(nodes)
	s.edges = cloneEdges(edges)
	s.metadata = meta
	s.tools = cloneToolLookup(lookups.Tools)
	s.dataComponents = cloneDataComponents(lookups.DataComponents)
	s.artifactComponents = cloneArtifactComponents(lookups.ArtifactComponents)
	if lookups.ToolConfigs != nil {
		s.toolConfigs = lookups.ToolConfigs.Clone()
	}
	s.dirty = false
	s.mu.Unlock()

	s.log.Info("graph hydrated",
		zap.String("graph", meta.ID),
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
	)
	s.publish(EventHydrated)
}

// Hydrated reports whether initial state has been installed.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

//---------------------------//
//    Snapshots              //
//---------------------------//

// Nodes returns a copy of the current nodes in canvas order.
func (s *Store) Nodes() []types.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNodes(s.nodes)
}

// Edges returns a copy of the current edges in canvas order.
func (s *Store) Edges() []types.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEdges(s.edges)
}

// Node returns a copy of one node by id.
func (s *Store) Node(id string) (types.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.nodeIndex(id); idx >= 0 {
		return s.nodes[idx].Clone(), true
	}
	return types.Node{}, false
}

// Edge returns a copy of one edge by id.
func (s *Store) Edge(id string) (types.Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.edgeIndex(id); idx >= 0 {
		return s.edges[idx].Clone(), true
	}
	return types.Edge{}, false
}

// SelectedNodes returns copies of the currently selected nodes.
func (s *Store) SelectedNodes() []types.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Node
	for _, n := range s.nodes {
		if n.Selected {
			out = append(out, n.Clone())
		}
	}
	return out
}

// SelectedEdges returns copies of the currently selected edges.
func (s *Store) SelectedEdges() []types.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Edge
	for _, e := range s.edges {
		if e.Selected {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Metadata returns the graph-level metadata.
func (s *Store) Metadata() types.GraphMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata
}

// Dirty reports whether there are unsaved edits.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Tools returns a copy of the tool catalog.
func (s *Store) Tools() types.ToolLookup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneToolLookup(s.tools)
}

// DataComponents returns a copy of the data component catalog.
func (s *Store) DataComponents() types.DataComponentLookup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDataComponents(s.dataComponents)
}

// ArtifactComponents returns a copy of the artifact component catalog.
func (s *Store) ArtifactComponents() types.ArtifactComponentLookup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneArtifactComponents(s.artifactComponents)
}

// ToolConfigs returns a deep copy of the agent tool configuration lookup.
func (s *Store) ToolConfigs() types.AgentToolConfigLookup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.toolConfigs.Clone()
}

// Diagnostics returns the current validation overlay state, nil when the
// last save succeeded or none ran yet.
func (s *Store) Diagnostics() *diagnostics.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diagnostics.Clone()
}

//---------------------------//
//    Canvas deltas          //
//---------------------------//

// ApplyNodeChanges applies canvas-originated node deltas. Moves and
// selection are transient UI state and never enter the undo history or
// dirty the graph; removals are structural and do. Removing a node also
// removes its incident edges. Non-deletable nodes ignore removal.
func (s *Store) ApplyNodeChanges(changes []NodeChange) {
	s.mu.Lock()
	var nodesChanged, edgesChanged, selectionChanged, dirtied bool
	for _, change := range changes {
		idx := s.nodeIndex(change.ID)
		if idx < 0 {
			s.log.Debug("node change for unknown node", zap.String("node", change.ID))
			continue
		}
		switch change.Kind {
		case ChangePosition:
			s.nodes[idx].Position = change.Position
			nodesChanged = true
		case ChangeSelect:
			if s.nodes[idx].Selected != change.Selected {
				s.nodes[idx].Selected = change.Selected
				selectionChanged = true
			}
		case ChangeRemove:
			if !s.nodes[idx].Deletable {
				s.log.Debug("refusing to remove non-deletable node", zap.String("node", change.ID))
				continue
			}
			s.removeNodeLocked(idx)
			nodesChanged = true
			edgesChanged = true
			dirtied = true
		default:
			s.log.Warn("unknown node change kind", zap.String("kind", string(change.Kind)))
		}
	}
	events := s.collectLocked(nodesChanged, edgesChanged, selectionChanged, dirtied)
	s.mu.Unlock()
	s.publish(events...)
}

// ApplyEdgeChanges applies canvas-originated edge deltas.
func (s *Store) ApplyEdgeChanges(changes []EdgeChange) {
	s.mu.Lock()
	var edgesChanged, selectionChanged, dirtied bool
	for _, change := range changes {
		idx := s.edgeIndex(change.ID)
		if idx < 0 {
			s.log.Debug("edge change for unknown edge", zap.String("edge", change.ID))
			continue
		}
		switch change.Kind {
		case ChangeSelect:
			if s.edges[idx].Selected != change.Selected {
				s.edges[idx].Selected = change.Selected
				selectionChanged = true
			}
		case ChangeRemove:
			s.edges = append(s.edges[:idx], s.edges[idx+1:]...)
			edgesChanged = true
			dirtied = true
		default:
			s.log.Warn("unknown edge change kind", zap.String("kind", string(change.Kind)))
		}
	}
	events := s.collectLocked(false, edgesChanged, selectionChanged, dirtied)
	s.mu.Unlock()
	s.publish(events...)
}

//---------------------------//
//    Mutation primitives    //
//---------------------------//

// AddNode inserts a node. The id must be unused.
func (s *Store) AddNode(n types.Node) error {
	s.mu.Lock()
	if s.nodeIndex(n.ID) >= 0 {
		s.mu.Unlock()
		return graph.NewConversionError("store", n.ID, graph.ErrDuplicateNode)
	}
	s.nodes = append(s.nodes, n.Clone())
	selection := n.Selected
	s.mu.Unlock()

	if selection {
		s.publish(EventNodes, EventSelection)
	} else {
		s.publish(EventNodes)
	}
	return nil
}

// RemoveNode removes a node and its incident edges unconditionally. The
// deletable flag guards user gestures, not command reverts.
func (s *Store) RemoveNode(id string) error {
	s.mu.Lock()
	idx := s.nodeIndex(id)
	if idx < 0 {
		s.mu.Unlock()
		return graph.NewConversionError("store", id, graph.ErrNodeNotFound)
	}
	s.removeNodeLocked(idx)
	s.mu.Unlock()

	s.publish(EventNodes, EventEdges)
	return nil
}

// AddEdge inserts an edge. Edge ids derive from the endpoint pair, so the
// duplicate-id check is also the one-edge-per-pair invariant. Both
// endpoints must exist.
func (s *Store) AddEdge(e types.Edge) error {
	s.mu.Lock()
	if s.edgeIndex(e.ID) >= 0 {
		s.mu.Unlock()
		return graph.NewConversionError("store", e.ID, graph.ErrDuplicateEdge)
	}
	if s.nodeIndex(e.Source) < 0 {
		s.mu.Unlock()
		return graph.NewConversionError("store", e.Source, graph.ErrNodeNotFound)
	}
	if s.nodeIndex(e.Target) < 0 {
		s.mu.Unlock()
		return graph.NewConversionError("store", e.Target, graph.ErrNodeNotFound)
	}
	s.edges = append(s.edges, e.Clone())
	selection := e.Selected
	s.mu.Unlock()

	if selection {
		s.publish(EventEdges, EventSelection)
	} else {
		s.publish(EventEdges)
	}
	return nil
}

// RemoveEdge removes an edge by id.
func (s *Store) RemoveEdge(id string) error {
	s.mu.Lock()
	idx := s.edgeIndex(id)
	if idx < 0 {
		s.mu.Unlock()
		return graph.NewConversionError("store", id, graph.ErrEdgeNotFound)
	}
	s.edges = append(s.edges[:idx], s.edges[idx+1:]...)
	s.mu.Unlock()

	s.publish(EventEdges)
	return nil
}

// SetToolBinding points a tool node at its owning agent and clears the
// relationship id, which stays pending until the next successful save.
func (s *Store) SetToolBinding(nodeID, agentID string) error {
	s.mu.Lock()
	idx := s.nodeIndex(nodeID)
	if idx < 0 {
		s.mu.Unlock()
		return graph.NewConversionError("store", nodeID, graph.ErrNodeNotFound)
	}
	tool, ok := s.nodes[idx].ToolData()
	if !ok {
		s.mu.Unlock()
		return graph.NewConversionError("store", nodeID, errNotATool)
	}
	tool.AgentID = agentID
	tool.RelationshipID = ""
	s.nodes[idx].Data = tool
	s.mu.Unlock()

	s.publish(EventNodes)
	return nil
}

// AssignRelationshipID records the server-assigned relationship id on a
// tool node after a save.
func (s *Store) AssignRelationshipID(nodeID, relationshipID string) error {
	s.mu.Lock()
	idx := s.nodeIndex(nodeID)
	if idx < 0 {
		s.mu.Unlock()
		return graph.NewConversionError("store", nodeID, graph.ErrNodeNotFound)
	}
	tool, ok := s.nodes[idx].ToolData()
	if !ok {
		s.mu.Unlock()
		return graph.NewConversionError("store", nodeID, errNotATool)
	}
	tool.RelationshipID = relationshipID
	s.nodes[idx].Data = tool
	s.mu.Unlock()

	s.publish(EventNodes)
	return nil
}

//---------------------------//
//    Selection & flags      //
//---------------------------//

// ClearSelection deselects all nodes and edges without touching history.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	changed := false
	for i := range s.nodes {
		if s.nodes[i].Selected {
			s.nodes[i].Selected = false
			changed = true
		}
	}
	for i := range s.edges {
		if s.edges[i].Selected {
			s.edges[i].Selected = false
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.publish(EventSelection)
	}
}

// DeselectEdges deselects every edge except the given id. Pass an empty
// id to deselect all edges.
func (s *Store) DeselectEdges(except string) {
	s.mu.Lock()
	changed := false
	for i := range s.edges {
		if s.edges[i].ID != except && s.edges[i].Selected {
			s.edges[i].Selected = false
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.publish(EventSelection)
	}
}

// MarkSaved clears the dirty flag after a successful persist. This is the
// only path that clears it. When the saved definition is supplied, the
// metadata (including a first-save server id) and the tool configuration
// lookup are refreshed from it.
func (s *Store) MarkSaved(saved *types.GraphDefinition) {
	s.mu.Lock()
	s.dirty = false
	events := []EventKind{EventDirty}
	if saved != nil {
		s.metadata = graph.ExtractGraphMetadata(saved)
		s.toolConfigs = graph.BuildAgentToolConfigLookup(saved)
		events = append(events, EventMetadata)
	}
	s.mu.Unlock()

	s.publish(events...)
}

// MarkUnsaved sets the dirty flag.
func (s *Store) MarkUnsaved() {
	s.mu.Lock()
	changed := !s.dirty
	s.dirty = true
	s.mu.Unlock()

	if changed {
		s.publish(EventDirty)
	}
}

// SetMetadata replaces the graph-level metadata and dirties the graph.
func (s *Store) SetMetadata(meta types.GraphMetadata) {
	s.mu.Lock()
	s.metadata = meta
	dirtied := !s.dirty
	s.dirty = true
	s.mu.Unlock()

	if dirtied {
		s.publish(EventMetadata, EventDirty)
	} else {
		s.publish(EventMetadata)
	}
}

// SetDiagnostics installs the validation overlay state after a failed
// save.
func (s *Store) SetDiagnostics(summary *diagnostics.Summary) {
	s.mu.Lock()
	s.diagnostics = summary.Clone()
	s.mu.Unlock()

	s.publish(EventDiagnostics)
}

// ClearDiagnostics removes the validation overlay state.
func (s *Store) ClearDiagnostics() {
	s.mu.Lock()
	changed := s.diagnostics != nil
	s.diagnostics = nil
	s.mu.Unlock()

	if changed {
		s.publish(EventDiagnostics)
	}
}

//---------------------------//
//    Internals              //
//---------------------------//

func (s *Store) nodeIndex(id string) int {
	for i, n := range s.nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) edgeIndex(id string) int {
	for i, e := range s.edges {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// removeNodeLocked removes the node at idx and its incident edges.
func (s *Store) removeNodeLocked(idx int) {
	id := s.nodes[idx].ID
	s.nodes = append(s.nodes[:idx], s.nodes[idx+1:]...)

	kept := s.edges[:0]
	for _, e := range s.edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	s.edges = kept
}

// collectLocked translates change flags into the event set and applies
// the dirty transition. Callers hold the write lock.
func (s *Store) collectLocked(nodes, edges, selection, dirtied bool) []EventKind {
	var events []EventKind
	if nodes {
		events = append(events, EventNodes)
	}
	if edges {
		events = append(events, EventEdges)
	}
	if selection {
		events = append(events, EventSelection)
	}
	if dirtied && !s.dirty {
		s.dirty = true
		events = append(events, EventDirty)
	}
	return events
}

func cloneNodes(nodes []types.Node) []types.Node {
	out := make([]types.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

func cloneEdges(edges []types.Edge) []types.Edge {
	out := make([]types.Edge, len(edges))
	for i, e := range edges {
		out[i] = e.Clone()
	}
	return out
}

func cloneToolLookup(in types.ToolLookup) types.ToolLookup {
	if in == nil {
		return nil
	}
	out := make(types.ToolLookup, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneDataComponents(in types.DataComponentLookup) types.DataComponentLookup {
	if in == nil {
		return nil
	}
	out := make(types.DataComponentLookup, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneArtifactComponents(in types.ArtifactComponentLookup) types.ArtifactComponentLookup {
	if in == nil {
		return nil
	}
	out := make(types.ArtifactComponentLookup, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
