// Package editor is the headless canvas controller: it wires user
// gestures to store and command operations, infers connection semantics,
// routes selection to side panes and runs the save protocol against the
// management plane.
package editor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/avi3tal/agentcanvas/internal/client"
	"github.com/avi3tal/agentcanvas/internal/commands"
	"github.com/avi3tal/agentcanvas/internal/graph"
	"github.com/avi3tal/agentcanvas/internal/store"
	"github.com/avi3tal/agentcanvas/internal/types"
)

// DragMIMEType keys the node descriptor in the platform drag payload.
const DragMIMEType = "application/x-agentcanvas-node"

// ErrInvalidConnection is returned when the connect-time validity
// predicate rejects an attempted edge.
var ErrInvalidConnection = errors.New("connection not allowed")

// NavigateFunc is invoked with the graph's server id after a first save,
// so the host can move to the graph's permanent URL.
type NavigateFunc func(graphID string)

// Editor orchestrates one open graph.
type Editor struct {
	store   *store.Store
	history *commands.Manager
	mgmt    *client.Management
	scope   client.Scope

	log          *zap.Logger
	notifier     Notifier
	navigate     NavigateFunc
	paneListener func(PaneState)

	fit      *fitScheduler
	fitDelay time.Duration
	fitView  func()

	paneMu   sync.Mutex
	lastPane PaneState

	saveSeq     uint64
	unsubscribe func()
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the editor's logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Editor) {
		e.log = log
	}
}

// WithManagement sets the manage-plane client used to load and save.
func WithManagement(m *client.Management) Option {
	return func(e *Editor) {
		e.mgmt = m
	}
}

// WithScope sets the tenant/project scope for backend calls.
func WithScope(scope client.Scope) Option {
	return func(e *Editor) {
		e.scope = scope
	}
}

// WithNotifier sets the toast sink.
func WithNotifier(n Notifier) Option {
	return func(e *Editor) {
		e.notifier = n
	}
}

// WithNavigator sets the first-save navigation callback.
func WithNavigator(fn NavigateFunc) Option {
	return func(e *Editor) {
		e.navigate = fn
	}
}

// WithFitView sets the viewport-fit callback scheduled after pane
// transitions.
func WithFitView(fn func()) Option {
	return func(e *Editor) {
		e.fitView = fn
	}
}

// WithFitDelay overrides the fit settle delay.
func WithFitDelay(d time.Duration) Option {
	return func(e *Editor) {
		e.fitDelay = d
	}
}

// WithHistory sets a custom command manager.
func WithHistory(m *commands.Manager) Option {
	return func(e *Editor) {
		e.history = m
	}
}

// WithPaneListener sets the callback invoked when pane routing changes,
// typically to persist it as navigable URL state.
func WithPaneListener(fn func(PaneState)) Option {
	return func(e *Editor) {
		e.paneListener = fn
	}
}

// New builds an editor around a store.
func New(st *store.Store, opts ...Option) *Editor {
	e := &Editor{
		store:    st,
		log:      zap.NewNop(),
		fitDelay: DefaultFitDelay,
		lastPane: PaneState{Pane: PaneGraph},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.history == nil {
		e.history = commands.NewManager(st, commands.WithLogger(e.log))
	}
	if e.notifier == nil {
		e.notifier = NewLogNotifier(e.log)
	}
	e.fit = newFitScheduler(e.fitDelay, e.fitView)
	e.unsubscribe = st.Subscribe(e.onStoreEvent)
	return e
}

// Close cancels pending timers and detaches from the store.
func (e *Editor) Close() {
	e.fit.stop()
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
}

// Store returns the underlying graph store.
func (e *Editor) Store() *store.Store {
	return e.store
}

// History returns the undo/redo manager.
func (e *Editor) History() *commands.Manager {
	return e.history
}

// Undo reverts the most recent structural edit.
func (e *Editor) Undo() error {
	return e.history.Undo()
}

// Redo re-applies the most recently undone edit.
func (e *Editor) Redo() error {
	return e.history.Redo()
}

//---------------------------//
//    Loading                //
//---------------------------//

// Load hydrates the store exactly once: from the backend when a graph id
// is given, otherwise with the empty default graph. Catalog fetch
// failures degrade to empty catalogs; a failed graph fetch aborts.
func (e *Editor) Load(ctx context.Context, graphID string) error {
	if e.store.Hydrated() {
		e.log.Debug("load skipped, store already hydrated")
		return nil
	}

	var lookups store.Lookups
	if e.mgmt != nil {
		lookups = e.fetchCatalogs(ctx)
	}

	var (
		nodes []types.Node
		edges []types.Edge
		meta  types.GraphMetadata
	)
	switch {
	case graphID == "":
		nodes, edges = store.NewDefaultGraph()
	case e.mgmt == nil:
		return errors.New("cannot load a saved graph without a management client")
	default:
		def, err := e.mgmt.GetGraph(ctx, e.scope, graphID)
		if err != nil {
			e.notifier.Error("Failed to load graph.")
			return errors.Wrapf(err, "loading graph %s", graphID)
		}
		nodes, edges, err = graph.Deserialize(def)
		if err != nil {
			e.notifier.Error("Failed to load graph.")
			return errors.Wrapf(err, "deserializing graph %s", graphID)
		}
		meta = graph.ExtractGraphMetadata(def)
		lookups.ToolConfigs = graph.BuildAgentToolConfigLookup(def)
	}

	e.store.Hydrate(nodes, edges, meta, lookups)
	return nil
}

// fetchCatalogs pulls the tool and component catalogs. Each failure is
// logged and yields an empty catalog; editing works without them.
func (e *Editor) fetchCatalogs(ctx context.Context) store.Lookups {
	var lookups store.Lookups
	var err error

	if lookups.Tools, err = e.mgmt.ListTools(ctx, e.scope); err != nil {
		e.log.Warn("tool catalog unavailable", zap.Error(err))
	}
	if lookups.DataComponents, err = e.mgmt.ListDataComponents(ctx, e.scope); err != nil {
		e.log.Warn("data component catalog unavailable", zap.Error(err))
	}
	if lookups.ArtifactComponents, err = e.mgmt.ListArtifactComponents(ctx, e.scope); err != nil {
		e.log.Warn("artifact component catalog unavailable", zap.Error(err))
	}
	return lookups
}

//---------------------------//
//    Connections            //
//---------------------------//

// Connect handles a finished connection drag. Tool-to-tool connections
// are rejected; a connection resolving to an existing edge id is an
// ignored duplicate (the id derives from the endpoint pair, so the same
// pair reconnected in reverse lands here too). Landing on a tool handle
// re-binds the tool node to the source agent with the relationship id
// pending until the next save. Agent links arrive selected, with every
// other edge deselected, so their detail pane opens.
func (e *Editor) Connect(conn graph.Connection) error {
	if !graph.ValidConnection(conn.SourceHandle, conn.TargetHandle) {
		e.log.Debug("connection rejected",
			zap.String("source_handle", conn.SourceHandle),
			zap.String("target_handle", conn.TargetHandle),
		)
		return ErrInvalidConnection
	}

	edge := graph.PrepareEdge(conn)
	if _, exists := e.store.Edge(edge.ID); exists {
		e.log.Debug("duplicate connection ignored", zap.String("edge", edge.ID))
		return nil
	}

	if types.KindOfHandle(conn.TargetHandle) == types.HandleKindMCP {
		if err := e.store.SetToolBinding(conn.Target, conn.Source); err != nil {
			return errors.Wrap(err, "binding tool node")
		}
	}

	deselectOthers := edgePaneType(edge.Type)
	if deselectOthers {
		edge.Selected = true
	}
	return e.history.Execute(commands.AddPreparedEdge{
		Edge:           edge,
		DeselectOthers: deselectOthers,
	})
}

//---------------------------//
//    Drop to create         //
//---------------------------//

// Viewport is the canvas transform used to project screen coordinates
// into canvas coordinates.
type Viewport struct {
	X    float64
	Y    float64
	Zoom float64
}

// ToCanvas converts a screen position to canvas coordinates.
func (v Viewport) ToCanvas(p types.Position) types.Position {
	zoom := v.Zoom
	if zoom == 0 {
		zoom = 1
	}
	return types.Position{
		X: (p.X - v.X) / zoom,
		Y: (p.Y - v.Y) / zoom,
	}
}

// DropDescriptor is the JSON payload carried in the drag-data channel
// under DragMIMEType.
type DropDescriptor struct {
	Type     types.NodeType `json:"type"`
	Name     string         `json:"name,omitempty"`
	ToolID   string         `json:"toolId,omitempty"`
	ImageURL string         `json:"imageUrl,omitempty"`
	BaseURL  string         `json:"baseUrl,omitempty"`
}

// Drop creates a node from a drag payload at the given screen position.
// The new node arrives selected with all prior selection cleared, and the
// creation is recorded as an undoable command.
func (e *Editor) Drop(payload []byte, screen types.Position, viewport Viewport) (types.Node, error) {
	var desc DropDescriptor
	if err := json.Unmarshal(payload, &desc); err != nil {
		return types.Node{}, errors.Wrap(err, "decoding drop payload")
	}

	data, err := e.nodeDefaults(desc)
	if err != nil {
		return types.Node{}, err
	}

	node := types.Node{
		ID:        graph.NewNodeID(),
		Type:      desc.Type,
		Position:  viewport.ToCanvas(screen),
		Selected:  true,
		Deletable: true,
		Data:      data,
	}

	e.store.ClearSelection()
	if err := e.history.Execute(commands.AddNode{Node: node}); err != nil {
		return types.Node{}, err
	}
	e.log.Debug("node dropped",
		zap.String("node", node.ID),
		zap.String("type", string(node.Type)),
	)
	return node, nil
}

// nodeDefaults builds the type-specific payload for a dropped node. Tool
// drops enrich from the catalog when the descriptor is sparse.
func (e *Editor) nodeDefaults(desc DropDescriptor) (types.NodeData, error) {
	switch desc.Type {
	case types.NodeTypeAgent:
		name := desc.Name
		if name == "" {
			name = "New Agent"
		}
		return types.AgentData{Name: name}, nil

	case types.NodeTypeMCP:
		data := types.ToolData{
			ToolID:   desc.ToolID,
			Name:     desc.Name,
			ImageURL: desc.ImageURL,
		}
		if tool, ok := e.store.Tools()[desc.ToolID]; ok {
			if data.Name == "" {
				data.Name = tool.Name
			}
			if data.ImageURL == "" {
				data.ImageURL = tool.ImageURL
			}
		}
		return data, nil

	case types.NodeTypeExternalAgent:
		name := desc.Name
		if name == "" {
			name = "External Agent"
		}
		return types.ExternalAgentData{Name: name, BaseURL: desc.BaseURL}, nil

	default:
		return nil, errors.Errorf("unknown node type %q in drop payload", desc.Type)
	}
}
