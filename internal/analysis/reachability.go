// Package analysis answers structural questions about the canvas that the
// editor surfaces as warnings: which nodes can the conversation actually
// reach from the default agent, and which tools are dead weight.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	gograph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/avi3tal/agentcanvas/internal/types"
)

// controlGraph is the directed control-flow view of the canvas. Arcs
// follow the direction conversational control can move: transfer and
// delegate flags per direction, delegation to external agents, and
// agent-to-tool links.
type controlGraph struct {
	g    *simple.DirectedGraph
	ids  map[string]int64
	byID map[int64]string
}

func buildControlGraph(nodes []types.Node, edges []types.Edge) *controlGraph {
	cg := &controlGraph{
		g:    simple.NewDirectedGraph(),
		ids:  make(map[string]int64, len(nodes)),
		byID: make(map[int64]string, len(nodes)),
	}
	var next int64
	for _, n := range nodes {
		if _, exists := cg.ids[n.ID]; exists {
			continue
		}
		cg.ids[n.ID] = next
		cg.byID[next] = n.ID
		cg.g.AddNode(simple.Node(next))
		next++
	}

	// Self arcs are skipped: gonum rejects them and they cannot change
	// reachability.
	addArc := func(from, to string) {
		f, okFrom := cg.ids[from]
		t, okTo := cg.ids[to]
		if !okFrom || !okTo || f == t {
			return
		}
		if !cg.g.HasEdgeFromTo(f, t) {
			cg.g.SetEdge(cg.g.NewEdge(simple.Node(f), simple.Node(t)))
		}
	}

	for _, e := range edges {
		switch e.Type {
		case types.EdgeTypeA2A, types.EdgeTypeSelfLoop:
			if e.Relationships.TransferSourceToTarget || e.Relationships.DelegateSourceToTarget {
				addArc(e.Source, e.Target)
			}
			if e.Relationships.TransferTargetToSource || e.Relationships.DelegateTargetToSource {
				addArc(e.Target, e.Source)
			}
		case types.EdgeTypeA2AExternal:
			if e.Relationships.DelegateSourceToTarget {
				addArc(e.Source, e.Target)
			}
		case types.EdgeTypeMCP:
			addArc(e.Source, e.Target)
		}
	}
	return cg
}

func defaultAgentID(nodes []types.Node) string {
	for _, n := range nodes {
		if n.IsDefaultAgent() {
			return n.ID
		}
	}
	return ""
}

// Reachable returns the set of node ids reachable from the default agent
// along control-flow arcs. Without a default agent the set is empty;
// save-time validation reports that case separately.
func Reachable(nodes []types.Node, edges []types.Edge) map[string]bool {
	reached := make(map[string]bool, len(nodes))
	start := defaultAgentID(nodes)
	if start == "" {
		return reached
	}

	cg := buildControlGraph(nodes, edges)
	startID, ok := cg.ids[start]
	if !ok {
		return reached
	}

	bfs := traverse.BreadthFirst{}
	bfs.Walk(cg.g, cg.g.Node(startID), func(n gograph.Node, _ int) bool {
		reached[cg.byID[n.ID()]] = true
		return false
	})
	return reached
}

// OrphanedTools returns the tool nodes no reachable agent uses, sorted by
// node id. A tool with no agent link at all is always orphaned. Without a
// default agent the result is nil.
func OrphanedTools(nodes []types.Node, edges []types.Edge) []types.Node {
	if defaultAgentID(nodes) == "" {
		return nil
	}
	reached := Reachable(nodes, edges)

	var orphans []types.Node
	for _, n := range nodes {
		if n.Type != types.NodeTypeMCP {
			continue
		}
		if !reached[n.ID] {
			orphans = append(orphans, n.Clone())
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].ID < orphans[j].ID })
	return orphans
}

// UnreachableAgents returns the internal agent nodes the default agent
// can never hand control to, sorted by node id.
func UnreachableAgents(nodes []types.Node, edges []types.Edge) []types.Node {
	if defaultAgentID(nodes) == "" {
		return nil
	}
	reached := Reachable(nodes, edges)

	var unreachable []types.Node
	for _, n := range nodes {
		if n.Type != types.NodeTypeAgent {
			continue
		}
		if !reached[n.ID] {
			unreachable = append(unreachable, n.Clone())
		}
	}
	sort.Slice(unreachable, func(i, j int) bool { return unreachable[i].ID < unreachable[j].ID })
	return unreachable
}

// OrphanWarning renders the save-time warning for orphaned tools, empty
// when there is nothing to warn about.
func OrphanWarning(nodes []types.Node, edges []types.Edge) string {
	orphans := OrphanedTools(nodes, edges)
	if len(orphans) == 0 {
		return ""
	}

	names := make([]string, len(orphans))
	for i, n := range orphans {
		names[i] = toolLabel(n)
	}
	if len(names) == 1 {
		return fmt.Sprintf("Tool %s is not used by any reachable agent and will be ignored at runtime.", names[0])
	}
	return fmt.Sprintf("%d tools are not used by any reachable agent: %s.", len(names), strings.Join(names, ", "))
}

func toolLabel(n types.Node) string {
	if tool, ok := n.ToolData(); ok {
		if tool.Name != "" {
			return tool.Name
		}
		if tool.ToolID != "" {
			return tool.ToolID
		}
	}
	return n.ID
}
