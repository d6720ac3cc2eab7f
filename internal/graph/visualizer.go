package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/avi3tal/agentcanvas/internal/types"
)

// Mermaid renders the canvas as a Mermaid flowchart for docs and sharing.
// Agents are boxes, external agents subroutine shapes, tools cylinders.
// Transfer arcs draw solid, delegation dashed, tool links plain lines.
func Mermaid(nodes []types.Node, edges []types.Edge) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	sortedNodes := append([]types.Node(nil), nodes...)
	sort.Slice(sortedNodes, func(i, j int) bool { return sortedNodes[i].ID < sortedNodes[j].ID })
	for _, n := range sortedNodes {
		b.WriteString("    ")
		b.WriteString(mermaidNode(n))
		b.WriteByte('\n')
	}

	sortedEdges := append([]types.Edge(nil), edges...)
	sort.Slice(sortedEdges, func(i, j int) bool { return sortedEdges[i].ID < sortedEdges[j].ID })
	for _, e := range sortedEdges {
		for _, line := range mermaidArcs(e) {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

func mermaidNode(n types.Node) string {
	label := nodeLabel(n)
	switch n.Type {
	case types.NodeTypeAgent:
		if n.IsDefaultAgent() {
			return fmt.Sprintf("%s[\"%s (default)\"]", n.ID, label)
		}
		return fmt.Sprintf("%s[\"%s\"]", n.ID, label)
	case types.NodeTypeExternalAgent:
		return fmt.Sprintf("%s[[\"%s\"]]", n.ID, label)
	case types.NodeTypeMCP:
		return fmt.Sprintf("%s[(\"%s\")]", n.ID, label)
	default:
		return fmt.Sprintf("%s[\"%s\"]", n.ID, label)
	}
}

func nodeLabel(n types.Node) string {
	switch data := n.Data.(type) {
	case types.AgentData:
		if data.Name != "" {
			return data.Name
		}
	case types.ExternalAgentData:
		if data.Name != "" {
			return data.Name
		}
	case types.ToolData:
		if data.Name != "" {
			return data.Name
		}
		if data.ToolID != "" {
			return data.ToolID
		}
	}
	return n.ID
}

// mermaidArcs expands one edge into direction-explicit Mermaid arcs.
func mermaidArcs(e types.Edge) []string {
	switch e.Type {
	case types.EdgeTypeMCP:
		return []string{fmt.Sprintf("%s --- %s", e.Source, e.Target)}
	case types.EdgeTypeDefault:
		return []string{fmt.Sprintf("%s --- %s", e.Source, e.Target)}
	}

	var lines []string
	if e.Relationships.TransferSourceToTarget {
		lines = append(lines, fmt.Sprintf("%s -->|transfer| %s", e.Source, e.Target))
	}
	if e.Relationships.TransferTargetToSource {
		lines = append(lines, fmt.Sprintf("%s -->|transfer| %s", e.Target, e.Source))
	}
	if e.Relationships.DelegateSourceToTarget {
		lines = append(lines, fmt.Sprintf("%s -.->|delegate| %s", e.Source, e.Target))
	}
	if e.Relationships.DelegateTargetToSource {
		lines = append(lines, fmt.Sprintf("%s -.->|delegate| %s", e.Target, e.Source))
	}
	if len(lines) == 0 {
		lines = append(lines, fmt.Sprintf("%s --- %s", e.Source, e.Target))
	}
	return lines
}
