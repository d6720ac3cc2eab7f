package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/avi3tal/agentcanvas/internal/graph"
	"github.com/avi3tal/agentcanvas/internal/store"
	"github.com/avi3tal/agentcanvas/internal/types"
	"github.com/avi3tal/agentcanvas/pkg/editor"
)

// An offline tour of the editor: build a small support graph with drops
// and connections, walk the undo history, and render the result. No
// backend is involved; saving is the cmd/examples/save program.
func main() {
	e := editor.New(store.New(),
		editor.WithPaneListener(func(p editor.PaneState) {
			fmt.Printf("pane -> %s %s%s\n", p.Pane, p.NodeID, p.EdgeID)
		}),
	)
	defer e.Close()

	ctx := context.Background()
	if err := e.Load(ctx, ""); err != nil {
		log.Fatal(err)
	}

	st := e.Store()
	st.SetMetadata(types.GraphMetadata{Name: "Support Desk"})
	root := defaultAgent(st)

	billing := drop(e, editor.DropDescriptor{Type: types.NodeTypeAgent, Name: "Billing"}, 420, 120)
	search := drop(e, editor.DropDescriptor{
		Type:   types.NodeTypeMCP,
		ToolID: "web-search",
		Name:   "Web Search",
	}, 420, 320)

	connect(e, graph.Connection{
		Source:       root.ID,
		Target:       billing.ID,
		SourceHandle: types.HandleAgentSource,
		TargetHandle: types.HandleAgentTarget,
	})
	connect(e, graph.Connection{
		Source:       billing.ID,
		Target:       search.ID,
		SourceHandle: types.HandleAgentSource,
		TargetHandle: types.HandleMCPTarget,
	})

	fmt.Printf("\n%d nodes, %d edges, dirty=%v\n\n",
		len(st.Nodes()), len(st.Edges()), st.Dirty())
	fmt.Println(graph.Mermaid(st.Nodes(), st.Edges()))

	// Walk the history backwards and forwards.
	for e.History().CanUndo() {
		if err := e.Undo(); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Printf("after undo-all: %d nodes, %d edges\n", len(st.Nodes()), len(st.Edges()))

	for e.History().CanRedo() {
		if err := e.Redo(); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Printf("after redo-all: %d nodes, %d edges\n", len(st.Nodes()), len(st.Edges()))
}

func defaultAgent(st *store.Store) types.Node {
	for _, n := range st.Nodes() {
		if n.IsDefaultAgent() {
			return n
		}
	}
	log.Fatal("no default agent")
	return types.Node{}
}

func drop(e *editor.Editor, desc editor.DropDescriptor, x, y float64) types.Node {
	payload, err := json.Marshal(desc)
	if err != nil {
		log.Fatal(err)
	}
	node, err := e.Drop(payload, types.Position{X: x, Y: y}, editor.Viewport{Zoom: 1})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("dropped %s %q\n", node.Type, node.ID)
	return node
}

func connect(e *editor.Editor, conn graph.Connection) {
	if err := e.Connect(conn); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("connected %s -> %s\n", conn.Source, conn.Target)
}
