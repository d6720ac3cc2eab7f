package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/avi3tal/agentcanvas/internal/client"
	"github.com/avi3tal/agentcanvas/internal/config"
	"github.com/avi3tal/agentcanvas/internal/graph"
	"github.com/avi3tal/agentcanvas/internal/store"
	"github.com/avi3tal/agentcanvas/internal/types"
	"github.com/avi3tal/agentcanvas/pkg/editor"
)

// Builds a two-agent graph and saves it to the management plane, then
// loads it back. Configuration follows the usual layering: flags beat
// AGENTCANVAS_* environment variables beat agentcanvas.toml.
func main() {
	flags := pflag.NewFlagSet("save", pflag.ExitOnError)
	flags.String("tenant", "", "tenant id")
	flags.String("project", "", "project id")
	graphID := flags.String("graph", "", "update this graph instead of creating one")
	name := flags.String("name", "Example Graph", "graph name")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	mgmt := client.NewManagement(cfg.ManagementOptions(logger)...)

	e := editor.New(store.New(),
		editor.WithLogger(logger),
		editor.WithManagement(mgmt),
		editor.WithScope(cfg.Scope()),
		editor.WithNavigator(func(id string) {
			logger.Info("graph saved under permanent id", zap.String("graph", id))
		}),
	)
	defer e.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Load(ctx, *graphID); err != nil {
		logger.Fatal("load failed", zap.Error(err))
	}

	st := e.Store()
	if *graphID == "" {
		st.SetMetadata(types.GraphMetadata{Name: *name})
		buildExampleGraph(e, st)
	}

	if err := e.Save(ctx); err != nil {
		logger.Fatal("save failed", zap.Error(err))
	}

	saved, err := mgmt.GetGraph(ctx, cfg.Scope(), st.Metadata().ID)
	if err != nil {
		logger.Fatal("readback failed", zap.Error(err))
	}
	logger.Info("graph persisted",
		zap.String("graph", saved.ID),
		zap.Int("agents", len(saved.Agents)),
	)
}

func buildExampleGraph(e *editor.Editor, st *store.Store) {
	var root types.Node
	for _, n := range st.Nodes() {
		if n.IsDefaultAgent() {
			root = n
		}
	}

	payload, _ := json.Marshal(editor.DropDescriptor{
		Type: types.NodeTypeAgent,
		Name: "Research",
	})
	research, err := e.Drop(payload, types.Position{X: 420, Y: 120}, editor.Viewport{Zoom: 1})
	if err != nil {
		log.Fatal(err)
	}

	if err := e.Connect(graph.Connection{
		Source:       root.ID,
		Target:       research.ID,
		SourceHandle: types.HandleAgentSource,
		TargetHandle: types.HandleAgentTarget,
	}); err != nil {
		log.Fatal(err)
	}
}
