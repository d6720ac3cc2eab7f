package editor

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/avi3tal/agentcanvas/internal/analysis"
	"github.com/avi3tal/agentcanvas/internal/client"
	"github.com/avi3tal/agentcanvas/internal/diagnostics"
	"github.com/avi3tal/agentcanvas/internal/graph"
	"github.com/avi3tal/agentcanvas/internal/types"
)

// Save runs the full save protocol: orphaned-tool warning, local
// preflight, serialization, the backend call, and either the success
// bookkeeping or the failure diagnostics. Every outcome reaches the user
// through the notifier before Save returns; the returned error is
// informational for programmatic callers and never represents an
// unreported state.
//
// Saves are not queued. The user may keep editing while one is in
// flight, and a newer Save supersedes an older one: each call takes a
// sequence number, and a backend response arriving after a newer save
// started is discarded without touching the store.
func (e *Editor) Save(ctx context.Context) error {
	seq := atomic.AddUint64(&e.saveSeq, 1)

	nodes := e.store.Nodes()
	edges := e.store.Edges()
	meta := e.store.Metadata()

	if warning := analysis.OrphanWarning(nodes, edges); warning != "" {
		e.notifier.Warning(warning)
	}

	if err := graph.ValidateForSave(meta, nodes); err != nil {
		e.log.Warn("save preflight failed", zap.Error(err))
		e.notifier.Error("Cannot save graph: " + err.Error())
		return err
	}

	def, err := graph.Serialize(nodes, edges, meta,
		e.store.DataComponents(), e.store.ArtifactComponents(), e.store.ToolConfigs())
	if err != nil {
		e.log.Error("serialization failed", zap.Error(err))
		e.notifier.Error("Cannot save graph: " + err.Error())
		return err
	}

	if e.mgmt == nil {
		e.notifier.Error("Cannot save graph: no management client configured.")
		return errors.New("no management client configured")
	}

	saved, err := e.mgmt.SaveGraph(ctx, e.scope, def, meta.ID)
	if e.stale(seq) {
		e.log.Info("discarding superseded save result",
			zap.Uint64("seq", seq),
			zap.Bool("failed", err != nil),
		)
		return nil
	}
	if err != nil {
		e.handleSaveFailure(err)
		return err
	}

	e.handleSaveSuccess(saved, meta.ID == "")
	return nil
}

func (e *Editor) stale(seq uint64) bool {
	return atomic.LoadUint64(&e.saveSeq) != seq
}

// handleSaveSuccess clears overlays, reconciles server-assigned
// relationship ids onto pending tool nodes, marks the store saved and
// navigates to the permanent URL on first save.
func (e *Editor) handleSaveSuccess(saved *types.GraphDefinition, firstSave bool) {
	e.store.ClearDiagnostics()

	if saved != nil {
		assignments := graph.PendingToolAssignments(e.store.Nodes(), saved)
		nodeIDs := make([]string, 0, len(assignments))
		for nodeID := range assignments {
			nodeIDs = append(nodeIDs, nodeID)
		}
		sort.Strings(nodeIDs)
		for _, nodeID := range nodeIDs {
			if err := e.store.AssignRelationshipID(nodeID, assignments[nodeID]); err != nil {
				e.log.Warn("relationship id assignment failed",
					zap.String("node", nodeID),
					zap.Error(err),
				)
			}
		}
	}

	e.store.MarkSaved(saved)
	e.notifier.Success("Graph saved.")
	e.log.Info("graph saved", zap.Bool("first_save", firstSave))

	if firstSave && saved != nil && e.navigate != nil {
		e.navigate(saved.ID)
	}
}

// handleSaveFailure maps a failed save onto per-element diagnostics when
// the payload allows it, and a generic notification when it does not. A
// parse failure is logged, never propagated.
func (e *Editor) handleSaveFailure(err error) {
	apiErr, ok := client.AsAPIError(err)
	if !ok {
		e.log.Error("save failed", zap.Error(err))
		e.notifier.Error("Failed to save graph.")
		return
	}

	summary, parseErr := diagnostics.Parse(apiErr)
	if parseErr != nil {
		e.log.Warn("unparseable validation payload",
			zap.String("code", apiErr.Code),
			zap.Int("status", apiErr.Status),
			zap.Error(parseErr),
		)
		message := apiErr.Message
		if message == "" {
			message = "Failed to save graph."
		}
		e.notifier.Error(message)
		return
	}

	e.store.SetDiagnostics(summary)
	e.notifier.Error(summary.Headline())
	e.log.Info("save rejected by validation", zap.Int("errors", summary.Count()))
}
