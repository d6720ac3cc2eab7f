package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/avi3tal/agentcanvas/internal/types"
)

// Scope addresses one project within one tenant. Every management and run
// operation is scoped.
type Scope struct {
	TenantID  string
	ProjectID string
}

func (s Scope) path(format string, args ...any) string {
	prefix := fmt.Sprintf("/tenants/%s/projects/%s",
		url.PathEscape(s.TenantID), url.PathEscape(s.ProjectID))
	return prefix + fmt.Sprintf(format, args...)
}

// Management talks to the manage plane: graph CRUD plus the tool and
// component catalogs.
type Management struct {
	*Client
}

// NewManagement builds a manage-plane client.
func NewManagement(opts ...Option) *Management {
	return &Management{Client: newClient("management", DefaultManagementURL, opts...)}
}

type graphEnvelope struct {
	Data *types.GraphDefinition `json:"data"`
}

// SaveGraph persists a graph definition. An empty existingID creates the
// graph; otherwise the existing graph is replaced in full. The returned
// definition carries all server-assigned ids. Safe to retry manually; the
// client never retries on its own.
func (m *Management) SaveGraph(ctx context.Context, scope Scope, def *types.GraphDefinition, existingID string) (*types.GraphDefinition, error) {
	var out graphEnvelope
	if existingID == "" {
		path := scope.path("/graphs")
		if err := m.do(ctx, http.MethodPost, path, def, &out); err != nil {
			return nil, err
		}
		return out.Data, nil
	}
	path := scope.path("/graphs/%s", url.PathEscape(existingID))
	if err := m.do(ctx, http.MethodPut, path, def, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetGraph fetches one graph definition by id.
func (m *Management) GetGraph(ctx context.Context, scope Scope, graphID string) (*types.GraphDefinition, error) {
	var out graphEnvelope
	path := scope.path("/graphs/%s", url.PathEscape(graphID))
	if err := m.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ListGraphs fetches all graph definitions in the project.
func (m *Management) ListGraphs(ctx context.Context, scope Scope) ([]types.GraphDefinition, error) {
	var out struct {
		Data []types.GraphDefinition `json:"data"`
	}
	if err := m.do(ctx, http.MethodGet, scope.path("/graphs"), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// DeleteGraph removes a graph by id.
func (m *Management) DeleteGraph(ctx context.Context, scope Scope, graphID string) error {
	path := scope.path("/graphs/%s", url.PathEscape(graphID))
	return m.do(ctx, http.MethodDelete, path, nil, nil)
}

// ListTools fetches the project's MCP tool catalog, indexed by tool id.
func (m *Management) ListTools(ctx context.Context, scope Scope) (types.ToolLookup, error) {
	var out struct {
		Data []types.Tool `json:"data"`
	}
	if err := m.do(ctx, http.MethodGet, scope.path("/tools"), nil, &out); err != nil {
		return nil, err
	}
	lookup := make(types.ToolLookup, len(out.Data))
	for _, tool := range out.Data {
		lookup[tool.ID] = tool
	}
	return lookup, nil
}

// ListDataComponents fetches the project's data components, indexed by id.
func (m *Management) ListDataComponents(ctx context.Context, scope Scope) (types.DataComponentLookup, error) {
	var out struct {
		Data []types.DataComponent `json:"data"`
	}
	if err := m.do(ctx, http.MethodGet, scope.path("/data-components"), nil, &out); err != nil {
		return nil, err
	}
	lookup := make(types.DataComponentLookup, len(out.Data))
	for _, component := range out.Data {
		lookup[component.ID] = component
	}
	return lookup, nil
}

// ListArtifactComponents fetches the project's artifact components,
// indexed by id.
func (m *Management) ListArtifactComponents(ctx context.Context, scope Scope) (types.ArtifactComponentLookup, error) {
	var out struct {
		Data []types.ArtifactComponent `json:"data"`
	}
	if err := m.do(ctx, http.MethodGet, scope.path("/artifact-components"), nil, &out); err != nil {
		return nil, err
	}
	lookup := make(types.ArtifactComponentLookup, len(out.Data))
	for _, component := range out.Data {
		lookup[component.ID] = component
	}
	return lookup, nil
}
