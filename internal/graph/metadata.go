package graph

import "github.com/avi3tal/agentcanvas/internal/types"

// ExtractGraphMetadata projects the graph-level fields out of a
// definition. A nil definition yields empty metadata, so callers can feed
// it a not-yet-loaded graph without guarding.
func ExtractGraphMetadata(def *types.GraphDefinition) types.GraphMetadata {
	if def == nil {
		return types.GraphMetadata{}
	}
	return types.GraphMetadata{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
	}
}
