package graph

import (
	"github.com/avi3tal/agentcanvas/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// ValidateForSave is the preflight check run before a save round trip.
// It catches what the backend would reject anyway: missing graph name and
// a missing or duplicated default agent. Deeper semantic validation stays
// server-side.
func ValidateForSave(meta types.GraphMetadata, nodes []types.Node) error {
	if err := validate.Struct(meta); err != nil {
		return errors.Wrap(err, "graph metadata")
	}

	defaults := 0
	for _, n := range nodes {
		if n.IsDefaultAgent() {
			defaults++
		}
	}
	switch {
	case defaults == 0:
		return ErrNoDefaultAgent
	case defaults > 1:
		return ErrMultipleDefaultAgents
	}
	return nil
}
