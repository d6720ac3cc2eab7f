package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrNilDefinition is returned when deserializing a nil definition.
	ErrNilDefinition = errors.New("graph definition is nil")

	// ErrNoDefaultAgent is returned when serializing a graph with no default agent
	ErrNoDefaultAgent = errors.New("graph must have exactly one default agent")

	// ErrMultipleDefaultAgents is returned when more than one agent is marked default
	ErrMultipleDefaultAgents = errors.New("graph has more than one default agent")

	// ErrNodeNotFound is returned when an edge references a non-existent node
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateNode is returned when adding a node whose id already exists
	ErrDuplicateNode = errors.New("node with this ID already exists")

	// ErrDuplicateEdge is returned when an edge for the endpoint pair already exists
	ErrDuplicateEdge = errors.New("edge for this endpoint pair already exists")

	// ErrEdgeNotFound is returned when referencing a non-existent edge
	ErrEdgeNotFound = errors.New("edge not found")
)

// ConversionError reports a failure while translating between the canvas
// representation and the backend definition format.
type ConversionError struct {
	// Op is the conversion step that failed
	Op string
	// Element is the id of the node or edge involved (if any)
	Element string
	// Err is the underlying error
	Err error
}

func (e *ConversionError) Error() string {
	if e.Element != "" {
		return fmt.Sprintf("graph conversion failed: %s: element '%s': %v", e.Op, e.Element, e.Err)
	}
	return fmt.Sprintf("graph conversion failed: %s: %v", e.Op, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// NewConversionError creates a new ConversionError
func NewConversionError(op string, element string, err error) error {
	return &ConversionError{
		Op:      op,
		Element: element,
		Err:     err,
	}
}
