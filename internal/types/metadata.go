package types

// GraphMetadata holds the graph-level fields of a definition. ID stays
// empty until the backend assigns one on the first successful save.
type GraphMetadata struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description,omitempty" validate:"max=2048"`
}
