// Package diagnostics turns backend validation failures into per-element
// messages the canvas can overlay on the offending nodes and edges.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/avi3tal/agentcanvas/internal/client"
)

// Summary is the parsed validation state, keyed by the canvas element the
// backend blamed. Messages with no element land in General.
type Summary struct {
	Nodes   map[string][]string
	Edges   map[string][]string
	General []string
}

// validationDetails is the backend's error detail envelope.
type validationDetails struct {
	Errors []validationEntry `json:"errors"`
}

type validationEntry struct {
	NodeID  string `json:"nodeId,omitempty"`
	EdgeID  string `json:"edgeId,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Parse normalizes a save failure into a Summary. It fails when the
// payload does not carry the expected detail shape; callers downgrade
// that to a generic notification instead of crashing the editor.
func Parse(apiErr *client.APIError) (*Summary, error) {
	if apiErr == nil {
		return nil, errors.New("no error to parse")
	}
	if len(apiErr.Details) == 0 {
		return nil, errors.Errorf("error %q carries no validation details", apiErr.Code)
	}

	var details validationDetails
	if err := json.Unmarshal(apiErr.Details, &details); err != nil {
		return nil, errors.Wrap(err, "decoding validation details")
	}
	if len(details.Errors) == 0 {
		return nil, errors.New("validation details carry no errors")
	}

	summary := &Summary{
		Nodes: make(map[string][]string),
		Edges: make(map[string][]string),
	}
	for _, entry := range details.Errors {
		message := entry.Message
		if message == "" {
			continue
		}
		if entry.Field != "" {
			message = fmt.Sprintf("%s: %s", entry.Field, message)
		}
		switch {
		case entry.NodeID != "":
			summary.Nodes[entry.NodeID] = append(summary.Nodes[entry.NodeID], message)
		case entry.EdgeID != "":
			summary.Edges[entry.EdgeID] = append(summary.Edges[entry.EdgeID], message)
		default:
			summary.General = append(summary.General, message)
		}
	}
	if summary.Count() == 0 {
		return nil, errors.New("validation details carry no usable messages")
	}
	return summary, nil
}

// Count returns the total number of messages.
func (s *Summary) Count() int {
	if s == nil {
		return 0
	}
	total := len(s.General)
	for _, msgs := range s.Nodes {
		total += len(msgs)
	}
	for _, msgs := range s.Edges {
		total += len(msgs)
	}
	return total
}

// Headline builds the one-line toast message: the count plus the first
// message in a deterministic order (general first, then nodes and edges
// by element id). Empty summaries yield an empty headline.
func (s *Summary) Headline() string {
	count := s.Count()
	if count == 0 {
		return ""
	}
	first := s.firstMessage()
	if count == 1 {
		return fmt.Sprintf("1 validation error: %s", first)
	}
	return fmt.Sprintf("%d validation errors: %s", count, first)
}

func (s *Summary) firstMessage() string {
	if len(s.General) > 0 {
		return s.General[0]
	}
	if msg, ok := firstByElement(s.Nodes); ok {
		return msg
	}
	if msg, ok := firstByElement(s.Edges); ok {
		return msg
	}
	return ""
}

func firstByElement(byID map[string][]string) (string, bool) {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if len(byID[id]) > 0 {
			return byID[id][0], true
		}
	}
	return "", false
}

// Clone returns a deep copy so overlay state cannot be mutated through a
// shared summary. A nil receiver clones to nil.
func (s *Summary) Clone() *Summary {
	if s == nil {
		return nil
	}
	out := &Summary{
		Nodes:   make(map[string][]string, len(s.Nodes)),
		Edges:   make(map[string][]string, len(s.Edges)),
		General: append([]string(nil), s.General...),
	}
	for id, msgs := range s.Nodes {
		out.Nodes[id] = append([]string(nil), msgs...)
	}
	for id, msgs := range s.Edges {
		out.Edges[id] = append([]string(nil), msgs...)
	}
	return out
}
