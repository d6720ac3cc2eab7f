package diagnostics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avi3tal/agentcanvas/internal/client"
)

func validationError(t *testing.T, entries string) *client.APIError {
	t.Helper()
	return &client.APIError{
		Code:    "validation_failed",
		Message: "graph failed validation",
		Details: json.RawMessage(`{"errors":[` + entries + `]}`),
		Status:  422,
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	apiErr := validationError(t, `
		{"nodeId":"agent-1","field":"prompt","message":"must not be empty"},
		{"nodeId":"agent-1","message":"model is unknown"},
		{"edgeId":"edge-a-b","message":"relationship has no direction"},
		{"message":"graph name is taken"}`)

	summary, err := Parse(apiErr)
	require.NoError(t, err)

	require.Equal(t, []string{"prompt: must not be empty", "model is unknown"}, summary.Nodes["agent-1"])
	require.Equal(t, []string{"relationship has no direction"}, summary.Edges["edge-a-b"])
	require.Equal(t, []string{"graph name is taken"}, summary.General)
	require.Equal(t, 4, summary.Count())
}

func TestParseRejectsUnusableShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		apiErr *client.APIError
	}{
		{name: "nil error", apiErr: nil},
		{name: "no details", apiErr: &client.APIError{Code: "validation_failed"}},
		{
			name: "details not json",
			apiErr: &client.APIError{
				Code:    "validation_failed",
				Details: json.RawMessage(`"boom"`),
			},
		},
		{
			name: "empty errors array",
			apiErr: &client.APIError{
				Code:    "validation_failed",
				Details: json.RawMessage(`{"errors":[]}`),
			},
		},
		{
			name: "entries without messages",
			apiErr: &client.APIError{
				Code:    "validation_failed",
				Details: json.RawMessage(`{"errors":[{"nodeId":"agent-1"}]}`),
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			summary, err := Parse(tc.apiErr)
			require.Error(t, err)
			require.Nil(t, summary)
		})
	}
}

func TestHeadline(t *testing.T) {
	t.Parallel()

	single := &Summary{Nodes: map[string][]string{"agent-1": {"prompt: must not be empty"}}}
	require.Equal(t, "1 validation error: prompt: must not be empty", single.Headline())

	multi := &Summary{
		Nodes: map[string][]string{
			"z-agent": {"z message"},
			"a-agent": {"a message"},
		},
		Edges:   map[string][]string{"edge-1": {"edge message"}},
		General: []string{"general message"},
	}
	// General outranks element messages; elements would sort by id.
	require.Equal(t, "4 validation errors: general message", multi.Headline())

	elementsOnly := &Summary{
		Nodes: map[string][]string{
			"z-agent": {"z message"},
			"a-agent": {"a message"},
		},
	}
	require.Equal(t, "2 validation errors: a message", elementsOnly.Headline())

	var empty *Summary
	require.Equal(t, 0, empty.Count())
	require.Empty(t, empty.Headline())
}

func TestClone(t *testing.T) {
	t.Parallel()

	original := &Summary{
		Nodes:   map[string][]string{"agent-1": {"message"}},
		General: []string{"general"},
	}
	copied := original.Clone()
	copied.Nodes["agent-1"][0] = "mutated"
	copied.General[0] = "mutated"

	require.Equal(t, "message", original.Nodes["agent-1"][0])
	require.Equal(t, "general", original.General[0])

	var nilSummary *Summary
	require.Nil(t, nilSummary.Clone())
}
