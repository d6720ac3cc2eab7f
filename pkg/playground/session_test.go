package playground

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/avi3tal/agentcanvas/internal/client"
)

var testScope = client.Scope{TenantID: "t", ProjectID: "p"}

func chatServer(t *testing.T) *httptest.Server {
	t.Helper()
	turn := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tenants/t/projects/p/graphs/g-1/chat", r.URL.Path)

		var req client.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// The first turn opens the conversation; later turns must carry
		// the id back.
		turn++
		if turn == 1 {
			require.Empty(t, req.ConversationID)
		} else {
			require.Equal(t, "conv-1", req.ConversationID)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": client.ChatResponse{
				ConversationID: "conv-1",
				AgentID:        "agent-router",
				Reply:          "echo: " + req.Message,
			},
		})
	}))
}

func textOf(t *testing.T, msg llms.MessageContent) string {
	t.Helper()
	require.Len(t, msg.Parts, 1)
	part, ok := msg.Parts[0].(llms.TextContent)
	require.True(t, ok)
	return part.Text
}

func TestSendBuildsTranscript(t *testing.T) {
	t.Parallel()

	server := chatServer(t)
	defer server.Close()

	session := NewSession(client.NewRun(client.WithBaseURL(server.URL)), testScope, "g-1")
	require.Empty(t, session.ConversationID())

	reply, err := session.Send(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "echo: hello", reply)
	require.Equal(t, "conv-1", session.ConversationID())

	reply, err = session.Send(context.Background(), "again")
	require.NoError(t, err)
	require.Equal(t, "echo: again", reply)

	transcript := session.Transcript()
	require.Len(t, transcript.Messages, 4)
	require.Equal(t, llms.ChatMessageTypeHuman, transcript.Messages[0].Role)
	require.Equal(t, "hello", textOf(t, transcript.Messages[0]))
	require.Equal(t, llms.ChatMessageTypeAI, transcript.Messages[1].Role)
	require.Equal(t, "echo: hello", textOf(t, transcript.Messages[1]))
	require.Equal(t, "again", textOf(t, transcript.Messages[2]))
	require.Equal(t, "echo: again", textOf(t, transcript.Messages[3]))
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	session := NewSession(client.NewRun(), testScope, "g-1")
	_, err := session.Send(context.Background(), "")
	require.Error(t, err)
	require.Empty(t, session.Transcript().Messages)
}

func TestSendFailureLeavesTranscriptUntouched(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	session := NewSession(client.NewRun(client.WithBaseURL(server.URL)), testScope, "g-1")
	_, err := session.Send(context.Background(), "hello")
	require.Error(t, err)
	require.Empty(t, session.Transcript().Messages)
	require.Empty(t, session.ConversationID())
}

func TestResumeConversation(t *testing.T) {
	t.Parallel()

	var gotConversationID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req client.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotConversationID = req.ConversationID

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": client.ChatResponse{ConversationID: req.ConversationID, Reply: "resumed"},
		})
	}))
	defer server.Close()

	session := NewSession(client.NewRun(client.WithBaseURL(server.URL)), testScope, "g-1",
		WithConversationID("conv-resume"))

	_, err := session.Send(context.Background(), "continue")
	require.NoError(t, err)
	require.Equal(t, "conv-resume", gotConversationID)
}

func TestTranscriptRoundTrip(t *testing.T) {
	t.Parallel()

	transcript := Transcript{}.appendHuman("hi").appendAI("hello there")
	require.NoError(t, transcript.Validate())

	data, err := transcript.Dump()
	require.NoError(t, err)

	restored, err := Load(data)
	require.NoError(t, err)
	require.Len(t, restored.Messages, 2)
	require.Equal(t, llms.ChatMessageTypeHuman, restored.Messages[0].Role)
	require.Equal(t, "hi", textOf(t, restored.Messages[0]))

	_, err = Load([]byte(`{`))
	require.Error(t, err)

	require.ErrorIs(t, Transcript{}.Validate(), ErrEmptyTranscript)
}

func TestTranscriptMergeAndCloneAreIndependent(t *testing.T) {
	t.Parallel()

	first := Transcript{}.appendHuman("a")
	second := Transcript{}.appendHuman("b")

	merged := first.Merge(second)
	require.Len(t, merged.Messages, 2)
	require.Len(t, first.Messages, 1)

	cloned := merged.Clone()
	cloned.Messages[0] = llms.TextParts(llms.ChatMessageTypeAI, "mutated")
	require.Equal(t, "a", textOf(t, merged.Messages[0]))
}
