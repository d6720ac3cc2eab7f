package client

import (
	"context"
	"net/http"
	"net/url"
)

// Run talks to the run plane, where deployed graphs answer conversations.
type Run struct {
	*Client
}

// NewRun builds a run-plane client.
func NewRun(opts ...Option) *Run {
	return &Run{Client: newClient("run", DefaultRunURL, opts...)}
}

// ChatRequest is one user turn against a deployed graph.
type ChatRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message"`
}

// ChatResponse is the graph's reply for one turn.
type ChatResponse struct {
	ConversationID string `json:"conversationId"`
	AgentID        string `json:"agentId,omitempty"`
	Reply          string `json:"reply"`
}

// Chat sends one message to a deployed graph and returns the reply.
func (r *Run) Chat(ctx context.Context, scope Scope, graphID string, req ChatRequest) (*ChatResponse, error) {
	var out struct {
		Data *ChatResponse `json:"data"`
	}
	path := scope.path("/graphs/%s/chat", url.PathEscape(graphID))
	if err := r.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}
