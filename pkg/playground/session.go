package playground

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/avi3tal/agentcanvas/internal/client"
)

// Session is one conversation against a deployed graph. The run plane
// owns conversation state server-side; the session tracks the
// conversation id it hands back plus the local transcript.
type Session struct {
	mu             sync.Mutex
	run            *client.Run
	scope          client.Scope
	graphID        string
	conversationID string
	transcript     Transcript
	log            *zap.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session's logger.
func WithLogger(log *zap.Logger) SessionOption {
	return func(s *Session) {
		s.log = log
	}
}

// WithConversationID resumes an existing server-side conversation.
func WithConversationID(id string) SessionOption {
	return func(s *Session) {
		s.conversationID = id
	}
}

// NewSession opens a playground session for one graph.
func NewSession(run *client.Run, scope client.Scope, graphID string, opts ...SessionOption) *Session {
	s := &Session{
		run:     run,
		scope:   scope,
		graphID: graphID,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send submits one user message and returns the graph's reply. Both
// turns are appended to the transcript; a failed call leaves the
// transcript untouched.
func (s *Session) Send(ctx context.Context, message string) (string, error) {
	if message == "" {
		return "", errors.New("empty message")
	}

	s.mu.Lock()
	conversationID := s.conversationID
	s.mu.Unlock()

	resp, err := s.run.Chat(ctx, s.scope, s.graphID, client.ChatRequest{
		ConversationID: conversationID,
		Message:        message,
	})
	if err != nil {
		return "", errors.Wrap(err, "sending message")
	}
	if resp == nil {
		return "", errors.New("empty chat response")
	}

	s.mu.Lock()
	s.conversationID = resp.ConversationID
	s.transcript = s.transcript.appendHuman(message).appendAI(resp.Reply)
	s.mu.Unlock()

	s.log.Debug("playground turn completed",
		zap.String("graph", s.graphID),
		zap.String("conversation", resp.ConversationID),
		zap.String("agent", resp.AgentID),
	)
	return resp.Reply, nil
}

// ConversationID returns the server-assigned conversation id, empty
// before the first successful turn.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Clone()
}
