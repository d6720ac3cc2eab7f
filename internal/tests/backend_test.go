package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/avi3tal/agentcanvas/internal/types"
)

// fakeBackend emulates the slice of the management and run planes the
// editor talks to: graph CRUD with server-assigned relationship ids, the
// tool catalog, and the chat endpoint. One server carries both planes.
type fakeBackend struct {
	mu      sync.Mutex
	graphs  map[string]types.GraphDefinition
	tools   []types.Tool
	nextRel int

	// rejection, when set, fails the next save with a validation error
	// envelope and then disarms itself.
	rejection *savedRejection

	server *httptest.Server
}

type savedRejection struct {
	nodeID  string
	field   string
	message string
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{
		graphs: make(map[string]types.GraphDefinition),
		tools: []types.Tool{
			{ID: "web-search", Name: "Web Search", ImageURL: "https://tools.example.com/search.png"},
			{ID: "mailer", Name: "Mailer"},
		},
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.handle))
	return b
}

func (b *fakeBackend) Close() { b.server.Close() }

func (b *fakeBackend) URL() string { return b.server.URL }

func (b *fakeBackend) rejectNextSave(nodeID, field, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejection = &savedRejection{nodeID: nodeID, field: field, message: message}
}

func (b *fakeBackend) savedGraph(id string) (types.GraphDefinition, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	def, ok := b.graphs[id]
	return def, ok
}

func (b *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// All paths look like tenants/{t}/projects/{p}/<resource>...
	if len(parts) < 5 || parts[0] != "tenants" || parts[2] != "projects" {
		http.NotFound(w, r)
		return
	}
	resource := parts[4]
	rest := parts[5:]

	switch {
	case resource == "tools" && r.Method == http.MethodGet:
		b.writeData(w, b.tools)
	case resource == "data-components" && r.Method == http.MethodGet:
		b.writeData(w, []types.DataComponent{})
	case resource == "artifact-components" && r.Method == http.MethodGet:
		b.writeData(w, []types.ArtifactComponent{})
	case resource == "graphs":
		b.handleGraphs(w, r, rest)
	default:
		http.NotFound(w, r)
	}
}

func (b *fakeBackend) handleGraphs(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodPost:
		b.saveGraph(w, r, "")
	case len(rest) == 1 && r.Method == http.MethodPut:
		b.saveGraph(w, r, rest[0])
	case len(rest) == 1 && r.Method == http.MethodGet:
		def, ok := b.savedGraph(rest[0])
		if !ok {
			b.writeError(w, http.StatusNotFound, "not_found", "graph does not exist", nil)
			return
		}
		b.writeData(w, def)
	case len(rest) == 2 && rest[1] == "chat" && r.Method == http.MethodPost:
		b.chat(w, r, rest[0])
	default:
		http.NotFound(w, r)
	}
}

// saveGraph stores the submitted definition, assigning relationship ids
// to canUse entries that arrive without one.
func (b *fakeBackend) saveGraph(w http.ResponseWriter, r *http.Request, existingID string) {
	var def types.GraphDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		b.writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}

	b.mu.Lock()
	if rej := b.rejection; rej != nil {
		b.rejection = nil
		b.mu.Unlock()
		b.writeError(w, http.StatusUnprocessableEntity, "validation_failed", "graph failed validation",
			map[string]any{"errors": []map[string]any{{
				"nodeId":  rej.nodeID,
				"field":   rej.field,
				"message": rej.message,
			}}})
		return
	}

	if existingID != "" {
		def.ID = existingID
	} else if def.ID == "" {
		def.ID = fmt.Sprintf("graph-%d", len(b.graphs)+1)
	}

	for agentID, agent := range def.Agents {
		for i, use := range agent.CanUse {
			if use.AgentToolRelationID == "" {
				b.nextRel++
				agent.CanUse[i].AgentToolRelationID = fmt.Sprintf("rel-%d", b.nextRel)
			}
		}
		def.Agents[agentID] = agent
	}

	b.graphs[def.ID] = def
	b.mu.Unlock()

	status := http.StatusOK
	if existingID == "" {
		status = http.StatusCreated
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": def})
}

// chat answers with a per-graph conversation id and an echo naming the
// default agent, enough for transcript and continuity assertions.
func (b *fakeBackend) chat(w http.ResponseWriter, r *http.Request, graphID string) {
	def, ok := b.savedGraph(graphID)
	if !ok {
		b.writeError(w, http.StatusNotFound, "not_found", "graph does not exist", nil)
		return
	}

	var req struct {
		ConversationID string `json:"conversationId"`
		Message        string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		b.writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = "conv-" + graphID
	}
	b.writeData(w, map[string]any{
		"conversationId": conversationID,
		"agentId":        def.DefaultAgentID,
		"reply":          "ack: " + req.Message,
	})
}

func (b *fakeBackend) writeData(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": payload})
}

func (b *fakeBackend) writeError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"code": code, "message": message}
	if details != nil {
		body["details"] = details
	}
	_ = json.NewEncoder(w).Encode(body)
}
