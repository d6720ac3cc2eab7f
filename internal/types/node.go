package types

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// NodeType discriminates the payload carried by a canvas node.
type NodeType string

const (
	NodeTypeAgent         NodeType = "agent"
	NodeTypeMCP           NodeType = "mcp"
	NodeTypeExternalAgent NodeType = "external-agent"
)

// Position is a node's placement in canvas coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the typed payload of a canvas node. The set of
// implementations is closed; Kind reports the discriminator that
// selects the concrete type during (de)serialization.
type NodeData interface {
	Kind() NodeType
	clone() NodeData
}

// AgentData is the payload of an internal agent node.
type AgentData struct {
	Name                 string   `json:"name"`
	Description          string   `json:"description,omitempty"`
	Prompt               string   `json:"prompt,omitempty"`
	Models               []string `json:"models,omitempty"`
	DefaultAgent         bool     `json:"defaultAgent,omitempty"`
	DataComponentIDs     []string `json:"dataComponents,omitempty"`
	ArtifactComponentIDs []string `json:"artifactComponents,omitempty"`
}

// Kind returns NodeTypeAgent.
func (AgentData) Kind() NodeType { return NodeTypeAgent }

func (d AgentData) clone() NodeData {
	d.Models = append([]string(nil), d.Models...)
	d.DataComponentIDs = append([]string(nil), d.DataComponentIDs...)
	d.ArtifactComponentIDs = append([]string(nil), d.ArtifactComponentIDs...)
	return d
}

// ToolData is the payload of an MCP tool node. AgentID binds the tool to
// the agent that uses it and is set when a connection lands on the node.
// RelationshipID is assigned by the backend on save; the empty string
// marks a binding that is still pending server assignment.
type ToolData struct {
	ToolID         string `json:"toolId"`
	Name           string `json:"name,omitempty"`
	ImageURL       string `json:"imageUrl,omitempty"`
	AgentID        string `json:"agentId,omitempty"`
	RelationshipID string `json:"relationshipId,omitempty"`
}

// Kind returns NodeTypeMCP.
func (ToolData) Kind() NodeType { return NodeTypeMCP }

func (d ToolData) clone() NodeData { return d }

// ExternalAgentData is the payload of an external (remote) agent node.
type ExternalAgentData struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BaseURL     string `json:"baseUrl,omitempty"`
}

// Kind returns NodeTypeExternalAgent.
func (ExternalAgentData) Kind() NodeType { return NodeTypeExternalAgent }

func (d ExternalAgentData) clone() NodeData { return d }

// Node is a single canvas element. Ids are unique within a graph.
type Node struct {
	ID        string   `json:"id"`
	Type      NodeType `json:"type"`
	Position  Position `json:"position"`
	Selected  bool     `json:"selected,omitempty"`
	Deletable bool     `json:"deletable"`
	Data      NodeData `json:"data"`
}

// AgentData returns the agent payload when the node is an agent node.
func (n Node) AgentData() (AgentData, bool) {
	d, ok := n.Data.(AgentData)
	return d, ok
}

// ToolData returns the MCP payload when the node is a tool node.
func (n Node) ToolData() (ToolData, bool) {
	d, ok := n.Data.(ToolData)
	return d, ok
}

// ExternalAgentData returns the payload when the node is an external agent.
func (n Node) ExternalAgentData() (ExternalAgentData, bool) {
	d, ok := n.Data.(ExternalAgentData)
	return d, ok
}

// IsDefaultAgent reports whether the node is the graph's default agent.
func (n Node) IsDefaultAgent() bool {
	d, ok := n.AgentData()
	return ok && d.DefaultAgent
}

// Clone returns a copy that shares no mutable state with the original.
func (n Node) Clone() Node {
	if n.Data != nil {
		n.Data = n.Data.clone()
	}
	return n
}

type nodeEnvelope struct {
	ID        string          `json:"id"`
	Type      NodeType        `json:"type"`
	Position  Position        `json:"position"`
	Selected  bool            `json:"selected,omitempty"`
	Deletable bool            `json:"deletable"`
	Data      json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes the payload according to the node's type tag.
func (n *Node) UnmarshalJSON(b []byte) error {
	var env nodeEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return errors.Wrap(err, "decode node envelope")
	}

	n.ID = env.ID
	n.Type = env.Type
	n.Position = env.Position
	n.Selected = env.Selected
	n.Deletable = env.Deletable

	if len(env.Data) == 0 {
		n.Data = nil
		return nil
	}

	switch env.Type {
	case NodeTypeAgent:
		var d AgentData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return errors.Wrapf(err, "decode agent payload for node %s", env.ID)
		}
		n.Data = d
	case NodeTypeMCP:
		var d ToolData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return errors.Wrapf(err, "decode tool payload for node %s", env.ID)
		}
		n.Data = d
	case NodeTypeExternalAgent:
		var d ExternalAgentData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return errors.Wrapf(err, "decode external agent payload for node %s", env.ID)
		}
		n.Data = d
	default:
		return errors.Errorf("unknown node type %q", env.Type)
	}
	return nil
}
