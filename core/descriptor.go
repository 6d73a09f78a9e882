package core

// Capability describes one remotely callable tool as advertised by a tool
// server catalog (or by an agent's static fallback catalog).
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AgentDescriptor binds an agent to its declared capabilities and the tool
// server it calls. The capability list is the agent's static declaration,
// not a live catalog snapshot.
type AgentDescriptor struct {
	Name          AgentName
	Capabilities  []Capability
	ServerAddress string
}

// ToolInvocationResult is the outcome of one remote tool call. Transport and
// protocol failures are absorbed into Text with OK set to false so callers
// always have something to synthesize from.
type ToolInvocationResult struct {
	ToolName string
	Text     string
	OK       bool
}
