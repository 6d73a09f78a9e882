// Package core defines the shared conversation model of supportmesh: the
// typed conversation state threaded through a run, the append-only message
// log, the per-agent execution ledger, and the contracts implemented by
// agent nodes and conversation stores.
package core

import (
	"context"
	"fmt"
)

// AgentName identifies one of the specialized agents the supervisor can
// route to. The set is closed; anything outside it is a routing error.
type AgentName string

const (
	// AgentDocumentQA answers questions against the document/FAQ corpus.
	AgentDocumentQA AgentName = "document_qa"
	// AgentSentiment de-escalates or moderates emotionally charged input.
	AgentSentiment AgentName = "sentiment"
	// AgentEmail drafts and dispatches outbound email on behalf of the user.
	AgentEmail AgentName = "email"
	// AgentTech handles technical chores such as tabular exports and summaries.
	AgentTech AgentName = "tech"
)

// AgentNames returns all routable agent names in a stable order.
func AgentNames() []AgentName {
	return []AgentName{AgentDocumentQA, AgentSentiment, AgentEmail, AgentTech}
}

// ParseAgentName validates a raw label against the closed agent set.
func ParseAgentName(s string) (AgentName, error) {
	switch AgentName(s) {
	case AgentDocumentQA, AgentSentiment, AgentEmail, AgentTech:
		return AgentName(s), nil
	}
	return "", fmt.Errorf("core: unknown agent name %q", s)
}

// AgentNode is the contract every specialized agent implements. Run mutates
// the conversation state in place; it returns an error only for inputs the
// node cannot meaningfully process (such as an empty user message). Internal
// tool and model failures are absorbed into the recorded message instead.
type AgentNode interface {
	Name() AgentName
	Run(ctx context.Context, state *ConversationState) error
}
