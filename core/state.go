package core

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"
)

// Role classifies who produced a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
)

// Message is one entry in the append-only conversation log.
type Message struct {
	// Role is the producer class of the message.
	Role Role `json:"role"`
	// Agent names the producing agent for RoleAgent and RoleSystem entries.
	// Empty for user messages.
	Agent string `json:"agent,omitempty"`
	// Content is the message text.
	Content string `json:"content"`
	// Tag is an ordering marker assigned at append time. It is informational
	// only; log order is the authoritative ordering.
	Tag string `json:"tag,omitempty"`
	// CreatedAt records when the message was appended.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// StructuralKey hashes the structural identity of a message, ignoring the
// tag and timestamp. Two messages with the same key are duplicates for
// log-deduplication purposes.
func (m Message) StructuralKey() uint64 {
	h := fnv.New64a()
	h.Write([]byte(string(m.Role)))
	h.Write([]byte{0})
	h.Write([]byte(m.Agent))
	h.Write([]byte{0})
	h.Write([]byte(m.Content))
	return h.Sum64()
}

// Ledger counts how many times each agent has executed during a run. It is
// monotonically non-decreasing; only the engine increments it.
type Ledger map[AgentName]int

// Count returns the number of recorded executions for an agent.
func (l Ledger) Count(name AgentName) int { return l[name] }

// Total returns the number of agent executions across all agents.
func (l Ledger) Total() int {
	n := 0
	for _, c := range l {
		n += c
	}
	return n
}

// AtCap reports whether the agent has reached its configured cap.
func (l Ledger) AtCap(name AgentName, caps map[AgentName]int) bool {
	limit, ok := caps[name]
	if !ok {
		return true
	}
	return l[name] >= limit
}

// Clone returns an independent copy of the ledger.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// ErrFinalOutputSet is returned when a run tries to finalize twice.
var ErrFinalOutputSet = errors.New("core: final output already set")

// ConversationState is the single typed state record threaded through one
// conversation turn. The message log is append-only; scratch routing fields
// (CurrentAgent, NextAgent, SupervisorDecision, ToolResponse) are freely
// overwritten as the run progresses.
type ConversationState struct {
	mu sync.RWMutex

	input       string
	sessionID   string
	messages    []Message
	executed    Ledger
	lastKey     uint64
	hasMessages bool
	seq         int

	currentAgent       AgentName
	nextAgent          AgentName
	supervisorDecision string
	toolResponse       string
	finalOutput        string
	finalSet           bool
}

// NewConversationState creates the state for one turn. The user input is
// recorded as the first log entry.
func NewConversationState(sessionID, input string) *ConversationState {
	s := &ConversationState{
		input:     input,
		sessionID: sessionID,
		executed:  make(Ledger),
	}
	s.Append(Message{Role: RoleUser, Content: input})
	return s
}

// Input returns the original user message for this turn.
func (s *ConversationState) Input() string { return s.input }

// SessionID returns the conversation session identifier.
func (s *ConversationState) SessionID() string { return s.sessionID }

// Append adds a message to the log, stamping its tag and timestamp. A
// message that is structurally identical to the immediately preceding entry
// (same role, agent, and content) is dropped; Append reports whether the
// message was recorded.
func (s *ConversationState) Append(msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := msg.StructuralKey()
	if s.hasMessages && key == s.lastKey {
		return false
	}
	s.seq++
	msg.Tag = fmt.Sprintf("t%03d", s.seq)
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.messages = append(s.messages, msg)
	s.lastKey = key
	s.hasMessages = true
	return true
}

// Messages returns a copy of the message log.
func (s *ConversationState) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// LastAgentMessage returns the content of the most recent RoleAgent entry,
// or the empty string if no agent has spoken yet.
func (s *ConversationState) LastAgentMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == RoleAgent {
			return s.messages[i].Content
		}
	}
	return ""
}

// RecordExecution increments the execution ledger for an agent.
func (s *ConversationState) RecordExecution(name AgentName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executed[name]++
}

// Executed returns a copy of the execution ledger.
func (s *ConversationState) Executed() Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.executed.Clone()
}

// SetCurrentAgent records the agent that last ran.
func (s *ConversationState) SetCurrentAgent(name AgentName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentAgent = name
}

// CurrentAgent returns the agent that last ran, if any.
func (s *ConversationState) CurrentAgent() AgentName {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentAgent
}

// SetNextAgent records the routing target chosen for the next step.
func (s *ConversationState) SetNextAgent(name AgentName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAgent = name
}

// NextAgent returns the routing target chosen for the next step.
func (s *ConversationState) NextAgent() AgentName {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextAgent
}

// SetSupervisorDecision records the raw supervisor verdict for this step.
func (s *ConversationState) SetSupervisorDecision(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supervisorDecision = v
}

// SupervisorDecision returns the most recent supervisor verdict.
func (s *ConversationState) SupervisorDecision() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.supervisorDecision
}

// SetToolResponse records the most recent tool invocation result.
func (s *ConversationState) SetToolResponse(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toolResponse = v
}

// ToolResponse returns the most recent tool invocation result.
func (s *ConversationState) ToolResponse() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.toolResponse
}

// SetFinalOutput records the user-facing answer. It may be set exactly once
// per run; a second call returns ErrFinalOutputSet.
func (s *ConversationState) SetFinalOutput(v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalSet {
		return ErrFinalOutputSet
	}
	s.finalOutput = v
	s.finalSet = true
	return nil
}

// FinalOutput returns the user-facing answer and whether it has been set.
func (s *ConversationState) FinalOutput() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finalOutput, s.finalSet
}

// FormatTranscript renders messages as a readable transcript, collapsing
// consecutive structural duplicates. Agent entries are prefixed with the
// agent name so a reader can follow the hand-offs.
func FormatTranscript(messages []Message) string {
	var b strings.Builder
	var lastKey uint64
	seen := false
	for _, m := range messages {
		key := m.StructuralKey()
		if seen && key == lastKey {
			continue
		}
		lastKey, seen = key, true
		switch m.Role {
		case RoleUser:
			fmt.Fprintf(&b, "user: %s\n", m.Content)
		default:
			label := m.Agent
			if label == "" {
				label = string(m.Role)
			}
			fmt.Fprintf(&b, "%s (%s): %s\n", m.Role, label, m.Content)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
