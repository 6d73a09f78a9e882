// Package engine owns the supervised conversation loop: classify the
// intent, run agent steps, consult the decider after each one, enforce the
// execution caps, and hand the run to the finalizer. The engine is the only
// component that increments the execution ledger.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/internal/util"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/moderation"
	"github.com/hupe1980/supportmesh/store"
	"github.com/hupe1980/supportmesh/supervisor"
)

// ErrEmptyInput rejects turns with no user text.
var ErrEmptyInput = errors.New("engine: empty user input")

// DefaultCaps is the per-agent execution budget used when none is
// configured. The sum bounds the number of agent steps per turn.
func DefaultCaps() map[core.AgentName]int {
	return map[core.AgentName]int{
		core.AgentDocumentQA: 2,
		core.AgentSentiment:  1,
		core.AgentEmail:      1,
		core.AgentTech:       2,
	}
}

// Options configures an Engine.
type Options struct {
	// Store persists conversation history. Defaults to an in-memory store.
	Store core.ConversationStore
	// Caps is the per-agent execution budget. Defaults to DefaultCaps.
	Caps map[core.AgentName]int
	// Logger receives run diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Engine drives one conversation turn end to end.
type Engine struct {
	classifier *supervisor.Classifier
	decider    *supervisor.Decider
	finalizer  *moderation.Finalizer
	agents     map[core.AgentName]core.AgentNode
	store      core.ConversationStore
	caps       map[core.AgentName]int
	logger     logging.Logger
}

// New creates an engine. The caps are validated eagerly; a non-positive cap
// is a wiring error, not something to discover mid-run.
func New(classifier *supervisor.Classifier, decider *supervisor.Decider, finalizer *moderation.Finalizer, optFns ...func(o *Options)) (*Engine, error) {
	if classifier == nil || decider == nil || finalizer == nil {
		return nil, fmt.Errorf("engine: classifier, decider, and finalizer are required")
	}

	opts := Options{
		Store:  store.NewInMemoryStore(),
		Caps:   DefaultCaps(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	for name, limit := range opts.Caps {
		if limit <= 0 {
			return nil, fmt.Errorf("engine: cap for %s must be positive, got %d", name, limit)
		}
		if _, err := core.ParseAgentName(string(name)); err != nil {
			return nil, err
		}
	}

	return &Engine{
		classifier: classifier,
		decider:    decider,
		finalizer:  finalizer,
		agents:     make(map[core.AgentName]core.AgentNode),
		store:      opts.Store,
		caps:       opts.Caps,
		logger:     opts.Logger,
	}, nil
}

// Register adds an agent node. Registering the same name twice is an error.
func (e *Engine) Register(node core.AgentNode) error {
	name := node.Name()
	if _, exists := e.agents[name]; exists {
		return fmt.Errorf("engine: agent %s already registered", name)
	}
	e.agents[name] = node
	return nil
}

// Store exposes the conversation store for callers that manage sessions.
func (e *Engine) Store() core.ConversationStore {
	return e.store
}

// DeleteSession removes a session and its history.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	return e.store.DeleteSession(ctx, sessionID)
}

// HandleMessage runs one full turn: persist the user message, classify,
// loop over agent steps under the caps, finalize, and return the completed
// state. A failed user-message write is the only hard error after input
// validation; everything downstream degrades inside the loop.
func (e *Engine) HandleMessage(ctx context.Context, sessionID, input string) (*core.ConversationState, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	if sessionID == "" {
		sessionID = util.NewID()
	}

	state := core.NewConversationState(sessionID, input)
	if err := e.store.EnsureSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("engine: ensure session: %w", err)
	}
	persisted := 0
	if err := e.persistNewMessages(ctx, state, &persisted); err != nil {
		return nil, fmt.Errorf("engine: persist user message: %w", err)
	}

	next := e.classifier.Classify(ctx, input)
	state.SetNextAgent(next)
	e.logger.Info("turn started", "session_id", sessionID, "agent", next)

	maxSteps := 0
	for _, limit := range e.caps {
		maxSteps += limit
	}

	for step := 0; step < maxSteps; step++ {
		node, ok := e.agents[next]
		if !ok {
			e.logger.Error("no node registered for agent, finalizing", "agent", next)
			break
		}
		if state.Executed().AtCap(next, e.caps) {
			e.logger.Warn("agent at cap before run, finalizing", "agent", next)
			break
		}

		if err := node.Run(ctx, state); err != nil {
			e.logger.Error("agent step failed, finalizing", "agent", next, "error", err)
			break
		}
		state.RecordExecution(next)
		e.softPersist(ctx, state, &persisted)

		decision := e.decider.Decide(ctx, state, e.caps)
		state.SetSupervisorDecision(decision.Raw)
		if decision.Terminal {
			break
		}
		next = decision.Agent
		state.SetNextAgent(next)
	}

	final := e.finalizer.Finalize(ctx, state)
	e.softPersist(ctx, state, &persisted)
	e.logger.Info("turn finished",
		"session_id", sessionID,
		"steps", state.Executed().Total(),
		"final_len", len(final),
	)
	return state, nil
}

// persistNewMessages writes the not-yet-persisted tail of the message log.
func (e *Engine) persistNewMessages(ctx context.Context, state *core.ConversationState, persisted *int) error {
	messages := state.Messages()
	for ; *persisted < len(messages); *persisted++ {
		if err := e.store.AppendMessage(ctx, state.SessionID(), messages[*persisted]); err != nil {
			return err
		}
	}
	return nil
}

// softPersist is persistNewMessages with the error demoted to a log entry.
// Mid-run history writes must not abort a turn that can still answer.
func (e *Engine) softPersist(ctx context.Context, state *core.ConversationState, persisted *int) {
	if err := e.persistNewMessages(ctx, state, persisted); err != nil {
		e.logger.Warn("history write failed", "session_id", state.SessionID(), "error", err)
	}
}
