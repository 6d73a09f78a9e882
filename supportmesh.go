// Package supportmesh wires the full supervised support chatbot from a
// validated configuration: models, tool clients, agent nodes, the engine,
// and the HTTP server.
package supportmesh

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hupe1980/supportmesh/agent"
	"github.com/hupe1980/supportmesh/artifact"
	"github.com/hupe1980/supportmesh/config"
	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/engine"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/memory"
	"github.com/hupe1980/supportmesh/model"
	anthropicmodel "github.com/hupe1980/supportmesh/model/anthropic"
	openaimodel "github.com/hupe1980/supportmesh/model/openai"
	"github.com/hupe1980/supportmesh/moderation"
	"github.com/hupe1980/supportmesh/server"
	"github.com/hupe1980/supportmesh/store"
	"github.com/hupe1980/supportmesh/supervisor"
	"github.com/hupe1980/supportmesh/tool"
)

// Options configures optional façade collaborators.
type Options struct {
	// Logger is passed to every component. Defaults to NoOpLogger.
	Logger logging.Logger
	// Artifacts records generated-file references. Defaults to in-memory.
	Artifacts artifact.Recorder
}

// SupportMesh is the assembled system.
type SupportMesh struct {
	engine      *engine.Engine
	server      *server.Server
	store       core.ConversationStore
	artifacts   artifact.Recorder
	descriptors []core.AgentDescriptor
	closers     []func() error
}

// New assembles the system from a validated configuration.
func New(cfg *config.Config, optFns ...func(o *Options)) (*SupportMesh, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{
		Logger:    logging.NoOpLogger{},
		Artifacts: artifact.NewInMemoryRecorder(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	routingModel, err := buildModel(cfg.Models.Routing)
	if err != nil {
		return nil, fmt.Errorf("supportmesh: routing model: %w", err)
	}
	synthesisModel, err := buildModel(cfg.Models.Synthesis)
	if err != nil {
		return nil, fmt.Errorf("supportmesh: synthesis model: %w", err)
	}

	checker, err := buildChecker(cfg.Models.Safety, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("supportmesh: safety model: %w", err)
	}

	conversationStore, closer, err := buildStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("supportmesh: store: %w", err)
	}

	classifier := supervisor.NewClassifier(routingModel, func(o *supervisor.ClassifierOptions) {
		o.Logger = opts.Logger
	})
	decider := supervisor.NewDecider(routingModel, func(o *supervisor.DeciderOptions) {
		o.Logger = opts.Logger
	})
	finalizer := moderation.NewFinalizer(synthesisModel, func(o *moderation.FinalizerOptions) {
		o.Checker = checker
		o.PrimaryLanguage = cfg.Languages.Primary
		o.SecondaryLanguage = cfg.Languages.Secondary
		o.Logger = opts.Logger
	})

	eng, err := engine.New(classifier, decider, finalizer, func(o *engine.Options) {
		o.Store = conversationStore
		o.Caps = cfg.AgentCaps()
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	recall := memory.NewWindow(conversationStore, cfg.MemoryWindow)
	nodeOpts := func(o *agent.Options) {
		o.Logger = opts.Logger
		o.Memory = recall
		o.Artifacts = opts.Artifacts
	}

	builders := map[core.AgentName]func(model.Model, tool.Invoker, ...func(o *agent.Options)) (*agent.Node, error){
		core.AgentDocumentQA: agent.NewDocumentQA,
		core.AgentSentiment:  agent.NewSentiment,
		core.AgentEmail:      agent.NewEmail,
		core.AgentTech:       agent.NewTech,
	}
	descriptors := make([]core.AgentDescriptor, 0, len(core.AgentNames()))
	for _, name := range core.AgentNames() {
		client := tool.NewClient(cfg.ToolServers[string(name)], func(o *tool.Options) {
			o.Transport = tool.Transport(cfg.Transport)
			o.Logger = opts.Logger
		})
		node, err := builders[name](synthesisModel, client, nodeOpts)
		if err != nil {
			return nil, err
		}
		if err := eng.Register(node); err != nil {
			return nil, err
		}
		descriptors = append(descriptors, node.Descriptor())
	}

	sm := &SupportMesh{
		engine:      eng,
		store:       conversationStore,
		artifacts:   opts.Artifacts,
		descriptors: descriptors,
	}
	if closer != nil {
		sm.closers = append(sm.closers, closer)
	}
	sm.server = server.New(eng, func(o *server.Options) {
		o.Logger = opts.Logger
	})
	return sm, nil
}

// HandleMessage runs one conversation turn.
func (sm *SupportMesh) HandleMessage(ctx context.Context, sessionID, input string) (*core.ConversationState, error) {
	return sm.engine.HandleMessage(ctx, sessionID, input)
}

// DeleteSession removes a session and its history.
func (sm *SupportMesh) DeleteSession(ctx context.Context, sessionID string) error {
	return sm.engine.DeleteSession(ctx, sessionID)
}

// Handler returns the HTTP handler serving the chat API.
func (sm *SupportMesh) Handler() http.Handler {
	return sm.server.Router()
}

// Engine exposes the underlying engine.
func (sm *SupportMesh) Engine() *engine.Engine {
	return sm.engine
}

// Artifacts exposes the artifact recorder.
func (sm *SupportMesh) Artifacts() artifact.Recorder {
	return sm.artifacts
}

// Descriptors returns the registered agents with their declared
// capabilities and tool server bindings.
func (sm *SupportMesh) Descriptors() []core.AgentDescriptor {
	out := make([]core.AgentDescriptor, len(sm.descriptors))
	copy(out, sm.descriptors)
	return out
}

// Close releases resources held by the assembled system.
func (sm *SupportMesh) Close() error {
	var firstErr error
	for _, closeFn := range sm.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildModel(mc config.ModelConfig) (model.Model, error) {
	switch mc.Provider {
	case config.ProviderOpenAI:
		return openaimodel.NewModel(mc.Name, func(o *openaimodel.Options) {
			o.APIKey = mc.APIKey
			if mc.Temperature > 0 {
				o.Temperature = mc.Temperature
			}
			o.MaxTokens = mc.MaxTokens
		}), nil
	case config.ProviderAnthropic:
		return anthropicmodel.NewModel(mc.Name, func(o *anthropicmodel.Options) {
			o.APIKey = mc.APIKey
			if mc.Temperature > 0 {
				o.Temperature = mc.Temperature
			}
			o.MaxTokens = mc.MaxTokens
		}), nil
	case config.ProviderMock:
		return model.NewMockModel(""), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", mc.Provider)
	}
}

func buildChecker(mc config.ModelConfig, logger logging.Logger) (moderation.SafetyChecker, error) {
	if mc.Provider == "" {
		return moderation.LexiconChecker{}, nil
	}
	m, err := buildModel(mc)
	if err != nil {
		return nil, err
	}
	return moderation.NewModelChecker(m, func(o *moderation.ModelCheckerOptions) {
		o.Logger = logger
	}), nil
}

func buildStore(sc config.StoreConfig) (core.ConversationStore, func() error, error) {
	switch sc.Driver {
	case config.StoreSQLite:
		s, err := store.NewSQLiteStore(sc.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return store.NewInMemoryStore(), nil, nil
	}
}
