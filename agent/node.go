// Package agent implements the specialized agent nodes. All four agents
// share one Node implementation; they differ only in their declarative Spec
// (persona, fallback catalog, argument builder, and the deterministic tool
// heuristic used when the selection model misbehaves).
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/supportmesh/artifact"
	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/internal/util"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/memory"
	"github.com/hupe1980/supportmesh/model"
	"github.com/hupe1980/supportmesh/tool"
)

// ErrEmptyInput is returned by Run when the user message is empty. It is
// the only error a node surfaces; everything else degrades in place.
var ErrEmptyInput = errors.New("agent: empty user input")

// Spec declares everything that distinguishes one agent from another.
type Spec struct {
	// Name is the agent's routing identity.
	Name core.AgentName
	// Persona is the synthesis system prompt.
	Persona string
	// FallbackCatalog replaces the server catalog when discovery fails.
	FallbackCatalog []core.Capability
	// ChooseFallbackTool picks a tool deterministically from the input when
	// the selection model fails or answers outside the catalog.
	ChooseFallbackTool func(input string) string
	// BuildArgs maps the chosen tool to its invocation arguments.
	BuildArgs func(toolName string, state *core.ConversationState) map[string]string
}

func (s Spec) validate() error {
	if _, err := core.ParseAgentName(string(s.Name)); err != nil {
		return err
	}
	if s.Persona == "" {
		return fmt.Errorf("agent %s: persona must not be empty", s.Name)
	}
	if len(s.FallbackCatalog) == 0 {
		return fmt.Errorf("agent %s: fallback catalog must not be empty", s.Name)
	}
	if s.ChooseFallbackTool == nil || s.BuildArgs == nil {
		return fmt.Errorf("agent %s: fallback chooser and argument builder are required", s.Name)
	}
	return nil
}

// Options configures optional node collaborators.
type Options struct {
	// Logger receives per-step diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// Memory supplies the recall window included in synthesis prompts.
	Memory *memory.Window
	// Artifacts records generated-file references found in tool output.
	Artifacts artifact.Recorder
}

// Node executes one agent step: discover the catalog, pick a tool, invoke
// it, and synthesize a response into the conversation state.
type Node struct {
	spec  Spec
	model model.Model
	tools tool.Invoker
	opts  Options
}

// NewNode creates an agent node from its spec. The spec is validated
// eagerly so misconfigured agents fail at wiring time, not mid-run.
func NewNode(spec Spec, m model.Model, tools tool.Invoker, optFns ...func(o *Options)) (*Node, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	if m == nil || tools == nil {
		return nil, fmt.Errorf("agent %s: model and tool invoker are required", spec.Name)
	}

	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Node{spec: spec, model: m, tools: tools, opts: opts}, nil
}

// Name returns the agent's routing identity.
func (n *Node) Name() core.AgentName { return n.spec.Name }

// Descriptor reports the agent's identity, its declared capabilities, and
// the tool server it is bound to. The address is taken from the invoker
// when it exposes one; fakes without an address leave it empty.
func (n *Node) Descriptor() core.AgentDescriptor {
	d := core.AgentDescriptor{
		Name:         n.spec.Name,
		Capabilities: append([]core.Capability(nil), n.spec.FallbackCatalog...),
	}
	if addressed, ok := n.tools.(interface{ Addr() string }); ok {
		d.ServerAddress = addressed.Addr()
	}
	return d
}

// Run performs one full agent step against the conversation state. Tool and
// model failures degrade into the recorded response instead of surfacing.
func (n *Node) Run(ctx context.Context, state *core.ConversationState) error {
	input := strings.TrimSpace(state.Input())
	if input == "" {
		return ErrEmptyInput
	}

	catalog := n.discoverCatalog(ctx)
	toolName := n.selectTool(ctx, input, catalog)
	args := n.spec.BuildArgs(toolName, state)

	result := n.tools.Invoke(ctx, toolName, args)
	state.SetToolResponse(result.Text)
	n.recordArtifact(ctx, state, result)

	response := n.synthesize(ctx, state, result)
	state.Append(core.Message{
		Role:    core.RoleAgent,
		Agent:   string(n.spec.Name),
		Content: response,
	})
	state.SetCurrentAgent(n.spec.Name)
	return nil
}

func (n *Node) discoverCatalog(ctx context.Context) []core.Capability {
	catalog, err := n.tools.ListCapabilities(ctx)
	if err != nil || len(catalog) == 0 {
		n.opts.Logger.Warn("catalog discovery failed, using fallback",
			"agent", n.spec.Name, "error", err)
		return n.spec.FallbackCatalog
	}
	return catalog
}

// selectTool asks the model to pick a tool from the catalog. Any failure,
// and any answer outside the catalog, falls back to the deterministic
// keyword heuristic.
func (n *Node) selectTool(ctx context.Context, input string, catalog []core.Capability) string {
	prompt := fmt.Sprintf(
		"User request:\n%s\n\nAvailable tools:\n%s\n\nReply with exactly one tool name from the list, nothing else.",
		input, tool.FormatCatalog(catalog),
	)
	resp, err := n.model.Complete(ctx, model.UserRequest(
		"You select the single best tool for a support request. Answer with the tool name only.",
		prompt,
	))
	if err == nil {
		name := util.CleanLabel(resp.Text)
		if tool.CatalogContains(catalog, name) {
			return name
		}
		n.opts.Logger.Warn("tool selection outside catalog",
			"agent", n.spec.Name,
			"answer", util.Truncate(resp.Text, 80),
			"catalog", tool.CatalogNames(catalog))
	} else {
		n.opts.Logger.Warn("tool selection model failed",
			"agent", n.spec.Name, "error", err)
	}
	return n.spec.ChooseFallbackTool(input)
}

func (n *Node) recordArtifact(ctx context.Context, state *core.ConversationState, result core.ToolInvocationResult) {
	if n.opts.Artifacts == nil || !result.OK {
		return
	}
	rec, found := artifact.DetectReference(state.SessionID(), string(n.spec.Name), result.Text)
	if !found {
		return
	}
	if err := n.opts.Artifacts.Save(ctx, rec); err != nil {
		n.opts.Logger.Warn("artifact record failed", "agent", n.spec.Name, "error", err)
	}
}

// synthesize turns the tool result into the agent's response. A failing
// synthesis model degrades to the raw tool text.
func (n *Node) synthesize(ctx context.Context, state *core.ConversationState, result core.ToolInvocationResult) string {
	var recall string
	if n.opts.Memory != nil {
		var err error
		recall, err = n.opts.Memory.Recall(ctx, state.SessionID())
		if err != nil {
			n.opts.Logger.Warn("memory recall failed", "agent", n.spec.Name, "error", err)
			recall = ""
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User request:\n%s\n\n", state.Input())
	if recall != "" {
		fmt.Fprintf(&b, "Recent conversation:\n%s\n\n", recall)
	}
	fmt.Fprintf(&b, "Tool %s returned:\n%s\n\nWrite the response for the user.", result.ToolName, result.Text)

	resp, err := n.model.Complete(ctx, model.UserRequest(n.spec.Persona, b.String()))
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		n.opts.Logger.Warn("synthesis failed, degrading to tool output",
			"agent", n.spec.Name, "error", err)
		if strings.TrimSpace(result.Text) != "" {
			return result.Text
		}
		return fmt.Sprintf("agent %s could not produce a response", n.spec.Name)
	}
	return strings.TrimSpace(resp.Text)
}
