package supervisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/internal/util"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/model"
)

// labelFinalize is the verdict that hands the run to the finalizer. The
// parser also accepts "guardrail" as a synonym, since safety-tuned models
// tend to reach for that word.
const labelFinalize = "finalize"

// Decision is the supervisor's verdict after one agent step.
type Decision struct {
	// Terminal hands the conversation to the finalizer.
	Terminal bool
	// Agent is the next agent to run when Terminal is false.
	Agent core.AgentName
	// Raw preserves the model's answer for the state record.
	Raw string
}

const deciderInstruction = "You supervise a support conversation worked on by specialized agents. " +
	"Decide the single next step. Answer with exactly one word."

// DeciderOptions configures a Decider.
type DeciderOptions struct {
	// Logger receives routing diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Decider rules on continuation after every agent step.
type Decider struct {
	model model.Model
	opts  DeciderOptions
}

// NewDecider creates a continuation decider over the given model.
func NewDecider(m model.Model, optFns ...func(o *DeciderOptions)) *Decider {
	opts := DeciderOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Decider{model: m, opts: opts}
}

// Decide returns the next step for the run. Agents already at their cap are
// excluded from the options before the model is consulted, and an answer
// naming a capped or unknown agent is coerced to terminal. Decide never
// fails: a model error is a terminal verdict.
func (d *Decider) Decide(ctx context.Context, state *core.ConversationState, caps map[core.AgentName]int) Decision {
	ledger := state.Executed()
	available := availableAgents(ledger, caps)
	if len(available) == 0 {
		return Decision{Terminal: true, Raw: labelFinalize}
	}

	resp, err := d.model.Complete(ctx, model.UserRequest(deciderInstruction, d.buildPrompt(state, ledger, available)))
	if err != nil {
		d.opts.Logger.Warn("supervisor model failed, finalizing", "error", err)
		return Decision{Terminal: true, Raw: labelFinalize}
	}

	label := util.CleanLabel(resp.Text)
	if label == labelFinalize || label == "guardrail" {
		return Decision{Terminal: true, Raw: label}
	}
	name, err := core.ParseAgentName(label)
	if err != nil {
		d.opts.Logger.Warn("supervisor verdict outside closed set, finalizing",
			"verdict", util.Truncate(resp.Text, 80))
		return Decision{Terminal: true, Raw: label}
	}
	if ledger.AtCap(name, caps) {
		d.opts.Logger.Info("supervisor named capped agent, finalizing", "agent", name)
		return Decision{Terminal: true, Raw: label}
	}
	return Decision{Agent: name, Raw: label}
}

func (d *Decider) buildPrompt(state *core.ConversationState, ledger core.Ledger, available []core.AgentName) string {
	options := make([]string, 0, len(available)+1)
	for _, a := range available {
		options = append(options, string(a))
	}
	options = append(options, labelFinalize)

	var counts strings.Builder
	for _, a := range core.AgentNames() {
		if c := ledger.Count(a); c > 0 {
			fmt.Fprintf(&counts, "%s=%d ", a, c)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Original request:\n%s\n\n", state.Input())
	if last := state.CurrentAgent(); last != "" {
		fmt.Fprintf(&b, "Last agent: %s\n", last)
	}
	if resp := state.LastAgentMessage(); resp != "" {
		fmt.Fprintf(&b, "Last response:\n%s\n\n", util.Truncate(resp, 400))
	}
	fmt.Fprintf(&b, "Conversation so far:\n%s\n\n", core.FormatTranscript(state.Messages()))
	if counts.Len() > 0 {
		fmt.Fprintf(&b, "Executions: %s\n", strings.TrimSpace(counts.String()))
	}
	fmt.Fprintf(&b, "\nIf the request is fully handled, answer finalize. Otherwise pick the one agent still needed.\n")
	fmt.Fprintf(&b, "Options: %s\nAnswer:", strings.Join(options, ", "))
	return b.String()
}

func availableAgents(ledger core.Ledger, caps map[core.AgentName]int) []core.AgentName {
	var out []core.AgentName
	for _, a := range core.AgentNames() {
		if _, ok := caps[a]; !ok {
			continue
		}
		if !ledger.AtCap(a, caps) {
			out = append(out, a)
		}
	}
	return out
}
