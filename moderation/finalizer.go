package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/model"
)

// GuardrailAgent is the agent label stamped on the finalizer's message.
const GuardrailAgent = "guardrail"

// safetyNotice prefixes sanitized fallback output.
const safetyNotice = "Nota de moderacion: parte de la respuesta fue ajustada para mantener un tono respetuoso."

// Payload is the bilingual answer the synthesis model must emit: the
// primary-language text shown to the user and a secondary-language mirror
// used for the safety check.
type Payload struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// ParsePayload decodes a model answer into a Payload. Code fences are
// tolerated; anything that does not decode to a payload with a non-empty
// primary field is an error.
func ParsePayload(raw string) (Payload, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var p Payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return Payload{}, fmt.Errorf("moderation: decode final payload: %w", err)
	}
	if strings.TrimSpace(p.Primary) == "" {
		return Payload{}, fmt.Errorf("moderation: final payload has empty primary field")
	}
	return p, nil
}

// FinalizerOptions configures a Finalizer.
type FinalizerOptions struct {
	// Checker rules on the secondary field. Defaults to LexiconChecker.
	Checker SafetyChecker
	// PrimaryLanguage is the language of the user-facing answer.
	PrimaryLanguage string
	// SecondaryLanguage is the language of the mirror used for checking.
	SecondaryLanguage string
	// Logger receives finalization diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Finalizer produces the single user-facing answer for a run. It always
// returns something: synthesis, parse, and safety failures each degrade to
// a defined fallback rather than surfacing.
type Finalizer struct {
	model model.Model
	opts  FinalizerOptions
}

// NewFinalizer creates a finalizer over the given synthesis model.
func NewFinalizer(m model.Model, optFns ...func(o *FinalizerOptions)) *Finalizer {
	opts := FinalizerOptions{
		Checker:           LexiconChecker{},
		PrimaryLanguage:   "Spanish",
		SecondaryLanguage: "English",
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Finalizer{model: m, opts: opts}
}

// Finalize synthesizes the final answer from the full transcript, runs the
// safety check, appends the guardrail message to the state, and records the
// final output. The returned string is what the user sees.
func (f *Finalizer) Finalize(ctx context.Context, state *core.ConversationState) string {
	final, checkTarget := f.synthesize(ctx, state)

	flagged, err := f.opts.Checker.Check(ctx, checkTarget)
	if err != nil {
		f.opts.Logger.Warn("safety check failed, falling back", "error", err)
		flagged = true
	}
	if flagged {
		final = safetyNotice + "\n\n" + Sanitize(final)
	}

	state.Append(core.Message{
		Role:    core.RoleSystem,
		Agent:   GuardrailAgent,
		Content: final,
	})
	if err := state.SetFinalOutput(final); err != nil {
		f.opts.Logger.Error("final output already recorded", "error", err)
	}
	return final
}

// synthesize returns the candidate final answer and the text the safety
// check should inspect.
func (f *Finalizer) synthesize(ctx context.Context, state *core.ConversationState) (final, checkTarget string) {
	instruction := fmt.Sprintf(
		"You write the final reply of a support conversation. Respond with JSON only: "+
			`{"primary": "<reply in %s, no accent marks>", "secondary": "<the same reply in %s>"}. `+
			"Base the reply on what the agents found. No text outside the JSON object.",
		f.opts.PrimaryLanguage, f.opts.SecondaryLanguage,
	)
	prompt := fmt.Sprintf("Original request:\n%s\n\nConversation:\n%s",
		state.Input(), core.FormatTranscript(state.Messages()))

	resp, err := f.model.Complete(ctx, model.UserRequest(instruction, prompt))
	if err != nil {
		f.opts.Logger.Warn("final synthesis failed, using last agent response", "error", err)
		fallback := f.stateFallback(state)
		return fallback, fallback
	}

	payload, perr := ParsePayload(resp.Text)
	if perr != nil {
		f.opts.Logger.Warn("final payload malformed, using raw answer", "error", perr)
		raw := strings.TrimSpace(resp.Text)
		if raw == "" {
			raw = f.stateFallback(state)
		}
		return raw, raw
	}
	return payload.Primary, payload.Secondary
}

// stateFallback picks the best already-recorded text when synthesis is
// unavailable.
func (f *Finalizer) stateFallback(state *core.ConversationState) string {
	if last := state.LastAgentMessage(); strings.TrimSpace(last) != "" {
		return last
	}
	if tr := state.ToolResponse(); strings.TrimSpace(tr) != "" {
		return tr
	}
	return "No se pudo generar una respuesta en este momento. Intenta de nuevo."
}
