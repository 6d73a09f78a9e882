package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/model"
)

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload(`{"primary": "hola", "secondary": "hello"}`)
	require.NoError(t, err)
	assert.Equal(t, "hola", p.Primary)
	assert.Equal(t, "hello", p.Secondary)
}

func TestParsePayloadToleratesCodeFence(t *testing.T) {
	p, err := ParsePayload("```json\n{\"primary\": \"hola\", \"secondary\": \"hello\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "hola", p.Primary)
}

func TestParsePayloadRejectsMalformed(t *testing.T) {
	_, err := ParsePayload("not json at all")
	assert.Error(t, err)

	_, err = ParsePayload(`{"secondary": "hello"}`)
	assert.Error(t, err)
}

func TestFinalizeHappyPath(t *testing.T) {
	m := model.NewMockModel(`{"primary": "Todo listo.", "secondary": "All done."}`)
	f := NewFinalizer(m)
	state := core.NewConversationState("sess-1", "hola")
	state.Append(core.Message{Role: core.RoleAgent, Agent: "document_qa", Content: "respuesta"})

	final := f.Finalize(context.Background(), state)
	assert.Equal(t, "Todo listo.", final)

	messages := state.Messages()
	last := messages[len(messages)-1]
	assert.Equal(t, core.RoleSystem, last.Role)
	assert.Equal(t, GuardrailAgent, last.Agent)
	assert.Equal(t, "Todo listo.", last.Content)

	recorded, set := state.FinalOutput()
	assert.True(t, set)
	assert.Equal(t, "Todo listo.", recorded)
}

func TestFinalizeMalformedPayloadUsesRawAnswer(t *testing.T) {
	m := model.NewMockModel("Aqui tienes la respuesta directa.")
	f := NewFinalizer(m)
	state := core.NewConversationState("sess-1", "hola")

	final := f.Finalize(context.Background(), state)
	assert.Equal(t, "Aqui tienes la respuesta directa.", final)
}

func TestFinalizeModelFailureFallsBackToLastAgentMessage(t *testing.T) {
	m := model.NewMockModel("")
	m.Fail(errors.New("provider down"))
	f := NewFinalizer(m)
	state := core.NewConversationState("sess-1", "hola")
	state.Append(core.Message{Role: core.RoleAgent, Agent: "document_qa", Content: "respuesta del agente"})

	final := f.Finalize(context.Background(), state)
	assert.Equal(t, "respuesta del agente", final)
}

func TestFinalizeSafetyFlagTriggersTemplatedFallback(t *testing.T) {
	m := model.NewMockModel(`{"primary": "Eres un idiota.", "secondary": "You are an idiot."}`)
	f := NewFinalizer(m)
	state := core.NewConversationState("sess-1", "hola")

	final := f.Finalize(context.Background(), state)
	assert.Contains(t, final, safetyNotice)
	assert.NotContains(t, final, "idiota")
	assert.Contains(t, final, "******")

	recorded, _ := state.FinalOutput()
	assert.Equal(t, final, recorded)
}

type failingChecker struct{}

func (failingChecker) Check(context.Context, string) (bool, error) {
	return false, errors.New("checker down")
}

func TestFinalizeCheckerFailureFallsBack(t *testing.T) {
	m := model.NewMockModel(`{"primary": "Todo listo.", "secondary": "All done."}`)
	f := NewFinalizer(m, func(o *FinalizerOptions) {
		o.Checker = failingChecker{}
	})
	state := core.NewConversationState("sess-1", "hola")

	final := f.Finalize(context.Background(), state)
	assert.Contains(t, final, safetyNotice)
	assert.Contains(t, final, "Todo listo.")
}

func TestModelChecker(t *testing.T) {
	safe := NewModelChecker(model.NewMockModel("SAFE"))
	flagged, err := safe.Check(context.Background(), "texto")
	require.NoError(t, err)
	assert.False(t, flagged)

	unsafe := NewModelChecker(model.NewMockModel("UNSAFE"))
	flagged, err = unsafe.Check(context.Background(), "texto")
	require.NoError(t, err)
	assert.True(t, flagged)

	broken := model.NewMockModel("")
	broken.Fail(errors.New("provider down"))
	flagged, err = NewModelChecker(broken).Check(context.Background(), "texto")
	assert.Error(t, err)
	assert.True(t, flagged)
}

func TestLexicon(t *testing.T) {
	assert.True(t, ContainsOffensive("eres un IDIOTA"))
	assert.False(t, ContainsOffensive("gracias por la ayuda"))

	assert.Equal(t, "eres un ******", Sanitize("eres un idiota"))
	assert.Equal(t, "sin cambios", Sanitize("sin cambios"))
}

func TestSanitizeSurvivesCaseFoldingLengthChanges(t *testing.T) {
	// U+212A KELVIN SIGN is three bytes but lowercases to the one-byte
	// "k"; sanitizing must not desynchronize on such inputs.
	input := "\u212A\u212A\u212A\u212A basura"
	assert.True(t, ContainsOffensive(input))
	assert.Equal(t, "\u212A\u212A\u212A\u212A ******", Sanitize(input))

	assert.Equal(t, "Eres un ******.", Sanitize("Eres un IDIOTA."))
}
