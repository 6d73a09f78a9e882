package supervisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/model"
)

func testCaps() map[core.AgentName]int {
	return map[core.AgentName]int{
		core.AgentDocumentQA: 2,
		core.AgentSentiment:  1,
		core.AgentEmail:      1,
		core.AgentTech:       2,
	}
}

func TestDecideRoutesToAgent(t *testing.T) {
	m := model.NewMockModel("tech")
	d := NewDecider(m)
	state := core.NewConversationState("sess-1", "resume y exporta la tabla")

	decision := d.Decide(context.Background(), state, testCaps())
	assert.False(t, decision.Terminal)
	assert.Equal(t, core.AgentTech, decision.Agent)
}

func TestDecideFinalize(t *testing.T) {
	for _, answer := range []string{"finalize", "Finalize", "guardrail", "Action: finalize"} {
		m := model.NewMockModel(answer)
		d := NewDecider(m)
		state := core.NewConversationState("sess-1", "hola")

		decision := d.Decide(context.Background(), state, testCaps())
		assert.True(t, decision.Terminal, "answer=%q", answer)
	}
}

func TestDecideInvalidVerdictIsTerminal(t *testing.T) {
	m := model.NewMockModel("maybe run the rag agent again?")
	d := NewDecider(m)
	state := core.NewConversationState("sess-1", "hola")

	decision := d.Decide(context.Background(), state, testCaps())
	assert.True(t, decision.Terminal)
}

func TestDecideModelFailureIsTerminal(t *testing.T) {
	m := model.NewMockModel("")
	m.Fail(errors.New("provider down"))
	d := NewDecider(m)
	state := core.NewConversationState("sess-1", "hola")

	decision := d.Decide(context.Background(), state, testCaps())
	assert.True(t, decision.Terminal)
}

func TestDecideCoercesCappedAgentToTerminal(t *testing.T) {
	m := model.NewMockModel("sentiment")
	d := NewDecider(m)
	state := core.NewConversationState("sess-1", "hola")
	state.RecordExecution(core.AgentSentiment)

	decision := d.Decide(context.Background(), state, testCaps())
	assert.True(t, decision.Terminal)
}

func TestDecideAllCappedSkipsModel(t *testing.T) {
	m := model.NewMockModel("tech")
	d := NewDecider(m)
	state := core.NewConversationState("sess-1", "hola")
	caps := map[core.AgentName]int{core.AgentSentiment: 1}
	state.RecordExecution(core.AgentSentiment)

	decision := d.Decide(context.Background(), state, caps)
	assert.True(t, decision.Terminal)
	assert.Zero(t, m.CallCount)
}

func TestDecidePromptExcludesCappedAgents(t *testing.T) {
	d := NewDecider(model.NewMockModel("finalize"))
	state := core.NewConversationState("sess-1", "hola")
	state.RecordExecution(core.AgentEmail)
	state.SetCurrentAgent(core.AgentEmail)
	state.Append(core.Message{Role: core.RoleAgent, Agent: "email", Content: "correo enviado"})

	ledger := state.Executed()
	available := availableAgents(ledger, testCaps())
	require.NotContains(t, available, core.AgentEmail)

	prompt := d.buildPrompt(state, ledger, available)
	optionsLine := prompt[strings.Index(prompt, "Options:"):]
	assert.NotContains(t, optionsLine, "email")
	assert.Contains(t, optionsLine, "finalize")
	assert.Contains(t, prompt, "Last agent: email")
	assert.Contains(t, prompt, "email=1")
}
