package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/supportmesh/artifact"
	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/internal/testutil"
	"github.com/hupe1980/supportmesh/model"
)

func TestRunRejectsEmptyInput(t *testing.T) {
	node, err := NewDocumentQA(model.NewMockModel("x"), &testutil.FakeInvoker{})
	require.NoError(t, err)

	state := core.NewConversationState("sess-1", "   ")
	assert.ErrorIs(t, node.Run(context.Background(), state), ErrEmptyInput)
}

func TestRunHappyPath(t *testing.T) {
	m := model.NewMockModel("")
	m.Enqueue(ToolSearchDocuments, "Las notificaciones estan en Ajustes.")
	invoker := &testutil.FakeInvoker{
		Catalog: []core.Capability{
			{Name: ToolSearchDocuments, Description: "search"},
			{Name: ToolFAQQuery, Description: "faq"},
		},
		Results: map[string]core.ToolInvocationResult{
			ToolSearchDocuments: {ToolName: ToolSearchDocuments, Text: "Ajustes > Notificaciones", OK: true},
		},
	}

	node, err := NewDocumentQA(m, invoker)
	require.NoError(t, err)

	state := core.NewConversationState("sess-1", "Donde configuro las notificaciones?")
	require.NoError(t, node.Run(context.Background(), state))

	call, ok := invoker.LastCall()
	require.True(t, ok)
	assert.Equal(t, ToolSearchDocuments, call.Name)
	assert.Equal(t, "Donde configuro las notificaciones?", call.Args["query"])

	assert.Equal(t, "Ajustes > Notificaciones", state.ToolResponse())
	assert.Equal(t, core.AgentDocumentQA, state.CurrentAgent())

	messages := state.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, core.RoleAgent, messages[1].Role)
	assert.Equal(t, "document_qa", messages[1].Agent)
	assert.Equal(t, "Las notificaciones estan en Ajustes.", messages[1].Content)
}

func TestRunFallsBackToHeuristicOnModelFailure(t *testing.T) {
	m := model.NewMockModel("")
	m.Fail(errors.New("provider down"))
	invoker := &testutil.FakeInvoker{
		Catalog: []core.Capability{
			{Name: ToolCalmDownUser, Description: "calm"},
			{Name: ToolWarnOrBanUser, Description: "warn"},
		},
	}

	node, err := NewSentiment(m, invoker)
	require.NoError(t, err)

	state := core.NewConversationState("sess-1", "esto es una basura, son unos inutiles")
	require.NoError(t, node.Run(context.Background(), state))

	call, ok := invoker.LastCall()
	require.True(t, ok)
	assert.Equal(t, ToolWarnOrBanUser, call.Name)
	// Synthesis also failed, so the tool text is the recorded response.
	assert.NotEmpty(t, state.LastAgentMessage())
}

func TestRunFallsBackToHeuristicOnAnswerOutsideCatalog(t *testing.T) {
	m := model.NewMockModel("delete_everything")
	invoker := &testutil.FakeInvoker{
		Catalog: []core.Capability{{Name: ToolCalmDownUser, Description: "calm"}},
	}

	node, err := NewSentiment(m, invoker)
	require.NoError(t, err)

	state := core.NewConversationState("sess-1", "estoy muy molesto con el servicio")
	require.NoError(t, node.Run(context.Background(), state))

	call, ok := invoker.LastCall()
	require.True(t, ok)
	assert.Equal(t, ToolCalmDownUser, call.Name)
}

func TestRunUsesFallbackCatalogOnDiscoveryFailure(t *testing.T) {
	m := model.NewMockModel(ToolFAQQuery)
	invoker := &testutil.FakeInvoker{CatalogErr: errors.New("connection refused")}

	node, err := NewDocumentQA(m, invoker)
	require.NoError(t, err)

	state := core.NewConversationState("sess-1", "Que es el plan premium?")
	require.NoError(t, node.Run(context.Background(), state))

	call, ok := invoker.LastCall()
	require.True(t, ok)
	assert.Equal(t, ToolFAQQuery, call.Name)
	assert.Equal(t, "Que es el plan premium?", call.Args["question"])
}

func TestRunDegradesWhenToolServerUnreachable(t *testing.T) {
	m := model.NewMockModel("")
	m.Fail(errors.New("provider down"))
	invoker := &testutil.FakeInvoker{
		CatalogErr:  errors.New("connection refused"),
		Unreachable: true,
	}

	node, err := NewTech(m, invoker)
	require.NoError(t, err)

	state := core.NewConversationState("sess-1", "resume este texto por favor")
	require.NoError(t, node.Run(context.Background(), state))

	// The step still records a non-empty degraded response.
	assert.NotEmpty(t, state.LastAgentMessage())
	assert.Contains(t, state.ToolResponse(), "error calling tool")
}

func TestEmailArgs(t *testing.T) {
	m := model.NewMockModel(ToolDraftAndSendEmail)
	invoker := &testutil.FakeInvoker{
		Catalog: []core.Capability{{Name: ToolDraftAndSendEmail, Description: "send"}},
	}

	node, err := NewEmail(m, invoker)
	require.NoError(t, err)

	state := core.NewConversationState("sess-42", "Redacta un correo para soporte\nNecesito ayuda con mi cuenta.")
	require.NoError(t, node.Run(context.Background(), state))

	call, ok := invoker.LastCall()
	require.True(t, ok)
	assert.Equal(t, "sess-42", call.Args["from_person"])
	assert.Equal(t, "Redacta un correo para soporte", call.Args["subject"])
	assert.Contains(t, call.Args["body"], "Necesito ayuda")
}

func TestTechArgsSwitchOnTool(t *testing.T) {
	spec := techSpec()
	state := core.NewConversationState("sess-1", "nombre, edad\nana, 30\nluis, 25")

	args := spec.BuildArgs(ToolGenerateExcel, state)
	assert.Equal(t, state.Input(), args["tabla"])

	args = spec.BuildArgs(ToolSummarizeText, state)
	assert.Equal(t, state.Input(), args["text"])
}

func TestTechHeuristic(t *testing.T) {
	spec := techSpec()
	assert.Equal(t, ToolGenerateExcel, spec.ChooseFallbackTool("nombre, edad\nana, 30\nluis, 25"))
	assert.Equal(t, ToolGenerateExcel, spec.ChooseFallbackTool("exporta esto a excel"))
	assert.Equal(t, ToolSummarizeText, spec.ChooseFallbackTool("resume este parrafo"))
}

func TestRunRecordsArtifactReference(t *testing.T) {
	m := model.NewMockModel(ToolGenerateExcel)
	invoker := &testutil.FakeInvoker{
		Catalog: []core.Capability{{Name: ToolGenerateExcel, Description: "excel"}},
		Results: map[string]core.ToolInvocationResult{
			ToolGenerateExcel: {
				ToolName: ToolGenerateExcel,
				Text:     "Archivo generado: /exports/reporte_2026.xlsx",
				OK:       true,
			},
		},
	}
	recorder := artifact.NewInMemoryRecorder()

	node, err := NewTech(m, invoker, func(o *Options) {
		o.Artifacts = recorder
	})
	require.NoError(t, err)

	state := core.NewConversationState("sess-1", "exporta la tabla a excel: a, b\n1, 2")
	require.NoError(t, node.Run(context.Background(), state))

	records, err := recorder.List(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "reporte_2026.xlsx", records[0].Name)
	assert.Equal(t, "tech", records[0].Agent)
}

type addressedInvoker struct {
	*testutil.FakeInvoker
}

func (addressedInvoker) Addr() string { return "http://localhost:8001/sse" }

func TestDescriptor(t *testing.T) {
	node, err := NewDocumentQA(model.NewMockModel("x"), addressedInvoker{&testutil.FakeInvoker{}})
	require.NoError(t, err)

	d := node.Descriptor()
	assert.Equal(t, core.AgentDocumentQA, d.Name)
	assert.Equal(t, "http://localhost:8001/sse", d.ServerAddress)
	require.Len(t, d.Capabilities, 2)
	assert.Equal(t, ToolSearchDocuments, d.Capabilities[0].Name)

	// Invokers without an address leave the binding empty.
	plain, err := NewDocumentQA(model.NewMockModel("x"), &testutil.FakeInvoker{})
	require.NoError(t, err)
	assert.Empty(t, plain.Descriptor().ServerAddress)
}

func TestNewNodeValidatesSpec(t *testing.T) {
	m := model.NewMockModel("x")
	invoker := &testutil.FakeInvoker{}

	_, err := NewNode(Spec{Name: "rag_agent"}, m, invoker)
	assert.Error(t, err)

	spec := documentQASpec()
	spec.FallbackCatalog = nil
	_, err = NewNode(spec, m, invoker)
	assert.Error(t, err)

	_, err = NewNode(documentQASpec(), nil, invoker)
	assert.Error(t, err)
}
