package supportmesh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/supportmesh/config"
	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/engine"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Models.Routing = config.ModelConfig{Provider: config.ProviderMock}
	cfg.Models.Synthesis = config.ModelConfig{Provider: config.ProviderMock}
	cfg.ToolServers = map[string]string{
		"document_qa": "http://localhost:8001/sse",
		"sentiment":   "http://localhost:8002/sse",
		"email":       "http://localhost:8003/sse",
		"tech":        "http://localhost:8004/sse",
	}
	return cfg
}

func TestNewAssemblesFromConfig(t *testing.T) {
	mesh, err := New(testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { mesh.Close() })

	assert.NotNil(t, mesh.Handler())
	assert.NotNil(t, mesh.Engine())
	assert.NotNil(t, mesh.Artifacts())

	descriptors := mesh.Descriptors()
	require.Len(t, descriptors, 4)
	byName := make(map[core.AgentName]core.AgentDescriptor, len(descriptors))
	for _, d := range descriptors {
		byName[d.Name] = d
	}
	assert.Equal(t, "http://localhost:8004/sse", byName[core.AgentTech].ServerAddress)
	assert.NotEmpty(t, byName[core.AgentSentiment].Capabilities)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ToolServers = nil
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestHandleMessageValidatesInput(t *testing.T) {
	mesh, err := New(testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { mesh.Close() })

	_, err = mesh.HandleMessage(context.Background(), "sess-1", "")
	assert.ErrorIs(t, err, engine.ErrEmptyInput)
}
