package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/store"
)

func TestRecall(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	require.NoError(t, s.AppendMessage(ctx, "sess-1", core.Message{Role: core.RoleUser, Content: "hola"}))
	require.NoError(t, s.AppendMessage(ctx, "sess-1", core.Message{Role: core.RoleAgent, Agent: "document_qa", Content: "respuesta"}))

	w := NewWindow(s, 10)
	recall, err := w.Recall(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "user: hola\nagent (document_qa): respuesta", recall)
}

func TestRecallHonorsWindowSize(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	require.NoError(t, s.AppendMessage(ctx, "sess-1", core.Message{Role: core.RoleUser, Content: "primero"}))
	require.NoError(t, s.AppendMessage(ctx, "sess-1", core.Message{Role: core.RoleUser, Content: "segundo"}))

	w := NewWindow(s, 1)
	recall, err := w.Recall(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "user: segundo", recall)
}

func TestRecallEmptySession(t *testing.T) {
	w := NewWindow(store.NewInMemoryStore(), 10)
	recall, err := w.Recall(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, recall)
}
