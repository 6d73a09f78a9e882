package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectReference(t *testing.T) {
	rec, found := DetectReference("sess-1", "tech", "Archivo generado: /exports/reporte_2026.xlsx listo para descargar")
	require.True(t, found)
	assert.Equal(t, "reporte_2026.xlsx", rec.Name)
	assert.Equal(t, "/exports/reporte_2026.xlsx", rec.URI)
	assert.Equal(t, "tech", rec.Agent)

	_, found = DetectReference("sess-1", "tech", "resumen sin archivos")
	assert.False(t, found)
}

func TestDetectReferenceStripsPunctuation(t *testing.T) {
	rec, found := DetectReference("sess-1", "tech", `El archivo es "datos.csv".`)
	require.True(t, found)
	assert.Equal(t, "datos.csv", rec.URI)
}

func TestInMemoryRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRecorder()

	require.NoError(t, r.Save(ctx, Record{SessionID: "sess-1", Name: "a.xlsx", URI: "/tmp/a.xlsx"}))
	require.NoError(t, r.Save(ctx, Record{SessionID: "sess-1", Name: "b.csv", URI: "/tmp/b.csv"}))

	records, err := r.List(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a.xlsx", records[0].Name)

	other, err := r.List(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other)
}
