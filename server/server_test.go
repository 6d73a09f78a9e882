package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/engine"
)

type fakeConversations struct {
	lastSessionID string
	lastInput     string
	deleteErr     error
}

func (f *fakeConversations) HandleMessage(_ context.Context, sessionID, input string) (*core.ConversationState, error) {
	if sessionID == "" {
		sessionID = "generated-session"
	}
	f.lastSessionID = sessionID
	f.lastInput = input

	if input == "" {
		return nil, engine.ErrEmptyInput
	}
	if input == "boom" {
		return nil, errors.New("internal failure")
	}

	state := core.NewConversationState(sessionID, input)
	_ = state.SetFinalOutput("respuesta final")
	return state, nil
}

func (f *fakeConversations) DeleteSession(_ context.Context, sessionID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if sessionID == "missing" {
		return core.ErrSessionNotFound
	}
	return nil
}

func postSend(t *testing.T, handler http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/chat/send", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSend(t *testing.T) {
	fake := &fakeConversations{}
	s := New(fake)

	rec := postSend(t, s.Router(), SendRequest{
		Message: "hola",
		Context: map[string]string{"channel": "web"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "respuesta final", resp.Response)
	assert.Equal(t, "generated-session", resp.SessionID)
	assert.NotEmpty(t, resp.Timestamp)
	assert.Equal(t, map[string]string{"channel": "web"}, resp.Context)
}

func TestSendKeepsSessionID(t *testing.T) {
	fake := &fakeConversations{}
	s := New(fake)

	rec := postSend(t, s.Router(), SendRequest{Message: "hola", SessionID: "sess-7"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-7", fake.lastSessionID)
}

func TestSendEmptyMessage(t *testing.T) {
	s := New(&fakeConversations{})
	rec := postSend(t, s.Router(), SendRequest{Message: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendInvalidBody(t *testing.T) {
	s := New(&fakeConversations{})
	req := httptest.NewRequest(http.MethodPost, "/chat/send", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendEngineFailure(t *testing.T) {
	s := New(&fakeConversations{})
	rec := postSend(t, s.Router(), SendRequest{Message: "boom"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDeleteSession(t *testing.T) {
	s := New(&fakeConversations{})

	req := httptest.NewRequest(http.MethodDelete, "/chat/session/sess-1", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/chat/session/missing", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	s := New(&fakeConversations{})
	req := httptest.NewRequest(http.MethodGet, "/chat/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}
