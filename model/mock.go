package model

import (
	"context"
	"strings"
	"sync"
)

// MockModel is a deterministic in-memory Model for tests and examples.
// Responses can be keyed by a substring of the incoming prompt, queued in
// FIFO order, or left to the default. An injected error takes precedence
// over everything else.
type MockModel struct {
	mu        sync.Mutex
	keyed     map[string]string
	queue     []string
	def       string
	err       error
	CallCount int
}

// NewMockModel creates a mock with the given default response.
func NewMockModel(def string) *MockModel {
	return &MockModel{def: def, keyed: make(map[string]string)}
}

// AddResponse registers a response returned whenever the prompt contains
// the given substring.
func (m *MockModel) AddResponse(substr, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyed[substr] = response
}

// Enqueue appends responses served in order before keyed or default lookup.
func (m *MockModel) Enqueue(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
}

// Fail makes every subsequent call return err.
func (m *MockModel) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockModel) Complete(_ context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount++
	if m.err != nil {
		return Response{}, m.err
	}
	if len(m.queue) > 0 {
		text := m.queue[0]
		m.queue = m.queue[1:]
		return Response{Text: text}, nil
	}
	prompt := req.System
	for _, msg := range req.Messages {
		prompt += "\n" + msg.Content
	}
	for substr, resp := range m.keyed {
		if strings.Contains(prompt, substr) {
			return Response{Text: resp}, nil
		}
	}
	return Response{Text: m.def}, nil
}

func (m *MockModel) Info() Info {
	return Info{Provider: "mock", Name: "mock"}
}
