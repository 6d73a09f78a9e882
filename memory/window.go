// Package memory supplies agents with a bounded recall window over the
// persisted conversation history.
package memory

import (
	"context"

	"github.com/hupe1980/supportmesh/core"
)

// DefaultWindowSize is the number of recent messages recalled when no size
// is configured.
const DefaultWindowSize = 10

// Window reads the most recent stored messages of a session and renders
// them as a transcript block for synthesis prompts.
type Window struct {
	store core.ConversationStore
	size  int
}

// NewWindow creates a recall window over the given store. A non-positive
// size falls back to DefaultWindowSize.
func NewWindow(store core.ConversationStore, size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{store: store, size: size}
}

// Recall returns the recent transcript for a session. An empty session or a
// session without history yields an empty string.
func (w *Window) Recall(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", nil
	}
	messages, err := w.store.History(ctx, sessionID, w.size)
	if err != nil {
		return "", err
	}
	return core.FormatTranscript(messages), nil
}
