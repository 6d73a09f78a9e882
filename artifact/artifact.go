// Package artifact tracks references to files produced by tool servers,
// such as generated spreadsheets. Only the reference is stored; the blob
// itself lives wherever the tool server put it.
package artifact

import (
	"context"
	"path"
	"strings"
	"time"
)

// Record is one tracked artifact reference.
type Record struct {
	SessionID string
	Agent     string
	Name      string
	URI       string
	CreatedAt time.Time
}

// Recorder stores artifact references per session.
type Recorder interface {
	Save(ctx context.Context, rec Record) error
	List(ctx context.Context, sessionID string) ([]Record, error)
}

// fileExtensions are the suffixes recognized as generated-file references
// in tool output.
var fileExtensions = []string{".xlsx", ".csv", ".pdf", ".txt", ".zip"}

// DetectReference scans tool output text for a generated-file reference and
// returns a record for it. The boolean reports whether one was found.
func DetectReference(sessionID, agent, text string) (Record, bool) {
	for _, field := range strings.Fields(text) {
		candidate := strings.Trim(field, `"'().,;:`)
		for _, ext := range fileExtensions {
			if strings.HasSuffix(strings.ToLower(candidate), ext) {
				return Record{
					SessionID: sessionID,
					Agent:     agent,
					Name:      path.Base(candidate),
					URI:       candidate,
					CreatedAt: time.Now().UTC(),
				}, true
			}
		}
	}
	return Record{}, false
}
