package moderation

import (
	"context"

	"github.com/hupe1980/supportmesh/internal/util"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/model"
)

// SafetyChecker rules on whether finalized text is safe to show the user.
// Check returns true when the text must be replaced by the fallback.
type SafetyChecker interface {
	Check(ctx context.Context, text string) (flagged bool, err error)
}

// LexiconChecker flags text containing terms from the offensive lexicon.
// It is the default checker and needs no model.
type LexiconChecker struct{}

func (LexiconChecker) Check(_ context.Context, text string) (bool, error) {
	return ContainsOffensive(text), nil
}

// ModelCheckerOptions configures a ModelChecker.
type ModelCheckerOptions struct {
	// Logger receives check diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// ModelChecker asks a model for a SAFE/UNSAFE verdict on the text. Anything
// other than a clear SAFE, including a model failure, counts as flagged.
type ModelChecker struct {
	model model.Model
	opts  ModelCheckerOptions
}

// NewModelChecker creates a model-backed safety checker.
func NewModelChecker(m model.Model, optFns ...func(o *ModelCheckerOptions)) *ModelChecker {
	opts := ModelCheckerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelChecker{model: m, opts: opts}
}

func (c *ModelChecker) Check(ctx context.Context, text string) (bool, error) {
	resp, err := c.model.Complete(ctx, model.UserRequest(
		"You review a support reply for insults, threats, or abusive language. Answer SAFE or UNSAFE, one word.",
		text,
	))
	if err != nil {
		return true, err
	}
	verdict := util.CleanLabel(resp.Text)
	if verdict == "safe" {
		return false, nil
	}
	c.opts.Logger.Info("safety check flagged reply", "verdict", verdict)
	return true, nil
}
