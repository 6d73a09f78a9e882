// Package supervisor contains the two model-backed routing components: the
// intent Classifier that picks the first agent for a turn, and the Decider
// that rules on continuation after every agent step. Both parse the model
// answer strictly against a closed label set and degrade to a safe default
// on any failure.
package supervisor

import (
	"context"
	"fmt"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/internal/util"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/model"
)

// Intent labels emitted by the classification prompt. They are mapped to
// agent names through intentRouting; the model never sees agent names.
const (
	labelDocument  = "consulta_documento"
	labelSentiment = "analisis_sentimiento"
	labelEmail     = "generar_email"
	labelTech      = "tarea_tecnica"
)

var intentRouting = map[string]core.AgentName{
	labelDocument:  core.AgentDocumentQA,
	labelSentiment: core.AgentSentiment,
	labelEmail:     core.AgentEmail,
	labelTech:      core.AgentTech,
}

const classifierInstruction = "You classify support requests into exactly one category. " +
	"Answer with one word from: consulta_documento, analisis_sentimiento, generar_email, tarea_tecnica."

const classifierRules = `Rules:
- consulta_documento: questions about documentation, manuals, FAQs, or how something works.
- analisis_sentimiento: the user is angry, frustrated, insulting, or venting. If the message is aggressive, this category wins even when it also asks for something else.
- generar_email: the user asks to write, draft, or send an email.
- tarea_tecnica: technical chores such as summarizing text or turning tabular data (CSV, comma or line separated values) into a spreadsheet.

Examples:
- "donde configuro las notificaciones?" -> consulta_documento
- "esto es una basura, nada funciona" -> analisis_sentimiento
- "redacta un correo para soporte" -> generar_email
- "nombre, edad\nana, 30\nluis, 25" -> tarea_tecnica`

// ClassifierOptions configures a Classifier.
type ClassifierOptions struct {
	// Logger receives routing diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Classifier routes a new user message to its first agent.
type Classifier struct {
	model model.Model
	opts  ClassifierOptions
}

// NewClassifier creates an intent classifier over the given model.
func NewClassifier(m model.Model, optFns ...func(o *ClassifierOptions)) *Classifier {
	opts := ClassifierOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{model: m, opts: opts}
}

// Classify returns the agent responsible for the input. It never fails:
// model errors and labels outside the closed set route to document_qa.
func (c *Classifier) Classify(ctx context.Context, input string) core.AgentName {
	prompt := fmt.Sprintf("%s\n\nUser message:\n%s\n\nCategory:", classifierRules, input)
	resp, err := c.model.Complete(ctx, model.UserRequest(classifierInstruction, prompt))
	if err != nil {
		c.opts.Logger.Warn("intent classification failed, defaulting", "error", err)
		return core.AgentDocumentQA
	}

	label := util.CleanLabel(resp.Text)
	if name, ok := intentRouting[label]; ok {
		c.opts.Logger.Debug("intent classified", "label", label, "agent", name)
		return name
	}
	c.opts.Logger.Warn("intent label outside closed set, defaulting",
		"label", util.Truncate(resp.Text, 80))
	return core.AgentDocumentQA
}
