package agent

import (
	"strings"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/internal/util"
	"github.com/hupe1980/supportmesh/model"
	"github.com/hupe1980/supportmesh/moderation"
	"github.com/hupe1980/supportmesh/tool"
)

// Tool names served by the support tool servers. They double as the
// fallback vocabulary when catalog discovery is down.
const (
	ToolSearchDocuments   = "search_documents"
	ToolFAQQuery          = "faq_query"
	ToolCalmDownUser      = "calm_down_user"
	ToolWarnOrBanUser     = "warn_or_ban_user"
	ToolDraftAndSendEmail = "draft_and_send_email"
	ToolGenerateExcel     = "generate_excel_from_data"
	ToolSummarizeText     = "summarize_text"
)

// NewDocumentQA creates the document/FAQ question answering agent.
func NewDocumentQA(m model.Model, tools tool.Invoker, optFns ...func(o *Options)) (*Node, error) {
	return NewNode(documentQASpec(), m, tools, optFns...)
}

// NewSentiment creates the de-escalation and moderation agent.
func NewSentiment(m model.Model, tools tool.Invoker, optFns ...func(o *Options)) (*Node, error) {
	return NewNode(sentimentSpec(), m, tools, optFns...)
}

// NewEmail creates the outbound email drafting agent.
func NewEmail(m model.Model, tools tool.Invoker, optFns ...func(o *Options)) (*Node, error) {
	return NewNode(emailSpec(), m, tools, optFns...)
}

// NewTech creates the technical chores agent (tabular exports, summaries).
func NewTech(m model.Model, tools tool.Invoker, optFns ...func(o *Options)) (*Node, error) {
	return NewNode(techSpec(), m, tools, optFns...)
}

func documentQASpec() Spec {
	return Spec{
		Name: core.AgentDocumentQA,
		Persona: "You are a documentation support assistant. Answer strictly from the " +
			"tool evidence provided; if it does not answer the question, say so plainly. " +
			"Respond in Spanish without accent marks.",
		FallbackCatalog: []core.Capability{
			{Name: ToolSearchDocuments, Description: "Search the indexed document corpus for relevant passages"},
			{Name: ToolFAQQuery, Description: "Answer a question from the FAQ knowledge base"},
		},
		ChooseFallbackTool: func(input string) string {
			lower := strings.ToLower(input)
			if strings.Contains(lower, "faq") || strings.HasSuffix(strings.TrimSpace(input), "?") {
				return ToolFAQQuery
			}
			return ToolSearchDocuments
		},
		BuildArgs: func(toolName string, state *core.ConversationState) map[string]string {
			if toolName == ToolFAQQuery {
				return map[string]string{"question": state.Input()}
			}
			return map[string]string{"query": state.Input()}
		},
	}
}

func sentimentSpec() Spec {
	return Spec{
		Name: core.AgentSentiment,
		Persona: "You are a customer care specialist handling upset users. Acknowledge " +
			"the frustration, stay calm and firm, and relay any moderation outcome from " +
			"the tool. Respond in Spanish without accent marks.",
		FallbackCatalog: []core.Capability{
			{Name: ToolCalmDownUser, Description: "Compose a de-escalating reply for a frustrated user"},
			{Name: ToolWarnOrBanUser, Description: "Issue a formal warning for abusive language"},
		},
		ChooseFallbackTool: func(input string) string {
			if moderation.ContainsOffensive(input) {
				return ToolWarnOrBanUser
			}
			return ToolCalmDownUser
		},
		BuildArgs: func(_ string, state *core.ConversationState) map[string]string {
			return map[string]string{"text": state.Input()}
		},
	}
}

func emailSpec() Spec {
	return Spec{
		Name: core.AgentEmail,
		Persona: "You are an assistant confirming outbound email requests. Summarize " +
			"what was sent and to what effect, based on the tool result. Respond in " +
			"Spanish without accent marks.",
		FallbackCatalog: []core.Capability{
			{Name: ToolDraftAndSendEmail, Description: "Draft and dispatch an email on behalf of the user"},
		},
		ChooseFallbackTool: func(string) string {
			return ToolDraftAndSendEmail
		},
		BuildArgs: func(_ string, state *core.ConversationState) map[string]string {
			return map[string]string{
				"from_person": state.SessionID(),
				"subject":     emailSubject(state.Input()),
				"body":        state.Input(),
			}
		},
	}
}

func techSpec() Spec {
	return Spec{
		Name: core.AgentTech,
		Persona: "You are a technical operations assistant. Report what the tool " +
			"produced, including any generated file reference. Respond in Spanish " +
			"without accent marks.",
		FallbackCatalog: []core.Capability{
			{Name: ToolGenerateExcel, Description: "Generate an Excel file from tabular text data"},
			{Name: ToolSummarizeText, Description: "Summarize a block of text"},
		},
		ChooseFallbackTool: func(input string) string {
			if looksTabular(input) {
				return ToolGenerateExcel
			}
			return ToolSummarizeText
		},
		BuildArgs: func(toolName string, state *core.ConversationState) map[string]string {
			if toolName == ToolGenerateExcel {
				return map[string]string{"tabla": state.Input()}
			}
			return map[string]string{"text": state.Input()}
		},
	}
}

// looksTabular detects comma or line separated data and spreadsheet
// vocabulary, the signal for the Excel export tool.
func looksTabular(input string) bool {
	lower := strings.ToLower(input)
	for _, kw := range []string{"csv", "excel", "tabla", "table", "spreadsheet"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return strings.Count(input, ",") >= 2 && strings.Contains(input, "\n")
}

// emailSubject derives a subject line from the first line of the request.
func emailSubject(input string) string {
	line := input
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return util.Truncate(strings.TrimSpace(line), 60)
}
