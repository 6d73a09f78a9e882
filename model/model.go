// Package model abstracts the LLM providers behind a small blocking
// completion interface. The engine only ever needs short constrained text
// answers (a routing label, a tool name, a synthesis paragraph), so the
// interface is deliberately non-streaming.
package model

import "context"

// Role classifies a prompt message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prompt message sent to a provider.
type Message struct {
	Role    Role
	Content string
}

// Request is a single completion request. System carries the instruction
// block separately because providers differ in how system text is attached.
type Request struct {
	System   string
	Messages []Message
}

// Response is the provider's completion.
type Response struct {
	Text string
}

// Info identifies a configured model.
type Info struct {
	Provider string
	Name     string
}

// Model is the provider contract. Complete blocks until the provider
// answers or ctx is done.
type Model interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Info() Info
}

// UserRequest is a convenience constructor for the common single-turn case.
func UserRequest(system, user string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: user}},
	}
}
