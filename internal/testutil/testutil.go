// Package testutil provides shared fakes for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/supportmesh/core"
)

// Invocation records one tool call made against a FakeInvoker.
type Invocation struct {
	Name string
	Args map[string]string
}

// FakeInvoker is an in-memory tool.Invoker for tests.
type FakeInvoker struct {
	mu sync.Mutex

	// Catalog is returned by ListCapabilities unless CatalogErr is set.
	Catalog []core.Capability
	// CatalogErr simulates discovery failure.
	CatalogErr error
	// Results maps tool names to canned results.
	Results map[string]core.ToolInvocationResult
	// Unreachable makes every invocation return an absorbed error result.
	Unreachable bool
	// DefaultText is returned for tools without a canned result.
	DefaultText string

	// Calls records every invocation in order.
	Calls []Invocation
}

func (f *FakeInvoker) ListCapabilities(context.Context) ([]core.Capability, error) {
	if f.CatalogErr != nil {
		return nil, f.CatalogErr
	}
	return f.Catalog, nil
}

func (f *FakeInvoker) Invoke(_ context.Context, name string, args map[string]string) core.ToolInvocationResult {
	f.mu.Lock()
	f.Calls = append(f.Calls, Invocation{Name: name, Args: args})
	f.mu.Unlock()

	if f.Unreachable {
		return core.ToolInvocationResult{
			ToolName: name,
			Text:     fmt.Sprintf("error calling tool %s: connection refused", name),
			OK:       false,
		}
	}
	if r, ok := f.Results[name]; ok {
		return r
	}
	text := f.DefaultText
	if text == "" {
		text = "ok"
	}
	return core.ToolInvocationResult{ToolName: name, Text: text, OK: true}
}

// LastCall returns the most recent invocation, if any.
func (f *FakeInvoker) LastCall() (Invocation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return Invocation{}, false
	}
	return f.Calls[len(f.Calls)-1], true
}
