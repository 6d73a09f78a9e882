// Package tool implements the remote tool invocation protocol: short-lived
// MCP sessions against per-agent tool servers, catalog discovery, and
// failure absorption so transport errors never escape as Go errors from an
// invocation.
package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/internal/util"
	"github.com/hupe1980/supportmesh/logging"
)

const (
	clientName    = "supportmesh"
	clientVersion = "0.1.0"
)

// Transport selects the MCP transport used to reach a tool server.
type Transport string

const (
	TransportSSE            Transport = "sse"
	TransportStreamableHTTP Transport = "streamable-http"
)

// Invoker is the contract agents use to talk to their tool server.
type Invoker interface {
	// ListCapabilities discovers the server catalog. It returns an error on
	// discovery failure; callers substitute their static fallback catalog.
	ListCapabilities(ctx context.Context) ([]core.Capability, error)

	// Invoke calls one tool. Failures are absorbed into the result text
	// with OK set to false; Invoke never returns a Go error to the caller.
	Invoke(ctx context.Context, name string, args map[string]string) core.ToolInvocationResult
}

// session is the slice of the MCP client used per call. *client.Client
// satisfies it; tests substitute fakes.
type session interface {
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Options configures a Client.
type Options struct {
	// Transport selects SSE or streamable HTTP. Defaults to SSE.
	Transport Transport
	// Timeout bounds each complete session (connect, initialize, call).
	Timeout time.Duration
	// MaxRetries is the number of additional attempts after a failed call.
	MaxRetries int
	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration
	// Logger receives per-call diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Client reaches one tool server. Every operation opens a fresh MCP session
// and tears it down afterwards; no connection state is held between calls.
type Client struct {
	addr string
	opts Options
	dial func(ctx context.Context) (session, error)
}

// NewClient creates a client for the tool server at addr.
func NewClient(addr string, optFns ...func(o *Options)) *Client {
	opts := Options{
		Transport:  TransportSSE,
		Timeout:    30 * time.Second,
		MaxRetries: 1,
		RetryDelay: 500 * time.Millisecond,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Client{addr: addr, opts: opts}
	c.dial = c.dialMCP
	return c
}

// Addr returns the tool server address this client is bound to.
func (c *Client) Addr() string { return c.addr }

func (c *Client) dialMCP(ctx context.Context) (session, error) {
	var (
		mc  *client.Client
		err error
	)
	switch c.opts.Transport {
	case TransportStreamableHTTP:
		mc, err = client.NewStreamableHttpClient(c.addr)
	default:
		mc, err = client.NewSSEMCPClient(c.addr)
	}
	if err != nil {
		return nil, fmt.Errorf("create mcp client for %s: %w", c.addr, err)
	}

	if err := mc.Start(ctx); err != nil {
		return nil, fmt.Errorf("start mcp transport for %s: %w", c.addr, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = "2024-11-05"
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}
	if _, err := mc.Initialize(ctx, initReq); err != nil {
		mc.Close()
		return nil, fmt.Errorf("initialize mcp session with %s: %w", c.addr, err)
	}
	return mc, nil
}

// withSession runs fn inside a fresh, initialized, time-bounded session.
func (c *Client) withSession(ctx context.Context, fn func(ctx context.Context, s session) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	s, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}

// ListCapabilities discovers the server's tool catalog.
func (c *Client) ListCapabilities(ctx context.Context) ([]core.Capability, error) {
	var caps []core.Capability
	err := c.retry(ctx, func() error {
		return c.withSession(ctx, func(ctx context.Context, s session) error {
			resp, err := s.ListTools(ctx, mcp.ListToolsRequest{})
			if err != nil {
				return fmt.Errorf("list tools on %s: %w", c.addr, err)
			}
			caps = caps[:0]
			for _, t := range resp.Tools {
				caps = append(caps, core.Capability{
					Name:        t.Name,
					Description: t.Description,
				})
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return caps, nil
}

// Invoke calls one tool and returns its first text content block. Any
// transport, protocol, or server failure is folded into the result text.
func (c *Client) Invoke(ctx context.Context, name string, args map[string]string) core.ToolInvocationResult {
	arguments := make(map[string]any, len(args))
	for k, v := range args {
		arguments[k] = v
	}

	var text string
	err := c.retry(ctx, func() error {
		return c.withSession(ctx, func(ctx context.Context, s session) error {
			req := mcp.CallToolRequest{}
			req.Params.Name = name
			req.Params.Arguments = arguments

			resp, err := s.CallTool(ctx, req)
			if err != nil {
				return fmt.Errorf("call tool %s on %s: %w", name, c.addr, err)
			}
			text = extractText(resp)
			if resp.IsError {
				return fmt.Errorf("tool %s reported an error: %s", name, util.Truncate(text, 200))
			}
			return nil
		})
	})
	if err != nil {
		c.opts.Logger.Warn("tool invocation failed", "tool", name, "server", c.addr, "error", err)
		return core.ToolInvocationResult{
			ToolName: name,
			Text:     fmt.Sprintf("error calling tool %s: %v", name, err),
			OK:       false,
		}
	}

	c.opts.Logger.Debug("tool invocation succeeded", "tool", name, "server", c.addr)
	return core.ToolInvocationResult{ToolName: name, Text: text, OK: true}
}

// retry runs fn up to 1+MaxRetries times, pausing RetryDelay between
// attempts and stopping early when ctx is done.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(c.opts.RetryDelay):
			}
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func extractText(resp *mcp.CallToolResult) string {
	for _, content := range resp.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
