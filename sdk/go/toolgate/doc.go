// Package toolgate provides in-process policy enforcement for Go agent
// frameworks. It wraps tool functions, evaluates each call against the
// tool registry, path and command rules, and confirmation requirements,
// and records every decision to a tamper-evident audit trail.
//
// Usage:
//
//	tg, err := toolgate.New(toolgate.WithUser("alice"))
//	wrapped := tg.Wrap(myTool)
//	result, err := wrapped(ctx, toolgate.Call{
//	    Tool:   "read_file",
//	    Params: map[string]any{"path": "/repo/main.go"},
//	})
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import github.com/avolkov/toolgate/sdk/go/toolgate.
package toolgate
