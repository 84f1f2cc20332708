package toolgate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avolkov/toolgate/internal/audit"
	"github.com/avolkov/toolgate/internal/gate"
)

// ToolFunc is the function signature that Wrap guards.
type ToolFunc func(ctx context.Context, call Call) (any, error)

// Wrap returns a new ToolFunc that evaluates policy before calling fn and
// records both the decision and the execution outcome in the audit trail.
// If policy denies the call, fn is never invoked and a *BlockedError is
// returned.
func (c *Client) Wrap(fn ToolFunc) ToolFunc {
	return func(ctx context.Context, call Call) (any, error) {
		start := time.Now()
		verdict := c.engine.Evaluate(call.Tool, call.Params, gate.Context{
			UserID:    c.cfg.user,
			ProjectID: c.cfg.project,
		})

		result := audit.ResultAllowed
		if !verdict.Allowed {
			result = audit.ResultDenied
		}
		c.recorder.Record("decision", audit.Event{
			Tool:       call.Tool,
			Action:     "evaluate",
			Params:     encodeParams(call.Params),
			Result:     result,
			Reason:     verdict.Reason,
			UserID:     c.cfg.user,
			ProjectID:  c.cfg.project,
			DurationMs: time.Since(start).Milliseconds(),
		})

		if !verdict.Allowed {
			return nil, &BlockedError{
				Call:        call,
				Reason:      verdict.Reason,
				Suggestions: verdict.Suggestions,
			}
		}

		execStart := time.Now()
		out, err := fn(ctx, call)

		execResult := audit.ResultAllowed
		reason := ""
		if err != nil {
			execResult = audit.ResultRejected
			reason = err.Error()
		}
		c.recorder.Record("execution", audit.Event{
			Tool:       call.Tool,
			Action:     "execute",
			Params:     encodeParams(call.Params),
			Result:     execResult,
			Reason:     reason,
			UserID:     c.cfg.user,
			ProjectID:  c.cfg.project,
			DurationMs: time.Since(execStart).Milliseconds(),
		})

		return out, err
	}
}

func encodeParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "unserializable params"
	}
	return string(data)
}
