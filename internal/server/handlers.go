package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/avolkov/toolgate/internal/audit"
	"github.com/avolkov/toolgate/internal/gate"
	"github.com/avolkov/toolgate/internal/scanner"
)

// --- Input/Output types ---

// CheckInput defines parameters for the toolgate_check tool.
type CheckInput struct {
	Tool   string         `json:"tool" jsonschema:"name of the tool about to be called"`
	Params map[string]any `json:"params,omitempty" jsonschema:"parameters the tool will be called with"`
}

// CheckOutput contains the verdict.
type CheckOutput struct {
	Allowed     bool     `json:"allowed"`
	Reason      string   `json:"reason,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ReportInput defines parameters for the toolgate_report tool.
type ReportInput struct {
	Tool       string         `json:"tool" jsonschema:"tool that was executed"`
	Action     string         `json:"action,omitempty" jsonschema:"free-text description of what was done"`
	Params     map[string]any `json:"params,omitempty" jsonschema:"parameters the tool was called with"`
	Success    bool           `json:"success" jsonschema:"whether the execution succeeded"`
	Reason     string         `json:"reason,omitempty" jsonschema:"failure reason, if any"`
	DurationMs int64          `json:"duration_ms,omitempty" jsonschema:"execution duration in milliseconds"`
}

// ReportOutput confirms the audit record.
type ReportOutput struct {
	EventID string `json:"event_id"`
}

// ApproveInput names the tool to approve.
type ApproveInput struct {
	Tool string `json:"tool" jsonschema:"tool name to approve for this user"`
}

// ApproveOutput confirms the grant.
type ApproveOutput struct {
	Tool   string `json:"tool"`
	Status string `json:"status"`
}

// RejectInput names the tool to reject.
type RejectInput struct {
	Tool string `json:"tool" jsonschema:"tool name to withdraw approval for"`
}

// RejectOutput confirms the withdrawal.
type RejectOutput struct {
	Tool   string `json:"tool"`
	Status string `json:"status"`
}

// ApprovalsInput is empty; the tool takes no parameters.
type ApprovalsInput struct{}

// ApprovalsOutput lists approved tools for the current user.
type ApprovalsOutput struct {
	Tools []string `json:"tools"`
}

// AuditInput defines filters for the toolgate_audit tool.
type AuditInput struct {
	Tool   string `json:"tool,omitempty" jsonschema:"filter by tool name"`
	Result string `json:"result,omitempty" jsonschema:"filter by result (allowed/denied/approved/rejected)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum events to return"`
}

// AuditOutput lists matching events.
type AuditOutput struct {
	Events []AuditItem `json:"events"`
}

// AuditItem is one event in toolgate_audit output.
type AuditItem struct {
	ID        string `json:"id"`
	Timestamp string `json:"ts"`
	Tool      string `json:"tool"`
	Action    string `json:"action,omitempty"`
	Result    string `json:"result"`
	Reason    string `json:"reason,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// ScanInput carries the content to inspect.
type ScanInput struct {
	Content string `json:"content" jsonschema:"content to scan for secrets and PII"`
}

// ScanOutput summarizes findings and returns the masked copy.
type ScanOutput struct {
	SecretCount int      `json:"secret_count"`
	PIICount    int      `json:"pii_count"`
	Types       []string `json:"types,omitempty"`
	Masked      string   `json:"masked"`
}

// --- Handlers ---

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	start := time.Now()
	verdict := s.engine.Evaluate(input.Tool, input.Params, gate.Context{
		UserID:    s.userID,
		ProjectID: s.projectID,
	})

	result := audit.ResultAllowed
	if !verdict.Allowed {
		result = audit.ResultDenied
	}
	s.recorder.Record("decision", audit.Event{
		Tool:       input.Tool,
		Action:     "evaluate",
		Params:     serializeParams(input.Params),
		Result:     result,
		Reason:     verdict.Reason,
		UserID:     s.userID,
		ProjectID:  s.projectID,
		DurationMs: time.Since(start).Milliseconds(),
	})

	out := CheckOutput{
		Allowed:     verdict.Allowed,
		Reason:      verdict.Reason,
		Suggestions: verdict.Suggestions,
	}
	if !verdict.Allowed {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleReport(ctx context.Context, req *mcpsdk.CallToolRequest, input ReportInput) (*mcpsdk.CallToolResult, ReportOutput, error) {
	result := audit.ResultAllowed
	if !input.Success {
		result = audit.ResultRejected
	}
	action := input.Action
	if action == "" {
		action = "execute"
	}

	e := s.recorder.Record("execution", audit.Event{
		Tool:       input.Tool,
		Action:     action,
		Params:     serializeParams(input.Params),
		Result:     result,
		Reason:     input.Reason,
		UserID:     s.userID,
		ProjectID:  s.projectID,
		DurationMs: input.DurationMs,
	})
	return nil, ReportOutput{EventID: e.ID}, nil
}

func (s *Server) handleApprove(ctx context.Context, req *mcpsdk.CallToolRequest, input ApproveInput) (*mcpsdk.CallToolResult, ApproveOutput, error) {
	if input.Tool == "" {
		return nil, ApproveOutput{}, fmt.Errorf("tool name is required")
	}
	if _, ok := s.registry.Lookup(input.Tool); !ok {
		return nil, ApproveOutput{}, fmt.Errorf("unknown tool: %q", input.Tool)
	}

	s.ledger.Approve(input.Tool, s.userID)
	s.recorder.Record("confirmation", audit.Event{
		Tool:      input.Tool,
		Action:    "approve",
		Result:    audit.ResultApproved,
		UserID:    s.userID,
		ProjectID: s.projectID,
	})
	return nil, ApproveOutput{Tool: input.Tool, Status: "approved"}, nil
}

func (s *Server) handleReject(ctx context.Context, req *mcpsdk.CallToolRequest, input RejectInput) (*mcpsdk.CallToolResult, RejectOutput, error) {
	if input.Tool == "" {
		return nil, RejectOutput{}, fmt.Errorf("tool name is required")
	}

	s.ledger.Reject(input.Tool, s.userID)
	s.recorder.Record("confirmation", audit.Event{
		Tool:      input.Tool,
		Action:    "reject",
		Result:    audit.ResultRejected,
		UserID:    s.userID,
		ProjectID: s.projectID,
	})
	return nil, RejectOutput{Tool: input.Tool, Status: "rejected"}, nil
}

func (s *Server) handleApprovals(ctx context.Context, req *mcpsdk.CallToolRequest, input ApprovalsInput) (*mcpsdk.CallToolResult, ApprovalsOutput, error) {
	return nil, ApprovalsOutput{Tools: s.ledger.Approved(s.userID)}, nil
}

func (s *Server) handleAudit(ctx context.Context, req *mcpsdk.CallToolRequest, input AuditInput) (*mcpsdk.CallToolResult, AuditOutput, error) {
	if s.store == nil {
		return nil, AuditOutput{}, fmt.Errorf("audit store not configured")
	}

	events, err := s.store.Query(audit.Filter{
		Tool:   input.Tool,
		Result: audit.Result(input.Result),
		Limit:  input.Limit,
	})
	if err != nil {
		return nil, AuditOutput{}, err
	}

	out := AuditOutput{Events: make([]AuditItem, 0, len(events))}
	for _, e := range events {
		out.Events = append(out.Events, AuditItem{
			ID:        e.ID,
			Timestamp: e.Timestamp.UTC().Format(audit.TimestampFormat),
			Tool:      e.Tool,
			Action:    e.Action,
			Result:    string(e.Result),
			Reason:    e.Reason,
			UserID:    e.UserID,
		})
	}
	return nil, out, nil
}

func (s *Server) handleScan(ctx context.Context, req *mcpsdk.CallToolRequest, input ScanInput) (*mcpsdk.CallToolResult, ScanOutput, error) {
	result := s.scanner.Scan(input.Content)

	out := ScanOutput{
		SecretCount: len(result.Secrets),
		PIICount:    len(result.PII),
		Masked:      result.Masked,
	}
	seen := make(map[string]bool)
	for _, item := range append(append([]scanner.DetectedItem(nil), result.Secrets...), result.PII...) {
		if !seen[item.Type] {
			seen[item.Type] = true
			out.Types = append(out.Types, item.Type)
		}
	}
	return nil, out, nil
}

// serializeParams renders the parameter bag for the audit trail.
// Serialization failures degrade to a placeholder rather than dropping
// the record.
func serializeParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("unserializable params (%d keys)", len(params))
	}
	return string(data)
}
