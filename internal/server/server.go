// Package server exposes the policy gate to MCP-speaking agent hosts over
// stdio. The host asks toolgate_check before executing a tool; approval,
// audit, and scanning round out the surface.
package server

import (
	"context"
	"fmt"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/avolkov/toolgate/internal/audit"
	"github.com/avolkov/toolgate/internal/gate"
	"github.com/avolkov/toolgate/internal/ledger"
	"github.com/avolkov/toolgate/internal/policy"
	"github.com/avolkov/toolgate/internal/registry"
	"github.com/avolkov/toolgate/internal/scanner"
)

// Config holds server configuration.
type Config struct {
	PolicyPath  string
	AuditDBPath string
	AuditLogDir string
	UserID      string
	ProjectID   string
	Workspace   string
}

// Server wires the gate, ledger, audit sink, and scanner behind MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	engine    *gate.Engine
	registry  *registry.Registry
	policies  *policy.Store
	ledger    *ledger.Ledger
	recorder  *audit.Recorder
	store     *audit.Store
	scanner   *scanner.Scanner
	userID    string
	projectID string
	workspace string
}

// New loads policy and constructs a fully wired Server. A policy file that
// exists but cannot be parsed is a fatal construction error (fail closed).
func New(cfg Config) (*Server, error) {
	pol, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("server: load policy: %w", err)
	}

	var store *audit.Store
	if cfg.AuditDBPath != "" {
		store, err = audit.OpenStore(cfg.AuditDBPath)
		if err != nil {
			return nil, fmt.Errorf("server: open audit store: %w", err)
		}
	}
	var filelog *audit.FileLog
	if cfg.AuditLogDir != "" {
		filelog = audit.NewFileLog(cfg.AuditLogDir)
	}

	userID := cfg.UserID
	if userID == "" {
		userID = "local"
	}

	reg := registry.NewDefault()
	polStore := policy.NewStore(pol)
	led := ledger.New()

	s := &Server{
		engine:    gate.New(reg, polStore, led),
		registry:  reg,
		policies:  polStore,
		ledger:    led,
		recorder:  audit.NewRecorder(store, filelog, os.Stderr),
		store:     store,
		scanner:   scanner.New(),
		userID:    userID,
		projectID: cfg.ProjectID,
		workspace: cfg.Workspace,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "toolgate",
			Version: "0.1.0",
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport inside a session bookend.
// Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.recorder.StartSession(s.workspace); err != nil {
		fmt.Fprintf(os.Stderr, "audit: start session failed: %v\n", err)
	}
	defer func() {
		if err := s.recorder.EndSession(); err != nil {
			fmt.Fprintf(os.Stderr, "audit: end session failed: %v\n", err)
		}
	}()

	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// ReloadPolicy re-reads the policy file and swaps it in atomically.
// On failure the previous policy stays active.
func (s *Server) ReloadPolicy(path string) error {
	pol, err := policy.Load(path)
	if err != nil {
		return err
	}
	s.policies.Replace(pol)
	return nil
}

// Close releases the audit sinks.
func (s *Server) Close() error {
	return s.recorder.Close()
}

// registerTools adds the toolgate tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toolgate_check",
		Description: "Evaluate whether a tool call is permitted by the active policy. Always call this before executing a tool.",
	}, s.handleCheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toolgate_report",
		Description: "Report the real outcome of an executed tool call for the audit trail.",
	}, s.handleReport)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toolgate_approve",
		Description: "Record a human approval for a tool, satisfying its confirmation requirement.",
	}, s.handleApprove)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toolgate_reject",
		Description: "Withdraw a previously granted approval for a tool.",
	}, s.handleReject)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toolgate_approvals",
		Description: "List the tools the current user has approved.",
	}, s.handleApprovals)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toolgate_audit",
		Description: "Query recorded audit events, most recent first.",
	}, s.handleAudit)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toolgate_scan",
		Description: "Scan content for secrets and PII and return a masked copy safe to persist or send to a model.",
	}, s.handleScan)
}
