package toolgate

import (
	"fmt"
	"io"

	"github.com/avolkov/toolgate/internal/audit"
	"github.com/avolkov/toolgate/internal/gate"
	"github.com/avolkov/toolgate/internal/ledger"
	"github.com/avolkov/toolgate/internal/policy"
	"github.com/avolkov/toolgate/internal/registry"
)

// Client holds the decision pipeline for in-process enforcement.
// Thread-safe for concurrent tool calls.
type Client struct {
	cfg      clientConfig
	engine   *gate.Engine
	registry *registry.Registry
	ledger   *ledger.Ledger
	recorder *audit.Recorder
}

// New creates a Client with the given options. Confirmation grants are
// session scoped: they live in memory and vanish when the Client does.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{user: "local"}
	for _, o := range opts {
		o(&cfg)
	}

	pol, err := policy.Load(cfg.policyPath)
	if err != nil {
		return nil, fmt.Errorf("toolgate: failed to load policy: %w", err)
	}

	var store *audit.Store
	if cfg.auditDBPath != "" {
		store, err = audit.OpenStore(cfg.auditDBPath)
		if err != nil {
			return nil, fmt.Errorf("toolgate: failed to open audit store: %w", err)
		}
	}
	var filelog *audit.FileLog
	if cfg.auditLogDir != "" {
		filelog = audit.NewFileLog(cfg.auditLogDir)
	}

	reg := registry.NewDefault()
	for _, spec := range cfg.tools {
		if spec.Name == "" {
			return nil, fmt.Errorf("toolgate: custom tool needs a name")
		}
		reg.Register(toMetadata(spec))
	}

	led := ledger.New()
	return &Client{
		cfg:      cfg,
		engine:   gate.New(reg, policy.NewStore(pol), led),
		registry: reg,
		ledger:   led,
		recorder: audit.NewRecorder(store, filelog, cfg.errw),
	}, nil
}

// Check evaluates policy for a call without executing anything.
// The decision is not recorded; use Wrap for enforced, audited calls.
func (c *Client) Check(call Call) Verdict {
	return toVerdict(c.engine.Evaluate(call.Tool, call.Params, gate.Context{
		UserID:    c.cfg.user,
		ProjectID: c.cfg.project,
	}))
}

// Approve grants the current user's confirmation for a tool.
func (c *Client) Approve(tool string) error {
	if _, ok := c.registry.Lookup(tool); !ok {
		return fmt.Errorf("toolgate: unknown tool: %q", tool)
	}
	c.ledger.Approve(tool, c.cfg.user)
	c.recorder.Record("confirmation", audit.Event{
		Tool:      tool,
		Action:    "approve",
		Result:    audit.ResultApproved,
		UserID:    c.cfg.user,
		ProjectID: c.cfg.project,
	})
	return nil
}

// Reject withdraws the current user's confirmation for a tool.
func (c *Client) Reject(tool string) {
	c.ledger.Reject(tool, c.cfg.user)
	c.recorder.Record("confirmation", audit.Event{
		Tool:      tool,
		Action:    "reject",
		Result:    audit.ResultRejected,
		UserID:    c.cfg.user,
		ProjectID: c.cfg.project,
	})
}

// Approvals lists the tools the current user has approved, sorted.
func (c *Client) Approvals() []string {
	return c.ledger.Approved(c.cfg.user)
}

// Close releases the audit sinks.
func (c *Client) Close() error {
	return c.recorder.Close()
}

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	policyPath  string
	auditDBPath string
	auditLogDir string
	user        string
	project     string
	tools       []ToolSpec
	errw        io.Writer
}

// WithPolicy sets the path to a policy YAML file.
func WithPolicy(path string) Option {
	return func(c *clientConfig) { c.policyPath = path }
}

// WithAuditDB sets the path to the SQLite audit database.
func WithAuditDB(path string) Option {
	return func(c *clientConfig) { c.auditDBPath = path }
}

// WithAuditLogDir sets the directory for hash-chained JSONL audit logs.
func WithAuditLogDir(dir string) Option {
	return func(c *clientConfig) { c.auditLogDir = dir }
}

// WithUser sets the user identity for confirmations and audit records.
func WithUser(id string) Option {
	return func(c *clientConfig) { c.user = id }
}

// WithProject sets the project identifier for audit records.
func WithProject(id string) Option {
	return func(c *clientConfig) { c.project = id }
}

// WithTool registers a custom tool alongside the built-in catalog.
func WithTool(spec ToolSpec) Option {
	return func(c *clientConfig) { c.tools = append(c.tools, spec) }
}

// WithErrorWriter directs audit sink failure diagnostics. Default: stderr.
func WithErrorWriter(w io.Writer) Option {
	return func(c *clientConfig) { c.errw = w }
}
