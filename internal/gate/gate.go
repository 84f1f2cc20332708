// Package gate decides whether a requested tool invocation is permitted.
// Every check can only deny; an allow is reached only by surviving all of
// them in order. Denials are ordinary verdicts, never errors.
package gate

import (
	"fmt"
	"os"
	"strings"

	"github.com/avolkov/toolgate/internal/ledger"
	"github.com/avolkov/toolgate/internal/policy"
	"github.com/avolkov/toolgate/internal/registry"
)

// Context identifies who is asking and under which project.
type Context struct {
	UserID           string
	ProjectID        string
	SkipConfirmation bool
}

// Verdict is the outcome of one evaluation.
type Verdict struct {
	Allowed     bool     `json:"allowed"`
	Reason      string   `json:"reason,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Engine evaluates tool calls against the registry, the active policy, and
// the confirmation ledger. All collaborators are injected; the engine holds
// no hidden process-wide state.
type Engine struct {
	registry *registry.Registry
	policy   *policy.Store
	ledger   *ledger.Ledger
}

// New creates an Engine. All three collaborators are required.
func New(reg *registry.Registry, pol *policy.Store, led *ledger.Ledger) *Engine {
	return &Engine{registry: reg, policy: pol, ledger: led}
}

// Parameter keys treated as paths, in preference order.
var pathKeys = []string{"path", "filePath", "original", "patched"}

// Evaluate runs the checks in fixed order, first failure wins:
//
//  1. Existence: unknown tools are always denied.
//  2. Risk: network strict mode, command deny/allow lists.
//  3. Scope: path deny/allow lists, file size ceilings.
//  4. Confirmation: ledger lookup unless skipped by the caller.
//
// Cheap deterministic checks run before any filesystem I/O, and
// security-critical denials short-circuit before path logic.
func (e *Engine) Evaluate(toolName string, params map[string]any, ctx Context) Verdict {
	meta, ok := e.registry.Lookup(toolName)
	if !ok {
		return Verdict{
			Allowed:     false,
			Reason:      fmt.Sprintf("unknown tool: %q", toolName),
			Suggestions: e.registry.Names(),
		}
	}

	cfg := e.policy.Current()

	if v := e.checkRisk(meta, params, cfg); !v.Allowed {
		return v
	}
	if v := e.checkScope(meta, params, cfg); !v.Allowed {
		return v
	}
	if v := e.checkConfirmation(meta, ctx, cfg); !v.Allowed {
		return v
	}

	return Verdict{Allowed: true}
}

// checkRisk enforces the rules keyed on the tool's risk class.
func (e *Engine) checkRisk(meta registry.ToolMetadata, params map[string]any, cfg *policy.Config) Verdict {
	switch meta.RiskClass {
	case registry.RiskNetwork:
		if cfg.DenyNetwork {
			return Verdict{
				Allowed: false,
				Reason:  "network access denied in strict mode",
			}
		}

	case registry.RiskExec:
		command, _ := params["command"].(string)

		// Denylist first: substring containment, case-insensitive.
		// Intentionally broad: "rm -rf /" is caught by a bare "rm" entry.
		if pattern, hit := matchDenySubstring(command, cfg.CommandDenylist); hit {
			return Verdict{
				Allowed: false,
				Reason:  fmt.Sprintf("command in deny list: %q", pattern),
			}
		}
		if meta.Scope != nil {
			if pattern, hit := matchDenySubstring(command, meta.Scope.CommandDenylist); hit {
				return Verdict{
					Allowed: false,
					Reason:  fmt.Sprintf("command in tool deny list: %q", pattern),
				}
			}
		}

		// Allowlists match only the basename of the first token. Narrower
		// than the denylist check; the rest of the line is not inspected.
		base := commandBaseName(command)
		if len(cfg.CommandAllowlist) > 0 && !containsFold(cfg.CommandAllowlist, base) {
			return Verdict{
				Allowed:     false,
				Reason:      fmt.Sprintf("command %q not in allowed list", base),
				Suggestions: append([]string(nil), cfg.CommandAllowlist...),
			}
		}
		if meta.Scope != nil && len(meta.Scope.CommandAllowlist) > 0 && !containsFold(meta.Scope.CommandAllowlist, base) {
			return Verdict{
				Allowed:     false,
				Reason:      fmt.Sprintf("command %q not in tool allowed list", base),
				Suggestions: append([]string(nil), meta.Scope.CommandAllowlist...),
			}
		}
	}

	return Verdict{Allowed: true}
}

// checkScope enforces path rules and size ceilings on the first
// path-looking parameter. Paths are matched un-canonicalized; creative
// relative paths can evade substring rules. Known limitation, preserved.
func (e *Engine) checkScope(meta registry.ToolMetadata, params map[string]any, cfg *policy.Config) Verdict {
	path, ok := pathParam(params)
	if !ok {
		return Verdict{Allowed: true}
	}

	if pattern, hit := matchDenySubstring(path, cfg.PathDenylist); hit {
		return Verdict{
			Allowed: false,
			Reason:  fmt.Sprintf("path matches deny list entry %q", pattern),
		}
	}
	if meta.Scope != nil {
		if pattern, hit := matchDenySubstring(path, meta.Scope.PathDenylist); hit {
			return Verdict{
				Allowed: false,
				Reason:  fmt.Sprintf("path matches tool deny list entry %q", pattern),
			}
		}
	}

	if len(cfg.PathAllowlist) > 0 && !hasAnyPrefix(path, cfg.PathAllowlist) {
		return Verdict{
			Allowed:     false,
			Reason:      fmt.Sprintf("path %q outside allowed scope", path),
			Suggestions: append([]string(nil), cfg.PathAllowlist...),
		}
	}
	if meta.Scope != nil && len(meta.Scope.PathAllowlist) > 0 && !hasAnyPrefix(path, meta.Scope.PathAllowlist) {
		return Verdict{
			Allowed:     false,
			Reason:      fmt.Sprintf("path %q outside tool allowed scope", path),
			Suggestions: append([]string(nil), meta.Scope.PathAllowlist...),
		}
	}

	// Size ceilings need a stat. A stat failure means the check is
	// inconclusive and must not deny on its own.
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		if cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize {
			return Verdict{
				Allowed: false,
				Reason:  fmt.Sprintf("file size %d exceeds size limit %d", info.Size(), cfg.MaxFileSize),
			}
		}
		if meta.Scope != nil && meta.Scope.MaxFileSize > 0 && info.Size() > meta.Scope.MaxFileSize {
			return Verdict{
				Allowed: false,
				Reason:  fmt.Sprintf("file size %d exceeds tool size limit %d", info.Size(), meta.Scope.MaxFileSize),
			}
		}
	}

	return Verdict{Allowed: true}
}

// checkConfirmation consults the ledger for tools that require approval.
func (e *Engine) checkConfirmation(meta registry.ToolMetadata, ctx Context, cfg *policy.Config) Verdict {
	mode := meta.Confirmation
	if mode == "" {
		mode = cfg.DefaultConfirmation
	}
	if mode == registry.ConfirmNone || mode == "" {
		return Verdict{Allowed: true}
	}
	if ctx.SkipConfirmation {
		return Verdict{Allowed: true}
	}
	if e.ledger.IsApproved(meta.Name, ctx.UserID) {
		return Verdict{Allowed: true}
	}

	return Verdict{
		Allowed: false,
		Reason:  "user confirmation required",
		Suggestions: []string{
			fmt.Sprintf("confirmation mode is %q; approve with: toolgate approve %s --user %s", mode, meta.Name, ctx.UserID),
		},
	}
}

// pathParam returns the first path-like parameter value, if any.
func pathParam(params map[string]any) (string, bool) {
	for _, key := range pathKeys {
		if v, ok := params[key].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// matchDenySubstring reports the first denylist pattern contained in value.
func matchDenySubstring(value string, patterns []string) (string, bool) {
	lower := strings.ToLower(value)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}

// commandBaseName returns the lower-cased basename of the first
// whitespace-delimited token, with trailing shell separators stripped:
// "/usr/bin/npm test" -> "npm", "npm; cargo build" -> "npm".
func commandBaseName(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	name := strings.TrimRight(fields[0], ";&|")
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.ToLower(name)
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
