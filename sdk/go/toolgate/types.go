package toolgate

import (
	"fmt"

	"github.com/avolkov/toolgate/internal/gate"
	"github.com/avolkov/toolgate/internal/registry"
)

// Call describes a tool invocation the agent intends to make.
type Call struct {
	Tool   string         // registered tool name: "read_file", "execute_command"
	Params map[string]any // parameters the tool will be called with
}

// Verdict is a policy evaluation outcome.
type Verdict struct {
	Allowed     bool
	Reason      string
	Suggestions []string
}

// ToolSpec declares a custom tool for registration alongside the built-in
// catalog. Zero-value Risk defaults to "exec", the most restrictive class.
type ToolSpec struct {
	Name         string
	Risk         string // "read", "write", "exec", "network"
	Confirmation string // "none", "once", "always"; empty uses the policy default
	Description  string
}

// BlockedError is returned when policy denies a call.
type BlockedError struct {
	Call        Call
	Reason      string
	Suggestions []string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("toolgate blocked %s: %s", e.Call.Tool, e.Reason)
}

func toVerdict(v gate.Verdict) Verdict {
	return Verdict{
		Allowed:     v.Allowed,
		Reason:      v.Reason,
		Suggestions: v.Suggestions,
	}
}

func toMetadata(spec ToolSpec) registry.ToolMetadata {
	risk := registry.RiskClass(spec.Risk)
	if spec.Risk == "" {
		risk = registry.RiskExec
	}
	return registry.ToolMetadata{
		Name:         spec.Name,
		RiskClass:    risk,
		Confirmation: registry.ConfirmationMode(spec.Confirmation),
		Description:  spec.Description,
	}
}
