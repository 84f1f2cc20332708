package registry

import (
	"sort"
	"sync"
)

// RiskClass is the coarse impact category of a tool.
type RiskClass string

const (
	RiskRead    RiskClass = "read"
	RiskWrite   RiskClass = "write"
	RiskExec    RiskClass = "exec"
	RiskNetwork RiskClass = "network"
)

// ConfirmationMode governs whether a tool call needs human approval.
type ConfirmationMode string

const (
	ConfirmNone   ConfirmationMode = "none"
	ConfirmOnce   ConfirmationMode = "once"
	ConfirmAlways ConfirmationMode = "always"
)

// ParamSpec describes one declared tool parameter.
// The gate does not validate parameter shapes itself; Sensitive marks
// values that must pass through the scanner before leaving the process.
type ParamSpec struct {
	Type      string `yaml:"type" json:"type"`
	Required  bool   `yaml:"required" json:"required"`
	Sensitive bool   `yaml:"sensitive,omitempty" json:"sensitive,omitempty"`
}

// Scope narrows global policy for a single tool. Scope rules are checked
// in addition to the global rules, never instead of them.
type Scope struct {
	PathAllowlist    []string `yaml:"path_allowlist,omitempty" json:"path_allowlist,omitempty"`
	PathDenylist     []string `yaml:"path_denylist,omitempty" json:"path_denylist,omitempty"`
	CommandAllowlist []string `yaml:"command_allowlist,omitempty" json:"command_allowlist,omitempty"`
	CommandDenylist  []string `yaml:"command_denylist,omitempty" json:"command_denylist,omitempty"`
	MaxFileSize      int64    `yaml:"max_file_size,omitempty" json:"max_file_size,omitempty"`
	MaxOutputSize    int64    `yaml:"max_output_size,omitempty" json:"max_output_size,omitempty"`
}

// ToolMetadata is the static declaration of one callable action.
type ToolMetadata struct {
	Name         string               `yaml:"name" json:"name"`
	RiskClass    RiskClass            `yaml:"risk_class" json:"risk_class"`
	Params       map[string]ParamSpec `yaml:"params,omitempty" json:"params,omitempty"`
	Scope        *Scope               `yaml:"scope,omitempty" json:"scope,omitempty"`
	Confirmation ConfirmationMode     `yaml:"confirmation,omitempty" json:"confirmation,omitempty"`
	Description  string               `yaml:"description,omitempty" json:"description,omitempty"`
}

// Registry maps tool names to their declared metadata.
// Tools the registry does not know are always denied by the gate.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ToolMetadata
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{tools: make(map[string]ToolMetadata)}
}

// Register inserts or overwrites a tool entry. Empty names are ignored.
func (r *Registry) Register(meta ToolMetadata) {
	if meta.Name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[meta.Name] = meta
}

// Unregister removes a tool. Subsequent lookups report it as unknown.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Lookup returns the metadata for a tool and whether it is registered.
func (r *Registry) Lookup(name string) (ToolMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.tools[name]
	return meta, ok
}

// All returns a snapshot copy of the registered tools. Mutating the
// returned map does not affect the registry.
func (r *Registry) All() map[string]ToolMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[string]ToolMetadata, len(r.tools))
	for name, meta := range r.tools {
		snapshot[name] = meta
	}
	return snapshot
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
