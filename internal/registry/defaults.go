package registry

// Default size ceilings for the built-in tools.
const (
	defaultMaxFile   = 10 << 20 // 10 MiB
	defaultMaxOutput = 1 << 20  // 1 MiB
)

// NewDefault creates a Registry pre-populated with the standard assistant
// tool set. Callers register project-specific tools on top.
func NewDefault() *Registry {
	r := New()
	for _, meta := range builtinTools {
		r.Register(meta)
	}
	return r
}

// builtinTools is the catalog of tools the assistant ships with.
// Risk classes and confirmation modes here are the enforcement source of
// truth; the concrete implementations live with the task loop.
var builtinTools = []ToolMetadata{
	{
		Name:        "read_file",
		RiskClass:   RiskRead,
		Description: "Read a file from the workspace",
		Params: map[string]ParamSpec{
			"path": {Type: "string", Required: true},
		},
		Scope:        &Scope{MaxFileSize: defaultMaxFile},
		Confirmation: ConfirmNone,
	},
	{
		Name:        "list_directory",
		RiskClass:   RiskRead,
		Description: "List directory contents",
		Params: map[string]ParamSpec{
			"path": {Type: "string", Required: true},
		},
		Confirmation: ConfirmNone,
	},
	{
		Name:        "search_content",
		RiskClass:   RiskRead,
		Description: "Search file contents in the workspace",
		Params: map[string]ParamSpec{
			"pattern": {Type: "string", Required: true},
			"path":    {Type: "string", Required: false},
		},
		Confirmation: ConfirmNone,
	},
	{
		Name:        "write_file",
		RiskClass:   RiskWrite,
		Description: "Create or overwrite a file",
		Params: map[string]ParamSpec{
			"path":    {Type: "string", Required: true},
			"content": {Type: "string", Required: true, Sensitive: true},
		},
		Confirmation: ConfirmOnce,
	},
	{
		Name:        "edit_file",
		RiskClass:   RiskWrite,
		Description: "Apply a targeted edit to an existing file",
		Params: map[string]ParamSpec{
			"path":    {Type: "string", Required: true},
			"search":  {Type: "string", Required: true},
			"replace": {Type: "string", Required: true},
		},
		Scope:        &Scope{MaxFileSize: defaultMaxFile},
		Confirmation: ConfirmOnce,
	},
	{
		Name:        "apply_patch",
		RiskClass:   RiskWrite,
		Description: "Apply a unified diff between two file states",
		Params: map[string]ParamSpec{
			"original": {Type: "string", Required: true},
			"patched":  {Type: "string", Required: true},
			"diff":     {Type: "string", Required: true},
		},
		Confirmation: ConfirmOnce,
	},
	{
		Name:        "execute_command",
		RiskClass:   RiskExec,
		Description: "Run a shell command in the workspace",
		Params: map[string]ParamSpec{
			"command": {Type: "string", Required: true},
			"timeout": {Type: "int", Required: false},
		},
		Scope:        &Scope{MaxOutputSize: defaultMaxOutput},
		Confirmation: ConfirmAlways,
	},
	{
		Name:        "git_status",
		RiskClass:   RiskRead,
		Description: "Show repository status",
		Params: map[string]ParamSpec{
			"path": {Type: "string", Required: false},
		},
		Confirmation: ConfirmNone,
	},
	{
		Name:        "git_commit",
		RiskClass:   RiskWrite,
		Description: "Commit staged changes",
		Params: map[string]ParamSpec{
			"message": {Type: "string", Required: true},
		},
		Confirmation: ConfirmOnce,
	},
	{
		Name:        "http_fetch",
		RiskClass:   RiskNetwork,
		Description: "Fetch a URL",
		Params: map[string]ParamSpec{
			"url": {Type: "string", Required: true},
		},
		Confirmation: ConfirmAlways,
	},
}
