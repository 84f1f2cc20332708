package policy

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/avolkov/toolgate/internal/registry"
)

// Config is the live rule set the gate enforces. Lists are matched the way
// the gate documents: denylists by substring containment, allowlists by
// prefix (paths) or first-token basename (commands). Denylists always win.
type Config struct {
	DefaultConfirmation registry.ConfirmationMode `yaml:"default_confirmation"`
	DenyNetwork         bool                      `yaml:"deny_network"`
	MaxFileSize         int64                     `yaml:"max_file_size"`
	MaxOutputSize       int64                     `yaml:"max_output_size"`
	PathAllowlist       []string                  `yaml:"path_allowlist"`
	PathDenylist        []string                  `yaml:"path_denylist"`
	CommandAllowlist    []string                  `yaml:"command_allowlist"`
	CommandDenylist     []string                  `yaml:"command_denylist"`
}

// Update is a partial configuration change. Nil fields keep their current
// values; non-nil fields overwrite, including with empty lists.
type Update struct {
	DefaultConfirmation *registry.ConfirmationMode
	DenyNetwork         *bool
	MaxFileSize         *int64
	MaxOutputSize       *int64
	PathAllowlist       *[]string
	PathDenylist        *[]string
	CommandAllowlist    *[]string
	CommandDenylist     *[]string
}

// DefaultConfig returns the built-in rule set: conservative denylists for
// credential files and destructive commands, no allowlist restrictions.
func DefaultConfig() *Config {
	return &Config{
		DefaultConfirmation: registry.ConfirmOnce,
		DenyNetwork:         false,
		MaxFileSize:         10 << 20,
		MaxOutputSize:       1 << 20,
		PathDenylist: []string{
			".env",
			".ssh/id_rsa",
			".ssh/id_ed25519",
			".aws/credentials",
			"credentials.json",
			".netrc",
			".kdbx",
		},
		CommandDenylist: []string{
			"rm -rf /",
			"rm -rf ~",
			"dd if=/dev/zero",
			"mkfs.",
			"> /dev/sda",
			"chmod -R 777 /",
			"curl | sh",
			"curl|sh",
			"wget | sh",
			"wget|sh",
			"sudo su",
			"sudo -i",
			"git push --force",
			"git push -f",
		},
	}
}

// Load reads a policy file from the given path. Empty path falls back to
// ~/.toolgate/policy.yaml. A missing file returns defaults, a defined and
// restrictive policy. Unreadable or malformed YAML is a fatal error so the
// gate never runs with an undefined rule set.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = filepath.Join(home, ".toolgate", "policy.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("policy: read config: %w", err)
	}

	// Start with defaults; YAML overwrites only specified fields.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("policy: parse config: %w", err)
	}

	return cfg, nil
}

// clone returns a deep copy so snapshots never alias live state.
func (c *Config) clone() *Config {
	out := *c
	out.PathAllowlist = append([]string(nil), c.PathAllowlist...)
	out.PathDenylist = append([]string(nil), c.PathDenylist...)
	out.CommandAllowlist = append([]string(nil), c.CommandAllowlist...)
	out.CommandDenylist = append([]string(nil), c.CommandDenylist...)
	return &out
}

// DefaultConfigYAML returns a commented starter file for `toolgate init-policy`.
func DefaultConfigYAML() string {
	return `# toolgate policy configuration
# Generated by: toolgate init-policy
#
# Denylist checks always take precedence over allowlist checks.
# An empty allowlist means "no restriction beyond the denylist".

# Fallback confirmation mode for tools that do not declare one:
#   none | once | always
default_confirmation: once

# When true, every network-class tool call is denied unconditionally.
deny_network: false

# Byte ceilings. 0 disables the check.
max_file_size: 10485760
max_output_size: 1048576

# Path rules. Denylist entries match by substring containment;
# allowlist entries match by prefix.
path_allowlist: []
path_denylist:
  - ".env"
  - ".ssh/id_rsa"
  - ".ssh/id_ed25519"
  - ".aws/credentials"
  - "credentials.json"
  - ".netrc"
  - ".kdbx"

# Command rules. Denylist entries match anywhere in the command line;
# allowlist entries match the basename of the first token.
command_allowlist: []
command_denylist:
  - "rm -rf /"
  - "rm -rf ~"
  - "dd if=/dev/zero"
  - "mkfs."
  - "> /dev/sda"
  - "chmod -R 777 /"
  - "curl | sh"
  - "curl|sh"
  - "wget | sh"
  - "wget|sh"
  - "sudo su"
  - "sudo -i"
  - "git push --force"
  - "git push -f"
`
}
