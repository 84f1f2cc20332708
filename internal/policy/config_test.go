package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/avolkov/toolgate/internal/registry"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.DefaultConfirmation != registry.ConfirmOnce {
		t.Errorf("expected default confirmation once, got %s", cfg.DefaultConfirmation)
	}
	if len(cfg.CommandDenylist) == 0 {
		t.Error("defaults should carry a command denylist")
	}
}

func TestLoadMalformedYAMLFailsClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("deny_network: [not a bool"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("malformed policy must refuse to load")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := "deny_network: true\ncommand_allowlist:\n  - echo\n  - go\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.DenyNetwork {
		t.Error("deny_network should be overridden to true")
	}
	if len(cfg.CommandAllowlist) != 2 {
		t.Errorf("expected 2 allowlisted commands, got %d", len(cfg.CommandAllowlist))
	}
	// Unspecified fields keep defaults.
	if len(cfg.PathDenylist) == 0 {
		t.Error("path denylist should retain default entries")
	}
}

func TestDefaultConfigYAMLParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(DefaultConfigYAML()), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("generated starter file must parse: %v", err)
	}
	if cfg.MaxFileSize != 10<<20 {
		t.Errorf("expected 10MiB max file size, got %d", cfg.MaxFileSize)
	}
}

func TestStoreApplyPartialUpdate(t *testing.T) {
	s := NewStore(DefaultConfig())

	deny := true
	allow := []string{"echo"}
	s.Apply(Update{DenyNetwork: &deny, CommandAllowlist: &allow})

	cfg := s.Current()
	if !cfg.DenyNetwork {
		t.Error("deny_network should be updated")
	}
	if len(cfg.CommandAllowlist) != 1 || cfg.CommandAllowlist[0] != "echo" {
		t.Errorf("unexpected allowlist: %v", cfg.CommandAllowlist)
	}
	if cfg.DefaultConfirmation != registry.ConfirmOnce {
		t.Error("unspecified fields must retain previous values")
	}
}

func TestStoreSnapshotsDoNotAlias(t *testing.T) {
	s := NewStore(DefaultConfig())

	snap := s.Current()
	snap.PathDenylist = append(snap.PathDenylist, "mutated")
	snap.DenyNetwork = true

	cfg := s.Current()
	if cfg.DenyNetwork {
		t.Error("mutating a snapshot must not affect the store")
	}
	for _, p := range cfg.PathDenylist {
		if p == "mutated" {
			t.Error("mutating a snapshot slice must not affect the store")
		}
	}
}

func TestStoreReplaceNilKeepsOldPolicy(t *testing.T) {
	s := NewStore(DefaultConfig())
	before := s.Current()

	s.Replace(nil)

	after := s.Current()
	if after.DefaultConfirmation != before.DefaultConfirmation {
		t.Error("replace(nil) must keep the previous policy")
	}
}
