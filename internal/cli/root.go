package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/avolkov/toolgate/internal/audit"
	"github.com/avolkov/toolgate/internal/gate"
	"github.com/avolkov/toolgate/internal/ledger"
	"github.com/avolkov/toolgate/internal/policy"
	"github.com/avolkov/toolgate/internal/registry"
)

var (
	flagPolicy  string
	flagDB      string
	flagLogDir  string
	flagUser    string
	flagProject string
)

var rootCmd = &cobra.Command{
	Use:   "toolgate",
	Short: "Policy gate for AI assistant tool calls",
	Long:  "Mediates tool invocations for a local AI developer assistant.\nEvery call is checked against a policy before it runs; decisions are\nrecorded to a tamper-evident audit trail.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPolicy, "policy", "", "Path to policy YAML (default ~/.toolgate/policy.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Path to audit database (default ~/.toolgate/audit.db)")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "Directory for hash-chained JSONL audit logs (default ~/.toolgate/logs)")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "local", "User identity for confirmations and audit records")
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", "", "Project identifier for audit records")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".toolgate"), nil
}

func dbPath() (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "audit.db"), nil
}

func logDir() (string, error) {
	if flagLogDir != "" {
		return flagLogDir, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

func openStore() (*audit.Store, error) {
	path, err := dbPath()
	if err != nil {
		return nil, err
	}
	return audit.OpenStore(path)
}

// newRecorder builds the best-effort dual-sink recorder used by one-shot
// commands. Callers must Close it.
func newRecorder() (*audit.Recorder, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	dir, err := logDir()
	if err != nil {
		store.Close()
		return nil, err
	}
	return audit.NewRecorder(store, audit.NewFileLog(dir), os.Stderr), nil
}

// newEngine assembles a decision engine for a one-shot command: the built-in
// tool catalog, the policy file (fail closed on parse errors), and a ledger
// seeded from the durable grants file.
func newEngine() (*gate.Engine, error) {
	cfg, err := policy.Load(flagPolicy)
	if err != nil {
		return nil, err
	}

	led := ledger.New()
	if err := seedLedger(led); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot read approvals: %v\n", err)
	}

	return gate.New(registry.NewDefault(), policy.NewStore(cfg), led), nil
}
