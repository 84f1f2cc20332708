package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avolkov/toolgate/internal/server"
)

var serveWorkspace string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveWorkspace, "workspace", "", "Workspace directory recorded on the session (default: current directory)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the policy gate as an MCP server on stdio",
	Long:  "Exposes the gate to MCP-speaking agent hosts over stdin/stdout.\nThe host calls toolgate_check before executing a tool and\ntoolgate_report afterwards. Policy edits are hot-reloaded.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	workspace := serveWorkspace
	if workspace == "" {
		if wd, err := os.Getwd(); err == nil {
			workspace = wd
		}
	}

	policyPath := flagPolicy
	if policyPath == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		policyPath = filepath.Join(dir, "policy.yaml")
	}

	db, err := dbPath()
	if err != nil {
		return err
	}
	logs, err := logDir()
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		PolicyPath:  policyPath,
		AuditDBPath: db,
		AuditLogDir: logs,
		UserID:      flagUser,
		ProjectID:   flagProject,
		Workspace:   workspace,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloader, err := server.NewReloader(srv, policyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: hot-reload disabled: %v\n", err)
	} else {
		go reloader.Run(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down policy gate...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "toolgate MCP server running on stdio")
	fmt.Fprintf(os.Stderr, "Policy: %s (hot-reload enabled)\n", policyPath)

	return srv.Run(ctx)
}
