package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/avolkov/toolgate/internal/audit"
)

var (
	auditTool   string
	auditResult string
	auditSince  time.Duration
	auditLimit  int
	auditFormat string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.Flags().StringVar(&auditTool, "tool", "", "Filter by tool name")
	auditCmd.Flags().StringVar(&auditResult, "result", "", "Filter by result (allowed|denied|approved|rejected)")
	auditCmd.Flags().DurationVar(&auditSince, "since", 0, "Only events newer than this (e.g. 1h, 24h)")
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 50, "Maximum events to show")
	auditCmd.Flags().StringVarP(&auditFormat, "format", "f", "text", "Output format (text|json)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the audit trail",
	Long:  "Lists recorded decisions, executions, and confirmations, most recent\nfirst. Filters narrow by tool, result, and time window.",
	RunE:  runAudit,
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify <path>",
	Short: "Verify hash chain integrity of a JSONL audit log",
	Long:  "Walks the log and validates that every entry's prev_hash matches the\nSHA-256 of the previous line. Exits 0 if intact, 1 if tampered.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditVerify,
}

func runAudit(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer store.Close()

	filter := audit.Filter{
		Tool:   auditTool,
		UserID: "",
		Result: audit.Result(auditResult),
		Limit:  auditLimit,
	}
	if auditSince > 0 {
		filter.Since = time.Now().Add(-auditSince)
	}

	events, err := store.Query(filter)
	if err != nil {
		return err
	}

	if auditFormat == "json" {
		out, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if len(events) == 0 {
		fmt.Println("No matching events.")
		return nil
	}
	for _, e := range events {
		fmt.Println(formatEvent(e))
	}
	return nil
}

// formatEvent renders one timeline line:
//
//	2026-08-23T10:15:02.000Z  DENIED   read_file     user=local  path matches deny list entry ".env"
func formatEvent(e audit.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-8s %-16s", e.Timestamp.UTC().Format(audit.TimestampFormat), strings.ToUpper(string(e.Result)), e.Tool)
	if e.UserID != "" {
		fmt.Fprintf(&b, " user=%s", e.UserID)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, "  %s", e.Reason)
	} else if e.Action != "" && e.Action != "evaluate" {
		fmt.Fprintf(&b, "  %s", e.Action)
	}
	return b.String()
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	count, err := audit.VerifyFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK: %d entries verified\n", count)
	return nil
}
