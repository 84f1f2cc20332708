package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avolkov/toolgate/internal/audit"
	"github.com/avolkov/toolgate/internal/registry"
)

func init() {
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(approvalsCmd)
}

var approveCmd = &cobra.Command{
	Use:   "approve <tool>",
	Short: "Grant approval for a tool that requires confirmation",
	Long:  "Records a standing approval for the given tool under the current user.\nSubsequent checks of a confirm-once tool pass without prompting.",
	Args:  cobra.ExactArgs(1),
	RunE:  runApprove,
}

var rejectCmd = &cobra.Command{
	Use:   "reject <tool>",
	Short: "Withdraw a previously granted approval",
	Args:  cobra.ExactArgs(1),
	RunE:  runReject,
}

var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Clear all approvals for the current user",
	Args:  cobra.NoArgs,
	RunE:  runRevoke,
}

var approvalsCmd = &cobra.Command{
	Use:   "approvals",
	Short: "List tools approved for the current user",
	Args:  cobra.NoArgs,
	RunE:  runApprovals,
}

func runApprove(cmd *cobra.Command, args []string) error {
	tool := args[0]
	if _, ok := registry.NewDefault().Lookup(tool); !ok {
		return fmt.Errorf("unknown tool: %q (see 'toolgate tools')", tool)
	}

	g, err := loadGrants()
	if err != nil {
		return err
	}
	g.approve(tool, flagUser)
	if err := saveGrants(g); err != nil {
		return err
	}

	recordConfirmation(tool, "approve", audit.ResultApproved)
	fmt.Printf("Approved %q for user %s\n", tool, flagUser)
	return nil
}

func runReject(cmd *cobra.Command, args []string) error {
	tool := args[0]

	g, err := loadGrants()
	if err != nil {
		return err
	}
	g.reject(tool, flagUser)
	if err := saveGrants(g); err != nil {
		return err
	}

	recordConfirmation(tool, "reject", audit.ResultRejected)
	fmt.Printf("Rejected %q for user %s\n", tool, flagUser)
	return nil
}

func runRevoke(cmd *cobra.Command, args []string) error {
	g, err := loadGrants()
	if err != nil {
		return err
	}
	g.clear(flagUser)
	if err := saveGrants(g); err != nil {
		return err
	}

	recordConfirmation("", "revoke_all", audit.ResultRejected)
	fmt.Printf("Cleared all approvals for user %s\n", flagUser)
	return nil
}

func runApprovals(cmd *cobra.Command, args []string) error {
	g, err := loadGrants()
	if err != nil {
		return err
	}
	tools := g.Users[flagUser]
	if len(tools) == 0 {
		fmt.Printf("No approvals for user %s\n", flagUser)
		return nil
	}
	for _, tool := range tools {
		fmt.Println(tool)
	}
	return nil
}

// recordConfirmation writes a confirmation event to the audit trail.
// Best effort: a broken audit setup must not block approval management.
func recordConfirmation(tool, action string, result audit.Result) {
	recorder, err := newRecorder()
	if err != nil {
		return
	}
	defer recorder.Close()
	recorder.Record("confirmation", audit.Event{
		Tool:      tool,
		Action:    action,
		Result:    result,
		UserID:    flagUser,
		ProjectID: flagProject,
	})
}
