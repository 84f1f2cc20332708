package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avolkov/toolgate/internal/registry"
)

func init() {
	rootCmd.AddCommand(toolsCmd)
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the built-in tool catalog",
	Args:  cobra.NoArgs,
	Run:   runTools,
}

func runTools(cmd *cobra.Command, args []string) {
	reg := registry.NewDefault()
	all := reg.All()

	fmt.Printf("%-18s %-8s %-8s %s\n", "NAME", "RISK", "CONFIRM", "DESCRIPTION")
	for _, name := range reg.Names() {
		meta := all[name]
		confirm := string(meta.Confirmation)
		if confirm == "" {
			confirm = "default"
		}
		fmt.Printf("%-18s %-8s %-8s %s\n", meta.Name, meta.RiskClass, confirm, meta.Description)
	}
}
