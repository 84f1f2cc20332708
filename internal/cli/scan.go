package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/avolkov/toolgate/internal/scanner"
)

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(redactCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Scan content for secrets and PII",
	Long:  "Reads the given file (or stdin) and reports detected secrets and PII.\nExit code 1 if anything was found.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

var redactCmd = &cobra.Command{
	Use:   "redact [file]",
	Short: "Print a masked copy of the content",
	Long:  "Reads the given file (or stdin) and writes it to stdout with every\ndetected secret and PII value replaced by asterisks of equal length.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRedact,
}

func readInput(args []string) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}

func runScan(cmd *cobra.Command, args []string) error {
	content, err := readInput(args)
	if err != nil {
		return err
	}

	result := scanner.New().Scan(content)
	if !result.HasFindings() {
		fmt.Println("Clean: no secrets or PII detected.")
		return nil
	}

	for _, item := range result.Secrets {
		fmt.Printf("secret  %-24s %-8s bytes %d-%d\n", item.Type, item.Severity, item.Start, item.End)
	}
	for _, item := range result.PII {
		fmt.Printf("pii     %-24s %-8s bytes %d-%d\n", item.Type, item.Severity, item.Start, item.End)
	}
	fmt.Printf("\n%d secret(s), %d PII item(s) found\n", len(result.Secrets), len(result.PII))
	os.Exit(1)
	return nil
}

func runRedact(cmd *cobra.Command, args []string) error {
	content, err := readInput(args)
	if err != nil {
		return err
	}
	fmt.Print(scanner.New().Redact(content, '*'))
	return nil
}
