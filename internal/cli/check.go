package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/avolkov/toolgate/internal/audit"
	"github.com/avolkov/toolgate/internal/gate"
)

var (
	checkYes    bool
	checkFormat string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkYes, "yes", false, "Skip confirmation requirements (explicit human consent)")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check <tool> [key=value ...]",
	Short: "Evaluate a tool call against the active policy",
	Long: "Runs a tool call through the decision pipeline without executing it.\n" +
		"Parameters are given as key=value pairs.\n\n" +
		"Exit code 0 if allowed, 1 if denied.\n" +
		"The decision is recorded in the audit trail either way.",
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	tool := args[0]
	params, err := parseParams(args[1:])
	if err != nil {
		return err
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	start := time.Now()
	verdict := engine.Evaluate(tool, params, gate.Context{
		UserID:           flagUser,
		ProjectID:        flagProject,
		SkipConfirmation: checkYes,
	})

	recorder, err := newRecorder()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: audit unavailable: %v\n", err)
	} else {
		result := audit.ResultAllowed
		if !verdict.Allowed {
			result = audit.ResultDenied
		}
		paramsJSON, _ := json.Marshal(params)
		recorder.Record("decision", audit.Event{
			Tool:       tool,
			Action:     "evaluate",
			Params:     string(paramsJSON),
			Result:     result,
			Reason:     verdict.Reason,
			UserID:     flagUser,
			ProjectID:  flagProject,
			DurationMs: time.Since(start).Milliseconds(),
		})
		recorder.Close()
	}

	if checkFormat == "json" {
		out, err := json.MarshalIndent(verdict, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		if verdict.Allowed {
			fmt.Printf("ALLOWED: %s\n", tool)
		} else {
			fmt.Printf("DENIED: %s\n", verdict.Reason)
			for _, s := range verdict.Suggestions {
				fmt.Printf("  hint: %s\n", s)
			}
		}
	}

	if !verdict.Allowed {
		os.Exit(1)
	}
	return nil
}

func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}
