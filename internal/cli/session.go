package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var sessionWorkspace string

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionEndCmd)
	sessionStartCmd.Flags().StringVar(&sessionWorkspace, "workspace", "", "Workspace directory for the session (default: current directory)")
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Group audit events into work sessions",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new audit session",
	Args:  cobra.NoArgs,
	RunE:  runSessionStart,
}

var sessionEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End the current audit session",
	Args:  cobra.NoArgs,
	RunE:  runSessionEnd,
}

// sessionFile holds the active session ID so one-shot commands can find it.
func sessionFile() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session"), nil
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	workspace := sessionWorkspace
	if workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("cannot determine working directory: %w", err)
		}
		workspace = wd
	}

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer store.Close()

	id, err := store.StartSession(workspace)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	path, err := sessionFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return fmt.Errorf("record session id: %w", err)
	}

	fmt.Printf("Session %s started in %s\n", id, workspace)
	return nil
}

func runSessionEnd(cmd *cobra.Command, args []string) error {
	path, err := sessionFile()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("no active session: %w", err)
	}
	id := strings.TrimSpace(string(data))

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer store.Close()

	if err := store.EndSession(id); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	os.Remove(path)

	if s, err := store.GetSession(id); err == nil && s != nil {
		fmt.Printf("Session %s ended (%d actions)\n", id, s.ActionCount)
	} else {
		fmt.Printf("Session %s ended\n", id)
	}
	return nil
}
