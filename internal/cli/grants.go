package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/avolkov/toolgate/internal/ledger"
)

// grantsFile holds durable per-user tool approvals so that one-shot commands
// share confirmation state across processes. The long-running server keeps
// its own session-scoped ledger and does not read this file.
type grantsFile struct {
	Users map[string][]string `yaml:"users"`
}

func grantsPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "approvals.yaml"), nil
}

func loadGrants() (*grantsFile, error) {
	g := &grantsFile{Users: make(map[string][]string)}

	path, err := grantsPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return g, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read approvals file: %w", err)
	}
	if err := yaml.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("parse approvals file: %w", err)
	}
	if g.Users == nil {
		g.Users = make(map[string][]string)
	}
	return g, nil
}

func saveGrants(g *grantsFile) error {
	path, err := grantsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode approvals: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func (g *grantsFile) approve(tool, user string) {
	for _, t := range g.Users[user] {
		if t == tool {
			return
		}
	}
	g.Users[user] = append(g.Users[user], tool)
	sort.Strings(g.Users[user])
}

func (g *grantsFile) reject(tool, user string) {
	tools := g.Users[user]
	kept := tools[:0]
	for _, t := range tools {
		if t != tool {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(g.Users, user)
		return
	}
	g.Users[user] = kept
}

func (g *grantsFile) clear(user string) {
	delete(g.Users, user)
}

// seedLedger loads durable grants into a fresh in-memory ledger.
func seedLedger(led *ledger.Ledger) error {
	g, err := loadGrants()
	if err != nil {
		return err
	}
	for user, tools := range g.Users {
		for _, tool := range tools {
			led.Approve(tool, user)
		}
	}
	return nil
}
