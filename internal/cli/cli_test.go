package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/avolkov/toolgate/internal/audit"
	"github.com/avolkov/toolgate/internal/ledger"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"path=/repo/main.go", "count=3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["path"] != "/repo/main.go" || params["count"] != "3" {
		t.Errorf("unexpected params: %v", params)
	}

	if _, err := parseParams([]string{"noequals"}); err == nil {
		t.Error("bare token must be rejected")
	}
	if _, err := parseParams([]string{"=value"}); err == nil {
		t.Error("empty key must be rejected")
	}
	if params, _ := parseParams(nil); params != nil {
		t.Error("no args should yield nil params")
	}
}

func TestGrantsRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	g, err := loadGrants()
	if err != nil {
		t.Fatalf("load empty grants: %v", err)
	}
	g.approve("execute_command", "u1")
	g.approve("write_file", "u1")
	g.approve("execute_command", "u1") // idempotent
	if err := saveGrants(g); err != nil {
		t.Fatalf("save grants: %v", err)
	}

	g2, err := loadGrants()
	if err != nil {
		t.Fatalf("reload grants: %v", err)
	}
	if len(g2.Users["u1"]) != 2 {
		t.Fatalf("expected 2 grants, got %v", g2.Users["u1"])
	}

	led := ledger.New()
	if err := seedLedger(led); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
	if !led.IsApproved("execute_command", "u1") {
		t.Error("seeded ledger must carry the grant")
	}
	if led.IsApproved("execute_command", "u2") {
		t.Error("grants are per user")
	}

	g2.reject("execute_command", "u1")
	if len(g2.Users["u1"]) != 1 || g2.Users["u1"][0] != "write_file" {
		t.Errorf("reject should remove one grant, got %v", g2.Users["u1"])
	}
	g2.clear("u1")
	if _, ok := g2.Users["u1"]; ok {
		t.Error("clear should drop the user entry")
	}
}

func TestFormatEvent(t *testing.T) {
	ts := time.Date(2026, 8, 23, 10, 15, 2, 0, time.UTC)
	line := formatEvent(audit.Event{
		Timestamp: ts,
		Tool:      "read_file",
		Result:    audit.ResultDenied,
		Reason:    `path matches deny list entry ".env"`,
		UserID:    "local",
	})

	if !strings.HasPrefix(line, "2026-08-23T10:15:02.000Z") {
		t.Errorf("line should start with the timestamp, got %q", line)
	}
	if !strings.Contains(line, "DENIED") || !strings.Contains(line, "read_file") {
		t.Errorf("line should carry result and tool, got %q", line)
	}
	if !strings.Contains(line, "user=local") || !strings.Contains(line, ".env") {
		t.Errorf("line should carry user and reason, got %q", line)
	}
}
