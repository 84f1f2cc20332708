package ledger

import "testing"

func TestApproveAndCheck(t *testing.T) {
	l := New()

	if l.IsApproved("execute_command", "u1") {
		t.Fatal("fresh ledger should have no grants")
	}

	l.Approve("execute_command", "u1")
	if !l.IsApproved("execute_command", "u1") {
		t.Error("expected grant after approve")
	}
	if l.IsApproved("execute_command", "u2") {
		t.Error("grants are per-user")
	}
	if l.IsApproved("write_file", "u1") {
		t.Error("grants are per-tool")
	}
}

func TestApproveIdempotent(t *testing.T) {
	l := New()
	l.Approve("write_file", "u1")
	l.Approve("write_file", "u1")

	if got := len(l.Approved("u1")); got != 1 {
		t.Errorf("expected 1 grant, got %d", got)
	}
}

func TestRejectRemovesGrant(t *testing.T) {
	l := New()
	l.Approve("execute_command", "u1")
	l.Reject("execute_command", "u1")

	if l.IsApproved("execute_command", "u1") {
		t.Error("reject should remove the grant")
	}

	// Rejecting an absent grant is a no-op.
	l.Reject("never_granted", "u1")
	l.Reject("execute_command", "unknown_user")
}

func TestClearAll(t *testing.T) {
	l := New()
	l.Approve("execute_command", "u1")
	l.Approve("write_file", "u1")
	l.Approve("write_file", "u2")

	l.ClearAll("u1")

	if l.IsApproved("execute_command", "u1") || l.IsApproved("write_file", "u1") {
		t.Error("clear should remove every grant for the user")
	}
	if !l.IsApproved("write_file", "u2") {
		t.Error("clear must not touch other users")
	}
}

func TestApprovedSorted(t *testing.T) {
	l := New()
	l.Approve("write_file", "u1")
	l.Approve("execute_command", "u1")

	got := l.Approved("u1")
	if len(got) != 2 || got[0] != "execute_command" || got[1] != "write_file" {
		t.Errorf("unexpected approved list: %v", got)
	}
}

func TestEmptyKeysIgnored(t *testing.T) {
	l := New()
	l.Approve("", "u1")
	l.Approve("tool", "")

	if len(l.Approved("u1")) != 0 {
		t.Error("empty tool name must not create a grant")
	}
	if l.IsApproved("tool", "") {
		t.Error("empty user must not create a grant")
	}
}
