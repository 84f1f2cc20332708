package audit

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)

	e, err := s.Record(Event{Tool: "read_file", Action: "evaluate", Result: ResultAllowed, UserID: "u1"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if e.ID == "" {
		t.Error("record should assign an id")
	}
	if e.Timestamp.IsZero() {
		t.Error("record should assign a timestamp")
	}
}

func TestQueryFilters(t *testing.T) {
	s := newTestStore(t)

	events := []Event{
		{Tool: "read_file", Action: "evaluate", Result: ResultAllowed, UserID: "u1"},
		{Tool: "read_file", Action: "evaluate", Result: ResultDenied, Reason: "deny list", UserID: "u1"},
		{Tool: "execute_command", Action: "evaluate", Result: ResultDenied, UserID: "u2"},
	}
	for _, e := range events {
		if _, err := s.Record(e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	denied, err := s.Query(Filter{Result: ResultDenied})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(denied) != 2 {
		t.Fatalf("expected 2 denied events, got %d", len(denied))
	}
	for _, e := range denied {
		if e.Result != ResultDenied {
			t.Errorf("result=denied query returned %s", e.Result)
		}
	}

	byUser, err := s.Query(Filter{UserID: "u1", Tool: "read_file"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("expected 2 events for u1/read_file, got %d", len(byUser))
	}
}

func TestQueryMostRecentFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := s.Record(Event{
			Tool:      "read_file",
			Result:    ResultAllowed,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := s.Query(Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Error("events must be ordered most recent first")
		}
	}
}

func TestQueryOrdersSubSecondTimestamps(t *testing.T) {
	s := newTestStore(t)

	// 100ms renders shorter than 150ms under a trailing-zero-stripping
	// layout, which would sort it after under string comparison.
	base := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	s.Record(Event{Tool: "older", Result: ResultAllowed, Timestamp: base.Add(100 * time.Millisecond)})
	s.Record(Event{Tool: "newer", Result: ResultAllowed, Timestamp: base.Add(150 * time.Millisecond)})

	got, err := s.Query(Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Tool != "newer" {
		t.Errorf("most-recent-first violated: got %q first", got[0].Tool)
	}

	cut, err := s.Query(Filter{Since: base.Add(120 * time.Millisecond)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(cut) != 1 || cut[0].Tool != "newer" {
		t.Errorf("since filter must exclude the 100ms event, got %v", cut)
	}
}

func TestQueryTimeRange(t *testing.T) {
	s := newTestStore(t)

	old := time.Now().UTC().Add(-2 * time.Hour)
	recent := time.Now().UTC()
	s.Record(Event{Tool: "a", Result: ResultAllowed, Timestamp: old})
	s.Record(Event{Tool: "b", Result: ResultAllowed, Timestamp: recent})

	got, err := s.Query(Filter{Since: time.Now().UTC().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].Tool != "b" {
		t.Errorf("time filter should return only the recent event, got %v", got)
	}
}

func TestQueryLimitCapped(t *testing.T) {
	s := newTestStore(t)
	s.Record(Event{Tool: "a", Result: ResultAllowed})
	s.Record(Event{Tool: "b", Result: ResultAllowed})

	got, err := s.Query(Filter{Limit: 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected limit to apply, got %d events", len(got))
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)

	id, err := s.StartSession("/repo")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if id == "" {
		t.Fatal("expected a session id")
	}

	for i := 0; i < 3; i++ {
		if err := s.BumpSession(id); err != nil {
			t.Fatalf("bump: %v", err)
		}
	}
	if err := s.EndSession(id); err != nil {
		t.Fatalf("end session: %v", err)
	}

	sess, err := s.GetSession(id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess == nil {
		t.Fatal("session not found")
	}
	if sess.ActionCount != 3 {
		t.Errorf("expected action count 3, got %d", sess.ActionCount)
	}
	if sess.EndedAt == nil {
		t.Error("expected ended_at to be set")
	}
	if sess.Workspace != "/repo" {
		t.Errorf("unexpected workspace %q", sess.Workspace)
	}
}
