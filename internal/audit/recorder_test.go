package audit

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func newTestRecorder(t *testing.T) (*Recorder, *Store, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	store, err := OpenStore(filepath.Join(dir, "audit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	var errw bytes.Buffer
	r := NewRecorder(store, NewFileLog(filepath.Join(dir, "logs")), &errw)
	t.Cleanup(func() { r.Close() })
	return r, store, &errw
}

func TestRecorderWritesBothSinks(t *testing.T) {
	r, store, errw := newTestRecorder(t)

	e := r.Record("decision", Event{Tool: "read_file", Result: ResultDenied, Reason: "deny list", UserID: "u1"})
	if e.ID == "" {
		t.Error("recorder should return the event with its assigned id")
	}
	if errw.Len() != 0 {
		t.Errorf("no sink errors expected, got %q", errw.String())
	}

	got, err := store.Query(Filter{Result: ResultDenied})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].Tool != "read_file" || got[0].UserID != "u1" {
		t.Errorf("structured store should hold the event, got %v", got)
	}
}

func TestRecorderSurvivesSinkFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenStore(filepath.Join(dir, "audit.db"))
	if err != nil {
		t.Fatal(err)
	}
	// Close the store so its writes fail; the recorder must swallow that.
	store.Close()

	var errw bytes.Buffer
	r := NewRecorder(store, NewFileLog(filepath.Join(dir, "logs")), &errw)

	e := r.Record("decision", Event{Tool: "x", Result: ResultAllowed})
	if e.Tool != "x" {
		t.Error("record must return even when a sink fails")
	}
	if !strings.Contains(errw.String(), "store write failed") {
		t.Errorf("sink failure should be reported to the error writer, got %q", errw.String())
	}

	// The independent file sink still received the line.
	if err := r.log.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}
}

func TestRecorderSessionCounting(t *testing.T) {
	r, store, _ := newTestRecorder(t)

	id, err := r.StartSession("/repo")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	r.Record("decision", Event{Tool: "a", Result: ResultAllowed})
	r.Record("execution", Event{Tool: "a", Result: ResultAllowed})

	if err := r.EndSession(); err != nil {
		t.Fatalf("end session: %v", err)
	}

	sess, err := store.GetSession(id)
	if err != nil || sess == nil {
		t.Fatalf("get session: %v", err)
	}
	if sess.ActionCount != 2 {
		t.Errorf("expected 2 actions in session, got %d", sess.ActionCount)
	}

	// Records after session end are not attributed.
	r.Record("decision", Event{Tool: "b", Result: ResultAllowed})
	sess, _ = store.GetSession(id)
	if sess.ActionCount != 2 {
		t.Errorf("post-session records must not bump the counter, got %d", sess.ActionCount)
	}
}

func TestRecorderNilSinks(t *testing.T) {
	r := NewRecorder(nil, nil, nil)
	e := r.Record("decision", Event{Tool: "x", Result: ResultAllowed})
	if e.Tool != "x" {
		t.Error("recorder with no sinks should still return the event")
	}
	if _, err := r.StartSession(""); err != nil {
		t.Errorf("session ops on nil store must be no-ops: %v", err)
	}
	if err := r.EndSession(); err != nil {
		t.Errorf("session ops on nil store must be no-ops: %v", err)
	}
}
