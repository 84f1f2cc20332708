package audit

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Recorder fans one record() call out to the structured store and the flat
// file log. The two sinks are isolated: one failing never affects the other,
// and no failure ever propagates to the caller: a lost audit record must not
// block or reverse an already-made policy decision. Errors go to errw.
type Recorder struct {
	store *Store
	log   *FileLog
	errw  io.Writer

	mu        sync.Mutex
	sessionID string
}

// NewRecorder composes the two sinks. Either may be nil, in which case that
// sink is skipped. A nil errw defaults to stderr.
func NewRecorder(store *Store, log *FileLog, errw io.Writer) *Recorder {
	if errw == nil {
		errw = os.Stderr
	}
	return &Recorder{store: store, log: log, errw: errw}
}

// Record appends the event to both sinks, best-effort.
func (r *Recorder) Record(eventType string, e Event) Event {
	if r.store != nil {
		recorded, err := r.store.Record(e)
		if err != nil {
			fmt.Fprintf(r.errw, "audit: store write failed: %v\n", err)
		} else {
			e = recorded
		}
		r.mu.Lock()
		sid := r.sessionID
		r.mu.Unlock()
		if sid != "" {
			if err := r.store.BumpSession(sid); err != nil {
				fmt.Fprintf(r.errw, "audit: session bump failed: %v\n", err)
			}
		}
	}

	if r.log != nil {
		if err := r.log.Record(eventType, e); err != nil {
			fmt.Fprintf(r.errw, "audit: file log write failed: %v\n", err)
		}
	}

	return e
}

// StartSession opens a session bookend and ties subsequent records to it.
func (r *Recorder) StartSession(workspace string) (string, error) {
	if r.store == nil {
		return "", nil
	}
	id, err := r.store.StartSession(workspace)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	r.sessionID = id
	r.mu.Unlock()
	return id, nil
}

// EndSession closes the current session bookend.
func (r *Recorder) EndSession() error {
	r.mu.Lock()
	id := r.sessionID
	r.sessionID = ""
	r.mu.Unlock()
	if id == "" || r.store == nil {
		return nil
	}
	return r.store.EndSession(id)
}

// Close releases both sinks.
func (r *Recorder) Close() error {
	var first error
	if r.log != nil {
		if err := r.log.Close(); err != nil {
			first = err
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
