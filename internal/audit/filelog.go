package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// GenesisHash is the prev_hash of the first line in a fresh daily log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// FileLog is the human-readable half of the audit sink: one JSON object per
// line, one file per UTC day, each line hash-chained to the previous one so
// tampering is detectable with nothing but the file itself.
type FileLog struct {
	dir      string
	mu       sync.Mutex
	file     *os.File
	day      string
	prevHash string
}

// line is the on-disk shape. Struct fields (no maps) keep json.Marshal
// field order deterministic for reproducible hashing.
type line struct {
	Timestamp string `json:"ts"`
	Type      string `json:"type"`
	Event     Event  `json:"event"`
	PrevHash  string `json:"prev_hash"`
}

// NewFileLog creates a FileLog writing into dir. Files are opened lazily on
// first write so constructing the log never touches the disk.
func NewFileLog(dir string) *FileLog {
	return &FileLog{dir: dir}
}

// Record appends one typed line for the event, rotating to a new file when
// the UTC day changes.
func (l *FileLog) Record(eventType string, e Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	if err := l.rotate(now); err != nil {
		return err
	}

	entry := line{
		Timestamp: now.Format(TimestampFormat),
		Type:      eventType,
		Event:     e,
		PrevHash:  l.prevHash,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal log line: %w", err)
	}

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("audit: write log line: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync log: %w", err)
	}

	l.prevHash = hashLine(data)
	return nil
}

// rotate opens the file for the given day, recovering the chain tail from an
// existing file or starting a new chain from the genesis hash.
func (l *FileLog) rotate(now time.Time) error {
	day := now.Format("2006-01-02")
	if l.file != nil && day == l.day {
		return nil
	}
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if err := os.MkdirAll(l.dir, 0o700); err != nil {
		return fmt.Errorf("audit: create log directory: %w", err)
	}

	path := l.Path(day)
	prevHash := GenesisHash
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		tail, err := lastLine(path)
		if err != nil {
			return err
		}
		if len(tail) > 0 {
			prevHash = hashLine(tail)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("audit: open log file: %w", err)
	}

	l.file = file
	l.day = day
	l.prevHash = prevHash
	return nil
}

// Path returns the log file path for a day in "2006-01-02" form.
func (l *FileLog) Path(day string) string {
	return filepath.Join(l.dir, "audit-"+day+".jsonl")
}

// Close closes the current file, if open.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func lastLine(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: read existing log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var tail []byte
	for scanner.Scan() {
		tail = append(tail[:0], scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan existing log: %w", err)
	}
	return tail, nil
}

func hashLine(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}

// VerifyFile walks a daily log and checks the hash chain. It returns the
// number of verified lines, or an error naming the first broken link.
func VerifyFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("audit: open log: %w", err)
	}
	defer f.Close()

	expected := GenesisHash
	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		raw := scanner.Bytes()
		var entry line
		if err := json.Unmarshal(raw, &entry); err != nil {
			return count, fmt.Errorf("audit: line %d: malformed JSON: %w", count+1, err)
		}
		if entry.PrevHash != expected {
			return count, fmt.Errorf("audit: line %d: chain broken: prev_hash %s, expected %s",
				count+1, entry.PrevHash, expected)
		}
		expected = hashLine(append([]byte(nil), raw...))
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("audit: scan log: %w", err)
	}
	return count, nil
}
