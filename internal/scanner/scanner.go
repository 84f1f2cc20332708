// Package scanner inspects content for secrets and PII before it crosses a
// trust boundary: written to persistent memory or sent to a model. Scanning
// never modifies the input; redaction returns a new string.
package scanner

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// DetectedItem is one sensitive substring found in the content.
type DetectedItem struct {
	Type     string   `json:"type"`
	Value    string   `json:"value"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Severity Severity `json:"severity"`
}

// ScanResult aggregates all findings plus a masked copy of the content.
type ScanResult struct {
	Secrets []DetectedItem `json:"secrets"`
	PII     []DetectedItem `json:"pii"`
	Masked  string         `json:"masked"`
}

// HasFindings reports whether anything was detected.
func (r ScanResult) HasFindings() bool {
	return len(r.Secrets) > 0 || len(r.PII) > 0
}

// Scanner runs an ordered pattern list over content. Custom patterns may be
// added and removed at runtime; a malformed expression is rejected at
// registration, never deferred to scan time.
type Scanner struct {
	mu       sync.RWMutex
	patterns []Pattern
}

// New creates a Scanner with the built-in pattern set.
func New() *Scanner {
	return &Scanner{patterns: append([]Pattern(nil), defaultPatterns...)}
}

// AddPattern registers a named custom pattern. Custom matches default to
// high severity. Re-registering a name replaces the previous rule.
func (s *Scanner) AddPattern(name, expr string, kind Kind) error {
	if name == "" {
		return fmt.Errorf("scanner: pattern name is required")
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("scanner: pattern %q: invalid regex: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(name)
	s.patterns = append(s.patterns, Pattern{
		Name:     name,
		Kind:     kind,
		Severity: SeverityHigh,
		re:       re,
	})
	return nil
}

// RemovePattern drops a pattern by name. Removing an unknown name is a no-op.
func (s *Scanner) RemovePattern(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(name)
}

func (s *Scanner) removeLocked(name string) {
	// Copy rather than compact in place: detect() holds the old slice
	// outside the lock.
	kept := make([]Pattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		if p.Name != name {
			kept = append(kept, p)
		}
	}
	s.patterns = kept
}

// Scan finds every sensitive substring in the content. When rules overlap,
// the earlier rule in the list claims the span. Findings are sorted by
// position. The Masked field holds the content with all matches replaced by
// '*' runs of equal length.
func (s *Scanner) Scan(content string) ScanResult {
	items := s.detect(content)

	var result ScanResult
	for _, item := range items {
		switch s.kindOf(item.Type) {
		case KindPII:
			result.PII = append(result.PII, item)
		default:
			result.Secrets = append(result.Secrets, item)
		}
	}
	result.Masked = mask(content, items, '*')
	return result
}

// Redact returns the content with every detected match replaced by one mask
// character per rune of the match, preserving layout while destroying the
// value.
func (s *Scanner) Redact(content string, maskChar rune) string {
	return mask(content, s.detect(content), maskChar)
}

// FilterForLLM is the mandatory composition applied before content leaves
// the trust boundary: scan and redact, both secret and PII detection on.
func (s *Scanner) FilterForLLM(content string) string {
	return s.Redact(content, '*')
}

// detect runs the pattern list and returns non-overlapping findings sorted
// by start offset.
func (s *Scanner) detect(content string) []DetectedItem {
	s.mu.RLock()
	patterns := s.patterns
	s.mu.RUnlock()

	var items []DetectedItem
	var claimed []span
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringIndex(content, -1) {
			sp := span{loc[0], loc[1]}
			if overlaps(claimed, sp) {
				continue
			}
			claimed = append(claimed, sp)
			items = append(items, DetectedItem{
				Type:     p.Name,
				Value:    content[sp.start:sp.end],
				Start:    sp.start,
				End:      sp.end,
				Severity: p.Severity,
			})
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Start < items[j].Start })
	return items
}

func (s *Scanner) kindOf(name string) Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patterns {
		if p.Name == name {
			return p.Kind
		}
	}
	return KindSecret
}

type span struct{ start, end int }

func overlaps(claimed []span, sp span) bool {
	for _, c := range claimed {
		if sp.start < c.end && c.start < sp.end {
			return true
		}
	}
	return false
}

// mask rebuilds the content with each item's span replaced by maskChar
// repeated once per rune of the match. Items must be sorted and disjoint.
func mask(content string, items []DetectedItem, maskChar rune) string {
	if len(items) == 0 {
		return content
	}
	var b strings.Builder
	b.Grow(len(content))
	prev := 0
	for _, item := range items {
		b.WriteString(content[prev:item.Start])
		n := utf8.RuneCountInString(content[item.Start:item.End])
		b.WriteString(strings.Repeat(string(maskChar), n))
		prev = item.End
	}
	b.WriteString(content[prev:])
	return b.String()
}
