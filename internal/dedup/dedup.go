// Package dedup provides the cross-run item deduplicator: a JSON-backed
// key→timestamp store with a retention window, plus the identity-key rule.
package dedup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hubtoday/weeklyagent/internal/logger"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

const titleKeyRunes = 80

// BuildKey computes the identity key for one item. Items that resolved
// to their own sub-link are keyed by that URL; items stuck on the
// source URL (single-item decomposition ambiguity) compose it with a
// normalized title so two items from the same aggregator page never
// collide.
func BuildKey(itemURL, sourceURL, title string) string {
	key := strings.TrimSpace(itemURL)
	if key == "" {
		key = strings.TrimSpace(sourceURL)
	}
	if key != "" && sourceURL != "" && key == sourceURL {
		normalized := strings.ToLower(whitespacePattern.ReplaceAllString(title, ""))
		if runes := []rune(normalized); len(runes) > titleKeyRunes {
			normalized = string(runes[:titleKeyRunes])
		}
		return sourceURL + "#" + normalized
	}
	return key
}

// Store persists processed item keys to a JSON file. Entries older than
// the expiry window are evicted on every read path.
type Store struct {
	filePath string
	expiry   time.Duration
	entries  map[string]time.Time

	// now is overridable in tests.
	now func() time.Time
}

// NewStore loads the cache file; a missing or corrupt file starts empty.
func NewStore(filePath string, expireHours int) *Store {
	s := &Store{
		filePath: filePath,
		expiry:   time.Duration(expireHours) * time.Hour,
		entries:  make(map[string]time.Time),
		now:      time.Now,
	}
	if err := s.load(); err != nil {
		// A broken cache only costs one run of dedup history, the
		// run itself must go on.
		logger.Warn("dedup cache unreadable, starting empty", "file", filePath, "err", err)
		s.entries = make(map[string]time.Time)
	}
	return s
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read dedup cache: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse dedup cache: %w", err)
	}
	for key, stamp := range raw {
		t, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			// Unparseable entries are treated as expired.
			continue
		}
		s.entries[key] = t
	}
	return nil
}

func (s *Store) save() error {
	raw := make(map[string]string, len(s.entries))
	for key, t := range s.entries {
		raw[key] = t.Format(time.RFC3339)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dedup cache: %w", err)
	}
	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dedup cache dir: %w", err)
		}
	}
	if err := os.WriteFile(s.filePath, data, 0o644); err != nil {
		return fmt.Errorf("write dedup cache: %w", err)
	}
	return nil
}

func (s *Store) evictExpired() {
	if s.expiry <= 0 {
		return
	}
	cutoff := s.now().Add(-s.expiry)
	for key, t := range s.entries {
		if t.Before(cutoff) {
			delete(s.entries, key)
		}
	}
}

// IsDuplicate reports whether the key was processed inside the
// retention window.
func (s *Store) IsDuplicate(key string) bool {
	s.evictExpired()
	_, ok := s.entries[key]
	return ok
}

// MarkBatch records keys as processed and persists once.
func (s *Store) MarkBatch(keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	s.evictExpired()
	now := s.now()
	for _, key := range keys {
		if key != "" {
			s.entries[key] = now
		}
	}
	return s.save()
}

// Len reports the live entry count after eviction.
func (s *Store) Len() int {
	s.evictExpired()
	return len(s.entries)
}
