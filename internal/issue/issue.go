// Package issue tracks the weekly issue number in a state file kept
// apart from the static configuration, so config edits can never
// desynchronize numbering.
package issue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hubtoday/weeklyagent/internal/logger"
)

type state struct {
	CurrentIssue int    `json:"current_issue"`
	UpdatedAt    string `json:"updated_at"`
}

// Store reads and advances the issue number.
type Store struct {
	filePath     string
	defaultIssue int
}

func NewStore(filePath string, defaultIssue int) *Store {
	return &Store{filePath: filePath, defaultIssue: defaultIssue}
}

// Current returns the issue number from the state file, or the
// configured default when the file is absent or malformed.
func (s *Store) Current() int {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("issue state unreadable, using default", "path", s.filePath, "err", err)
		}
		return s.defaultIssue
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil || st.CurrentIssue <= 0 {
		logger.Warn("issue state malformed, using default", "path", s.filePath)
		return s.defaultIssue
	}
	return st.CurrentIssue
}

// Advance persists issue+1 with an update timestamp. Failure here is
// fatal to the run: losing numbering durability would mislabel the
// next digest.
func (s *Store) Advance(issue int) error {
	st := state{
		CurrentIssue: issue + 1,
		UpdatedAt:    time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal issue state: %w", err)
	}
	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create issue state dir: %w", err)
		}
	}
	if err := os.WriteFile(s.filePath, data, 0o644); err != nil {
		return fmt.Errorf("write issue state: %w", err)
	}
	return nil
}
