package issue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestCurrent_AbsentFileUsesDefault(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "state.json"), 27)
	if got := s.Current(); got != 27 {
		t.Fatalf("expected default issue 27, got %d", got)
	}
}

func TestCurrent_MalformedFileUsesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	s := NewStore(path, 5)
	if got := s.Current(); got != 5 {
		t.Fatalf("expected default on malformed state, got %d", got)
	}
}

func TestCurrent_NonPositiveIssueUsesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"current_issue": 0}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	s := NewStore(path, 9)
	if got := s.Current(); got != 9 {
		t.Fatalf("expected default on zero issue, got %d", got)
	}
}

func TestAdvance_WritesNextIssue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "state.json")
	s := NewStore(path, 1)

	if err := s.Advance(41); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if got := s.Current(); got != 42 {
		t.Fatalf("expected next issue 42, got %d", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("state not valid json: %v", err)
	}
	if raw["updated_at"] == "" || raw["updated_at"] == nil {
		t.Error("updated_at timestamp missing")
	}
}
