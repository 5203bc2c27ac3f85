package quota

import (
	"strconv"
	"strings"
	"testing"

	"github.com/hubtoday/weeklyagent/internal/render"
)

func TestEffectiveMin_FloorsHeadlineCategories(t *testing.T) {
	cases := []struct {
		category   string
		configured int
		want       int
	}{
		{"时事", 1, 5},
		{"AI资讯", 0, 5},
		{"AI资讯", 8, 8},
		{"教程", 2, 2},
		{"工具", -3, 0},
	}
	for _, tc := range cases {
		if got := EffectiveMin(tc.category, tc.configured); got != tc.want {
			t.Errorf("EffectiveMin(%s, %d) = %d, want %d", tc.category, tc.configured, got, tc.want)
		}
	}
}

func TestEnforceMax_TruncatesPreservingOrder(t *testing.T) {
	var items []render.Item
	for i := 0; i < 8; i++ {
		items = append(items, render.Item{Title: "item-" + strconv.Itoa(i)})
	}

	got := EnforceMax(items, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i, item := range got {
		if item.Title != "item-"+strconv.Itoa(i) {
			t.Fatalf("order not preserved at %d: %q", i, item.Title)
		}
	}
}

func TestEnforceMax_NoOpWhenUnderLimit(t *testing.T) {
	items := []render.Item{{Title: "only"}}
	if got := EnforceMax(items, 5); len(got) != 1 {
		t.Fatalf("under-limit bucket modified: %d", len(got))
	}
	if got := EnforceMax(items, 0); len(got) != 1 {
		t.Fatalf("zero max should disable truncation: %d", len(got))
	}
}

func TestToolSummary_WithDescription(t *testing.T) {
	got := toolSummary("vitejs/vite", "Next generation frontend tooling.", "62,481")
	if !strings.Contains(got, "vitejs/vite") {
		t.Errorf("repo name missing: %q", got)
	}
	if !strings.Contains(got, "当前热度 62,481") {
		t.Errorf("stars missing: %q", got)
	}
	if !strings.Contains(got, "🚀") {
		t.Errorf("editorial emoji missing: %q", got)
	}
}

func TestToolSummary_LongDescriptionTruncated(t *testing.T) {
	got := toolSummary("some/repo", strings.Repeat("一个特别啰嗦的项目介绍", 30), "")
	if strings.Contains(got, "当前热度") {
		t.Errorf("stars text should be absent: %q", got)
	}
	if !strings.Contains(got, "...") {
		t.Errorf("long description not truncated: %q", got)
	}
}
