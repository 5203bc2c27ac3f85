package links

import (
	"context"
	"strings"
	"testing"

	"github.com/hubtoday/weeklyagent/internal/feed"
)

func TestExtractCandidates_MarkdownAndBareLinks(t *testing.T) {
	article := feed.Article{
		URL: "https://daily.example.com/2026-08-28",
		Content: "今日摘要\n" +
			"[React 19 正式发布](https://react.dev/blog/react-19)\n" +
			"[Vite 6 性能优化实践](https://vite.dev/blog/vite-6)\n" +
			"裸链接 https://example.com/post/123 也要收\n" +
			"[点击查看原文](https://noise.example.com/logo-origin)\n" +
			"[站点图标](https://cdn.example.com/logo.png)\n" +
			"[自引用](https://daily.example.com/2026-08-28)\n",
	}

	r := NewResolver(nil)
	candidates := r.ExtractCandidates(context.Background(), article)

	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d: %+v", len(candidates), candidates)
	}
	if candidates[0].Anchor != "React 19 正式发布" || candidates[0].URL != "https://react.dev/blog/react-19" {
		t.Errorf("unexpected first candidate: %+v", candidates[0])
	}
	if candidates[2].URL != "https://example.com/post/123" {
		t.Errorf("bare URL not collected: %+v", candidates[2])
	}
	if candidates[2].Anchor != "" {
		t.Errorf("bare URL should have no anchor, got %q", candidates[2].Anchor)
	}
}

func TestExtractCandidates_DuplicateURLsCollapse(t *testing.T) {
	article := feed.Article{
		URL: "https://daily.example.com/x",
		Content: "[一条资讯](https://example.com/a) 再提一次 https://example.com/a\n" +
			"[另一条](https://example.com/b)",
	}

	r := NewResolver(nil)
	candidates := r.ExtractCandidates(context.Background(), article)

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates after dedup, got %d", len(candidates))
	}
}

func TestIsNoiseLink(t *testing.T) {
	cases := []struct {
		anchor string
		url    string
		noise  bool
	}{
		{"React 19 发布", "https://react.dev/blog/react-19", false},
		{"关于我", "https://example.com/about", true},
		{"进群交流", "https://example.com/group", true},
		{"", "https://cdn.example.com/avatar.png", true},
		{"", "https://example.com/pic.jpg", true},
		{"", "https://ai.hubtoday.app/", true},
		{"", "https://ai.hubtoday.app/2026/08/28", false},
		{"", "https://github.com/justlovemaki/some-repo", true},
	}
	for _, tc := range cases {
		if got := IsNoiseLink(tc.anchor, tc.url); got != tc.noise {
			t.Errorf("IsNoiseLink(%q, %q) = %v, want %v", tc.anchor, tc.url, got, tc.noise)
		}
	}
}

func TestEncodeForPrompt(t *testing.T) {
	candidates := []Candidate{
		{Anchor: "React 19 正式发布", URL: "https://react.dev/blog/react-19"},
		{URL: "https://example.com/bare"},
		{Anchor: strings.Repeat("长", 100), URL: "https://example.com/long"},
	}

	lines, idMap := EncodeForPrompt(candidates, 40)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "- L1 | React 19 正式发布 | https://react.dev/blog/react-19" {
		t.Errorf("unexpected catalog line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "（无锚文本）") {
		t.Errorf("empty anchor should render placeholder: %q", lines[1])
	}
	if label := strings.Split(lines[2], " | ")[1]; len([]rune(label)) != 80 {
		t.Errorf("long anchor not truncated to 80 runes: %d", len([]rune(label)))
	}
	if idMap["L2"] != "https://example.com/bare" {
		t.Errorf("idMap mismatch: %v", idMap)
	}
}

func TestEncodeForPrompt_CapsCatalog(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 60; i++ {
		candidates = append(candidates, Candidate{URL: "https://example.com/" + strings.Repeat("x", i+1)})
	}
	lines, idMap := EncodeForPrompt(candidates, MaxPromptCandidates)
	if len(lines) != MaxPromptCandidates || len(idMap) != MaxPromptCandidates {
		t.Fatalf("catalog not capped: lines=%d ids=%d", len(lines), len(idMap))
	}
}

func TestNormalizeLinkID(t *testing.T) {
	cases := map[string]string{
		"L3":  "L3",
		"l3":  "L3",
		"3":   "L3",
		" 12 ": "L12",
		"LX":  "",
		"":    "",
	}
	for in, want := range cases {
		if got := NormalizeLinkID(in); got != want {
			t.Errorf("NormalizeLinkID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSelectLink_PreferredIDWins(t *testing.T) {
	candidates := []Candidate{
		{Anchor: "A", URL: "https://example.com/a"},
		{Anchor: "B", URL: "https://example.com/b"},
	}
	_, idMap := EncodeForPrompt(candidates, 40)
	used := map[string]bool{}

	got := SelectLink("任意标题", candidates, used, "https://fallback", "L2", idMap)
	if got != "https://example.com/b" {
		t.Fatalf("preferred id ignored, got %q", got)
	}
	if !used["https://example.com/b"] {
		t.Error("selected URL not marked used")
	}
}

func TestSelectLink_TitleScoreBeatsOrder(t *testing.T) {
	candidates := []Candidate{
		{Anchor: "Vue 更新日志", URL: "https://example.com/vue"},
		{Anchor: "React 编译器发布", URL: "https://example.com/react"},
	}
	used := map[string]bool{}

	got := SelectLink("React 编译器正式发布", candidates, used, "https://fallback", "", nil)
	if got != "https://example.com/react" {
		t.Fatalf("expected title-matched candidate, got %q", got)
	}
}

func TestSelectLink_UsedCandidatesAreSkipped(t *testing.T) {
	candidates := []Candidate{
		{Anchor: "React 编译器发布", URL: "https://example.com/react"},
		{Anchor: "别的", URL: "https://example.com/other"},
	}
	used := map[string]bool{"https://example.com/react": true}

	got := SelectLink("React 编译器发布", candidates, used, "https://fallback", "", nil)
	if got != "https://example.com/other" {
		t.Fatalf("used candidate reassigned, got %q", got)
	}
}

func TestSelectLink_FallbackWhenExhausted(t *testing.T) {
	candidates := []Candidate{{Anchor: "A", URL: "https://example.com/a"}}
	used := map[string]bool{"https://example.com/a": true}

	got := SelectLink("标题", candidates, used, "https://source.example.com/page", "", nil)
	if got != "https://source.example.com/page" {
		t.Fatalf("expected fallback URL, got %q", got)
	}
	if used["https://source.example.com/page"] {
		t.Error("fallback URL must not be marked used")
	}
}
