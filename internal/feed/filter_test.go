package feed

import (
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
}

func TestFilter_TimeWindow(t *testing.T) {
	f := &Filter{MaxAge: 168 * time.Hour, Now: fixedNow}
	articles := []Article{
		{Title: "fresh", Published: fixedNow().Add(-24 * time.Hour)},
		{Title: "stale", Published: fixedNow().Add(-10 * 24 * time.Hour)},
		{Title: "undated"},
	}

	got := f.Apply(articles)
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	for _, a := range got {
		if a.Title == "stale" {
			t.Fatal("stale article survived the time filter")
		}
	}
}

func TestFilter_IncludeKeywords(t *testing.T) {
	f := &Filter{IncludeKeywords: []string{"css", "前端"}, Now: fixedNow}
	articles := []Article{
		{Title: "CSS Grid 深入", Content: "布局教程"},
		{Title: "后端消息队列选型", Content: "kafka 对比"},
		{Title: "聊聊前端工程化", Content: "构建工具"},
	}

	got := f.Apply(articles)
	if len(got) != 2 {
		t.Fatalf("expected 2 keyword matches, got %d", len(got))
	}
}

func TestFilter_MinContentLength(t *testing.T) {
	f := &Filter{MinContentLength: 30, Now: fixedNow}
	articles := []Article{
		{Title: "thin", Content: "too short"},
		{Title: "thick", Content: "这篇文章的正文内容足够长，能够通过最小长度的预过滤检查，不会被丢弃。"},
	}

	got := f.Apply(articles)
	if len(got) != 1 || got[0].Title != "thick" {
		t.Fatalf("length filter wrong: %+v", got)
	}
}

func TestFilter_MinContentLengthCountsRunes(t *testing.T) {
	// 17 Han characters are ~51 bytes but only 17 characters: a
	// byte-based minimum would wrongly let this through.
	f := &Filter{MinContentLength: 50, Now: fixedNow}
	articles := []Article{
		{Title: "short-cn", Content: "十七个汉字的内容远远不到五十字限制"},
	}

	if got := f.Apply(articles); len(got) != 0 {
		t.Fatalf("byte-length leak: %+v", got)
	}
}

func TestIsFeedURL(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://example.com/atom.xml", true},
		{"https://example.com/index.rss", true},
		{"https://example.com/feed/", true},
		{"https://example.com/rss", true},
		{"https://mp.weixin.qq.com/s/abcdef", false},
		{"https://example.com/posts/hello-world", false},
	}
	for _, tc := range cases {
		if got := IsFeedURL(tc.url); got != tc.want {
			t.Errorf("IsFeedURL(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestStripHTML(t *testing.T) {
	html := `<div><h1>标题</h1><p>第一段内容。</p><script>alert(1)</script><p>第二段。</p></div>`
	got := StripHTML(html)

	if got == "" {
		t.Fatal("empty result")
	}
	for _, want := range []string{"标题", "第一段内容。", "第二段。"} {
		if !strings.Contains(got, want) {
			t.Errorf("text content lost, want %q in %q", want, got)
		}
	}
	if strings.Contains(got, "alert") {
		t.Errorf("script content leaked: %q", got)
	}
}
