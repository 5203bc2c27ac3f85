package extract

import (
	"testing"

	"github.com/hubtoday/weeklyagent/internal/feed"
	"github.com/hubtoday/weeklyagent/internal/links"
)

func TestIsAggregator(t *testing.T) {
	cases := []struct {
		article feed.Article
		want    bool
	}{
		{feed.Article{Title: "2026-08-28 AI日刊"}, true},
		{feed.Article{Title: "前端周刊第520期"}, true},
		{feed.Article{Title: "Daily Digest", Content: "short"}, true},
		{feed.Article{Title: "React 19 发布", Content: "今日摘要在正文里也算"}, true},
		{feed.Article{Title: "React 19 发布", Content: "一篇普通的发布公告"}, false},
	}
	for _, tc := range cases {
		if got := IsAggregator(tc.article); got != tc.want {
			t.Errorf("IsAggregator(%q) = %v, want %v", tc.article.Title, got, tc.want)
		}
	}
}

func TestValidateItems_AssignsLinksAndCategories(t *testing.T) {
	article := feed.Article{
		Title: "2026-08-28 AI日刊",
		URL:   "https://daily.example.com/2026-08-28",
	}
	candidates := []links.Candidate{
		{Anchor: "React 19 发布", URL: "https://react.dev/blog/react-19"},
		{Anchor: "Vite 6 教程", URL: "https://vite.dev/guide"},
	}
	_, idMap := links.EncodeForPrompt(candidates, links.MaxPromptCandidates)

	e := NewExtractor(nil, nil, []string{"时事", "AI资讯", "教程", "工具"}, 0)
	items := []RawItem{
		{Title: "React 19 发布", Summary: "新版编译器默认开启自动记忆化，显著减少重渲染。", LinkID: "L1", Category: "时事"},
		{Title: "Vite 6 教程", Summary: "官方指南更新，覆盖环境 API 与新的插件钩子。", Category: "教程"},
		{Title: "", Summary: "没有标题的条目要被丢掉，不管摘要有多长。"},
		{Title: "无摘要条目", Summary: "短"},
	}

	drafts := e.validateItems(items, article, candidates, map[string]bool{}, idMap)
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if drafts[0].ItemURL != "https://react.dev/blog/react-19" {
		t.Errorf("link id not honored: %q", drafts[0].ItemURL)
	}
	if drafts[1].ItemURL != "https://vite.dev/guide" {
		t.Errorf("title-match selection failed: %q", drafts[1].ItemURL)
	}
	if drafts[0].SourceURL != article.URL {
		t.Errorf("source URL not carried: %q", drafts[0].SourceURL)
	}
}

func TestValidateItems_ModelItemURLHonoredOnce(t *testing.T) {
	article := feed.Article{URL: "https://daily.example.com/x"}
	e := NewExtractor(nil, nil, nil, 0)

	items := []RawItem{
		{Title: "第一条", Summary: "两个条目都声称同一个链接，只有第一个能得到它。", ItemURL: "https://example.com/shared"},
		{Title: "第二条", Summary: "重复声称的链接要被重新分配到兜底地址上。", ItemURL: "https://example.com/shared"},
	}

	drafts := e.validateItems(items, article, nil, map[string]bool{}, nil)
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if drafts[0].ItemURL != "https://example.com/shared" {
		t.Errorf("first claim rejected: %q", drafts[0].ItemURL)
	}
	if drafts[1].ItemURL != article.URL {
		t.Errorf("second claim should fall back to source URL, got %q", drafts[1].ItemURL)
	}
}

func TestValidateItems_EmptyCategoryDefaults(t *testing.T) {
	article := feed.Article{URL: "https://example.com/post"}
	e := NewExtractor(nil, nil, nil, 0)

	drafts := e.validateItems([]RawItem{
		{Title: "未分类条目", Summary: "模型忘记给分类时落到默认的时事分类里。"},
	}, article, nil, map[string]bool{}, nil)

	if len(drafts) != 1 || drafts[0].Category != DefaultCategory {
		t.Fatalf("expected default category, got %+v", drafts)
	}
}

func TestFallbackDrafts_AggregatorCategory(t *testing.T) {
	article := feed.Article{
		Title:   "2026-08-28 AI日刊",
		URL:     "https://daily.example.com/2026-08-28",
		Content: "今日摘要 豆包眼镜开售 腾讯推出新模型",
	}
	e := NewExtractor(nil, nil, nil, 0)

	drafts := e.fallbackDrafts(article, true, nil, map[string]bool{}, nil)
	if len(drafts) != 1 {
		t.Fatalf("expected exactly one synthetic draft, got %d", len(drafts))
	}
	if drafts[0].Category != DigestCategory {
		t.Errorf("aggregator fallback should land in %s, got %s", DigestCategory, drafts[0].Category)
	}
	if drafts[0].ItemURL != article.URL {
		t.Errorf("fallback draft should link to the source, got %q", drafts[0].ItemURL)
	}
}
