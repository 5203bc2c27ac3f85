package extract

import (
	"strings"
	"testing"

	"github.com/hubtoday/weeklyagent/internal/feed"
)

func TestFallbackTitle_PlainTitleTruncates(t *testing.T) {
	article := feed.Article{Title: "一篇标题特别特别特别特别特别长的普通技术文章"}
	got := FallbackTitle(article)
	if n := len([]rune(got)); n > 15 {
		t.Fatalf("title not truncated: %d runes %q", n, got)
	}
}

func TestFallbackTitle_DateDailyMinesDigest(t *testing.T) {
	article := feed.Article{
		Title:   "2026-08-28 AI日刊",
		Content: "今日摘要 豆包眼镜开售 腾讯推出新模型 其他资讯若干",
	}
	got := FallbackTitle(article)
	if got == article.Title {
		t.Fatalf("date-titled daily kept its raw title: %q", got)
	}
	if !strings.Contains(got, "豆包眼镜开售") {
		t.Errorf("expected headline mined from digest, got %q", got)
	}
}

func TestFallbackTitle_DateDailyWithoutDigestKeepsOriginal(t *testing.T) {
	article := feed.Article{
		Title:   "20260828日报",
		Content: "没有可供提取的结构化内容",
	}
	got := FallbackTitle(article)
	if got != "20260828日报" {
		t.Fatalf("expected original title, got %q", got)
	}
}

func TestFallbackSummary_FindsTitleSentence(t *testing.T) {
	article := feed.Article{
		Content: "开头的闲聊内容。豆包眼镜今日正式开售，定价一千九百九十九元，主打轻量级AI交互体验。后面还有别的。",
	}
	got := FallbackSummary(article, "豆包眼镜")
	if !strings.Contains(got, "豆包眼镜今日正式开售") {
		t.Fatalf("expected title-related sentence, got %q", got)
	}
}

func TestFallbackSummary_DigestPassageFallback(t *testing.T) {
	article := feed.Article{
		Content: "今日摘要 这一段是日刊开头的摘要文字，内容足够长可以当作条目的简介使用了。",
	}
	got := FallbackSummary(article, "完全无关的标题词")
	if got == NoDescription {
		t.Fatalf("digest passage should have been used")
	}
	if !strings.Contains(got, "日刊开头的摘要文字") {
		t.Errorf("unexpected passage: %q", got)
	}
}

func TestFallbackSummary_EmptyArticle(t *testing.T) {
	if got := FallbackSummary(feed.Article{}, "标题"); got != NoDescription {
		t.Fatalf("expected sentinel for empty article, got %q", got)
	}
}
