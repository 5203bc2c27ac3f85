package extract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanSummary_StripsBoilerplate(t *testing.T) {
	raw := "一条关于新编译器的正经摘要内容。\n\nArticle URL: <https://news.ycombinator.com/item?id=1>\nPoints: 123\nComments: 45"

	got := CleanSummary(raw)
	if strings.Contains(got, "Article URL") || strings.Contains(got, "Points") {
		t.Errorf("boilerplate survived cleaning: %q", got)
	}
	if !strings.Contains(got, "正经摘要") {
		t.Errorf("real content lost: %q", got)
	}
}

func TestCleanSummary_TooShortBecomesSentinel(t *testing.T) {
	if got := CleanSummary("Points: 99"); got != NoDescription {
		t.Fatalf("expected sentinel, got %q", got)
	}
	if got := CleanSummary("短"); got != NoDescription {
		t.Fatalf("expected sentinel for short remainder, got %q", got)
	}
}

func TestEditorialize_NoEmojiGetsSignature(t *testing.T) {
	got := Editorialize("豆包眼镜今日开售，定价一千九百九十九元，主打轻量级AI交互")
	if !strings.HasSuffix(got, "。 🔍✨") {
		t.Fatalf("missing punctuation+signature: %q", got)
	}

	if got := Editorialize("发布会即将召开"); got != "发布会即将召开。 🔍✨" {
		t.Fatalf("short clean text mishandled: %q", got)
	}
}

func TestEditorialize_SingleEmojiGetsRocket(t *testing.T) {
	got := Editorialize("团队发布了全新的构建工具链 ⚡ 构建速度提升十倍")
	if !strings.HasSuffix(got, " 🚀") {
		t.Fatalf("single-emoji summary not finished with rocket: %q", got)
	}
}

func TestEditorialize_TwoEmojisUnchangedTail(t *testing.T) {
	in := "已经带了表情的摘要内容，保持原样就好 🔥🎉"
	got := Editorialize(in)
	if got != in {
		t.Fatalf("two-emoji summary modified: %q", got)
	}
}

func TestEditorialize_Idempotent(t *testing.T) {
	inputs := []string{
		"发布会即将召开",
		"一条很普通的中文摘要，讲了一个框架的新版本发布情况",
		"团队发布了全新的构建工具链 ⚡ 构建速度提升十倍",
	}
	for _, in := range inputs {
		once := Editorialize(in)
		twice := Editorialize(once)
		if once != twice {
			t.Errorf("not idempotent for %q:\n once: %q\ntwice: %q", in, once, twice)
		}
	}
}

func TestEditorialize_TruncatesLongSummaries(t *testing.T) {
	long := strings.Repeat("这是一段会被截断的超长摘要内容", 30)
	got := Editorialize(long)
	if n := utf8.RuneCountInString(got); n > 185 {
		t.Fatalf("summary not truncated: %d runes", n)
	}
	if !strings.HasSuffix(got, "🔍✨") {
		t.Errorf("truncated summary missing signature: %q", got)
	}
}

func TestEditorialize_StripsLeadingEnumeration(t *testing.T) {
	got := Editorialize("1. 某框架发布重大更新，带来了若干破坏性变更")
	if strings.HasPrefix(got, "1.") {
		t.Fatalf("leading enumeration survived: %q", got)
	}
}

func TestDetectEnglish(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Introducing the new React compiler", true},
		{"React 正式发布新版本编译器，带来了很多新特性", false},
		{"", false},
		{"2026-08-29", false},
	}
	for _, tc := range cases {
		if got := DetectEnglish(tc.text); got != tc.want {
			t.Errorf("DetectEnglish(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
