package extract

import (
	"regexp"
	"strings"

	"github.com/hubtoday/weeklyagent/internal/feed"
)

// Heuristics used when the model returns nothing usable and a single
// synthetic item has to be derived from the raw article.

const fallbackTitleMaxRunes = 15

var (
	dateTitlePattern     = regexp.MustCompile(`(?i)^\d{4}-?\d{2}-?\d{2}.*?(日刊|日报|Daily)`)
	dailyDigestMarker    = regexp.MustCompile(`今日摘要\s*([^\n]{5,80})`)
	digestPassagePattern = regexp.MustCompile(`(?s)今日摘要\s*(.{20,200})`)
)

// Patterns that pick a product-announcement phrase out of digest text,
// tried in order of specificity.
var announcementPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Za-z\p{Han}]{2,8}(?:眼镜|模型|平台|工具|框架|系统)?(?:开售|发布|上线|开源|推出|获得|完成|融资|突破|超越|冲刺)[^\s]*`),
	regexp.MustCompile(`[A-Za-z][A-Za-z0-9]{1,10}超[A-Za-z0-9]{2,12}`),
	regexp.MustCompile(`[\p{Han}A-Za-z]{2,6}(?:AI|眼镜|模型|芯片|平台)?\p{Han}{2,8}`),
}

var bodyAnnouncementPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[\p{Han}A-Za-z]{2,8}(?:公测|发布|开源|上线|推出|开售|开放|获得|完成|宣布|融资|突破)[^\n。！]{0,8}`),
	regexp.MustCompile(`(?:小米|字节|腾讯|阿里|百度|华为|OpenAI|Meta|Google|微软|Apple|北京|上海)[A-Za-z\p{Han}]{2,12}`),
}

// FallbackTitle derives a display title from the raw article. Dailies
// titled with a bare date get a headline mined from the digest body.
func FallbackTitle(article feed.Article) string {
	original := strings.TrimSpace(article.Title)

	if !dateTitlePattern.MatchString(original) {
		return truncateTitle(original)
	}

	content := article.Content
	if content == "" {
		content = article.Summary
	}

	if match := dailyDigestMarker.FindStringSubmatch(content); match != nil {
		summaryText := strings.TrimSpace(match[1])
		for _, pattern := range announcementPatterns {
			if found := pattern.FindString(summaryText); found != "" {
				found = strings.TrimSpace(found)
				if n := len([]rune(found)); n >= 4 && n <= fallbackTitleMaxRunes {
					return found
				}
			}
		}
		return truncateTitle(summaryText)
	}

	head := content
	if runes := []rune(head); len(runes) > 2000 {
		head = string(runes[:2000])
	}
	for _, pattern := range bodyAnnouncementPatterns {
		if found := pattern.FindString(head); found != "" {
			found = whitespacePattern.ReplaceAllString(found, "")
			if n := len([]rune(found)); n >= 4 && n <= fallbackTitleMaxRunes {
				return found
			}
		}
	}

	return truncateTitle(original)
}

// FallbackSummary finds a passage related to the chosen title, or the
// digest opening, or the article's own summary.
func FallbackSummary(article feed.Article, title string) string {
	content := article.Content
	if content == "" {
		content = article.Summary
	}

	keywords := titleKeywords(title)
	for i, keyword := range keywords {
		if i >= 3 {
			break
		}
		pattern, err := regexp.Compile(`[^。！？\n]*` + regexp.QuoteMeta(keyword) + `[^。！？\n]*[。！？]?`)
		if err != nil {
			continue
		}
		if sentence := strings.TrimSpace(pattern.FindString(content)); sentence != "" {
			if n := len([]rune(sentence)); n >= 20 && n <= 150 {
				return CleanSummary(sentence)
			}
		}
	}

	if match := digestPassagePattern.FindStringSubmatch(content); match != nil {
		passage := match[1]
		if runes := []rune(passage); len(runes) > 150 {
			passage = string(runes[:150])
		}
		return CleanSummary(passage)
	}

	if article.Summary != "" {
		summary := article.Summary
		if runes := []rune(summary); len(runes) > 150 {
			summary = string(runes[:150])
		}
		return CleanSummary(summary)
	}

	return NoDescription
}

var keywordPattern = regexp.MustCompile(`[A-Za-z]+|\p{Han}{2,}`)

func titleKeywords(title string) []string {
	var keywords []string
	for _, token := range keywordPattern.FindAllString(title, -1) {
		if len([]rune(token)) >= 2 {
			keywords = append(keywords, token)
		}
	}
	return keywords
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= fallbackTitleMaxRunes {
		return title
	}
	return string(runes[:fallbackTitleMaxRunes])
}
