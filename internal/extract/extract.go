// Package extract decomposes collected articles into weekly item
// drafts via the language model, with layered recovery for malformed
// responses.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/hubtoday/weeklyagent/internal/ai"
	"github.com/hubtoday/weeklyagent/internal/feed"
	"github.com/hubtoday/weeklyagent/internal/links"
	"github.com/hubtoday/weeklyagent/internal/logger"
)

const (
	// DefaultCategory receives items with unrecognized categories.
	DefaultCategory = "时事"
	// DigestCategory is assigned to synthetic fallback items mined
	// from aggregator dailies.
	DigestCategory = "AI资讯"

	contentBudget = 8000

	digestMaxTokens = 4000
	singleMaxTokens = 2000
)

// Words that mark an article as an aggregator daily/weekly digest.
var aggregatorKeywords = []string{"日刊", "日报", "今日摘要", "每日", "daily", "周刊"}

// Draft is one decomposed item before dedup and image resolution.
type Draft struct {
	Title     string
	Summary   string
	Category  string
	IsEnglish bool
	ItemURL   string
	SourceURL string
	ImageURL  string
}

// Extractor turns one article into zero or more drafts.
type Extractor struct {
	completer     ai.Completer
	resolver      *links.Resolver
	categoryNames []string
	maxTokens     int
}

func NewExtractor(completer ai.Completer, resolver *links.Resolver, categoryNames []string, maxTokens int) *Extractor {
	return &Extractor{
		completer:     completer,
		resolver:      resolver,
		categoryNames: categoryNames,
		maxTokens:     maxTokens,
	}
}

// IsAggregator detects digest-style documents from the title and the
// leading content.
func IsAggregator(article feed.Article) bool {
	head := article.Content
	if runes := []rune(head); len(runes) > 500 {
		head = string(runes[:500])
	}
	text := strings.ToLower(article.Title + "\n" + head)
	for _, kw := range aggregatorKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Extract prompts the model to decompose the article and validates the
// result. Model failure and empty results both degrade to a single
// synthetic draft, never to an error.
func (e *Extractor) Extract(ctx context.Context, article feed.Article) []Draft {
	content := article.Content
	if content == "" {
		content = article.Summary
	}
	content = truncateContent(content, contentBudget)

	candidates := e.resolver.ExtractCandidates(ctx, article)
	catalogLines, idMap := links.EncodeForPrompt(candidates, links.MaxPromptCandidates)
	usedItemURLs := map[string]bool{}

	aggregator := IsAggregator(article)
	system := e.systemPrompt(aggregator)
	user := e.userPrompt(article, catalogLines, content)

	maxTokens := singleMaxTokens
	if aggregator {
		maxTokens = digestMaxTokens
	}
	if e.maxTokens > 0 && maxTokens > e.maxTokens {
		maxTokens = e.maxTokens
	}

	logger.Debug("extracting items", "article", article.Title, "aggregator", aggregator, "candidates", len(candidates))

	response, err := e.completer.Complete(ctx, system, user, maxTokens, 0.2)
	if err != nil {
		logger.Error("item extraction call failed", "article", article.Title, "err", err)
		return e.fallbackDrafts(article, aggregator, candidates, usedItemURLs, idMap)
	}

	drafts := e.validateItems(ParseItemsResponse(response), article, candidates, usedItemURLs, idMap)
	if len(drafts) == 0 {
		logger.Warn("no valid items in model response, using fallback", "article", article.Title)
		return e.fallbackDrafts(article, aggregator, candidates, usedItemURLs, idMap)
	}

	logger.Info("items extracted", "article", article.Title, "count", len(drafts))
	return drafts
}

// validateItems maps raw model objects into strict drafts, dropping
// anything without a title or a summary that survives cleaning.
func (e *Extractor) validateItems(items []RawItem, article feed.Article, candidates []links.Candidate, used map[string]bool, idMap map[string]string) []Draft {
	var drafts []Draft
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		summary := Editorialize(item.Summary)
		if title == "" || summary == NoDescription {
			continue
		}

		itemURL := ""
		if strings.HasPrefix(item.ItemURL, "http") && !used[item.ItemURL] {
			itemURL = item.ItemURL
			used[itemURL] = true
		} else {
			itemURL = links.SelectLink(title, candidates, used, article.URL, item.LinkID, idMap)
		}

		category := strings.TrimSpace(item.Category)
		if category == "" {
			category = DefaultCategory
		}

		isEnglish := DetectEnglish(title)
		if item.IsEnglish != nil {
			isEnglish = *item.IsEnglish
		}

		drafts = append(drafts, Draft{
			Title:     title,
			Summary:   summary,
			Category:  category,
			IsEnglish: isEnglish,
			ItemURL:   itemURL,
			SourceURL: article.URL,
			ImageURL:  article.ImageURL,
		})
	}
	return drafts
}

// fallbackDrafts builds the single synthetic item used when the model
// produced nothing usable.
func (e *Extractor) fallbackDrafts(article feed.Article, aggregator bool, candidates []links.Candidate, used map[string]bool, idMap map[string]string) []Draft {
	title := FallbackTitle(article)
	summary := Editorialize(FallbackSummary(article, title))

	category := DefaultCategory
	if aggregator {
		category = DigestCategory
	}

	return []Draft{{
		Title:     title,
		Summary:   summary,
		Category:  category,
		IsEnglish: DetectEnglish(article.Title),
		ItemURL:   links.SelectLink(title, candidates, used, article.URL, "", idMap),
		SourceURL: article.URL,
		ImageURL:  article.ImageURL,
	}}
}

func (e *Extractor) systemPrompt(aggregator bool) string {
	categories := strings.Join(e.categoryNames, "、")

	if aggregator {
		return fmt.Sprintf(`你是一个技术资讯编辑助手。

这是一篇日刊/日报内容，包含多条独立的资讯。请从中提取每一条独立的新闻/资讯。

【可选分类】
%s

【分类指南】
- 时事：行业动态、政策新闻、公司融资、市场趋势、产业规划等综合资讯
- AI资讯：AI模型发布、AI产品更新、AI技术突破等与AI直接相关的资讯
- 教程：技术教程、工作流分享、学习资源、最佳实践等
- 工具：开源项目、开发工具、实用软件等

【重要】这是聚合类日刊内容，你必须：
1. 将日刊拆分成独立的资讯条目，每条资讯单独提取
2. 不要把多条资讯合并成一个条目
3. 提取数量：5-10条最重要的资讯
4. 务必根据内容合理分配到不同分类，不要都放到同一分类
5. 每条资讯尽量选择最匹配的 link_id；如果无法匹配，link_id 返回空字符串
6. summary 必须用"编辑点评"语气写 2-3 句，避免照抄原文，包含 2-4 个 emoji

【输出格式】
必须输出 JSON 对象，不要任何 markdown 标记或额外文本：
{"items": [{"title": "15字以内的中文标题", "summary": "先说清事件，再补一两句点评，包含emoji。📈🏙️", "category": "时事", "is_english": false, "link_id": "L3"}]}

如果无法提取，返回 {"items": []}`, categories)
	}

	return fmt.Sprintf(`你是一个前端技术周刊编辑助手。

从以下文章内容中提取所有有价值的独立资讯条目。

【可选分类】
%s

【提取规则】
1. 每个条目只描述一件具体的事，不要聚合
2. 为每个条目选择最合适的分类
3. 如果文章是日刊/周刊合集，提取其中所有重要的独立资讯（最多10条）
4. 如果文章只包含单一主题，只返回1条
5. 过滤掉广告、招聘等无关内容
6. 每条资讯尽量选择最匹配的 link_id；如果无法匹配，link_id 返回空字符串
7. summary 必须用"编辑点评"语气写 2-3 句，避免照抄原文，包含 2-4 个 emoji

【输出格式】
必须输出 JSON 对象，不要任何 markdown 标记或额外文本：
{"items": [{"title": "15字以内的中文标题", "summary": "先说清事件，再补一两句点评，包含emoji。🚀✨", "category": "从可选分类中选择一个", "is_english": false, "link_id": "L1"}]}

如果没有可提取的内容，返回 {"items": []}`, categories)
}

func (e *Extractor) userPrompt(article feed.Article, catalogLines []string, content string) string {
	catalog := "- 无可用候选链接（请返回空 link_id）"
	if len(catalogLines) > 0 {
		catalog = strings.Join(catalogLines, "\n")
	}

	return fmt.Sprintf(`标题：%s
来源：%s
URL：%s

候选链接（只能返回 link_id，不要返回 URL）：
%s

内容：
%s`, article.Title, article.Source, article.URL, catalog, content)
}

// truncateContent cuts at a rune boundary, never mid-codepoint.
func truncateContent(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
