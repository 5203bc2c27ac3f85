package quota

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hubtoday/weeklyagent/internal/ai"
	"github.com/hubtoday/weeklyagent/internal/config"
	"github.com/hubtoday/weeklyagent/internal/dedup"
	"github.com/hubtoday/weeklyagent/internal/extract"
	"github.com/hubtoday/weeklyagent/internal/feed"
	"github.com/hubtoday/weeklyagent/internal/httpx"
	"github.com/hubtoday/weeklyagent/internal/images"
	"github.com/hubtoday/weeklyagent/internal/logger"
	"github.com/hubtoday/weeklyagent/internal/render"
)

const trendingURL = "https://github.com/trending?since=daily"

// Curated online sources per category, used only when the configured
// feeds leave a category short.
var fallbackFeeds = map[string][]config.Feed{
	"AI资讯": {
		{Name: "OpenAI News", URL: "https://openai.com/news/rss.xml"},
		{Name: "Hugging Face Blog", URL: "https://huggingface.co/blog/feed.xml"},
		{Name: "Google AI Blog", URL: "https://blog.google/technology/ai/rss/"},
		{Name: "VentureBeat AI", URL: "https://venturebeat.com/category/ai/feed/"},
		{Name: "AI News", URL: "https://www.artificialintelligence-news.com/feed/"},
		{Name: "MIT AI Topic", URL: "https://www.technologyreview.com/topic/artificial-intelligence/feed"},
	},
	"时事": {
		{Name: "TechCrunch", URL: "https://techcrunch.com/feed/"},
		{Name: "The Verge", URL: "https://www.theverge.com/rss/index.xml"},
		{Name: "InfoQ", URL: "https://www.infoq.com/feed/"},
		{Name: "36Kr", URL: "https://www.36kr.com/feed"},
	},
	"教程": {
		{Name: "Frontend Masters Blog", URL: "https://frontendmasters.com/blog/feed/"},
		{Name: "CSS-Tricks", URL: "https://css-tricks.com/feed/"},
		{Name: "Smashing Magazine", URL: "https://www.smashingmagazine.com/feed/"},
		{Name: "web.dev", URL: "https://web.dev/feed.xml"},
	},
}

var spaceRun = regexp.MustCompile(`\s+`)

// trendingRepo is one row scraped from GitHub Trending.
type trendingRepo struct {
	Name        string
	URL         string
	Description string
	Stars       string
}

// Supplementer backfills short categories from curated RSS feeds and,
// for the tools category, GitHub Trending.
type Supplementer struct {
	client    *httpx.Client
	completer ai.Completer
	images    *images.Resolver
	store     *dedup.Store
	window    time.Duration
	now       func() time.Time
}

func NewSupplementer(client *httpx.Client, completer ai.Completer, imgs *images.Resolver, store *dedup.Store, window time.Duration) *Supplementer {
	return &Supplementer{
		client:    client,
		completer: completer,
		images:    imgs,
		store:     store,
		window:    window,
		now:       time.Now,
	}
}

// SupplementFeeds fills a category up to needed items from its curated
// fallback feeds. Supplied items respect both the run dedup set and
// the persistent store, and claim their image URLs in usedImages.
func (s *Supplementer) SupplementFeeds(ctx context.Context, category string, needed int, runKeys map[string]bool, usedImages map[string]bool) []render.Item {
	if needed <= 0 {
		return nil
	}
	feeds := fallbackFeeds[category]
	maxArticles := needed * 20
	if maxArticles < 80 {
		maxArticles = 80
	}
	articles := s.collectFallbackArticles(ctx, feeds, maxArticles)

	var items []render.Item
	for _, article := range articles {
		title := strings.TrimSpace(article.Title)
		itemURL := strings.TrimSpace(article.URL)
		if title == "" || itemURL == "" {
			continue
		}

		key := dedup.BuildKey(itemURL, itemURL, title)
		if runKeys[key] {
			continue
		}
		if s.store != nil && s.store.IsDuplicate(key) {
			continue
		}

		raw := article.Summary
		if raw == "" {
			raw = article.Content
		}
		if raw == "" {
			raw = title
		}
		summary := s.composeCommentary(ctx, title, raw, category)
		if summary == "" || summary == extract.NoDescription {
			continue
		}

		imageURL := ""
		if s.images != nil {
			imageURL = s.images.Resolve(ctx, itemURL, itemURL, article.ImageURL)
		}
		if imageURL != "" && usedImages[imageURL] {
			imageURL = ""
		}
		if imageURL != "" {
			usedImages[imageURL] = true
		}

		runKeys[key] = true
		items = append(items, render.Item{
			Title:      title,
			ShortTitle: title,
			Summary:    summary,
			Category:   category,
			IsEnglish:  extract.DetectEnglish(title),
			ItemURL:    itemURL,
			SourceURL:  itemURL,
			ImageURL:   imageURL,
		})
		if len(items) >= needed {
			break
		}
	}

	if len(items) > 0 {
		logger.Info("category supplemented from fallback feeds", "category", category, "count", len(items))
	}
	return items
}

// collectFallbackArticles fetches the curated feeds and returns recent
// articles newest first. The time window is widened relative to the
// main run so the minimum can actually be met.
func (s *Supplementer) collectFallbackArticles(ctx context.Context, feeds []config.Feed, maxArticles int) []feed.Article {
	if len(feeds) == 0 {
		return nil
	}
	articles := feed.NewRSSFetcher(feeds).FetchAll(ctx)
	if len(articles) == 0 {
		return nil
	}

	window := s.window
	if window < 336*time.Hour {
		window = 336 * time.Hour
	}
	cutoff := s.now().UTC().Add(-window)

	var recent []feed.Article
	for _, article := range articles {
		if article.Published.IsZero() || !article.Published.Before(cutoff) {
			recent = append(recent, article)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp().After(recent[j].Timestamp())
	})
	if len(recent) > maxArticles {
		recent = recent[:maxArticles]
	}
	return recent
}

// SupplementTools fills the tools category from GitHub Trending.
func (s *Supplementer) SupplementTools(ctx context.Context, needed int, runKeys map[string]bool) []render.Item {
	if needed <= 0 {
		return nil
	}
	limit := needed * 4
	if limit < 20 {
		limit = 20
	}
	repos := s.fetchTrending(ctx, limit)

	var items []render.Item
	for _, repo := range repos {
		if repo.Name == "" || repo.URL == "" {
			continue
		}
		key := dedup.BuildKey(repo.URL, repo.URL, repo.Name)
		if runKeys[key] {
			continue
		}
		if s.store != nil && s.store.IsDuplicate(key) {
			continue
		}

		runKeys[key] = true
		items = append(items, render.Item{
			Title:      repo.Name,
			ShortTitle: repo.Name,
			Summary:    toolSummary(repo.Name, repo.Description, repo.Stars),
			Category:   "工具",
			IsEnglish:  extract.DetectEnglish(repo.Name),
			ItemURL:    repo.URL,
			SourceURL:  repo.URL,
		})
		if len(items) >= needed {
			break
		}
	}

	if len(items) > 0 {
		logger.Info("tools supplemented from github trending", "count", len(items))
	}
	return items
}

func (s *Supplementer) fetchTrending(ctx context.Context, limit int) []trendingRepo {
	body, err := s.client.Get(ctx, trendingURL)
	if err != nil {
		logger.Warn("fetch github trending failed", "error", err)
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		logger.Warn("parse github trending failed", "error", err)
		return nil
	}

	var repos []trendingRepo
	doc.Find("article.Box-row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		link := row.Find("h2 a[href]").First()
		href, _ := link.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return true
		}
		repoURL := href
		if u, err := url.Parse("https://github.com"); err == nil {
			if ref, err := url.Parse(href); err == nil {
				repoURL = u.ResolveReference(ref).String()
			}
		}
		name := strings.Trim(spaceRun.ReplaceAllString(link.Text(), ""), "/")
		if name == "" {
			return true
		}

		desc := strings.TrimSpace(row.Find("p").First().Text())
		stars := strings.TrimSpace(row.Find(`a[href$="/stargazers"]`).First().Text())

		repos = append(repos, trendingRepo{
			Name:        name,
			URL:         repoURL,
			Description: spaceRun.ReplaceAllString(desc, " "),
			Stars:       spaceRun.ReplaceAllString(stars, " "),
		})
		return len(repos) < limit
	})
	return repos
}

// toolSummary builds the editorial blurb for a trending repository.
func toolSummary(name, description, stars string) string {
	desc := spaceRun.ReplaceAllString(strings.TrimSpace(description), " ")
	if r := []rune(desc); len(r) > 100 {
		desc = strings.TrimRight(string(r[:100]), "，,；;。.!?！？:：") + "..."
	}
	starsText := ""
	if stars != "" {
		starsText = fmt.Sprintf("，当前热度 %s", stars)
	}
	var summary string
	if desc != "" {
		summary = fmt.Sprintf("🚀 GitHub 热门项目 %s%s：%s。建议先看 README 与最近提交，再评估是否引入到你的工作流。⭐🛠️", name, starsText, desc)
	} else {
		summary = fmt.Sprintf("🚀 GitHub 热门项目 %s%s，近期关注度很高。建议快速浏览 README、Issue 与示例，判断是否适合当前业务。⭐🛠️", name, starsText)
	}
	return extract.Editorialize(summary)
}

// composeCommentary asks the model for a short editorial note, falling
// back to local formatting of the source summary.
func (s *Supplementer) composeCommentary(ctx context.Context, title, rawSummary, category string) string {
	base := extract.CleanSummary(rawSummary)
	if base == extract.NoDescription {
		return base
	}

	material := base
	if r := []rune(material); len(r) > 320 {
		material = string(r[:320])
	}
	prompt := fmt.Sprintf(`你是技术周刊编辑。请基于给定标题和素材，写一段中文点评。

要求：
1. 2-3句，总长度约70-130字
2. 不要照抄素材原句，要有编辑视角
3. 包含2-4个emoji
4. 不要输出标题，不要markdown，仅输出一段正文

分类：%s
标题：%s
素材：%s`, category, title, material)

	if s.completer != nil {
		content, err := s.completer.Complete(ctx, "你是专业的技术编辑。", prompt, 220, 0.5)
		if err == nil && strings.TrimSpace(content) != "" {
			return extract.Editorialize(content)
		}
		if err != nil {
			logger.Debug("editor commentary failed, using local fallback", "title", title, "error", err)
		}
	}
	return extract.Editorialize(base)
}
