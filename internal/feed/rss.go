package feed

import (
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hubtoday/weeklyagent/internal/config"
	"github.com/hubtoday/weeklyagent/internal/logger"
	"github.com/hubtoday/weeklyagent/internal/metrics"
)

// RSSFetcher pulls articles from a list of RSS/Atom feeds.
type RSSFetcher struct {
	parser *gofeed.Parser
	feeds  []config.Feed
}

func NewRSSFetcher(feeds []config.Feed) *RSSFetcher {
	return &RSSFetcher{
		parser: gofeed.NewParser(),
		feeds:  feeds,
	}
}

// FetchAll downloads and parses every feed. A broken feed is logged and
// skipped, it never aborts the batch.
func (f *RSSFetcher) FetchAll(ctx context.Context) []Article {
	var articles []Article
	success := 0

	for _, feed := range f.feeds {
		parsed, err := f.parser.ParseURLWithContext(feed.URL, ctx)
		if err != nil {
			logger.Warn("feed parse failed", "feed", feed.URL, "err", err)
			metrics.Global.IncrementFeedErrors()
			continue
		}
		for _, item := range parsed.Items {
			articles = append(articles, itemToArticle(item, feed.Name))
		}
		success++
		logger.Debug("feed loaded", "feed", feed.URL, "items", len(parsed.Items))
	}

	logger.Info("feeds fetched", "ok", success, "total", len(f.feeds), "articles", len(articles))
	return articles
}

func itemToArticle(item *gofeed.Item, source string) Article {
	content := ""
	if item.Content != "" {
		content = item.Content
	} else if item.Description != "" {
		content = item.Description
	}
	content = StripHTML(content)

	summary := StripHTML(item.Description)
	if summary == "" {
		summary = truncateRunes(content, 500)
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.UTC()
	}

	author := ""
	if item.Author != nil {
		author = item.Author.Name
	}

	return Article{
		Title:     strings.TrimSpace(item.Title),
		URL:       strings.TrimSpace(item.Link),
		Content:   content,
		Summary:   summary,
		Published: published,
		Source:    source,
		Author:    author,
		Tags:      item.Categories,
		ImageURL:  itemImage(item),
	}
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

// IsFeedURL reports whether a source URL looks like an RSS/Atom feed
// rather than a plain article page. WeChat links are always pages.
func IsFeedURL(url string) bool {
	lower := strings.ToLower(url)
	if strings.Contains(lower, "mp.weixin.qq.com") {
		return false
	}
	if strings.HasSuffix(lower, ".xml") || strings.HasSuffix(lower, ".rss") || strings.HasSuffix(lower, ".atom") {
		return true
	}
	return strings.Contains(lower, "rss") || strings.Contains(lower, "feed")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
