package feed

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hubtoday/weeklyagent/internal/config"
	"github.com/hubtoday/weeklyagent/internal/httpx"
	"github.com/hubtoday/weeklyagent/internal/logger"
)

// WebFetcher turns plain article pages (WeChat posts and similar
// non-RSS sources) into Article records.
type WebFetcher struct {
	client *httpx.Client
}

func NewWebFetcher(client *httpx.Client) *WebFetcher {
	return &WebFetcher{client: client}
}

// FetchAll fetches every page, skipping failures.
func (w *WebFetcher) FetchAll(ctx context.Context, sources []config.Feed) []Article {
	var articles []Article
	for _, src := range sources {
		if src.URL == "" {
			continue
		}
		article, err := w.FetchURL(ctx, src.URL, src.Name)
		if err != nil {
			logger.Warn("page fetch failed", "url", src.URL, "err", err)
			continue
		}
		articles = append(articles, *article)
	}
	return articles
}

// FetchURL fetches one page and extracts title, text and a preview image.
func (w *WebFetcher) FetchURL(ctx context.Context, pageURL, name string) (*Article, error) {
	body, err := w.client.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	title := extractPageTitle(doc, pageURL)
	content := documentText(doc)
	summary := truncateRunes(content, 500)

	return &Article{
		Title:     title,
		URL:       pageURL,
		Content:   content,
		Summary:   summary,
		Published: time.Now().UTC(), // pages rarely expose a publish date
		Source:    name,
		ImageURL:  ExtractPageImage(doc, pageURL),
	}, nil
}

func extractPageTitle(doc *goquery.Document, pageURL string) string {
	if strings.Contains(pageURL, "mp.weixin.qq.com") {
		if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
			return strings.TrimSpace(og)
		}
		if h1 := strings.TrimSpace(doc.Find("h1.rich_media_title").First().Text()); h1 != "" {
			return h1
		}
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// ExtractPageImage finds a representative image: social-card meta tags
// first, then the first plausibly large in-content image.
func ExtractPageImage(doc *goquery.Document, pageURL string) string {
	metaSelectors := []string{
		`meta[property="og:image"]`,
		`meta[property="og:image:url"]`,
		`meta[name="twitter:image"]`,
		`meta[itemprop="image"]`,
	}
	for _, sel := range metaSelectors {
		if value, ok := doc.Find(sel).First().Attr("content"); ok {
			value = strings.TrimSpace(value)
			if value != "" && !strings.HasPrefix(value, "data:") {
				return resolveURL(pageURL, value)
			}
		}
	}

	contentSelectors := []string{
		"article img",
		".content img",
		".post-content img",
		"main img",
		"#content img",
		".rich_media_content img",
		"body img",
	}
	for _, sel := range contentSelectors {
		found := ""
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src := strings.TrimSpace(s.AttrOr("src", s.AttrOr("data-src", "")))
			if src == "" || strings.HasPrefix(src, "data:") || len(src) <= 10 {
				return true
			}
			if tooSmall(s.AttrOr("width", "")) || tooSmall(s.AttrOr("height", "")) {
				return true
			}
			found = resolveURL(pageURL, src)
			return false
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func tooSmall(dim string) bool {
	if dim == "" {
		return false
	}
	n, err := strconv.Atoi(dim)
	return err == nil && n < 50
}

func resolveURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	multiBlankPattern = regexp.MustCompile(`\n{3,}`)
)

// StripHTML reduces an HTML fragment to readable text. goquery handles
// well-formed markup, the regex path covers broken fragments.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}
	if !strings.Contains(html, "<") {
		return strings.TrimSpace(html)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(tagPattern.ReplaceAllString(html, " "))
	}
	return documentText(doc)
}

func documentText(doc *goquery.Document) string {
	doc.Find("script, style, noscript").Remove()

	var parts []string
	doc.Find("p, li, h1, h2, h3, h4, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		text := strings.TrimSpace(doc.Text())
		return multiBlankPattern.ReplaceAllString(text, "\n\n")
	}
	return multiBlankPattern.ReplaceAllString(strings.Join(parts, "\n\n"), "\n\n")
}
