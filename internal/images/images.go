// Package images resolves a representative image per weekly item,
// preferring the item's own page and rejecting decorative assets.
package images

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hubtoday/weeklyagent/internal/httpx"
	"github.com/hubtoday/weeklyagent/internal/logger"
)

// Keywords marking a site-decoration image rather than article art.
var badImageKeywords = []string{
	"logo",
	"avatar",
	"favicon",
	"icon",
	"sprite",
	"placeholder",
	"default",
	"wechat-qun",
	"qrcode",
	"qr-code",
}

var metaImageSelectors = []string{
	`meta[property="og:image"]`,
	`meta[property="og:image:url"]`,
	`meta[name="twitter:image"]`,
	`meta[itemprop="image"]`,
}

const contentImageSelector = "article img, main img, .content img, #content img, body img"

// Resolver looks up images with a per-run page cache so no page is
// fetched twice. Runs are single-threaded, the cache needs no lock.
type Resolver struct {
	client *httpx.Client
	cache  map[string]string
}

func NewResolver(client *httpx.Client) *Resolver {
	return &Resolver{
		client: client,
		cache:  make(map[string]string),
	}
}

// IsBadImageURL rejects empty, decorative and vector/icon URLs.
func IsBadImageURL(imageURL string) bool {
	if imageURL == "" {
		return true
	}
	lower := strings.ToLower(imageURL)
	for _, kw := range badImageKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return strings.HasSuffix(lower, ".svg") || strings.HasSuffix(lower, ".ico")
}

func isWeChatSource(sourceURL string) bool {
	return strings.Contains(strings.ToLower(sourceURL), "mp.weixin.qq.com")
}

// PagePreviewImage extracts a preview image from a page, og:image
// first. Results, including misses, are cached for the run.
func (r *Resolver) PagePreviewImage(ctx context.Context, pageURL string) string {
	if pageURL == "" || !strings.HasPrefix(pageURL, "http") {
		return ""
	}
	if cached, ok := r.cache[pageURL]; ok {
		return cached
	}

	imageURL := r.lookupPageImage(ctx, pageURL)
	r.cache[pageURL] = imageURL
	return imageURL
}

func (r *Resolver) lookupPageImage(ctx context.Context, pageURL string) string {
	body, err := r.client.Get(ctx, pageURL)
	if err != nil {
		logger.Debug("image page fetch failed", "url", pageURL, "err", err)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		logger.Debug("image page parse failed", "url", pageURL, "err", err)
		return ""
	}

	for _, sel := range metaImageSelectors {
		value, _ := doc.Find(sel).First().Attr("content")
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		candidate := resolveURL(pageURL, value)
		if !IsBadImageURL(candidate) {
			return candidate
		}
	}

	img := doc.Find(contentImageSelector).First()
	if img.Length() > 0 {
		src := strings.TrimSpace(img.AttrOr("src", img.AttrOr("data-src", "")))
		if src != "" {
			candidate := resolveURL(pageURL, src)
			if !IsBadImageURL(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// Resolve picks an image for one item: the item's own page first, then
// the collector's hint, then the source page. WeChat aggregator covers
// are never reused when the item page has no image of its own.
func (r *Resolver) Resolve(ctx context.Context, itemURL, sourceURL, fallbackHint string) string {
	itemURL = strings.TrimSpace(itemURL)
	sourceURL = strings.TrimSpace(sourceURL)

	if itemURL != "" && itemURL != sourceURL {
		if imageURL := r.PagePreviewImage(ctx, itemURL); imageURL != "" && !IsBadImageURL(imageURL) {
			return imageURL
		}
		if isWeChatSource(sourceURL) {
			return ""
		}
	}

	if fallbackHint != "" && !IsBadImageURL(fallbackHint) {
		return fallbackHint
	}

	if sourceURL != "" {
		if imageURL := r.PagePreviewImage(ctx, sourceURL); imageURL != "" && !IsBadImageURL(imageURL) {
			return imageURL
		}
	}
	return ""
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
