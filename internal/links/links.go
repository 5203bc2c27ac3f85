// Package links resolves candidate sub-links for aggregator articles:
// extraction from the body, prompt catalog encoding and per-item
// link assignment.
package links

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hubtoday/weeklyagent/internal/feed"
	"github.com/hubtoday/weeklyagent/internal/httpx"
	"github.com/hubtoday/weeklyagent/internal/logger"
)

// Candidate is one sub-link discovered in an article body or its
// source page. Scoped to a single extraction pass.
type Candidate struct {
	Anchor string
	URL    string
}

// MaxPromptCandidates caps the catalog embedded into the prompt.
const MaxPromptCandidates = 40

var (
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]{2,200})\]\((https?://[^\s)]+)\)`)
	bareURLPattern      = regexp.MustCompile(`https?://[^\s<>()]+`)
	linkIDPattern       = regexp.MustCompile(`^L(\d+)$`)
	spacePattern        = regexp.MustCompile(`\s+`)
	titleTokenPattern   = regexp.MustCompile(`[\p{Han}]{2,}|[a-z0-9]{3,}`)
)

// Anchor phrases that mark navigation/social noise rather than items.
var noiseAnchors = []string{
	"关于我",
	"同性交友",
	"进群",
	"访问网页版",
	"小酒馆",
	"自媒体",
	"前往官网查看完整版",
	"阅读全文",
	"点击查看原文",
	"原文链接",
}

var noiseURLParts = []string{"logo", "avatar", "favicon", ".jpg", ".jpeg", ".png", ".gif", ".svg"}

// Content-region selectors tried in priority order when scraping the
// source page for extra candidates.
var contentRootSelectors = []string{
	"main", "article", ".content", "#content", ".post-content", ".rich_media_content", "body",
}

// Resolver extracts and assigns candidate links.
type Resolver struct {
	client *httpx.Client
}

func NewResolver(client *httpx.Client) *Resolver {
	return &Resolver{client: client}
}

// ExtractCandidates pulls markdown links and bare URLs out of the
// article body. When that yields at most one candidate it supplements
// from the live source page; a failed fetch degrades to the static set.
func (r *Resolver) ExtractCandidates(ctx context.Context, article feed.Article) []Candidate {
	text := article.Content + "\n" + article.Summary

	var candidates []Candidate
	seen := map[string]bool{}

	for _, match := range markdownLinkPattern.FindAllStringSubmatch(text, -1) {
		anchor := strings.TrimSpace(match[1])
		link := strings.TrimRight(strings.TrimSpace(match[2]), ").,;")
		if link == "" || link == article.URL || seen[link] {
			continue
		}
		if IsNoiseLink(anchor, link) {
			continue
		}
		seen[link] = true
		candidates = append(candidates, Candidate{Anchor: anchor, URL: link})
	}

	for _, match := range bareURLPattern.FindAllString(text, -1) {
		link := strings.TrimRight(strings.TrimSpace(match), ").,;")
		if link == "" || link == article.URL || seen[link] {
			continue
		}
		if IsNoiseLink("", link) {
			continue
		}
		seen[link] = true
		candidates = append(candidates, Candidate{URL: link})
	}

	if len(candidates) <= 1 && strings.HasPrefix(article.URL, "http") {
		for _, c := range r.candidatesFromSourcePage(ctx, article.URL) {
			if c.URL == article.URL || seen[c.URL] {
				continue
			}
			seen[c.URL] = true
			candidates = append(candidates, c)
		}
	}

	return candidates
}

// candidatesFromSourcePage scrapes anchor links from the best-guess
// main-content region of the source page.
func (r *Resolver) candidatesFromSourcePage(ctx context.Context, sourceURL string) []Candidate {
	body, err := r.client.Get(ctx, sourceURL)
	if err != nil {
		logger.Debug("source page candidate fetch failed", "url", sourceURL, "err", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		logger.Debug("source page parse failed", "url", sourceURL, "err", err)
		return nil
	}

	var root *goquery.Selection
	for _, sel := range contentRootSelectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			root = node
			break
		}
	}
	if root == nil {
		return nil
	}

	base, err := url.Parse(sourceURL)
	if err != nil {
		return nil
	}

	var result []Candidate
	seen := map[string]bool{}
	root.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		full := strings.TrimSpace(base.ResolveReference(ref).String())
		if !strings.HasPrefix(full, "http") || seen[full] {
			return
		}
		text := spacePattern.ReplaceAllString(strings.TrimSpace(a.Text()), " ")
		if IsNoiseLink(text, full) {
			return
		}
		seen[full] = true
		result = append(result, Candidate{Anchor: text, URL: full})
	})
	return result
}

// IsNoiseLink filters navigation, social and asset links that must not
// become item URLs.
func IsNoiseLink(anchor, link string) bool {
	lowerAnchor := strings.ToLower(anchor)
	lowerURL := strings.ToLower(link)

	for _, phrase := range noiseAnchors {
		if strings.Contains(lowerAnchor, strings.ToLower(phrase)) {
			return true
		}
	}
	for _, part := range noiseURLParts {
		if strings.Contains(lowerURL, part) {
			return true
		}
	}

	if parsed, err := url.Parse(lowerURL); err == nil {
		if parsed.Host == "ai.hubtoday.app" && strings.Trim(parsed.Path, "/") == "" {
			return true
		}
	}
	if strings.Contains(lowerURL, "github.com/justlovemaki") {
		return true
	}

	return false
}

// EncodeForPrompt renders up to max candidates as catalog lines and
// returns the id→URL mapping. IDs are only valid for one extraction
// call and must never be persisted.
func EncodeForPrompt(candidates []Candidate, max int) ([]string, map[string]string) {
	if max <= 0 {
		max = MaxPromptCandidates
	}
	if len(candidates) > max {
		candidates = candidates[:max]
	}

	lines := make([]string, 0, len(candidates))
	idMap := make(map[string]string, len(candidates))

	for i, c := range candidates {
		id := fmt.Sprintf("L%d", i+1)
		label := spacePattern.ReplaceAllString(strings.TrimSpace(c.Anchor), " ")
		if runes := []rune(label); len(runes) > 80 {
			label = string(runes[:80])
		}
		if label == "" {
			label = "（无锚文本）"
		}
		lines = append(lines, fmt.Sprintf("- %s | %s | %s", id, label, c.URL))
		idMap[id] = c.URL
	}

	return lines, idMap
}

// NormalizeLinkID accepts "L3", "l3" and bare "3" forms, anything else
// normalizes to empty.
func NormalizeLinkID(raw string) string {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return ""
	}
	if n, err := strconv.Atoi(value); err == nil {
		return fmt.Sprintf("L%d", n)
	}
	match := linkIDPattern.FindStringSubmatch(value)
	if match == nil {
		return ""
	}
	n, _ := strconv.Atoi(match[1])
	return fmt.Sprintf("L%d", n)
}

// scoreMatch counts how many title tokens appear in the candidate's
// anchor text or URL.
func scoreMatch(title, anchor, link string) int {
	tokens := titleTokenPattern.FindAllString(strings.ToLower(title), -1)
	if len(tokens) == 0 {
		return 0
	}
	haystack := strings.ToLower(anchor + " " + link)
	unique := map[string]bool{}
	score := 0
	for _, token := range tokens {
		if unique[token] {
			continue
		}
		unique[token] = true
		if strings.Contains(haystack, token) {
			score++
		}
	}
	return score
}

// SelectLink assigns the best unused candidate URL to an item:
// preferred id first, then the highest title-match score, then the
// first unused candidate, finally the fallback (source) URL. Any
// non-fallback selection is marked used for the rest of the article.
func SelectLink(itemTitle string, candidates []Candidate, used map[string]bool, fallbackURL, preferredID string, idMap map[string]string) string {
	if id := NormalizeLinkID(preferredID); id != "" && idMap != nil {
		if preferred := idMap[id]; preferred != "" && !used[preferred] {
			used[preferred] = true
			return preferred
		}
	}

	bestURL := ""
	bestScore := 0
	for _, c := range candidates {
		if used[c.URL] {
			continue
		}
		if score := scoreMatch(itemTitle, c.Anchor, c.URL); score > bestScore {
			bestScore = score
			bestURL = c.URL
		}
	}
	if bestURL != "" {
		used[bestURL] = true
		return bestURL
	}

	for _, c := range candidates {
		if !used[c.URL] {
			used[c.URL] = true
			return c.URL
		}
	}

	return fallbackURL
}
