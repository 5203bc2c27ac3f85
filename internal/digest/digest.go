// Package digest runs the weekly pipeline end to end: fetch, extract,
// dedup, backfill, render, persist.
package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/hubtoday/weeklyagent/internal/ai"
	"github.com/hubtoday/weeklyagent/internal/config"
	"github.com/hubtoday/weeklyagent/internal/dedup"
	"github.com/hubtoday/weeklyagent/internal/extract"
	"github.com/hubtoday/weeklyagent/internal/feed"
	"github.com/hubtoday/weeklyagent/internal/httpx"
	"github.com/hubtoday/weeklyagent/internal/images"
	"github.com/hubtoday/weeklyagent/internal/issue"
	"github.com/hubtoday/weeklyagent/internal/links"
	"github.com/hubtoday/weeklyagent/internal/logger"
	"github.com/hubtoday/weeklyagent/internal/metrics"
	"github.com/hubtoday/weeklyagent/internal/quota"
	"github.com/hubtoday/weeklyagent/internal/render"
	"github.com/hubtoday/weeklyagent/internal/training"
)

// trainingKey is the config key whose category is filled from LeetCode
// instead of feeds.
const trainingKey = "training"

// Generator owns one weekly run. Not safe for concurrent use; a run is
// strictly sequential.
type Generator struct {
	cfg       *config.Config
	client    *httpx.Client
	completer ai.Completer
	extractor *extract.Extractor
	images    *images.Resolver
	store     *dedup.Store
	issues    *issue.Store
	now       func() time.Time
}

func New(cfg *config.Config, completer ai.Completer) *Generator {
	client := httpx.NewClient(cfg.RequestTimeout, httpx.RetryConfig{
		MaxAttempts: cfg.RetryAttempts,
		Delay:       cfg.RetryDelay,
		Backoff:     true,
	})

	resolver := links.NewResolver(client)
	return &Generator{
		cfg:       cfg,
		client:    client,
		completer: completer,
		extractor: extract.NewExtractor(completer, resolver, cfg.CategoryNames(), cfg.AI.MaxTokens),
		images:    images.NewResolver(client),
		store:     dedup.NewStore(cfg.Dedup.CacheFile, cfg.Dedup.CacheExpireHours),
		issues:    issue.NewStore(cfg.State.IssueFile, cfg.Weekly.CurrentIssue),
		now:       time.Now,
	}
}

// runState carries the per-run uniqueness sets threaded through the
// pipeline stages.
type runState struct {
	dedupKeys  map[string]bool
	usedImages map[string]bool
}

// Generate produces one weekly issue and returns the output path. In
// dry-run mode nothing is written and the path is empty.
func (g *Generator) Generate(ctx context.Context, dryRun bool) (string, error) {
	started := g.now()
	issueNum := g.issues.Current()
	date := started.Format(g.cfg.Weekly.DateFormat)

	logger.Info("weekly run started", "issue", issueNum, "date", date)

	state := &runState{
		dedupKeys:  map[string]bool{},
		usedImages: map[string]bool{},
	}
	buckets := g.processArticles(ctx, state)

	if trainingCfg, ok := g.cfg.Categories[trainingKey]; ok {
		if items := g.trainingItems(ctx, trainingCfg); len(items) > 0 {
			buckets["训练"] = items
		}
	}

	g.supplementShortCategories(ctx, buckets, state)
	g.enforceMaximums(buckets)

	if dryRun {
		logger.Info("dry run, skipping save")
		for name, items := range buckets {
			for _, item := range items {
				logger.Info("dry run item", "category", name, "title", item.Title)
			}
		}
		return "", nil
	}

	formatter := render.NewFormatter(g.cfg.OutputPath(issueNum, date))
	savedPath, err := formatter.Save(issueNum, date, buckets)
	if err != nil {
		return "", fmt.Errorf("save weekly: %w", err)
	}

	g.persistDedup(buckets)

	if err := g.issues.Advance(issueNum); err != nil {
		return "", fmt.Errorf("advance issue state: %w", err)
	}

	metrics.Global.SetLastRun(issueNum)
	metrics.Global.RecordRunDuration(g.now().Sub(started))
	logger.Info("weekly run finished", "issue", issueNum, "path", savedPath)
	return savedPath, nil
}

// fetchCategoryArticles pulls a category's sources, splitting RSS feeds
// from plain pages, then applies the freshness and quality filters.
func (g *Generator) fetchCategoryArticles(ctx context.Context, cat config.Category) []feed.Article {
	if len(cat.Feeds) == 0 {
		return nil
	}

	var rssFeeds, webPages []config.Feed
	for _, f := range cat.Feeds {
		if feed.IsFeedURL(f.URL) {
			rssFeeds = append(rssFeeds, f)
		} else {
			webPages = append(webPages, f)
		}
	}

	var articles []feed.Article
	if len(rssFeeds) > 0 {
		articles = append(articles, feed.NewRSSFetcher(rssFeeds).FetchAll(ctx)...)
	}
	if len(webPages) > 0 {
		articles = append(articles, feed.NewWebFetcher(g.client).FetchAll(ctx, webPages)...)
	}
	if len(articles) == 0 {
		return nil
	}

	filter := &feed.Filter{
		MaxAge:           time.Duration(g.cfg.TimeFilter.Hours) * time.Hour,
		IncludeKeywords:  cat.Keywords,
		MinContentLength: g.cfg.PreFilter.MinContentLength,
	}
	return filter.Apply(articles)
}

// collectArticles gathers every category's articles, deduplicated by
// source URL so shared feeds are fetched into the run only once.
func (g *Generator) collectArticles(ctx context.Context) []feed.Article {
	seen := map[string]bool{}
	var all []feed.Article
	for key, cat := range g.cfg.Categories {
		if key == trainingKey {
			continue
		}
		for _, article := range g.fetchCategoryArticles(ctx, cat) {
			if seen[article.URL] {
				continue
			}
			seen[article.URL] = true
			all = append(all, article)
		}
	}
	logger.Info("articles collected", "count", len(all))
	return all
}

// processArticles extracts items from every collected article and
// groups the survivors by category.
func (g *Generator) processArticles(ctx context.Context, state *runState) map[string][]render.Item {
	allowed := map[string]bool{}
	for _, name := range g.cfg.CategoryNames() {
		allowed[name] = true
	}

	buckets := map[string][]render.Item{}
	articles := g.collectArticles(ctx)
	metrics.Global.AddArticlesProcessed(len(articles))

	for _, article := range articles {
		drafts := g.extractor.Extract(ctx, article)
		metrics.Global.AddItemsExtracted(len(drafts))

		for _, draft := range drafts {
			category := draft.Category
			if !allowed[category] {
				category = extract.DefaultCategory
			}

			key := dedup.BuildKey(draft.ItemURL, draft.SourceURL, draft.Title)
			if state.dedupKeys[key] {
				continue
			}
			if g.store.IsDuplicate(key) {
				metrics.Global.IncrementDuplicatesFiltered()
				logger.Debug("duplicate item skipped", "title", draft.Title)
				continue
			}
			state.dedupKeys[key] = true

			buckets[category] = append(buckets[category], render.Item{
				Title:      draft.Title,
				ShortTitle: draft.Title,
				Summary:    draft.Summary,
				Category:   category,
				IsEnglish:  draft.IsEnglish,
				ItemURL:    draft.ItemURL,
				SourceURL:  draft.SourceURL,
				ImageURL:   g.resolveItemImage(ctx, draft, state),
			})
		}
	}
	return buckets
}

// resolveItemImage picks an image for the draft while keeping images
// unique across the whole issue. On a collision the item page gets one
// more chance before the image is dropped.
func (g *Generator) resolveItemImage(ctx context.Context, draft extract.Draft, state *runState) string {
	imageURL := g.images.Resolve(ctx, draft.ItemURL, draft.SourceURL, draft.ImageURL)
	if imageURL != "" && state.usedImages[imageURL] {
		imageURL = ""
		if draft.ItemURL != "" && draft.ItemURL != draft.SourceURL {
			alt := g.images.PagePreviewImage(ctx, draft.ItemURL)
			if alt != "" && !images.IsBadImageURL(alt) && !state.usedImages[alt] {
				imageURL = alt
			}
		}
	}
	if imageURL != "" {
		state.usedImages[imageURL] = true
	}
	return imageURL
}

// supplementShortCategories backfills every category that sits below
// its effective minimum.
func (g *Generator) supplementShortCategories(ctx context.Context, buckets map[string][]render.Item, state *runState) {
	supplementer := quota.NewSupplementer(g.client, g.completer, g.images, g.store,
		time.Duration(g.cfg.TimeFilter.Hours)*time.Hour)

	for key, cat := range g.cfg.Categories {
		if key == trainingKey {
			continue
		}
		min := quota.EffectiveMin(cat.Name, cat.MinCount)
		needed := min - len(buckets[cat.Name])
		if needed <= 0 {
			continue
		}

		var extra []render.Item
		if cat.Name == "工具" {
			extra = supplementer.SupplementTools(ctx, needed, state.dedupKeys)
		} else {
			extra = supplementer.SupplementFeeds(ctx, cat.Name, needed, state.dedupKeys, state.usedImages)
		}
		if len(extra) > 0 {
			buckets[cat.Name] = append(buckets[cat.Name], extra...)
			metrics.Global.AddFallbackSupplied(len(extra))
		}
	}
}

// enforceMaximums truncates oversized buckets and logs categories that
// stayed short even after backfill.
func (g *Generator) enforceMaximums(buckets map[string][]render.Item) {
	for _, cat := range g.cfg.Categories {
		items, ok := buckets[cat.Name]
		if !ok {
			continue
		}
		items = quota.EnforceMax(items, cat.MaxCount)
		buckets[cat.Name] = items

		min := quota.EffectiveMin(cat.Name, cat.MinCount)
		if len(items) < min {
			logger.Warn("category short of minimum", "category", cat.Name, "count", len(items), "min", min)
		}
		logger.Info("category finalized", "category", cat.Name, "count", len(items))
	}
}

// trainingItems fills the 训练 section from LeetCode.
func (g *Generator) trainingItems(ctx context.Context, cat config.Category) []render.Item {
	lc := cat.LeetCode
	if lc == nil || !lc.Enabled {
		return nil
	}
	count := lc.Count
	if count <= 0 {
		count = 2
	}

	fetcher := training.NewFetcher(g.client, lc.Difficulties, g.now().UnixNano())
	items := training.Items(fetcher.RandomProblems(ctx, count))
	logger.Info("training items prepared", "count", len(items))
	return items
}

// persistDedup records every published item except training problems.
// A store failure downgrades to a warning: the weekly is already on
// disk at this point.
func (g *Generator) persistDedup(buckets map[string][]render.Item) {
	var keys []string
	for name, items := range buckets {
		if name == "训练" {
			continue
		}
		for _, item := range items {
			if key := dedup.BuildKey(item.ItemURL, item.SourceURL, item.Title); key != "" {
				keys = append(keys, key)
			}
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := g.store.MarkBatch(keys); err != nil {
		logger.Warn("dedup cache write failed", "error", err)
		return
	}
	logger.Info("dedup cache updated", "count", len(keys))
}
