package feed

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hubtoday/weeklyagent/internal/logger"
)

// Filter applies the pre-extraction gates: freshness window, category
// keywords and minimum content length.
type Filter struct {
	MaxAge           time.Duration
	IncludeKeywords  []string
	ExcludeKeywords  []string
	MinContentLength int

	// Now is overridable in tests, defaults to time.Now.
	Now func() time.Time
}

func (f *Filter) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Apply runs all filters in order and logs the funnel.
func (f *Filter) Apply(articles []Article) []Article {
	filtered := f.byTime(articles)
	filtered = f.byKeywords(filtered)
	filtered = f.byLength(filtered)
	logger.Debug("pre-filter done", "in", len(articles), "out", len(filtered))
	return filtered
}

// byTime keeps articles inside the freshness window. Articles without a
// publish time pass, the extractor decides what to do with them.
func (f *Filter) byTime(articles []Article) []Article {
	if f.MaxAge <= 0 {
		return articles
	}
	cutoff := f.now().UTC().Add(-f.MaxAge)

	var kept []Article
	for _, a := range articles {
		if a.Published.IsZero() || !a.Published.Before(cutoff) {
			kept = append(kept, a)
		}
	}
	return kept
}

func (f *Filter) byKeywords(articles []Article) []Article {
	if len(f.IncludeKeywords) == 0 && len(f.ExcludeKeywords) == 0 {
		return articles
	}

	var kept []Article
	for _, a := range articles {
		text := strings.ToLower(a.Title + " " + a.Summary + " " + a.Content)

		if matchesAny(text, f.ExcludeKeywords) {
			continue
		}
		if len(f.IncludeKeywords) > 0 && !matchesAny(text, f.IncludeKeywords) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func (f *Filter) byLength(articles []Article) []Article {
	if f.MinContentLength <= 0 {
		return articles
	}
	var kept []Article
	for _, a := range articles {
		if utf8.RuneCountInString(a.Content)+utf8.RuneCountInString(a.Summary) >= f.MinContentLength {
			kept = append(kept, a)
		}
	}
	return kept
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
