// Package render formats the finished category buckets as the weekly
// markdown document.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hubtoday/weeklyagent/internal/logger"
)

// Item is one finalized, render-ready weekly entry. Immutable once
// placed into a category bucket.
type Item struct {
	Title      string
	ShortTitle string
	Summary    string
	Category   string
	IsEnglish  bool
	ItemURL    string
	SourceURL  string
	ImageURL   string
}

// LinkURL returns the URL the rendered title links to.
func (i Item) LinkURL() string {
	if i.ItemURL != "" {
		return i.ItemURL
	}
	return i.SourceURL
}

// DisplayTitle prefers the short editorial title.
func (i Item) DisplayTitle() string {
	if i.ShortTitle != "" {
		return i.ShortTitle
	}
	return i.Title
}

// Output order of the standard sections; extra categories follow.
var categoryOrder = []string{"时事", "AI资讯", "教程", "训练", "工具"}

// Formatter writes the weekly markdown file.
type Formatter struct {
	outputPath string
}

func NewFormatter(outputPath string) *Formatter {
	return &Formatter{outputPath: outputPath}
}

func formatItem(item Item) string {
	prefix := ""
	if item.IsEnglish {
		prefix = "【英文】"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#### [%s%s](%s)\n\n%s\n\n", prefix, item.DisplayTitle(), item.LinkURL(), item.Summary)
	if item.ImageURL != "" {
		fmt.Fprintf(&b, "![%s](%s)\n\n", item.DisplayTitle(), item.ImageURL)
	}
	return b.String()
}

func formatCategory(name string, items []Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", name)
	if len(items) == 0 {
		b.WriteString("_本期暂无更新。_\n\n")
		return b.String()
	}
	for _, item := range items {
		b.WriteString(formatItem(item))
	}
	return b.String()
}

// Format renders the full weekly document.
func (f *Formatter) Format(issueNum int, date string, categories map[string][]Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# NO%d.前端Weekly(%s)\n\n", issueNum, date)

	rendered := map[string]bool{}
	for _, name := range categoryOrder {
		b.WriteString(formatCategory(name, categories[name]))
		rendered[name] = true
	}
	for name, items := range categories {
		if !rendered[name] {
			b.WriteString(formatCategory(name, items))
		}
	}
	return b.String()
}

// Save renders and writes the weekly, returning the output path.
func (f *Formatter) Save(issueNum int, date string, categories map[string][]Item) (string, error) {
	content := f.Format(issueNum, date, categories)

	if dir := filepath.Dir(f.outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(f.outputPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write weekly: %w", err)
	}

	logger.Info("weekly saved", "path", f.outputPath)
	return f.outputPath, nil
}
