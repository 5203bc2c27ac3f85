// Package feed collects normalized articles from RSS feeds and plain
// web pages and applies the pre-extraction filters.
package feed

import "time"

// Article is one normalized fetched document before decomposition.
// Published is zero when the source carried no usable timestamp.
type Article struct {
	Title     string
	URL       string
	Content   string
	Summary   string
	Published time.Time
	Source    string
	Author    string
	Tags      []string
	ImageURL  string
}

// Timestamp returns a sortable time, zero articles sort oldest.
func (a Article) Timestamp() time.Time {
	return a.Published
}
