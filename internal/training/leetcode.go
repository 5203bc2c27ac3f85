// Package training picks LeetCode problems for the weekly practice
// section.
package training

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/hubtoday/weeklyagent/internal/httpx"
	"github.com/hubtoday/weeklyagent/internal/logger"
	"github.com/hubtoday/weeklyagent/internal/render"
)

const (
	cnAPIURL = "https://leetcode.cn/graphql"
	apiURL   = "https://leetcode.com/graphql"

	problemListQuery = `query problemsetQuestionList($categorySlug: String, $limit: Int, $skip: Int, $filters: QuestionListFilterInput) {
    problemsetQuestionList: questionList(
        categorySlug: $categorySlug
        limit: $limit
        skip: $skip
        filters: $filters
    ) {
        total: totalNum
        questions: data {
            frontendQuestionId: questionFrontendId
            title
            titleCn: translatedTitle
            titleSlug
            difficulty
            status
            isPaidOnly
        }
    }
}`
)

// Problem is one LeetCode problem ready for the weekly.
type Problem struct {
	Title      string
	TitleCN    string
	Difficulty string
	URL        string
	Slug       string
}

type question struct {
	Title      string `json:"title"`
	TitleCN    string `json:"titleCn"`
	TitleSlug  string `json:"titleSlug"`
	Difficulty string `json:"difficulty"`
	IsPaidOnly bool   `json:"isPaidOnly"`
}

type problemListResponse struct {
	Data struct {
		ProblemsetQuestionList struct {
			Questions []question `json:"questions"`
		} `json:"problemsetQuestionList"`
	} `json:"data"`
}

// Fetcher pulls random problems from the LeetCode GraphQL API, trying
// the CN endpoint first.
type Fetcher struct {
	client       *httpx.Client
	difficulties map[string]bool
	rand         *rand.Rand
}

func NewFetcher(client *httpx.Client, difficulties []string, seed int64) *Fetcher {
	allowed := map[string]bool{}
	for _, d := range difficulties {
		allowed[strings.ToLower(strings.TrimSpace(d))] = true
	}
	return &Fetcher{
		client:       client,
		difficulties: allowed,
		rand:         rand.New(rand.NewSource(seed)),
	}
}

func (f *Fetcher) fetchProblemList(ctx context.Context) []question {
	payload, err := json.Marshal(map[string]any{
		"query": problemListQuery,
		"variables": map[string]any{
			"categorySlug": "",
			"skip":         0,
			"limit":        100,
			"filters":      map[string]any{},
		},
	})
	if err != nil {
		return nil
	}

	for _, endpoint := range []string{cnAPIURL, apiURL} {
		body, err := f.client.PostJSON(ctx, endpoint, bytes.NewReader(payload))
		if err != nil {
			logger.Debug("leetcode endpoint failed", "endpoint", endpoint, "error", err)
			continue
		}
		var resp problemListResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			logger.Debug("leetcode response malformed", "endpoint", endpoint, "error", err)
			continue
		}
		if qs := resp.Data.ProblemsetQuestionList.Questions; len(qs) > 0 {
			return qs
		}
	}
	return nil
}

func (f *Fetcher) filterProblems(questions []question) []question {
	var filtered []question
	for _, q := range questions {
		if q.IsPaidOnly {
			continue
		}
		if len(f.difficulties) > 0 && !f.difficulties[strings.ToLower(q.Difficulty)] {
			continue
		}
		filtered = append(filtered, q)
	}
	return filtered
}

// RandomProblems returns up to count random problems matching the
// configured difficulties. When the API is unreachable it falls back
// to a small built-in classic set.
func (f *Fetcher) RandomProblems(ctx context.Context, count int) []Problem {
	logger.Info("fetching leetcode problems", "count", count)

	questions := f.fetchProblemList(ctx)
	if len(questions) == 0 {
		logger.Warn("leetcode problem list unavailable, using fallback set")
		return f.sample(fallbackProblems, count)
	}

	filtered := f.filterProblems(questions)
	if len(filtered) == 0 {
		logger.Warn("no problems left after difficulty filter, using unfiltered list")
		for _, q := range questions {
			if !q.IsPaidOnly {
				filtered = append(filtered, q)
			}
		}
	}

	var problems []Problem
	for _, q := range filtered {
		titleCN := q.TitleCN
		if titleCN == "" {
			titleCN = q.Title
		}
		problems = append(problems, Problem{
			Title:      q.Title,
			TitleCN:    titleCN,
			Difficulty: q.Difficulty,
			URL:        fmt.Sprintf("https://leetcode.cn/problems/%s/", q.TitleSlug),
			Slug:       q.TitleSlug,
		})
	}
	return f.sample(problems, count)
}

func (f *Fetcher) sample(problems []Problem, count int) []Problem {
	if count > len(problems) {
		count = len(problems)
	}
	picked := make([]Problem, len(problems))
	copy(picked, problems)
	f.rand.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked[:count]
}

// Items converts problems into weekly entries for the 训练 section.
// These never enter the dedup store so the same classic problem may
// recur across issues.
func Items(problems []Problem) []render.Item {
	var items []render.Item
	for _, p := range problems {
		title := p.TitleCN
		if title == "" {
			title = p.Title
		}
		items = append(items, render.Item{
			Title:      title,
			ShortTitle: title,
			Summary:    fmt.Sprintf("难度：%s。这是一道经典的算法题目，建议尝试多种解法，理解其背后的算法思想。", p.Difficulty),
			Category:   "训练",
			IsEnglish:  false,
			ItemURL:    p.URL,
			SourceURL:  p.URL,
		})
	}
	return items
}

var fallbackProblems = []Problem{
	{Title: "Two Sum", TitleCN: "两数之和", Difficulty: "Easy", URL: "https://leetcode.cn/problems/two-sum/", Slug: "two-sum"},
	{Title: "Add Two Numbers", TitleCN: "两数相加", Difficulty: "Medium", URL: "https://leetcode.cn/problems/add-two-numbers/", Slug: "add-two-numbers"},
	{Title: "Longest Substring Without Repeating Characters", TitleCN: "无重复字符的最长子串", Difficulty: "Medium", URL: "https://leetcode.cn/problems/longest-substring-without-repeating-characters/", Slug: "longest-substring-without-repeating-characters"},
	{Title: "Valid Parentheses", TitleCN: "有效的括号", Difficulty: "Easy", URL: "https://leetcode.cn/problems/valid-parentheses/", Slug: "valid-parentheses"},
	{Title: "Merge Two Sorted Lists", TitleCN: "合并两个有序链表", Difficulty: "Easy", URL: "https://leetcode.cn/problems/merge-two-sorted-lists/", Slug: "merge-two-sorted-lists"},
}
