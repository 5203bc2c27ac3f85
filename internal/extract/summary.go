package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NoDescription is the sentinel for summaries that did not survive
// cleaning; drafts carrying it are rejected upstream.
const NoDescription = "暂无描述"

var invalidSummaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Article URL:\s*<[^>]+>`),
	regexp.MustCompile(`(?i)Comments URL:\s*<[^>]+>`),
	regexp.MustCompile(`(?i)Points:\s*\d+`),
	regexp.MustCompile(`(?i)#?\s*Comments:\s*\d+`),
	regexp.MustCompile(`<https?://[^>]+>`),
	regexp.MustCompile(`(?i)Article URL:.*`),
	regexp.MustCompile(`(?i)Comments URL:.*`),
	regexp.MustCompile(`(?s)<thinking>.*?</thinking>`),
	regexp.MustCompile(`(?s)<thinking>.*`),
}

var (
	blankLinesPattern  = regexp.MustCompile(`\n\s*\n`)
	leadingEnumPattern = regexp.MustCompile(`^\s*\d+\.\s*`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	emojiPattern       = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}]`)
)

const summaryMaxRunes = 180

// CleanSummary strips boilerplate (tracking URLs, comment counters,
// residual thinking tags) and collapses blank lines. Remainders too
// short to be a real description become the NoDescription sentinel.
func CleanSummary(raw string) string {
	clean := raw
	for _, pattern := range invalidSummaryPatterns {
		clean = pattern.ReplaceAllString(clean, "")
	}
	clean = blankLinesPattern.ReplaceAllString(clean, "\n")
	clean = strings.TrimSpace(clean)

	if utf8.RuneCountInString(clean) < 5 {
		return NoDescription
	}
	return clean
}

// Editorialize shapes a cleaned summary into the weekly's editorial
// voice: no leading enumeration, single-spaced, truncated to the
// display budget, finished with a light emoji signature. Applying it to
// its own output is a no-op.
func Editorialize(raw string) string {
	clean := CleanSummary(raw)
	if clean == NoDescription {
		return clean
	}

	clean = leadingEnumPattern.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(whitespacePattern.ReplaceAllString(clean, " "))

	if runes := []rune(clean); len(runes) > summaryMaxRunes {
		clean = strings.TrimRight(string(runes[:summaryMaxRunes]), "，,；;。.!?！？")
	}

	switch len(emojiPattern.FindAllString(clean, -1)) {
	case 0:
		if !strings.HasSuffix(clean, "。") && !strings.HasSuffix(clean, "！") && !strings.HasSuffix(clean, "？") &&
			!strings.HasSuffix(clean, ".") && !strings.HasSuffix(clean, "!") && !strings.HasSuffix(clean, "?") {
			clean += "。"
		}
		clean += " 🔍✨"
	case 1:
		clean += " 🚀"
	}

	return clean
}

// DetectEnglish reports whether a text is predominantly English, by
// the share of ASCII letters among all letters.
func DetectEnglish(text string) bool {
	english, total := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		if r < 128 {
			english++
		}
	}
	if total == 0 {
		return false
	}
	return float64(english)/float64(total) > 0.7
}
