package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// RawItem is one item object recovered from the model response, mapped
// into a strict shape at the parse boundary. Fields the model omitted
// stay zero; validation happens in the extractor.
type RawItem struct {
	Title     string
	Summary   string
	Category  string
	LinkID    string
	ItemURL   string
	IsEnglish *bool
}

var (
	fenceJSONPattern     = regexp.MustCompile("(?i)```json\\s*")
	fencePattern         = regexp.MustCompile("```\\s*")
	thinkingPattern      = regexp.MustCompile(`(?s)<thinking>.*?</thinking>`)
	openThinkingPattern  = regexp.MustCompile(`(?s)<thinking>.*`)
	firstObjectPattern   = regexp.MustCompile(`(?s)\{.*\}`)
	firstArrayPattern    = regexp.MustCompile(`(?s)\[.*\]`)
)

// ParseItemsResponse recovers item objects from free-form model output.
// It cleans fence markers and thinking regions, then tries structured
// parsing against the whole text, the first brace-delimited object and
// the first bracket-delimited array, in that order. The first payload
// that parses into a known shape wins; total failure yields nil.
func ParseItemsResponse(text string) []RawItem {
	clean := fenceJSONPattern.ReplaceAllString(text, "")
	clean = fencePattern.ReplaceAllString(clean, "")
	clean = thinkingPattern.ReplaceAllString(clean, "")
	clean = openThinkingPattern.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)

	if clean == "" {
		return nil
	}

	payloads := []string{clean}
	if object := firstObjectPattern.FindString(clean); object != "" {
		payloads = append(payloads, object)
	}
	if array := firstArrayPattern.FindString(clean); array != "" {
		payloads = append(payloads, array)
	}

	for _, payload := range payloads {
		if items, ok := parsePayload(payload); ok {
			return items
		}
	}
	return nil
}

// parsePayload accepts either {"items": [...]} or a bare [...] array.
func parsePayload(payload string) ([]RawItem, bool) {
	var parsed any
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, false
	}

	switch value := parsed.(type) {
	case map[string]any:
		items, ok := value["items"].([]any)
		if !ok {
			return nil, false
		}
		return convertItems(items), true
	case []any:
		return convertItems(value), true
	}
	return nil, false
}

func convertItems(items []any) []RawItem {
	result := make([]RawItem, 0, len(items))
	for _, entry := range items {
		object, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		item := RawItem{
			Title:    stringField(object, "title"),
			Summary:  stringField(object, "summary"),
			Category: stringField(object, "category"),
			LinkID:   stringField(object, "link_id"),
			ItemURL:  stringField(object, "item_url"),
		}
		if item.ItemURL == "" {
			item.ItemURL = stringField(object, "url")
		}
		if flag, ok := object["is_english"].(bool); ok {
			item.IsEnglish = &flag
		}
		result = append(result, item)
	}
	return result
}

// stringField tolerates numbers where strings are expected (the model
// occasionally returns link_id as a bare number).
func stringField(object map[string]any, key string) string {
	switch value := object[key].(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatInt(int64(value), 10)
	}
	return ""
}
