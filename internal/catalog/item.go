package catalog

import (
	"encoding/json"
	"strings"
	"time"
)

// Item is one recipe document. Ingredients and Steps are always held as
// ordered sequences of trimmed, non-empty strings; NormalizeList converts
// legacy newline-block storage into that shape.
type Item struct {
	ID          string
	Name        string
	Category    Category
	Description string
	Ingredients []string
	Steps       []string
	MediaURL    string
	Author      string
	// AuthorEmail is for notifications only and never leaves the API.
	AuthorEmail string
	Nutrition   Nutrition
	CreatedAt   time.Time
}

// Nutrition facts are free-text and best-effort; empty means unknown.
type Nutrition struct {
	Servings string
	PrepTime string
	Calories string
	Fat      string
	Carbs    string
	Protein  string
}

// NormalizeList decodes a stored list column. Newer writes store a JSON
// string array; older documents hold a newline-delimited block. Either way
// the result is the trimmed, non-empty entries in their original order.
func NormalizeList(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return []string{}
	}

	if strings.HasPrefix(trimmed, "[") {
		var entries []string
		if err := json.Unmarshal([]byte(trimmed), &entries); err == nil {
			return cleanEntries(entries)
		}
	}

	return cleanEntries(strings.Split(raw, "\n"))
}

// EncodeList is the write-path counterpart of NormalizeList.
func EncodeList(entries []string) string {
	encoded, err := json.Marshal(cleanEntries(entries))
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

// CleanList trims every entry and drops the blanks, preserving order.
func CleanList(entries []string) []string {
	return cleanEntries(entries)
}

func cleanEntries(entries []string) []string {
	cleaned := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		cleaned = append(cleaned, entry)
	}
	return cleaned
}
