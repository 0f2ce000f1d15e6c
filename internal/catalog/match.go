package catalog

import "strings"

// Matches reports whether term occurs as a case-insensitive substring of
// the item's name, its description, or any single ingredient. Legacy
// documents may be missing any of those fields; a missing field simply
// never matches, it does not error.
func Matches(item Item, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}

	if item.Name != "" && strings.Contains(strings.ToLower(item.Name), term) {
		return true
	}
	if item.Description != "" && strings.Contains(strings.ToLower(item.Description), term) {
		return true
	}
	for _, ingredient := range item.Ingredients {
		if ingredient != "" && strings.Contains(strings.ToLower(ingredient), term) {
			return true
		}
	}
	return false
}
