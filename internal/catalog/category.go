// Package catalog implements the recipe catalog's query, search, and
// recommendation logic over a document store.
package catalog

import (
	"fmt"
	"strings"
)

// Category is the closed set of catalog partitions. Both the write path and
// the read path go through ParseCategory, so a stored category and a query
// category can never disagree on casing.
type Category string

const (
	CategoryBreakfast Category = "breakfast"
	CategoryLunch     Category = "lunch"
	CategoryDinner    Category = "dinner"
	CategoryDessert   Category = "dessert"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{CategoryBreakfast, CategoryLunch, CategoryDinner, CategoryDessert}
}

func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryBreakfast:
		return CategoryBreakfast, nil
	case CategoryLunch:
		return CategoryLunch, nil
	case CategoryDinner:
		return CategoryDinner, nil
	case CategoryDessert:
		return CategoryDessert, nil
	}
	return "", fmt.Errorf("unknown category %q", raw)
}

// Filter is a category selection that also admits the "all categories"
// state a catalog page starts in.
type Filter struct {
	category Category
	all      bool
}

func FilterAll() Filter {
	return Filter{all: true}
}

func FilterByCategory(category Category) Filter {
	return Filter{category: category}
}

// ParseFilter accepts a category name, or "all"/empty for the unfiltered
// state.
func ParseFilter(raw string) (Filter, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "all") {
		return FilterAll(), nil
	}
	category, err := ParseCategory(trimmed)
	if err != nil {
		return Filter{}, err
	}
	return FilterByCategory(category), nil
}

func (f Filter) IsAll() bool {
	return f.all
}

func (f Filter) Category() Category {
	return f.category
}

func (f Filter) String() string {
	if f.all {
		return "all"
	}
	return string(f.category)
}
