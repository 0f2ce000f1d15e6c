package catalog

import "testing"

func TestParseCategoryNormalizesCase(t *testing.T) {
	for _, raw := range []string{"breakfast", "Breakfast", " BREAKFAST "} {
		category, err := ParseCategory(raw)
		if err != nil {
			t.Fatalf("ParseCategory(%q) failed: %v", raw, err)
		}
		if category != CategoryBreakfast {
			t.Errorf("ParseCategory(%q) = %q", raw, category)
		}
	}
}

func TestParseCategoryRejectsUnknown(t *testing.T) {
	if _, err := ParseCategory("brunch"); err == nil {
		t.Error("expected error for unknown category")
	}
	if _, err := ParseCategory(""); err == nil {
		t.Error("expected error for empty category")
	}
}

func TestParseFilter(t *testing.T) {
	for _, raw := range []string{"", "all", "All", "ALL"} {
		filter, err := ParseFilter(raw)
		if err != nil {
			t.Fatalf("ParseFilter(%q) failed: %v", raw, err)
		}
		if !filter.IsAll() {
			t.Errorf("ParseFilter(%q) should be the unfiltered state", raw)
		}
	}

	filter, err := ParseFilter("Dessert")
	if err != nil {
		t.Fatalf("ParseFilter failed: %v", err)
	}
	if filter.IsAll() || filter.Category() != CategoryDessert {
		t.Errorf("ParseFilter(Dessert) = %v", filter)
	}

	if _, err := ParseFilter("brunch"); err == nil {
		t.Error("expected error for unknown filter")
	}
}
