package catalog

import (
	"context"
	"errors"
	"testing"
)

type fakeSource struct {
	listItemsFn           func(context.Context) ([]Item, error)
	listItemsByCategoryFn func(context.Context, Category) ([]Item, error)
}

func (f *fakeSource) ListItems(ctx context.Context) ([]Item, error) {
	if f.listItemsFn != nil {
		return f.listItemsFn(ctx)
	}
	return nil, nil
}

func (f *fakeSource) ListItemsByCategory(ctx context.Context, category Category) ([]Item, error) {
	if f.listItemsByCategoryFn != nil {
		return f.listItemsByCategoryFn(ctx, category)
	}
	return nil, nil
}

func breakfastItems() []Item {
	return []Item{
		{
			ID:          "1",
			Name:        "Vegan Pancakes",
			Category:    CategoryBreakfast,
			Description: "fluffy",
			Ingredients: []string{"flour", "oat milk"},
		},
		{
			ID:          "2",
			Name:        "Omelette",
			Category:    CategoryBreakfast,
			Description: "eggy",
			Ingredients: []string{"egg"},
		},
	}
}

func TestQueryCategoryWithTermNarrowsWithinCategory(t *testing.T) {
	var listedAll bool
	source := &fakeSource{
		listItemsFn: func(context.Context) ([]Item, error) {
			listedAll = true
			return nil, nil
		},
		listItemsByCategoryFn: func(_ context.Context, category Category) ([]Item, error) {
			if category != CategoryBreakfast {
				t.Fatalf("expected breakfast fetch, got %q", category)
			}
			return breakfastItems(), nil
		},
	}
	engine := NewEngine(source)

	result, err := engine.Query(context.Background(), Query{
		Filter: FilterByCategory(CategoryBreakfast),
		Term:   "oat",
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if listedAll {
		t.Error("a search term must not broaden the fetch beyond the category scope")
	}
	if len(result.Items) != 1 || result.Items[0].ID != "1" {
		t.Fatalf("expected only item 1, got %v", result.Items)
	}
}

func TestQueryAllWithEmptyTermReturnsStoreOrder(t *testing.T) {
	items := breakfastItems()
	source := &fakeSource{
		listItemsFn: func(context.Context) ([]Item, error) {
			return items, nil
		},
	}
	engine := NewEngine(source)

	result, err := engine.Query(context.Background(), Query{Filter: FilterAll()})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(result.Items) != len(items) {
		t.Fatalf("expected %d items, got %d", len(items), len(result.Items))
	}
	for i := range items {
		if result.Items[i].ID != items[i].ID {
			t.Errorf("position %d: expected %s, got %s", i, items[i].ID, result.Items[i].ID)
		}
	}
}

func TestQueryCategoryWithEmptyTermIsExactCategorySubset(t *testing.T) {
	source := &fakeSource{
		listItemsByCategoryFn: func(_ context.Context, category Category) ([]Item, error) {
			if category != CategoryDessert {
				t.Fatalf("expected dessert fetch, got %q", category)
			}
			return []Item{{ID: "9", Category: CategoryDessert}}, nil
		},
	}
	engine := NewEngine(source)

	result, err := engine.Query(context.Background(), Query{Filter: FilterByCategory(CategoryDessert)})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	for _, item := range result.Items {
		if item.Category != CategoryDessert {
			t.Errorf("item %s leaked from category %q", item.ID, item.Category)
		}
	}
}

func TestQueryTermMatchesNameDescriptionOrIngredient(t *testing.T) {
	source := &fakeSource{
		listItemsFn: func(context.Context) ([]Item, error) {
			return breakfastItems(), nil
		},
	}
	engine := NewEngine(source)

	for _, tc := range []struct {
		term string
		want []string
	}{
		{term: "PANCAKE", want: []string{"1"}},
		{term: "eggy", want: []string{"2"}},
		{term: "Oat Milk", want: []string{"1"}},
		{term: "quinoa", want: []string{}},
	} {
		result, err := engine.Query(context.Background(), Query{Filter: FilterAll(), Term: tc.term})
		if err != nil {
			t.Fatalf("query %q failed: %v", tc.term, err)
		}
		if len(result.Items) != len(tc.want) {
			t.Fatalf("term %q: expected %d items, got %d", tc.term, len(tc.want), len(result.Items))
		}
		for i, id := range tc.want {
			if result.Items[i].ID != id {
				t.Errorf("term %q: expected %s at %d, got %s", tc.term, id, i, result.Items[i].ID)
			}
		}
	}
}

func TestQuerySurfacesFetchError(t *testing.T) {
	fetchErr := errors.New("store unavailable")
	source := &fakeSource{
		listItemsFn: func(context.Context) ([]Item, error) {
			return nil, fetchErr
		},
	}
	engine := NewEngine(source)

	_, err := engine.Query(context.Background(), Query{Filter: FilterAll()})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestLatestSupersedesOlderGenerations(t *testing.T) {
	source := &fakeSource{}
	engine := NewEngine(source)

	first, err := engine.Query(context.Background(), Query{Filter: FilterAll()})
	if err != nil {
		t.Fatalf("first query failed: %v", err)
	}
	if !engine.Latest(first.Generation) {
		t.Error("only issued generation should be latest")
	}

	second, err := engine.Query(context.Background(), Query{Filter: FilterAll(), Term: "oat"})
	if err != nil {
		t.Fatalf("second query failed: %v", err)
	}
	if engine.Latest(first.Generation) {
		t.Error("superseded generation still reported latest")
	}
	if !engine.Latest(second.Generation) {
		t.Error("newest generation not reported latest")
	}
}

func TestLoadingTogglesDuringFetch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	source := &fakeSource{
		listItemsFn: func(context.Context) ([]Item, error) {
			close(started)
			<-release
			return nil, nil
		},
	}
	engine := NewEngine(source)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = engine.Query(context.Background(), Query{Filter: FilterAll()})
	}()

	<-started
	if !engine.Loading() {
		t.Error("expected loading during fetch")
	}
	close(release)
	<-done
	if engine.Loading() {
		t.Error("expected loading cleared after fetch")
	}
}
