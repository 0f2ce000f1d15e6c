package catalog

import "context"

// maxRecommendations caps the similar-recipes list. The catalog has no
// relevance ranking, so the cap simply truncates store-iteration order.
const maxRecommendations = 12

// Recommend returns items that share the reference item's category,
// excluding the reference item itself. An empty result is valid and not an
// error.
func Recommend(ctx context.Context, source Source, category Category, selfID string) ([]Item, error) {
	items, err := source.ListItemsByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	recommended := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID == selfID {
			continue
		}
		recommended = append(recommended, item)
		if len(recommended) == maxRecommendations {
			break
		}
	}
	return recommended, nil
}
