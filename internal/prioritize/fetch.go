package prioritize

import (
	"context"

	"support-finder/internal/dialogue"
	"support-finder/internal/logger"
	"support-finder/internal/resource"
)

// IntentCategories lists the category slugs searched for each intent, most
// specific first.
var IntentCategories = map[dialogue.Intent][]string{
	dialogue.IntentFood:    {resource.SlugFoodBanks, resource.SlugMealPrograms, resource.SlugCommunityFridges},
	dialogue.IntentShelter: {resource.SlugShelters},
	dialogue.IntentHealth:  {resource.SlugHealth},
	dialogue.IntentCrisis:  {resource.SlugCrisis},
	dialogue.IntentLegal:   {resource.SlugLegal},
	dialogue.IntentYouth:   {resource.SlugYouth},
}

// Fetcher loads candidate resources for an intent.
type Fetcher struct {
	repo  resource.Repository
	cache *resource.CategoryCache
	log   logger.Logger
}

func NewFetcher(repo resource.Repository, cache *resource.CategoryCache, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Fetcher{repo: repo, cache: cache, log: log.WithFields(map[string]interface{}{"component": "fetcher"})}
}

// Fetch returns the members of every category mapped to intent, de-duplicated
// in retrieval order. A slug missing from the store counts as an empty category.
func (f *Fetcher) Fetch(ctx context.Context, intent dialogue.Intent) ([]resource.Resource, error) {
	var out []resource.Resource
	seen := make(map[uint]bool)
	for _, slug := range IntentCategories[intent] {
		cat, err := f.cache.Get(ctx, slug)
		if err != nil {
			return nil, err
		}
		if cat == nil {
			f.log.Warn("category missing from store", map[string]interface{}{"slug": slug, "intent": string(intent)})
			continue
		}
		members, err := f.repo.ListResources(ctx, resource.Filter{CategoryID: cat.ID})
		if err != nil {
			return nil, err
		}
		for _, r := range members {
			if !seen[r.ID] {
				seen[r.ID] = true
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// FetchPrioritized is Fetch followed by Prioritize.
func (f *Fetcher) FetchPrioritized(ctx context.Context, st dialogue.State) ([]resource.Resource, error) {
	candidates, err := f.Fetch(ctx, st.Intent)
	if err != nil {
		return nil, err
	}
	return Prioritize(st.Intent, st.Urgency, st.IsAdult, candidates), nil
}
