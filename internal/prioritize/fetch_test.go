package prioritize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-finder/internal/dialogue"
	"support-finder/internal/logger"
	"support-finder/internal/resource"
)

type memRepo struct {
	categories map[string]resource.Category
	members    map[uint][]resource.Resource
}

func (m *memRepo) ListResources(ctx context.Context, f resource.Filter) ([]resource.Resource, error) {
	return m.members[f.CategoryID], nil
}

func (m *memRepo) GetCategoryBySlug(ctx context.Context, slug string) (*resource.Category, error) {
	c, ok := m.categories[slug]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memRepo) GetResource(ctx context.Context, id uint) (*resource.Resource, error) {
	return nil, nil
}

func TestFetcher_DeduplicatesAcrossCategories(t *testing.T) {
	kitchen := resource.Resource{ID: 7, Name: "Kitchen Collective", Description: "hot meal daily"}
	repo := &memRepo{
		categories: map[string]resource.Category{
			resource.SlugFoodBanks:    {ID: 1, Slug: resource.SlugFoodBanks},
			resource.SlugMealPrograms: {ID: 2, Slug: resource.SlugMealPrograms},
		},
		members: map[uint][]resource.Resource{
			1: {{ID: 3, Name: "Food Bank"}, kitchen},
			2: {kitchen, {ID: 9, Name: "Soup Run"}},
		},
	}
	cache := resource.NewCategoryCache(repo, nil, time.Minute, nil)
	f := NewFetcher(repo, cache, logger.NewTestLogger(t))

	// community-fridges is absent from the store and treated as empty
	got, err := f.Fetch(context.Background(), dialogue.IntentFood)
	require.NoError(t, err)
	assert.Equal(t, []string{"Food Bank", "Kitchen Collective", "Soup Run"}, names(got))
}

func TestFetcher_UnmappedIntentIsEmpty(t *testing.T) {
	repo := &memRepo{}
	f := NewFetcher(repo, resource.NewCategoryCache(repo, nil, time.Minute, nil), nil)
	got, err := f.Fetch(context.Background(), dialogue.IntentUnknown)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetcher_FetchPrioritized(t *testing.T) {
	repo := &memRepo{
		categories: map[string]resource.Category{resource.SlugShelters: {ID: 4, Slug: resource.SlugShelters}},
		members: map[uint][]resource.Resource{
			4: {
				{ID: 1, Name: "Youth Beds", Description: "ages 13-24", Hours: "24/7"},
				{ID: 2, Name: "Main Shelter", Hours: "8pm-8am"},
			},
		},
	}
	f := NewFetcher(repo, resource.NewCategoryCache(repo, nil, time.Minute, nil), nil)
	isAdult := true
	got, err := f.FetchPrioritized(context.Background(), dialogue.State{
		Intent: dialogue.IntentShelter, Urgency: dialogue.UrgencyImmediate, IsAdult: &isAdult,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Main Shelter"}, names(got))
}
