package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-finder/internal/logger"
	"support-finder/internal/resource"
)

type fakeRepo struct {
	resources []resource.Resource
	err       error
	calls     int
}

func (f *fakeRepo) ListResources(ctx context.Context, filter resource.Filter) ([]resource.Resource, error) {
	f.calls++
	return f.resources, f.err
}

func (f *fakeRepo) GetCategoryBySlug(ctx context.Context, slug string) (*resource.Category, error) {
	return nil, nil
}

func (f *fakeRepo) GetResource(ctx context.Context, id uint) (*resource.Resource, error) {
	return nil, nil
}

func TestSearcher_Search(t *testing.T) {
	repo := &fakeRepo{resources: fixtures()}
	s := NewSearcher(repo, logger.NewTestLogger(t))

	res, err := s.Search(context.Background(), "Homeless shelter!")
	require.NoError(t, err)
	assert.Equal(t, "homeless shelter", res.Query)
	assert.True(t, res.Classification.Shelter)
	assert.False(t, res.Classification.Crisis)
	assert.Equal(t, []string{"Harbour Shelter"}, names(res.Resources))
}

func TestSearcher_EmptyQuerySkipsStore(t *testing.T) {
	repo := &fakeRepo{resources: fixtures()}
	s := NewSearcher(repo, nil)

	res, err := s.Search(context.Background(), " ?? ")
	require.NoError(t, err)
	assert.NotNil(t, res.Resources)
	assert.Empty(t, res.Resources)
	assert.Equal(t, 0, repo.calls)
}

func TestSearcher_StoreError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}
	s := NewSearcher(repo, logger.NewTestLogger(t))

	_, err := s.Search(context.Background(), "food")
	assert.Error(t, err)
}
