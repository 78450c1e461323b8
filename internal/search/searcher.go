package search

import (
	"context"
	"time"

	"support-finder/internal/logger"
	"support-finder/internal/metrics"
	"support-finder/internal/resource"
)

type Result struct {
	Query          string              `json:"query"`
	Classification Classification      `json:"classification"`
	Resources      []resource.Resource `json:"resources"`
}

// Searcher runs Rank over the full resource set.
type Searcher struct {
	repo resource.Repository
	log  logger.Logger
}

func NewSearcher(repo resource.Repository, log logger.Logger) *Searcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Searcher{repo: repo, log: log.WithFields(map[string]interface{}{"component": "search"})}
}

// Search never fails on bad input: an empty query yields an empty result
// without touching the store.
func (s *Searcher) Search(ctx context.Context, query string) (*Result, error) {
	start := time.Now()
	cleaned := Normalize(query)
	res := &Result{Query: cleaned, Classification: Classify(cleaned), Resources: []resource.Resource{}}
	if cleaned == "" {
		metrics.SearchRequests.WithLabelValues("empty").Inc()
		metrics.SearchResults.Observe(0)
		return res, nil
	}

	candidates, err := s.repo.ListResources(ctx, resource.Filter{})
	if err != nil {
		metrics.SearchRequests.WithLabelValues("error").Inc()
		s.log.Error("listing candidates failed", map[string]interface{}{"query": cleaned, "error": err})
		return nil, err
	}
	res.Resources = Rank(cleaned, candidates)

	outcome := "hit"
	if len(res.Resources) == 0 {
		outcome = "miss"
	}
	metrics.SearchRequests.WithLabelValues(outcome).Inc()
	metrics.SearchResults.Observe(float64(len(res.Resources)))
	s.log.Info("search completed", map[string]interface{}{
		"query":      cleaned,
		"crisis":     res.Classification.Crisis,
		"shelter":    res.Classification.Shelter,
		"candidates": len(candidates),
		"results":    len(res.Resources),
		"duration":   time.Since(start).String(),
	})
	return res, nil
}
