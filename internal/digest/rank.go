package digest

import (
	"sort"
	"time"

	"TrendWatch/internal/domain"
)

// RecencyStep grants Boost to items no older than MaxAge.
type RecencyStep struct {
	MaxAge time.Duration
	Boost  int
}

// Ranker scores items by engagement plus a stepped recency boost.
type Ranker struct {
	// FeedBase stands in for engagement on feed posts, which expose none.
	FeedBase int
	// Steps must be ordered by ascending MaxAge with non-increasing Boost.
	Steps []RecencyStep
}

// DefaultRanker returns the production weights.
func DefaultRanker() Ranker {
	return Ranker{
		FeedBase: 25,
		Steps: []RecencyStep{
			{MaxAge: 60 * time.Minute, Boost: 120},
			{MaxAge: 180 * time.Minute, Boost: 60},
			{MaxAge: 720 * time.Minute, Boost: 25},
		},
	}
}

// BaseScore is engagement for social posts and the flat feed baseline otherwise.
func (r Ranker) BaseScore(it domain.Item) int {
	if it.Kind == domain.KindSocialPost {
		return it.Engagement
	}
	return r.FeedBase
}

// RecencyBoost returns the boost for content published at publishedAt.
// Missing timestamps get nothing; future timestamps count as brand new.
func (r Ranker) RecencyBoost(publishedAt, now time.Time) int {
	if publishedAt.IsZero() {
		return 0
	}
	age := now.Sub(publishedAt)
	if age < 0 {
		age = 0
	}
	for _, step := range r.Steps {
		if age <= step.MaxAge {
			return step.Boost
		}
	}
	return 0
}

// Score is BaseScore plus RecencyBoost.
func (r Ranker) Score(it domain.Item, now time.Time) int {
	if !it.HasTimestamp() {
		return r.BaseScore(it)
	}
	return r.BaseScore(it) + r.RecencyBoost(it.PublishedAt, now)
}

// Rank orders items by descending score. Equal scores keep arrival order.
func (r Ranker) Rank(items []domain.Item, now time.Time) []domain.RankedItem {
	ranked := make([]domain.RankedItem, len(items))
	for i, it := range items {
		ranked[i] = domain.RankedItem{Item: it, Rank: r.Score(it, now), Order: i}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rank > ranked[j].Rank
	})
	return ranked
}
