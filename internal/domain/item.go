package domain

import "time"

// Kind selects the scoring rule applied to an item.
type Kind int

const (
	KindFeedPost Kind = iota
	KindSocialPost
)

func (k Kind) String() string {
	switch k {
	case KindFeedPost:
		return "feed"
	case KindSocialPost:
		return "social"
	default:
		return "unknown"
	}
}

// Item is a normalized unit of trending content fetched from one source.
// Values are copied through the pipeline and never mutated in place.
type Item struct {
	Kind        Kind
	Source      string
	Title       string
	URL         string
	PublishedAt time.Time
	Engagement  int
}

// HasTimestamp reports whether the source provided a publish time.
func (i Item) HasTimestamp() bool {
	return !i.PublishedAt.IsZero()
}

// RankedItem attaches the computed rank to an item without touching ingestion data.
type RankedItem struct {
	Item  Item
	Rank  int
	Order int
}

// FailureRecord captures one source invocation that did not complete.
type FailureRecord struct {
	Source  string
	Message string
}
