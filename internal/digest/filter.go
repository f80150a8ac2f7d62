package digest

import (
	"strings"

	"TrendWatch/internal/domain"
)

// Filter drops items whose title mentions an off-topic term.
type Filter struct {
	terms []string
}

// NewFilter lowercases the denylist and ignores blank entries.
func NewFilter(denylist []string) *Filter {
	f := &Filter{}
	for _, term := range denylist {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			f.terms = append(f.terms, term)
		}
	}
	return f
}

// Keep reports whether it survives the denylist.
func (f *Filter) Keep(it domain.Item) bool {
	title := strings.ToLower(it.Title)
	for _, term := range f.terms {
		if strings.Contains(title, term) {
			return false
		}
	}
	return true
}

// Apply returns the items that pass Keep, preserving order.
func (f *Filter) Apply(items []domain.Item) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if f.Keep(it) {
			out = append(out, it)
		}
	}
	return out
}
