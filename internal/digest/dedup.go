package digest

import (
	"golang.org/x/text/cases"

	"TrendWatch/internal/domain"
)

const maxKeyRunes = 160

// DedupKey folds case so the same headline from two sources collides.
func DedupKey(it domain.Item) string {
	key := []rune(it.Kind.String() + "|" + cases.Fold().String(it.Title))
	if len(key) > maxKeyRunes {
		key = key[:maxKeyRunes]
	}
	return string(key)
}

// Dedup keeps the first item seen for each key. Arrival order is the
// collector's source order, so the earlier source wins regardless of quality.
func Dedup(items []domain.Item) []domain.Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		key := DedupKey(it)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}
