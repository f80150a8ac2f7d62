package digest

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"TrendWatch/internal/domain"
)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
)

// Cleaner normalizes titles and source names.
type Cleaner struct {
	suffixes []*regexp.Regexp
}

// NewCleaner compiles one trailing-suffix matcher per publisher name,
// e.g. "XXL" strips " - XXL", " | XXL" and " — XXL" from the end of a title.
func NewCleaner(suffixes []string) *Cleaner {
	c := &Cleaner{}
	for _, name := range suffixes {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		pattern := `(?i)\s*[-–—|:]\s*` + regexp.QuoteMeta(name) + `\s*$`
		c.suffixes = append(c.suffixes, regexp.MustCompile(pattern))
	}
	return c
}

// Clean runs the normalization passes until the text stops changing, so
// Clean(Clean(s)) == Clean(s). After the first pass no step grows the text,
// so the loop ends.
func (c *Cleaner) Clean(s string) string {
	for {
		next := c.pass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func (c *Cleaner) pass(s string) string {
	s = norm.NFC.String(s)
	s = entityReplacer.Replace(s)
	s = collapseSpace(s)
	if c == nil {
		return s
	}
	for _, re := range c.suffixes {
		stripped := strings.TrimSpace(re.ReplaceAllString(s, ""))
		if stripped != "" {
			s = stripped
		}
	}
	return s
}

// Item returns a cleaned copy of it. An empty source falls back to the
// link's host so every item keeps a displayable origin.
func (c *Cleaner) Item(it domain.Item) domain.Item {
	it.Title = c.Clean(it.Title)
	it.Source = collapseSpace(entityReplacer.Replace(it.Source))
	if it.Source == "" {
		if u, err := url.Parse(it.URL); err == nil {
			it.Source = u.Hostname()
		}
	}
	return it
}

// Items cleans every item and drops those whose title cleans to nothing.
func (c *Cleaner) Items(items []domain.Item) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		cleaned := c.Item(it)
		if cleaned.Title == "" {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
