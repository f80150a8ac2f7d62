package digest

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"TrendWatch/internal/domain"
)

const (
	truncationMarker = "\n…(truncated)"
	sectionBreak     = "\n\n"
	timestampLayout  = "Jan 2, 2006 3:04 PM MST"
)

var (
	titleEscaper = strings.NewReplacer(
		`\`, `\\`,
		`[`, `\[`,
		`]`, `\]`,
		`(`, `\(`,
		`)`, `\)`,
	)
	linkEscaper = strings.NewReplacer(
		"(", "%28",
		")", "%29",
		" ", "%20",
	)
)

// Digest is everything the renderer needs for one run.
type Digest struct {
	Items       []domain.RankedItem
	Failures    []domain.FailureRecord
	Sources     []string
	GeneratedAt time.Time
}

// Renderer formats a ranked digest into a message of at most MaxChars runes.
type Renderer struct {
	Title    string
	Footer   string
	MaxChars int
	Location *time.Location
}

// Render emits the header, then numbered entries in rank order for as long as
// header + entries + footer fits MaxChars, then the footer. The first entry
// that would overflow ends emission, so the output is always a prefix of the
// ranking.
func (r Renderer) Render(d Digest) (string, error) {
	if len(d.Items) == 0 {
		return "", &domain.EmptyDigestError{
			Attempted: d.Sources,
			Failed:    failedSources(d.Failures),
		}
	}

	header := r.header(d)
	tail := ""
	if footer := strings.TrimSpace(r.Footer); footer != "" {
		tail = sectionBreak + footer
	}

	// header + break + entries joined by "\n" + tail
	used := runeLen(header) + runeLen(sectionBreak) + runeLen(tail)
	entries := make([]string, 0, len(d.Items))
	for i, ranked := range d.Items {
		entry := formatEntry(i+1, ranked.Item)
		cost := runeLen(entry)
		if len(entries) > 0 {
			cost++
		}
		if r.MaxChars > 0 && used+cost > r.MaxChars {
			break
		}
		used += cost
		entries = append(entries, entry)
	}

	payload := header
	if len(entries) > 0 {
		payload += sectionBreak + strings.Join(entries, "\n")
	}
	payload += tail
	if r.MaxChars > 0 && runeLen(payload) > r.MaxChars {
		payload = truncate(payload, r.MaxChars)
	}
	return payload, nil
}

func (r Renderer) header(d Digest) string {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s — %s**", strings.TrimSpace(r.Title), d.GeneratedAt.In(loc).Format(timestampLayout))

	total := len(d.Sources)
	if total > 0 {
		fmt.Fprintf(&b, "\nSources: %d of %d responded", total-len(d.Failures), total)
	}
	if failed := failedSources(d.Failures); len(failed) > 0 {
		fmt.Fprintf(&b, "\n⚠️ skipped: %s", strings.Join(failed, ", "))
	}
	return b.String()
}

func formatEntry(n int, it domain.Item) string {
	return fmt.Sprintf("%d. [%s](%s) · %s", n, EscapeTitle(it.Title), linkEscaper.Replace(it.URL), titleEscaper.Replace(it.Source))
}

// EscapeTitle backslash-escapes characters that would break link markup.
func EscapeTitle(title string) string {
	return titleEscaper.Replace(title)
}

func failedSources(failures []domain.FailureRecord) []string {
	names := make([]string, 0, len(failures))
	for _, f := range failures {
		names = append(names, f.Source)
	}
	return names
}

func truncate(s string, limit int) string {
	markerLen := runeLen(truncationMarker)
	if limit <= markerLen {
		return string([]rune(truncationMarker)[:limit])
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:limit-markerLen]), " \n") + truncationMarker
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
