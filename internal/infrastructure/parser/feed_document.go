package parser

import (
	"regexp"
	"strings"
	"time"
)

// feedRecord is one <item> or <entry> block with its raw field values.
type feedRecord struct {
	Title     string
	Link      string
	GUID      string
	Published string
}

var (
	blockOpen  = regexp.MustCompile(`(?i)<(item|entry)(\s[^>]*)?>`)
	blockClose = regexp.MustCompile(`(?i)</(item|entry)\s*>`)
	cdataWrap  = regexp.MustCompile(`(?s)^\s*<!\[CDATA\[(.*?)\]\]>\s*$`)
	cdataAny   = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
	linkTag    = regexp.MustCompile(`(?is)<link\b([^>]*?)/?>`)
	hrefAttr   = regexp.MustCompile(`(?i)\bhref\s*=\s*["']([^"']*)["']`)
	relAttr    = regexp.MustCompile(`(?i)\brel\s*=\s*["']([^"']*)["']`)

	fieldPatterns = map[string]*regexp.Regexp{}
)

func init() {
	for _, name := range []string{"title", "link", "guid", "id", "pubDate", "published", "updated", "dc:date"} {
		fieldPatterns[name] = regexp.MustCompile(`(?is)<` + regexp.QuoteMeta(name) + `(\s[^>]*)?>(.*?)</` + regexp.QuoteMeta(name) + `\s*>`)
	}
}

// parseFeedDocument splits a loosely structured RSS/Atom document into
// records. It never fails: blocks without a closing tag end at the next
// opening tag or at the end of the document, and missing fields stay empty.
func parseFeedDocument(doc string) []feedRecord {
	opens := blockOpen.FindAllStringIndex(doc, -1)
	records := make([]feedRecord, 0, len(opens))

	for i, open := range opens {
		end := len(doc)
		if i+1 < len(opens) {
			end = opens[i+1][0]
		}
		block := doc[open[1]:end]
		if loc := blockClose.FindStringIndex(block); loc != nil {
			block = block[:loc[0]]
		}
		records = append(records, parseRecord(block))
	}

	return records
}

func parseRecord(block string) feedRecord {
	return feedRecord{
		Title:     preferCDATA(fieldValues(block, "title")),
		Link:      recordLink(block),
		GUID:      firstNonEmpty(fieldValues(block, "guid"), fieldValues(block, "id")),
		Published: firstNonEmpty(fieldValues(block, "pubDate"), fieldValues(block, "published"), fieldValues(block, "updated"), fieldValues(block, "dc:date")),
	}
}

func fieldValues(block, name string) []string {
	matches := fieldPatterns[name].FindAllStringSubmatch(block, -1)
	values := make([]string, 0, len(matches))
	for _, m := range matches {
		values = append(values, m[2])
	}
	return values
}

// preferCDATA picks the first CDATA-wrapped candidate, else the first plain one.
func preferCDATA(values []string) string {
	for _, v := range values {
		if m := cdataWrap.FindStringSubmatch(v); m != nil && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(m[1])
		}
	}
	for _, v := range values {
		if v = unwrapCDATA(v); v != "" {
			return v
		}
	}
	return ""
}

// recordLink reads an RSS <link>text</link> or, for Atom, the href of the
// alternate (or first rel-less) <link/> element.
func recordLink(block string) string {
	if text := firstNonEmpty(fieldValues(block, "link")); text != "" {
		return text
	}

	var fallback string
	for _, m := range linkTag.FindAllStringSubmatch(block, -1) {
		href := hrefAttr.FindStringSubmatch(m[1])
		if href == nil {
			continue
		}
		rel := ""
		if r := relAttr.FindStringSubmatch(m[1]); r != nil {
			rel = strings.ToLower(strings.TrimSpace(r[1]))
		}
		switch rel {
		case "alternate":
			return strings.TrimSpace(href[1])
		case "":
			if fallback == "" {
				fallback = strings.TrimSpace(href[1])
			}
		}
	}
	return fallback
}

func firstNonEmpty(groups ...[]string) string {
	for _, values := range groups {
		for _, v := range values {
			if v = unwrapCDATA(v); v != "" {
				return v
			}
		}
	}
	return ""
}

func unwrapCDATA(s string) string {
	return strings.TrimSpace(cdataAny.ReplaceAllString(s, "$1"))
}

var timeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parsePublished returns the zero time when no layout matches.
func parsePublished(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
