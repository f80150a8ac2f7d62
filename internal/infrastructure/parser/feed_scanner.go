package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"TrendWatch/internal/domain"
	"TrendWatch/internal/scanner"
)

var linkEntities = strings.NewReplacer("&amp;", "&", "&quot;", `"`, "&#39;", "'")

// FeedScanner fetches RSS/Atom documents and extracts feed posts.
type FeedScanner struct {
	userAgent string
	timeout   time.Duration
	transport http.RoundTripper
	logger    *slog.Logger
}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewFeedScanner wires the client tag and per-request timeout; timeout
// defaults to 10s.
func NewFeedScanner(userAgent string, timeout time.Duration, log *slog.Logger) *FeedScanner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FeedScanner{
		userAgent: userAgent,
		timeout:   timeout,
		transport: http.DefaultTransport,
		logger:    log,
	}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "rss"
}

// Scan downloads req.Endpoint and returns at most req.Limit items (all when
// Limit is zero). Records without a title or an absolute link are dropped.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Item, error) {
	body, err := f.fetchDocument(ctx, req)
	if err != nil {
		return nil, err
	}

	records := parseFeedDocument(string(body))
	items := make([]domain.Item, 0, len(records))
	for _, rec := range records {
		item, ok := toItem(rec, req.SourceName)
		if !ok {
			f.debug("drop record", "source", req.SourceName, "title", rec.Title, "link", rec.Link)
			continue
		}
		items = append(items, item)
		if req.Limit > 0 && len(items) == req.Limit {
			break
		}
	}

	f.debug("feed parsed", "source", req.SourceName, "records", len(records), "items", len(items))
	return items, nil
}

func (f *FeedScanner) fetchDocument(ctx context.Context, req scanner.Request) ([]byte, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.timeout)
	c.ParseHTTPErrorResponse = true
	c.WithTransport(&contextTransport{ctx: ctx, next: f.transport})

	var (
		body      []byte
		statusErr error
	)
	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode < http.StatusOK || r.StatusCode >= http.StatusMultipleChoices {
			statusErr = &domain.SourceFetchError{
				Source:     req.SourceName,
				StatusCode: r.StatusCode,
				Status:     fmt.Sprintf("%d %s", r.StatusCode, http.StatusText(r.StatusCode)),
			}
			return
		}
		body = r.Body
	})

	if err := c.Visit(req.Endpoint); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &domain.SourceFetchError{Source: req.SourceName, Err: fmt.Errorf("request document: %w", err)}
	}
	if statusErr != nil {
		return nil, statusErr
	}

	return body, nil
}

func toItem(rec feedRecord, source string) (domain.Item, bool) {
	title := markupText(rec.Title)
	if title == "" {
		return domain.Item{}, false
	}

	link, ok := domain.ResolveLink(linkEntities.Replace(rec.Link), linkEntities.Replace(rec.GUID))
	if !ok {
		return domain.Item{}, false
	}

	return domain.Item{
		Kind:        domain.KindFeedPost,
		Source:      source,
		Title:       title,
		URL:         link,
		PublishedAt: parsePublished(rec.Published),
	}, true
}

// markupText flattens HTML inside a title (usually from CDATA) into text.
// Titles without a '<' are returned trimmed and otherwise untouched.
func markupText(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "<") {
		return raw
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func (f *FeedScanner) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

// contextTransport binds colly's requests to the scan context so a cancelled
// run aborts in-flight downloads.
type contextTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(req.WithContext(t.ctx))
}
