package mastodon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"TrendWatch/internal/domain"
	"TrendWatch/internal/scanner"
)

const (
	// Request.Options["mode"] values.
	ModeSearch  = "search"
	ModeAccount = "account"

	maxResponseBytes = 1 << 20
	maxTitleRunes    = 280
)

// Scanner queries a Mastodon-compatible API for recent statuses, either by
// keyword search or from one account's timeline.
type Scanner struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

var _ scanner.Scanner = (*Scanner)(nil)

// NewScanner wires an HTTP client; timeout defaults to 10s.
func NewScanner(client *http.Client, userAgent string, log *slog.Logger) *Scanner {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Scanner{client: client, userAgent: userAgent, logger: log}
}

// Name identifies the strategy inside the registry.
func (s *Scanner) Name() string {
	return "mastodon"
}

type status struct {
	ID              string  `json:"id"`
	CreatedAt       string  `json:"created_at"`
	URL             *string `json:"url"`
	URI             string  `json:"uri"`
	Content         string  `json:"content"`
	SpoilerText     string  `json:"spoiler_text"`
	RepliesCount    int     `json:"replies_count"`
	ReblogsCount    int     `json:"reblogs_count"`
	FavouritesCount int     `json:"favourites_count"`
	Account         struct {
		Acct     string `json:"acct"`
		Username string `json:"username"`
	} `json:"account"`
}

type searchResponse struct {
	Statuses []status `json:"statuses"`
}

type account struct {
	ID string `json:"id"`
}

// Scan returns the statuses matching req.Query. A missing credential skips
// the source without any network I/O.
func (s *Scanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Item, error) {
	if strings.TrimSpace(req.Credential) == "" {
		return nil, &domain.SourceFetchError{Source: req.SourceName, Err: domain.ErrCredentialMissing}
	}

	base, err := url.Parse(strings.TrimRight(req.Endpoint, "/"))
	if err != nil || base.Host == "" {
		return nil, &domain.SourceFetchError{Source: req.SourceName, Err: fmt.Errorf("invalid base url %q", req.Endpoint)}
	}

	var statuses []status
	switch req.Options["mode"] {
	case ModeAccount:
		statuses, err = s.accountStatuses(ctx, base, req)
	case ModeSearch, "":
		statuses, err = s.searchStatuses(ctx, base, req)
	default:
		err = &domain.SourceFetchError{Source: req.SourceName, Err: fmt.Errorf("unknown mode %q", req.Options["mode"])}
	}
	if err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(statuses))
	for _, st := range statuses {
		item, ok := toItem(st)
		if !ok {
			s.debug("drop status", "source", req.SourceName, "id", st.ID)
			continue
		}
		items = append(items, item)
	}

	s.debug("statuses parsed", "source", req.SourceName, "statuses", len(statuses), "items", len(items))
	return items, nil
}

func (s *Scanner) searchStatuses(ctx context.Context, base *url.URL, req scanner.Request) ([]status, error) {
	query := url.Values{}
	query.Set("q", req.Query)
	query.Set("type", "statuses")
	query.Set("resolve", "false")
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}

	var resp searchResponse
	if err := s.getJSON(ctx, req, endpoint(base, "/api/v2/search", query), &resp); err != nil {
		return nil, err
	}
	return resp.Statuses, nil
}

func (s *Scanner) accountStatuses(ctx context.Context, base *url.URL, req scanner.Request) ([]status, error) {
	handle := strings.TrimPrefix(strings.TrimSpace(req.Query), "@")

	var acct account
	lookup := url.Values{"acct": {handle}}
	if err := s.getJSON(ctx, req, endpoint(base, "/api/v1/accounts/lookup", lookup), &acct); err != nil {
		return nil, err
	}
	if acct.ID == "" {
		return nil, &domain.SourceFetchError{Source: req.SourceName, Err: fmt.Errorf("account %s not found", handle)}
	}

	query := url.Values{}
	query.Set("exclude_reblogs", "true")
	query.Set("exclude_replies", "true")
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}

	var statuses []status
	path := "/api/v1/accounts/" + url.PathEscape(acct.ID) + "/statuses"
	if err := s.getJSON(ctx, req, endpoint(base, path, query), &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

func (s *Scanner) getJSON(ctx context.Context, req scanner.Request, target string, v interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &domain.SourceFetchError{Source: req.SourceName, Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("User-Agent", s.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Credential)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return &domain.SourceFetchError{Source: req.SourceName, Err: fmt.Errorf("request statuses: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		fetchErr := &domain.SourceFetchError{Source: req.SourceName, StatusCode: resp.StatusCode, Status: resp.Status}
		if msg := strings.TrimSpace(string(excerpt)); msg != "" {
			fetchErr.Err = fmt.Errorf("%s", msg)
		}
		return fetchErr
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(v); err != nil {
		return &domain.SourceFetchError{Source: req.SourceName, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func endpoint(base *url.URL, path string, query url.Values) string {
	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + path
	u.RawQuery = query.Encode()
	return u.String()
}

func toItem(st status) (domain.Item, bool) {
	title := statusText(st.Content)
	if title == "" {
		title = strings.TrimSpace(st.SpoilerText)
	}
	if title == "" {
		return domain.Item{}, false
	}
	if runes := []rune(title); len(runes) > maxTitleRunes {
		title = strings.TrimSpace(string(runes[:maxTitleRunes-1])) + "…"
	}

	primary := ""
	if st.URL != nil {
		primary = *st.URL
	}
	link, ok := domain.ResolveLink(primary, st.URI)
	if !ok {
		return domain.Item{}, false
	}

	source := st.Account.Acct
	if source == "" {
		source = st.Account.Username
	}
	if source != "" {
		source = "@" + source
	}

	var published time.Time
	if t, err := time.Parse(time.RFC3339, st.CreatedAt); err == nil {
		published = t.UTC()
	}

	return domain.Item{
		Kind:        domain.KindSocialPost,
		Source:      source,
		Title:       title,
		URL:         link,
		PublishedAt: published,
		Engagement:  engagement(st),
	}, true
}

// engagement weighs reshares double: likes + 2*reblogs + replies.
func engagement(st status) int {
	return st.FavouritesCount + 2*st.ReblogsCount + st.RepliesCount
}

// statusText flattens the HTML body of a status into plain text.
func statusText(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p").AppendHtml(" ")
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func (s *Scanner) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
