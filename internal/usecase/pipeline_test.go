package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TrendWatch/internal/digest"
	"TrendWatch/internal/domain"
	"TrendWatch/internal/infrastructure/parser"
	"TrendWatch/internal/scanner"
)

var runAt = time.Date(2026, time.March, 14, 18, 0, 0, 0, time.UTC)

type stubSource struct {
	names   []string
	results []scanner.Result
	err     error
}

func (s stubSource) Collect(context.Context) ([]scanner.Result, error) {
	return s.results, s.err
}

func (s stubSource) Sources() []string {
	return s.names
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, payload string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return p.err
}

type funcScanner struct {
	name string
	scan func(ctx context.Context, req scanner.Request) ([]domain.Item, error)
}

func (f funcScanner) Name() string { return f.name }

func (f funcScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Item, error) {
	return f.scan(ctx, req)
}

func newPipeline(src stubSource, pub *recordingPublisher) *Pipeline {
	return NewPipeline(PipelineDeps{
		Source:    src,
		Publisher: pub,
		Cleaner:   digest.NewCleaner([]string{"SourceName"}),
		Filter:    digest.NewFilter([]string{"nba"}),
		Renderer:  digest.Renderer{Title: "Rap Trend Watch", MaxChars: 1900, Location: time.UTC},
	})
}

func TestPipelineRunDeliversRankedDigest(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	src := stubSource{
		names: []string{"Feed", "Social"},
		results: []scanner.Result{
			{Source: "Feed", Items: []domain.Item{
				{Kind: domain.KindFeedPost, Source: "Feed", Title: "Artist X Drops Album", URL: "https://feed.example/1"},
				{Kind: domain.KindFeedPost, Source: "Feed", Title: "NBA Finals recap", URL: "https://feed.example/2"},
			}},
			{Source: "Social", Items: []domain.Item{
				{Kind: domain.KindFeedPost, Source: "Other", Title: "Artist X Drops Album - SourceName", URL: "https://other.example/1"},
				{Kind: domain.KindSocialPost, Source: "@dj", Title: "Fresh verse", URL: "https://social.example/1", Engagement: 90, PublishedAt: runAt.Add(-30 * time.Minute)},
			}},
		},
	}

	report, err := newPipeline(src, pub).Run(context.Background(), runAt)
	require.NoError(t, err)

	require.NotEmpty(t, report.RunID)
	require.Equal(t, 4, report.Collected)
	require.Equal(t, 2, report.Kept)
	require.Empty(t, report.Failures)

	require.Len(t, pub.payloads, 1)
	payload := pub.payloads[0]
	require.Equal(t, report.Payload, payload)
	require.Contains(t, payload, "Sources: 2 of 2 responded")
	require.Contains(t, payload, "1. [Fresh verse](https://social.example/1) · @dj")
	require.Contains(t, payload, "2. [Artist X Drops Album](https://feed.example/1) · Feed")
	require.NotContains(t, payload, "NBA")
	require.NotContains(t, payload, "other.example")
}

func TestPipelineRunReportsTimedOutSource(t *testing.T) {
	t.Parallel()

	slow := funcScanner{name: "slow", scan: func(ctx context.Context, _ scanner.Request) ([]domain.Item, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	fast := funcScanner{name: "fast", scan: func(_ context.Context, req scanner.Request) ([]domain.Item, error) {
		items := make([]domain.Item, 0, 3)
		for i := 1; i <= 3; i++ {
			items = append(items, domain.Item{
				Kind:  domain.KindFeedPost,
				Title: fmt.Sprintf("Story %d", i),
				URL:   fmt.Sprintf("https://fast.example/%d", i),
			})
		}
		return items, nil
	}}

	reg := scanner.NewRegistry()
	reg.Register(slow)
	reg.Register(fast)
	source := parser.NewStrategySource(reg, []parser.SourceSpec{
		{Scanner: "slow", Request: scanner.Request{SourceName: "SlowFeed"}},
		{Scanner: "fast", Request: scanner.Request{SourceName: "FastFeed"}},
	}, 30*time.Millisecond, nil)

	pub := &recordingPublisher{}
	pipeline := NewPipeline(PipelineDeps{
		Source:    source,
		Publisher: pub,
		Renderer:  digest.Renderer{Title: "Rap Trend Watch", MaxChars: 1900},
	})

	report, err := pipeline.Run(context.Background(), runAt)
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	require.Equal(t, "SlowFeed", report.Failures[0].Source)
	require.Contains(t, report.Failures[0].Message, "deadline exceeded")

	payload := pub.payloads[0]
	require.Contains(t, payload, "skipped: SlowFeed")
	require.Contains(t, payload, "Sources: 1 of 2 responded")
	for i := 1; i <= 3; i++ {
		require.Contains(t, payload, fmt.Sprintf("[Story %d](https://fast.example/%d) · FastFeed", i, i))
	}
}

func TestPipelineRunEmptyDigest(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	src := stubSource{
		names: []string{"A", "B", "C"},
		results: []scanner.Result{
			{Source: "A", Items: []domain.Item{{Kind: domain.KindFeedPost, Source: "A", Title: "NBA trade rumors", URL: "https://a.example/1"}}},
			{Source: "B"},
			{Source: "C", Err: &domain.SourceFetchError{Source: "C", Err: domain.ErrCredentialMissing}},
		},
	}

	_, err := newPipeline(src, pub).Run(context.Background(), runAt)

	var emptyErr *domain.EmptyDigestError
	require.True(t, errors.As(err, &emptyErr))
	require.Equal(t, []string{"A", "B", "C"}, emptyErr.Attempted)
	require.Equal(t, []string{"C"}, emptyErr.Failed)
	require.Empty(t, pub.payloads)
}

func TestPipelineRunDeliveryFailure(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{err: &domain.DeliveryError{StatusCode: 400, Status: "400 Bad Request", Body: "too long"}}
	src := stubSource{
		names:   []string{"A"},
		results: []scanner.Result{{Source: "A", Items: []domain.Item{{Kind: domain.KindFeedPost, Source: "A", Title: "Story", URL: "https://a.example/1"}}}},
	}

	report, err := newPipeline(src, pub).Run(context.Background(), runAt)

	var deliveryErr *domain.DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	require.Equal(t, "too long", deliveryErr.Body)
	require.NotEmpty(t, report.Payload)
}

func TestPipelineRunCancelledEmitsNothing(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	src := stubSource{names: []string{"A"}, err: context.Canceled}

	_, err := newPipeline(src, pub).Run(context.Background(), runAt)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, pub.payloads)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src = stubSource{
		names:   []string{"A"},
		results: []scanner.Result{{Source: "A", Items: []domain.Item{{Kind: domain.KindFeedPost, Source: "A", Title: "Story", URL: "https://a.example/1"}}}},
	}
	_, err = newPipeline(src, pub).Run(ctx, runAt)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, pub.payloads)
}

func TestPipelineRunBudgetKeepsRankPrefix(t *testing.T) {
	t.Parallel()

	results := make([]domain.Item, 0, 50)
	for i := 0; i < 50; i++ {
		results = append(results, domain.Item{
			Kind:       domain.KindSocialPost,
			Source:     "@poster",
			Title:      fmt.Sprintf("Post number %02d", i),
			URL:        fmt.Sprintf("https://social.example/%02d", i),
			Engagement: 1000 - i,
		})
	}
	pub := &recordingPublisher{}
	src := stubSource{names: []string{"Social"}, results: []scanner.Result{{Source: "Social", Items: results}}}

	pipeline := NewPipeline(PipelineDeps{
		Source:    src,
		Publisher: pub,
		Renderer:  digest.Renderer{Title: "T", MaxChars: 600},
	})
	report, err := pipeline.Run(context.Background(), runAt)
	require.NoError(t, err)
	require.LessOrEqual(t, len([]rune(report.Payload)), 600)

	lines := strings.Split(report.Payload, "\n")
	n := 0
	for _, line := range lines {
		if strings.HasPrefix(line, fmt.Sprintf("%d. ", n+1)) {
			require.Contains(t, line, fmt.Sprintf("Post number %02d", n))
			n++
		}
	}
	require.Greater(t, n, 0)
	require.Less(t, n, 50)
}

func TestPipelineRequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline(PipelineDeps{}).Run(context.Background(), runAt)
	require.Error(t, err)
}
