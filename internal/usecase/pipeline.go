package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"TrendWatch/internal/digest"
	"TrendWatch/internal/domain"
	"TrendWatch/internal/ports"
)

// PipelineDeps wires the driven adapters and the digest stages into one run.
type PipelineDeps struct {
	Source    ports.ItemSource
	Publisher ports.Publisher
	Cleaner   *digest.Cleaner
	Filter    *digest.Filter
	Ranker    digest.Ranker
	Renderer  digest.Renderer
	Logger    *slog.Logger
}

// Pipeline is the run coordinator: collect, clean, filter, dedup, rank,
// render, deliver.
type Pipeline struct {
	source    ports.ItemSource
	publisher ports.Publisher
	cleaner   *digest.Cleaner
	filter    *digest.Filter
	ranker    digest.Ranker
	renderer  digest.Renderer
	logger    *slog.Logger
}

// Report summarizes one run.
type Report struct {
	RunID     string
	Sources   []string
	Failures  []domain.FailureRecord
	Collected int
	Kept      int
	Payload   string
}

// NewPipeline constructs the orchestration component. Missing stages fall
// back to pass-through cleaning, an empty denylist and the default weights.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		source:    deps.Source,
		publisher: deps.Publisher,
		cleaner:   deps.Cleaner,
		filter:    deps.Filter,
		ranker:    deps.Ranker,
		renderer:  deps.Renderer,
		logger:    deps.Logger,
	}
	if p.cleaner == nil {
		p.cleaner = digest.NewCleaner(nil)
	}
	if p.filter == nil {
		p.filter = digest.NewFilter(nil)
	}
	if p.ranker.Steps == nil {
		p.ranker = digest.DefaultRanker()
	}
	return p
}

// Run performs a single pass. Per-source failures end up in the report and
// the digest header; the returned error is reserved for run-level failures
// (cancellation, empty digest, delivery). Nothing is delivered when ctx is
// cancelled.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	log := p.logger
	if log != nil {
		log = log.With("run_id", report.RunID)
	}

	if p.source == nil {
		return report, fmt.Errorf("item source is not configured")
	}
	if p.publisher == nil {
		return report, fmt.Errorf("publisher is not configured")
	}

	report.Sources = p.source.Sources()
	results, err := p.source.Collect(ctx)
	if err != nil {
		return report, fmt.Errorf("collect sources: %w", err)
	}

	var items []domain.Item
	for _, res := range results {
		if res.Failed() {
			report.Failures = append(report.Failures, domain.FailureRecord{Source: res.Source, Message: res.Err.Error()})
			continue
		}
		items = append(items, res.Items...)
	}
	report.Collected = len(items)

	cleaned := p.cleaner.Items(items)
	relevant := p.filter.Apply(cleaned)
	unique := digest.Dedup(relevant)
	ranked := p.ranker.Rank(unique, now)
	report.Kept = len(ranked)

	debug(log, "pipeline stages",
		"collected", len(items),
		"cleaned", len(cleaned),
		"filtered", len(relevant),
		"unique", len(unique),
		"failures", len(report.Failures))

	payload, err := p.renderer.Render(digest.Digest{
		Items:       ranked,
		Failures:    report.Failures,
		Sources:     report.Sources,
		GeneratedAt: now,
	})
	if err != nil {
		return report, fmt.Errorf("render digest: %w", err)
	}
	report.Payload = payload

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run aborted before delivery: %w", err)
	}
	if err := p.publisher.Publish(ctx, payload); err != nil {
		return report, fmt.Errorf("deliver digest: %w", err)
	}

	if log != nil {
		log.Info("run completed",
			"sources", len(report.Sources),
			"failed", len(report.Failures),
			"items", report.Kept,
			"chars", len([]rune(payload)))
	}
	return report, nil
}

func debug(log *slog.Logger, msg string, args ...interface{}) {
	if log != nil {
		log.Debug(msg, args...)
	}
}
