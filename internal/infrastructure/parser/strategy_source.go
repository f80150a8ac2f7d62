package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"TrendWatch/internal/domain"
	"TrendWatch/internal/ports"
	"TrendWatch/internal/scanner"
)

// SourceSpec binds one configured source to the scanner strategy that reads it.
type SourceSpec struct {
	Scanner string
	Request scanner.Request
}

// StrategySource implements ItemSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	specs    []SourceSpec
	timeout  time.Duration
	logger   *slog.Logger
}

var _ ports.ItemSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined sources.
// Each scan gets its own timeout; zero means only the caller's context applies.
func NewStrategySource(reg *scanner.Registry, specs []SourceSpec, timeout time.Duration, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		specs:    specs,
		timeout:  timeout,
		logger:   log,
	}
}

// Sources lists source names in collection order.
func (s *StrategySource) Sources() []string {
	names := make([]string, 0, len(s.specs))
	for _, spec := range s.specs {
		names = append(names, spec.Request.SourceName)
	}
	return names
}

// Collect runs every scan concurrently and waits for all of them to settle.
// Per-source failures are reported inside the results; the returned error is
// non-nil only when ctx itself was cancelled, in which case no results are
// returned.
func (s *StrategySource) Collect(ctx context.Context) ([]scanner.Result, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("collect", "sources", len(s.specs))

	results := make([]scanner.Result, len(s.specs))
	var g errgroup.Group
	for i, spec := range s.specs {
		i, spec := i, spec
		g.Go(func() error {
			results[i] = s.scanOne(ctx, spec)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	return results, nil
}

func (s *StrategySource) scanOne(ctx context.Context, spec SourceSpec) (res scanner.Result) {
	name := spec.Request.SourceName
	res.Source = name

	defer func() {
		if r := recover(); r != nil {
			res = scanner.Result{Source: name, Err: &domain.SourceFetchError{Source: name, Err: fmt.Errorf("scanner panic: %v", r)}}
		}
	}()

	strategy, err := s.registry.Resolve(spec.Scanner)
	if err != nil {
		res.Err = &domain.SourceFetchError{Source: name, Err: err}
		return res
	}

	scanCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	items, err := strategy.Scan(scanCtx, spec.Request)
	if err != nil {
		var fetchErr *domain.SourceFetchError
		if !errors.As(err, &fetchErr) {
			err = &domain.SourceFetchError{Source: name, Err: err}
		}
		res.Err = err
		if errors.Is(err, domain.ErrCredentialMissing) {
			s.warn("source skipped", "source", name, "scanner", spec.Scanner, "reason", err)
		} else {
			s.warn("source failed", "source", name, "scanner", spec.Scanner, "error", err)
		}
		return res
	}

	for i := range items {
		if items[i].Source == "" {
			items[i].Source = name
		}
	}
	res.Items = items
	s.debug("source produced items", "source", name, "count", len(items), "elapsed", time.Since(started))
	return res
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
