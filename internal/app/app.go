package app

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"TrendWatch/internal/config"
	"TrendWatch/internal/digest"
	"TrendWatch/internal/infrastructure/mastodon"
	"TrendWatch/internal/infrastructure/parser"
	"TrendWatch/internal/infrastructure/webhook"
	"TrendWatch/internal/logging"
	"TrendWatch/internal/scanner"
	"TrendWatch/internal/usecase"
)

// Application wires configs to use cases.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	now      func() time.Time
}

// New builds a runnable application instance from an already loaded config.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := scanner.NewRegistry()
	feeds := parser.NewFeedScanner(cfg.Fetch.UserAgent, cfg.Fetch.Timeout, baseLogger.With("component", "scanner.rss"))
	social := mastodon.NewScanner(&http.Client{Timeout: cfg.Fetch.Timeout}, cfg.Fetch.UserAgent, baseLogger.With("component", "scanner.mastodon"))
	registry.Register(feeds)
	registry.Register(social)
	baseLogger.Debug("scanners registered", "scanners", registry.Names())

	source := parser.NewStrategySource(registry, SourceSpecs(cfg, feeds.Name(), social.Name()), cfg.Fetch.Timeout, baseLogger.With("component", "source"))
	publisher := webhook.NewPublisher(cfg.Delivery.WebhookURL, cfg.Delivery.Username, cfg.Fetch.UserAgent, cfg.Delivery.Timeout, baseLogger.With("component", "webhook"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:    source,
		Publisher: publisher,
		Cleaner:   digest.NewCleaner(cfg.Filter.Suffixes),
		Filter:    digest.NewFilter(cfg.Filter.Denylist),
		Ranker:    digest.DefaultRanker(),
		Renderer: digest.Renderer{
			Title:    cfg.Digest.Title,
			Footer:   cfg.Digest.Footer,
			MaxChars: cfg.Digest.MaxChars,
			Location: cfg.Digest.Location(),
		},
		Logger: baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, logger: baseLogger, pipeline: pipeline, now: time.Now}
}

// SourceSpecs expands the configured feeds, accounts and search terms into
// one spec per source, in that order. Order decides which duplicate survives
// deduplication.
func SourceSpecs(cfg config.Config, feedScanner, socialScanner string) []parser.SourceSpec {
	specs := make([]parser.SourceSpec, 0, len(cfg.Feeds)+len(cfg.Social.Accounts)+len(cfg.Social.Terms))

	for _, feed := range cfg.Feeds {
		specs = append(specs, parser.SourceSpec{
			Scanner: feedScanner,
			Request: scanner.Request{
				SourceName: feed.Name,
				Endpoint:   feed.URL,
				Limit:      cfg.Fetch.Limit,
			},
		})
	}

	if cfg.Social.RunsAccounts() {
		for _, acct := range cfg.Social.Accounts {
			acct = strings.TrimPrefix(strings.TrimSpace(acct), "@")
			if acct == "" {
				continue
			}
			specs = append(specs, socialSpec(cfg, socialScanner, "@"+acct, acct, mastodon.ModeAccount))
		}
	}

	if cfg.Social.RunsSearch() {
		for _, term := range cfg.Social.Terms {
			term = strings.TrimSpace(term)
			if term == "" {
				continue
			}
			specs = append(specs, socialSpec(cfg, socialScanner, "#"+strings.TrimPrefix(term, "#"), term, mastodon.ModeSearch))
		}
	}

	return specs
}

func socialSpec(cfg config.Config, scannerName, sourceName, query, mode string) parser.SourceSpec {
	return parser.SourceSpec{
		Scanner: scannerName,
		Request: scanner.Request{
			SourceName: sourceName,
			Endpoint:   cfg.Social.BaseURL,
			Credential: cfg.Social.AccessToken,
			Query:      query,
			Limit:      cfg.Fetch.Limit,
			Options:    map[string]string{"mode": mode},
		},
	}
}

// Run validates the configuration and performs one pipeline execution.
func (a *Application) Run(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	report, err := a.pipeline.Run(ctx, a.now())
	if err != nil {
		return err
	}

	a.logger.Debug("digest delivered", "run_id", report.RunID, "payload", report.Payload)
	return nil
}
