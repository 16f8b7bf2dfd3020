package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/IshaanNene/napwatch/internal/ai"
	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/fetcher"
	"github.com/IshaanNene/napwatch/internal/notify"
	"github.com/IshaanNene/napwatch/internal/observability"
	"github.com/IshaanNene/napwatch/internal/parser"
	"github.com/IshaanNene/napwatch/internal/pipeline"
	"github.com/IshaanNene/napwatch/internal/storage"
	"github.com/IshaanNene/napwatch/internal/tagger"
)

// app holds the wired components shared by the serve and scrape commands.
type app struct {
	cfg      *config.Config
	metrics  *observability.Metrics
	store    storage.Store
	pipeline *pipeline.Pipeline
	closers  []io.Closer
	logger   *slog.Logger
}

// newApp builds every component from cfg. The caller must Close the app.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		metrics: observability.NewMetrics(),
		logger:  logger,
	}

	launcher, err := newLauncher(cfg, logger)
	if err != nil {
		return nil, err
	}

	recognizer, err := newRecognizer(cfg.NLP, logger)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("create storage: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store)

	opts := []pipeline.Option{
		pipeline.WithMiddleware(&pipeline.WhitespaceMiddleware{}),
		pipeline.WithMetrics(a.metrics),
	}
	if cfg.Notify.Enabled {
		kn := notify.NewKafkaNotifier(cfg.Notify, logger)
		a.closers = append(a.closers, kn)
		opts = append(opts, pipeline.WithNotifiers(kn))
	}

	links := parser.NewLinkDiscoverer(cfg.Site, logger)
	extractor := parser.NewExtractor(cfg.Site, logger,
		parser.WithFallbackHook(func(f parser.FieldName) {
			a.metrics.FieldFallback(string(f))
		}),
	)
	tg := tagger.New(recognizer, tagger.DefaultGazetteer(), cfg.NLP.MaxPersons, logger)

	a.pipeline = pipeline.New(cfg.Site.LandingURL, launcher, links, extractor, tg, store, logger, opts...)

	logger.Info("components ready",
		"engine", launcher.Type(),
		"recognizer", recognizer.Name(),
		"storage", store.Name(),
		"notify", cfg.Notify.Enabled,
	)
	return a, nil
}

// Close releases storage and notifier connections.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newLauncher(cfg *config.Config, logger *slog.Logger) (fetcher.Launcher, error) {
	switch cfg.Browser.Type {
	case "browser":
		return fetcher.NewBrowserLauncher(cfg, logger), nil
	case "static":
		return fetcher.NewStaticLauncher(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported engine type: %s", cfg.Browser.Type)
	}
}

func newRecognizer(cfg config.NLPConfig, logger *slog.Logger) (tagger.Recognizer, error) {
	switch cfg.Provider {
	case "prose":
		return tagger.NewProseRecognizer(), nil
	case "llm":
		return ai.NewRecognizer(ai.NewLLMClient(cfg.LLM, logger), logger), nil
	default:
		return nil, fmt.Errorf("unsupported nlp provider: %s", cfg.Provider)
	}
}
