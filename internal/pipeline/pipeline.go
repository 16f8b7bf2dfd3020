package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/napwatch/internal/fetcher"
	"github.com/IshaanNene/napwatch/internal/observability"
	"github.com/IshaanNene/napwatch/internal/parser"
	"github.com/IshaanNene/napwatch/internal/storage"
	"github.com/IshaanNene/napwatch/internal/tagger"
	"github.com/IshaanNene/napwatch/internal/types"
)

// Run stages reported in types.RunError.
const (
	StageSession  = "session"
	StageDiscover = "discover"
	StageExtract  = "extract"
	StageTag      = "tag"
	StageStore    = "store"
)

// LinkFinder discovers article URLs on the landing page.
type LinkFinder interface {
	Discover(ctx context.Context, sess fetcher.Session, landingURL string) ([]string, error)
}

// ArticleExtractor extracts the raw fields of one article page.
type ArticleExtractor interface {
	Extract(ctx context.Context, sess fetcher.Session, url string) (*parser.Article, error)
}

// Tagger derives person and location tags from body text.
type Tagger interface {
	Tag(ctx context.Context, text string) (tagger.Tags, error)
}

// Notifier is told about every successful run.
type Notifier interface {
	Notify(ctx context.Context, result *types.RunResult) error
	Name() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNotifiers registers post-run notifiers.
func WithNotifiers(n ...Notifier) Option {
	return func(p *Pipeline) { p.notifiers = append(p.notifiers, n...) }
}

// WithMiddleware appends record middleware.
func WithMiddleware(mw ...Middleware) Option {
	return func(p *Pipeline) { p.middlewares = append(p.middlewares, mw...) }
}

// WithMetrics records run metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithRunIDs overrides run id generation.
func WithRunIDs(fn func() string) Option {
	return func(p *Pipeline) { p.newRunID = fn }
}

// Pipeline performs one full harvest: open a session, discover links,
// extract and tag every article, then replace the stored snapshot.
type Pipeline struct {
	landingURL  string
	launcher    fetcher.Launcher
	links       LinkFinder
	extractor   ArticleExtractor
	tagger      Tagger
	store       storage.Store
	notifiers   []Notifier
	middlewares []Middleware
	metrics     *observability.Metrics
	newRunID    func() string
	logger      *slog.Logger
}

// New creates a Pipeline from its collaborators.
func New(
	landingURL string,
	launcher fetcher.Launcher,
	links LinkFinder,
	extractor ArticleExtractor,
	tg Tagger,
	store storage.Store,
	logger *slog.Logger,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		landingURL: landingURL,
		launcher:   launcher,
		links:      links,
		extractor:  extractor,
		tagger:     tg,
		store:      store,
		newRunID:   uuid.NewString,
		logger:     logger.With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Use adds a record middleware to the chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Run executes one harvest. On failure the stored snapshot is left untouched
// and the error is a *types.RunError naming the failed stage.
func (p *Pipeline) Run(ctx context.Context, trigger types.Trigger) (*types.RunResult, error) {
	result := &types.RunResult{
		RunID:     p.newRunID(),
		Trigger:   trigger,
		StartedAt: time.Now().UTC(),
	}
	logger := p.logger.With("run_id", result.RunID, "trigger", trigger)
	logger.Info("run started", "landing_url", p.landingURL)

	p.metrics.RunStarted()
	committed := false

	err := fetcher.WithSession(ctx, p.launcher, logger, func(sess fetcher.Session) error {
		links, err := p.links.Discover(ctx, sess, p.landingURL)
		if err != nil {
			return &types.RunError{RunID: result.RunID, Stage: StageDiscover, Err: err}
		}
		result.LinksFound = len(links)
		p.metrics.LinksFound(len(links))

		records := make([]types.ArticleRecord, 0, len(links))
		for _, link := range links {
			rec, err := p.harvest(ctx, sess, result.RunID, link)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}

		snap := types.NewSnapshot(result.RunID, records)
		if err := p.store.ReplaceAll(ctx, snap); err != nil {
			return &types.RunError{RunID: result.RunID, Stage: StageStore, Err: err}
		}
		committed = true
		result.Records = snap.Len()
		p.metrics.DatasetReplaced(snap.Len())
		return nil
	})

	if err != nil && committed {
		// The snapshot is already live; only the release failed.
		logger.Warn("run committed but session release failed", "error", err)
		err = nil
	}
	if err != nil {
		var runErr *types.RunError
		if !errors.As(err, &runErr) {
			err = &types.RunError{RunID: result.RunID, Stage: StageSession, Err: err}
		}
	}

	result.FinishedAt = time.Now().UTC()
	p.metrics.RunFinished(string(trigger), result.Duration(), err)

	if err != nil {
		logger.Error("run failed", "error", err, "duration", result.Duration())
		return nil, err
	}

	logger.Info("run completed",
		"links", result.LinksFound,
		"records", result.Records,
		"duration", result.Duration(),
	)
	p.notify(ctx, logger, result)
	return result, nil
}

// harvest turns one article URL into a record.
func (p *Pipeline) harvest(ctx context.Context, sess fetcher.Session, runID, link string) (types.ArticleRecord, error) {
	art, err := p.extractor.Extract(ctx, sess, link)
	if err != nil {
		return types.ArticleRecord{}, &types.RunError{RunID: runID, Stage: StageExtract, Err: err}
	}
	p.metrics.ArticleExtracted()

	tags, err := p.tagger.Tag(ctx, art.Body)
	if err != nil {
		return types.ArticleRecord{}, &types.RunError{RunID: runID, Stage: StageTag, Err: err}
	}

	rec := types.ArticleRecord{
		Title:      art.Title,
		Author:     art.Author,
		Locations:  tags.Locations,
		Persons:    tags.Persons,
		CapturedAt: art.CapturedAt,
		URL:        art.URL,
	}
	if rec.CapturedAt.IsZero() {
		rec.CapturedAt = time.Now().UTC()
	}

	for _, mw := range p.middlewares {
		if err := mw.Process(&rec); err != nil {
			return types.ArticleRecord{}, &types.RunError{RunID: runID, Stage: mw.Name(), Err: err}
		}
	}
	return rec, nil
}

func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, result *types.RunResult) {
	for _, n := range p.notifiers {
		if err := n.Notify(ctx, result); err != nil {
			logger.Warn("notification failed", "notifier", n.Name(), "error", err)
		}
	}
}
