package parser

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/fetcher"
	"github.com/IshaanNene/napwatch/internal/types"
)

// FieldName identifies an extracted article field.
type FieldName string

const (
	FieldTitle  FieldName = "title"
	FieldAuthor FieldName = "author"
	FieldBody   FieldName = "body"
)

// Mode says how matched elements become a field value.
type Mode int

const (
	// ModeFirst takes the text of the first match.
	ModeFirst Mode = iota
	// ModeJoin joins the text of every match with a single space.
	ModeJoin
)

// FieldRule is one row of the extraction policy table.
type FieldRule struct {
	Name     FieldName
	Selector types.Selector
	Mode     Mode
	Default  string
}

// DefaultRules returns the policy table for the configured site.
//
//	title   first match   ""
//	author  first match   site.DefaultAuthor ("Web Desk")
//	body    all, joined   ""
func DefaultRules(site config.SiteConfig) []FieldRule {
	return []FieldRule{
		{Name: FieldTitle, Selector: site.TitleSelector, Mode: ModeFirst, Default: ""},
		{Name: FieldAuthor, Selector: site.AuthorSelector, Mode: ModeFirst, Default: site.DefaultAuthor},
		{Name: FieldBody, Selector: site.BodySelector, Mode: ModeJoin, Default: ""},
	}
}

// Field is the outcome of one extraction. Found is false when no element matched.
type Field struct {
	Value string
	Found bool
}

// Or returns the extracted value, or def when nothing was found.
func (f Field) Or(def string) string {
	if !f.Found {
		return def
	}
	return f.Value
}

// Article holds the raw fields of one article page after defaults are applied.
type Article struct {
	URL        string
	Title      string
	Author     string
	Body       string
	Fallbacks  []FieldName
	CapturedAt time.Time
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithFallbackHook registers a callback invoked whenever a field falls back to its default.
func WithFallbackHook(fn func(FieldName)) ExtractorOption {
	return func(e *Extractor) { e.onFallback = fn }
}

// WithRules replaces the policy table.
func WithRules(rules []FieldRule) ExtractorOption {
	return func(e *Extractor) { e.rules = rules }
}

// Extractor pulls title, author and body from an article page.
type Extractor struct {
	rules      []FieldRule
	settle     time.Duration
	onFallback func(FieldName)
	logger     *slog.Logger
}

// NewExtractor creates an extractor using DefaultRules for site.
func NewExtractor(site config.SiteConfig, logger *slog.Logger, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		rules:  DefaultRules(site),
		settle: site.ArticleSettle,
		logger: logger.With("component", "field_extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract navigates to url and extracts every field independently. A missing
// element only substitutes that field's default; any other failure aborts.
func (e *Extractor) Extract(ctx context.Context, sess fetcher.Session, url string) (*Article, error) {
	if err := sess.Navigate(ctx, url); err != nil {
		return nil, err
	}
	if err := fetcher.Settle(ctx, e.settle); err != nil {
		return nil, err
	}

	art := &Article{URL: url}
	for _, rule := range e.rules {
		f, err := e.extractField(ctx, sess, rule)
		if err != nil {
			return nil, &types.ExtractError{URL: url, Field: string(rule.Name), Selector: rule.Selector, Err: err}
		}
		if !f.Found {
			art.Fallbacks = append(art.Fallbacks, rule.Name)
			e.logger.Debug("field missing, using default", "url", url, "field", rule.Name, "default", rule.Default)
			if e.onFallback != nil {
				e.onFallback(rule.Name)
			}
		}

		value := f.Or(rule.Default)
		switch rule.Name {
		case FieldTitle:
			art.Title = value
		case FieldAuthor:
			art.Author = value
		case FieldBody:
			art.Body = value
		}
	}
	art.CapturedAt = time.Now().UTC()

	return art, nil
}

// extractField applies one rule. Element-not-found is reported as an empty
// Field, never as an error.
func (e *Extractor) extractField(ctx context.Context, sess fetcher.Session, rule FieldRule) (Field, error) {
	els, err := sess.Elements(ctx, rule.Selector)
	if errors.Is(err, types.ErrElementNotFound) {
		return Field{}, nil
	}
	if err != nil {
		return Field{}, err
	}
	if len(els) == 0 {
		return Field{}, nil
	}

	switch rule.Mode {
	case ModeJoin:
		texts := make([]string, 0, len(els))
		for _, el := range els {
			text, err := el.Text()
			if errors.Is(err, types.ErrElementNotFound) {
				continue
			}
			if err != nil {
				return Field{}, err
			}
			texts = append(texts, text)
		}
		if len(texts) == 0 {
			return Field{}, nil
		}
		return Field{Value: strings.Join(texts, " "), Found: true}, nil

	default:
		text, err := els[0].Text()
		if errors.Is(err, types.ErrElementNotFound) {
			return Field{}, nil
		}
		if err != nil {
			return Field{}, err
		}
		return Field{Value: text, Found: true}, nil
	}
}
