package pipeline

import (
	"regexp"
	"strings"

	"github.com/IshaanNene/napwatch/internal/types"
)

// Middleware post-processes a record before it enters the snapshot.
// Middleware may rewrite fields but never drops records.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process modifies rec in place.
	Process(rec *types.ArticleRecord) error
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// WhitespaceMiddleware collapses runs of whitespace in title and author,
// which rendered headlines often split across lines.
type WhitespaceMiddleware struct{}

func (m *WhitespaceMiddleware) Name() string { return "whitespace" }

func (m *WhitespaceMiddleware) Process(rec *types.ArticleRecord) error {
	rec.Title = strings.TrimSpace(whitespaceRun.ReplaceAllString(rec.Title, " "))
	rec.Author = strings.TrimSpace(whitespaceRun.ReplaceAllString(rec.Author, " "))
	return nil
}
