package tagger

import (
	"context"
	"fmt"

	"github.com/jdkato/prose/v2"
)

// ProseRecognizer runs the offline prose model.
type ProseRecognizer struct{}

// NewProseRecognizer returns a recognizer backed by prose's bundled model.
func NewProseRecognizer() *ProseRecognizer { return &ProseRecognizer{} }

// Name returns the recognizer identifier.
func (r *ProseRecognizer) Name() string { return "prose" }

// Recognize tokenizes text and returns the named entities prose finds.
func (r *ProseRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("prose document: %w", err)
	}

	ents := doc.Entities()
	out := make([]Entity, 0, len(ents))
	for _, e := range ents {
		out = append(out, Entity{Text: e.Text, Label: e.Label})
	}
	return out, nil
}
