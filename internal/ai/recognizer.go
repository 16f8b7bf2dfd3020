package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/napwatch/internal/tagger"
)

// maxPromptChars bounds the article text sent to the model.
const maxPromptChars = 3000

const personPrompt = `Extract the names of people mentioned in the following news text, in the order they first appear.
Return only JSON of the form {"persons": ["Name", ...]}. Use an empty array if there are none.

Text: %s`

// Recognizer is a tagger.Recognizer backed by an LLM. It only reports PERSON entities.
type Recognizer struct {
	client *LLMClient
	logger *slog.Logger
}

var _ tagger.Recognizer = (*Recognizer)(nil)

// NewRecognizer creates an LLM-backed person recognizer.
func NewRecognizer(client *LLMClient, logger *slog.Logger) *Recognizer {
	return &Recognizer{client: client, logger: logger.With("component", "llm_recognizer")}
}

// Name returns the recognizer identifier.
func (r *Recognizer) Name() string { return "llm" }

// Recognize asks the model for the people named in text.
func (r *Recognizer) Recognize(ctx context.Context, text string) ([]tagger.Entity, error) {
	if runes := []rune(text); len(runes) > maxPromptChars {
		text = string(runes[:maxPromptChars])
	}

	response, err := r.client.Generate(ctx, fmt.Sprintf(personPrompt, text))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Persons []string `json:"persons"`
	}
	if err := json.Unmarshal([]byte(firstObject(response)), &parsed); err != nil {
		return nil, fmt.Errorf("parse llm entities: %w", err)
	}

	entities := make([]tagger.Entity, 0, len(parsed.Persons))
	for _, p := range parsed.Persons {
		entities = append(entities, tagger.Entity{Text: p, Label: tagger.LabelPerson})
	}
	r.logger.Debug("persons recognized", "count", len(entities))
	return entities, nil
}
