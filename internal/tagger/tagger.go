// Package tagger attaches person and location tags to article text.
package tagger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/IshaanNene/napwatch/internal/types"
)

// LabelPerson is the entity label for people.
const LabelPerson = "PERSON"

// Entity is a recognized span of text.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Recognizer finds named entities in text.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
	Name() string
}

// Tags is the result of tagging one article body.
type Tags struct {
	Persons   []string
	Locations []string
}

// Tagger combines a person recognizer with a location gazetteer.
type Tagger struct {
	recognizer Recognizer
	gazetteer  *Gazetteer
	maxPersons int
	logger     *slog.Logger
}

// New creates a Tagger. maxPersons <= 0 means no limit.
func New(recognizer Recognizer, gazetteer *Gazetteer, maxPersons int, logger *slog.Logger) *Tagger {
	return &Tagger{
		recognizer: recognizer,
		gazetteer:  gazetteer,
		maxPersons: maxPersons,
		logger:     logger.With("component", "tagger", "recognizer", recognizer.Name()),
	}
}

// Tag returns up to maxPersons distinct person names in order of first
// appearance plus every gazetteer location present in text.
// Blank text yields empty tags without calling the recognizer.
func (t *Tagger) Tag(ctx context.Context, text string) (Tags, error) {
	tags := Tags{Persons: []string{}, Locations: []string{}}
	if strings.TrimSpace(text) == "" {
		return tags, nil
	}

	entities, err := t.recognizer.Recognize(ctx, text)
	if err != nil {
		return tags, &types.TagError{Recognizer: t.recognizer.Name(), Err: err}
	}
	tags.Persons = CollectPersons(entities, t.maxPersons)
	tags.Locations = t.gazetteer.Find(text)

	t.logger.Debug("text tagged",
		"entities", len(entities),
		"persons", len(tags.Persons),
		"locations", len(tags.Locations),
	)
	return tags, nil
}

// CollectPersons keeps PERSON entities, distinct by exact text, in input
// order, stopping once limit names are collected.
func CollectPersons(entities []Entity, limit int) []string {
	persons := []string{}
	seen := make(map[string]struct{})
	for _, e := range entities {
		if limit > 0 && len(persons) >= limit {
			break
		}
		if e.Label != LabelPerson {
			continue
		}
		name := strings.TrimSpace(e.Text)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		persons = append(persons, name)
	}
	return persons
}
