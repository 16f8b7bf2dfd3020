package tagger_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/napwatch/internal/tagger"
	"github.com/IshaanNene/napwatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type stubRecognizer struct {
	entities []tagger.Entity
	err      error
	calls    int
}

func (s *stubRecognizer) Name() string { return "stub" }

func (s *stubRecognizer) Recognize(context.Context, string) ([]tagger.Entity, error) {
	s.calls++
	return s.entities, s.err
}

func person(name string) tagger.Entity { return tagger.Entity{Text: name, Label: tagger.LabelPerson} }

func TestTagPersonsAndLocations(t *testing.T) {
	rec := &stubRecognizer{entities: []tagger.Entity{
		person("Khan"),
		{Text: "Karachi", Label: "GPE"},
	}}
	tg := tagger.New(rec, tagger.DefaultGazetteer(), 3, testLogger)

	tags, err := tg.Tag(context.Background(), "PM Khan visited Karachi and Lahore")
	require.NoError(t, err)
	assert.Equal(t, []string{"Khan"}, tags.Persons)
	assert.Equal(t, []string{"Karachi", "Lahore"}, tags.Locations)
}

func TestTagBlankTextSkipsRecognizer(t *testing.T) {
	rec := &stubRecognizer{}
	tg := tagger.New(rec, tagger.DefaultGazetteer(), 3, testLogger)

	for _, text := range []string{"", "   \n\t"} {
		tags, err := tg.Tag(context.Background(), text)
		require.NoError(t, err)
		assert.NotNil(t, tags.Persons)
		assert.Empty(t, tags.Persons)
		assert.NotNil(t, tags.Locations)
		assert.Empty(t, tags.Locations)
	}
	assert.Equal(t, 0, rec.calls)
}

func TestTagRecognizerError(t *testing.T) {
	boom := errors.New("model unavailable")
	tg := tagger.New(&stubRecognizer{err: boom}, tagger.DefaultGazetteer(), 3, testLogger)

	_, err := tg.Tag(context.Background(), "Lahore")
	var tagErr *types.TagError
	require.ErrorAs(t, err, &tagErr)
	assert.Equal(t, "stub", tagErr.Recognizer)
	assert.ErrorIs(t, err, boom)
}

func TestCollectPersons(t *testing.T) {
	entities := []tagger.Entity{
		person("Imran Khan"),
		{Text: "Geo News", Label: "ORGANIZATION"},
		person("Imran Khan"),
		person("Maryam Nawaz"),
		person("  "),
		person("Bilawal Bhutto"),
		person("Asif Zardari"),
	}

	assert.Equal(t, []string{"Imran Khan", "Maryam Nawaz", "Bilawal Bhutto"}, tagger.CollectPersons(entities, 3))
	assert.Equal(t, []string{"Imran Khan"}, tagger.CollectPersons(entities, 1))
	assert.Len(t, tagger.CollectPersons(entities, 0), 4)
	assert.Equal(t, []string{}, tagger.CollectPersons(nil, 3))
}

func TestGazetteerCaseSensitiveSubstring(t *testing.T) {
	g := tagger.DefaultGazetteer()

	assert.Empty(t, g.Find("karachi and LAHORE in lower and upper case"))
	assert.Equal(t, []string{"Punjab"}, g.Find("the Punjabi film industry"))
	assert.Equal(t, []string{"Karachi", "Sindh", "KPK"}, g.Find("KPK, Sindh and Karachi; Karachi again"))
}

func TestGazetteerAllNames(t *testing.T) {
	g := tagger.DefaultGazetteer()
	text := "Balochistan Punjab Sindh Peshawar Quetta Islamabad Lahore Karachi KPK"

	assert.Equal(t, tagger.DefaultLocations, g.Find(text))
	assert.Equal(t, tagger.DefaultLocations, g.Names())
}

func TestGazetteerEmpty(t *testing.T) {
	g := tagger.NewGazetteer(nil)
	assert.Equal(t, []string{}, g.Find("Karachi"))

	g = tagger.NewGazetteer([]string{"Lahore", "", "Lahore"})
	assert.Equal(t, []string{"Lahore"}, g.Names())
}

func TestProseRecognizerFindsPeople(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the prose model")
	}
	rec := tagger.NewProseRecognizer()

	ents, err := rec.Recognize(context.Background(), "Prime Minister Shehbaz Sharif met Maryam Nawaz in Lahore on Monday.")
	require.NoError(t, err)
	assert.NotEmpty(t, ents)
}

func TestProseRecognizerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tagger.NewProseRecognizer().Recognize(ctx, "Lahore")
	assert.ErrorIs(t, err, context.Canceled)
}
