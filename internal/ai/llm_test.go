package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/tagger"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestFirstObject(t *testing.T) {
	assert.Equal(t, `{"persons":["A"]}`, firstObject("Sure! Here you go: {\"persons\":[\"A\"]} hope it helps"))
	assert.Equal(t, `{"a":{"b":1}}`, firstObject(`{"a":{"b":1}}`))
	assert.Equal(t, "{}", firstObject("no json here"))
	assert.Equal(t, "{}", firstObject(`{"unterminated": [`))
}

func TestRecognizerOllama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req["model"])
		assert.Equal(t, false, req["stream"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"response": `{"persons": ["Shehbaz Sharif", "Maryam Nawaz"]}`,
		})
	}))
	defer srv.Close()

	cfg := config.DefaultConfig().NLP.LLM
	cfg.Endpoint = srv.URL
	rec := NewRecognizer(NewLLMClient(cfg, testLogger), testLogger)

	ents, err := rec.Recognize(context.Background(), "Shehbaz Sharif met Maryam Nawaz in Lahore.")
	require.NoError(t, err)
	assert.Equal(t, []tagger.Entity{
		{Text: "Shehbaz Sharif", Label: tagger.LabelPerson},
		{Text: "Maryam Nawaz", Label: tagger.LabelPerson},
	}, ents)
	assert.Equal(t, "llm", rec.Name())
}

func TestRecognizerOpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"persons\":[]}"}}]}`))
	}))
	defer srv.Close()

	cfg := config.LLMConfig{Provider: "openai", Endpoint: srv.URL, Model: "gpt-4o-mini", APIKey: "sk-test"}
	rec := NewRecognizer(NewLLMClient(cfg, testLogger), testLogger)

	ents, err := rec.Recognize(context.Background(), "Nothing to see.")
	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestRecognizerHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig().NLP.LLM
	cfg.Endpoint = srv.URL
	rec := NewRecognizer(NewLLMClient(cfg, testLogger), testLogger)

	_, err := rec.Recognize(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestUnsupportedProvider(t *testing.T) {
	c := NewLLMClient(config.LLMConfig{Provider: "carrier-pigeon"}, testLogger)
	_, err := c.Generate(context.Background(), "hi")
	assert.ErrorContains(t, err, "unsupported LLM provider")
}
