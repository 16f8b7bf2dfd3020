package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/napwatch/internal/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "https://www.geo.tv/", cfg.Site.LandingURL)
	assert.Equal(t, types.DefaultAuthor, cfg.Site.DefaultAuthor)
	assert.Equal(t, 30*time.Minute, cfg.Schedule.Interval)
	assert.Equal(t, 3, cfg.NLP.MaxPersons)
	assert.True(t, cfg.Browser.NoSandbox)
	assert.True(t, cfg.Browser.Headless)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative landing url", func(c *Config) { c.Site.LandingURL = "/news" }},
		{"empty link selector", func(c *Config) { c.Site.LinkSelector = types.Selector{} }},
		{"unknown selector kind", func(c *Config) { c.Site.BodySelector.Kind = "jsonpath" }},
		{"unknown engine", func(c *Config) { c.Browser.Type = "selenium" }},
		{"unknown nlp provider", func(c *Config) { c.NLP.Provider = "spacy" }},
		{"zero persons", func(c *Config) { c.NLP.MaxPersons = 0 }},
		{"unknown storage", func(c *Config) { c.Storage.Type = "sqlite" }},
		{"mongodb without uri", func(c *Config) { c.Storage.MongoURI = "" }},
		{"sub-second interval", func(c *Config) { c.Schedule.Interval = 10 * time.Millisecond }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"notify without topic", func(c *Config) { c.Notify.Enabled = true; c.Notify.Topic = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidateAllowsDisabledScheduleInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Schedule.Enabled = false
	cfg.Schedule.Interval = 0
	assert.NoError(t, Validate(cfg))
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "napwatch.yaml")
	yaml := `
site:
  article_settle: 500ms
  body_selector:
    kind: xpath
    expr: //div[@class="content-area"]//p
storage:
  type: memory
schedule:
  interval: 45m
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("NAPWATCH_SERVER_PORT", "8088")
	t.Setenv("MONGO_URI", "mongodb://db.internal:27017")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Site.ArticleSettle)
	assert.Equal(t, types.XPath(`//div[@class="content-area"]//p`), cfg.Site.BodySelector)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, 45*time.Minute, cfg.Schedule.Interval)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "mongodb://db.internal:27017", cfg.Storage.MongoURI)

	// Untouched values keep their defaults.
	assert.Equal(t, types.CSS("h1"), cfg.Site.TitleSelector)
	assert.Equal(t, "nap_db", cfg.Storage.Database)
	require.NoError(t, Validate(cfg))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://www.geo.tv/"))
	assert.Error(t, ValidateURL("ftp://www.geo.tv/"))
	assert.Error(t, ValidateURL("https://"))
}
