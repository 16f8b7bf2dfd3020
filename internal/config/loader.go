package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and .env files.
// Priority (highest to lowest): env vars > config file > defaults.
// MONGO_URI is honoured as an alias of NAPWATCH_STORAGE_MONGO_URI.
func Load(configPath string) (*Config, error) {
	// A missing .env is fine; a malformed one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("NAPWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("storage.mongo_uri", "NAPWATCH_STORAGE_MONGO_URI", "MONGO_URI"); err != nil {
		return nil, fmt.Errorf("bind MONGO_URI: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("napwatch")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".napwatch"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env vars can override them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("site.landing_url", cfg.Site.LandingURL)
	v.SetDefault("site.link_selector.kind", cfg.Site.LinkSelector.Kind)
	v.SetDefault("site.link_selector.expr", cfg.Site.LinkSelector.Expr)
	v.SetDefault("site.link_attribute", cfg.Site.LinkAttribute)
	v.SetDefault("site.title_selector.kind", cfg.Site.TitleSelector.Kind)
	v.SetDefault("site.title_selector.expr", cfg.Site.TitleSelector.Expr)
	v.SetDefault("site.author_selector.kind", cfg.Site.AuthorSelector.Kind)
	v.SetDefault("site.author_selector.expr", cfg.Site.AuthorSelector.Expr)
	v.SetDefault("site.body_selector.kind", cfg.Site.BodySelector.Kind)
	v.SetDefault("site.body_selector.expr", cfg.Site.BodySelector.Expr)
	v.SetDefault("site.default_author", cfg.Site.DefaultAuthor)
	v.SetDefault("site.landing_settle", cfg.Site.LandingSettle)
	v.SetDefault("site.article_settle", cfg.Site.ArticleSettle)
	v.SetDefault("site.navigation_timeout", cfg.Site.NavigationTimeout)

	v.SetDefault("browser.type", cfg.Browser.Type)
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.no_sandbox", cfg.Browser.NoSandbox)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.bin", cfg.Browser.Bin)
	v.SetDefault("browser.user_agents", cfg.Browser.UserAgents)
	v.SetDefault("browser.http_timeout", cfg.Browser.HTTPTimeout)
	v.SetDefault("browser.max_body_size", cfg.Browser.MaxBodySize)

	v.SetDefault("nlp.provider", cfg.NLP.Provider)
	v.SetDefault("nlp.max_persons", cfg.NLP.MaxPersons)
	v.SetDefault("nlp.llm.provider", cfg.NLP.LLM.Provider)
	v.SetDefault("nlp.llm.endpoint", cfg.NLP.LLM.Endpoint)
	v.SetDefault("nlp.llm.model", cfg.NLP.LLM.Model)
	v.SetDefault("nlp.llm.api_key", cfg.NLP.LLM.APIKey)
	v.SetDefault("nlp.llm.max_tokens", cfg.NLP.LLM.MaxTokens)
	v.SetDefault("nlp.llm.timeout", cfg.NLP.LLM.Timeout)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.database", cfg.Storage.Database)
	v.SetDefault("storage.collection", cfg.Storage.Collection)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.export_json", cfg.Storage.ExportJSON)
	v.SetDefault("storage.timeout", cfg.Storage.Timeout)

	v.SetDefault("schedule.enabled", cfg.Schedule.Enabled)
	v.SetDefault("schedule.interval", cfg.Schedule.Interval)
	v.SetDefault("schedule.run_on_start", cfg.Schedule.RunOnStart)

	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.trigger_rate", cfg.Server.TriggerRate)
	v.SetDefault("server.trigger_burst", cfg.Server.TriggerBurst)

	v.SetDefault("notify.enabled", cfg.Notify.Enabled)
	v.SetDefault("notify.brokers", cfg.Notify.Brokers)
	v.SetDefault("notify.topic", cfg.Notify.Topic)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
