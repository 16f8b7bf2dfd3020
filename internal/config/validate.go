package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Site.LandingURL); err != nil {
		return fmt.Errorf("site.landing_url: %w", err)
	}
	selectors := map[string]interface{ Validate() error }{
		"site.link_selector":   cfg.Site.LinkSelector,
		"site.title_selector":  cfg.Site.TitleSelector,
		"site.author_selector": cfg.Site.AuthorSelector,
		"site.body_selector":   cfg.Site.BodySelector,
	}
	for name, sel := range selectors {
		if err := sel.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if cfg.Site.LinkAttribute == "" {
		return fmt.Errorf("site.link_attribute must not be empty")
	}
	if cfg.Site.LandingSettle < 0 || cfg.Site.ArticleSettle < 0 {
		return fmt.Errorf("site settle delays must be >= 0")
	}
	if cfg.Site.NavigationTimeout < 0 {
		return fmt.Errorf("site.navigation_timeout must be >= 0 (0 disables it)")
	}

	if cfg.Browser.Type != "browser" && cfg.Browser.Type != "static" {
		return fmt.Errorf("browser.type must be 'browser' or 'static', got %q", cfg.Browser.Type)
	}
	if cfg.Browser.Type == "static" {
		if cfg.Browser.HTTPTimeout <= 0 {
			return fmt.Errorf("browser.http_timeout must be > 0")
		}
		if cfg.Browser.MaxBodySize <= 0 {
			return fmt.Errorf("browser.max_body_size must be > 0")
		}
	}

	switch cfg.NLP.Provider {
	case "prose":
	case "llm":
		if cfg.NLP.LLM.Provider != "ollama" && cfg.NLP.LLM.Provider != "openai" {
			return fmt.Errorf("nlp.llm.provider must be 'ollama' or 'openai', got %q", cfg.NLP.LLM.Provider)
		}
		if cfg.NLP.LLM.Model == "" {
			return fmt.Errorf("nlp.llm.model must not be empty")
		}
	default:
		return fmt.Errorf("nlp.provider must be 'prose' or 'llm', got %q", cfg.NLP.Provider)
	}
	if cfg.NLP.MaxPersons < 1 {
		return fmt.Errorf("nlp.max_persons must be >= 1, got %d", cfg.NLP.MaxPersons)
	}

	switch cfg.Storage.Type {
	case "mongodb":
		if cfg.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri (or MONGO_URI) must be set for mongodb storage")
		}
		if cfg.Storage.Database == "" || cfg.Storage.Collection == "" {
			return fmt.Errorf("storage.database and storage.collection must be set")
		}
	case "json":
		if cfg.Storage.OutputPath == "" {
			return fmt.Errorf("storage.output_path must be set for json storage")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.type %q is not supported (valid: mongodb, memory, json)", cfg.Storage.Type)
	}
	if cfg.Storage.ExportJSON && cfg.Storage.OutputPath == "" {
		return fmt.Errorf("storage.export_json needs storage.output_path")
	}

	if cfg.Schedule.Enabled && cfg.Schedule.Interval < minInterval {
		return fmt.Errorf("schedule.interval must be >= %s, got %s", minInterval, cfg.Schedule.Interval)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.TriggerRate < 0 || cfg.Server.TriggerBurst < 1 {
		return fmt.Errorf("server.trigger_rate must be >= 0 and server.trigger_burst >= 1")
	}

	if cfg.Notify.Enabled {
		if len(cfg.Notify.Brokers) == 0 || cfg.Notify.Topic == "" {
			return fmt.Errorf("notify.brokers and notify.topic must be set when notify is enabled")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// minInterval is the smallest refresh interval accepted; cron schedules round to seconds.
const minInterval = time.Second

// ValidateURL checks if a URL string is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
