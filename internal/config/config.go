package config

import (
	"time"

	"github.com/IshaanNene/napwatch/internal/types"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for napwatch.
type Config struct {
	Site     SiteConfig     `mapstructure:"site"     yaml:"site"`
	Browser  BrowserConfig  `mapstructure:"browser"  yaml:"browser"`
	NLP      NLPConfig      `mapstructure:"nlp"      yaml:"nlp"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
	Server   ServerConfig   `mapstructure:"server"   yaml:"server"`
	Notify   NotifyConfig   `mapstructure:"notify"   yaml:"notify"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// SiteConfig describes the harvested site and where each field lives on a page.
type SiteConfig struct {
	LandingURL        string         `mapstructure:"landing_url"        yaml:"landing_url"`
	LinkSelector      types.Selector `mapstructure:"link_selector"      yaml:"link_selector"`
	LinkAttribute     string         `mapstructure:"link_attribute"     yaml:"link_attribute"`
	TitleSelector     types.Selector `mapstructure:"title_selector"     yaml:"title_selector"`
	AuthorSelector    types.Selector `mapstructure:"author_selector"    yaml:"author_selector"`
	BodySelector      types.Selector `mapstructure:"body_selector"      yaml:"body_selector"`
	DefaultAuthor     string         `mapstructure:"default_author"     yaml:"default_author"`
	LandingSettle     time.Duration  `mapstructure:"landing_settle"     yaml:"landing_settle"`
	ArticleSettle     time.Duration  `mapstructure:"article_settle"     yaml:"article_settle"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// BrowserConfig controls the page engine.
type BrowserConfig struct {
	Type        string        `mapstructure:"type"          yaml:"type"` // browser, static
	Headless    bool          `mapstructure:"headless"      yaml:"headless"`
	NoSandbox   bool          `mapstructure:"no_sandbox"    yaml:"no_sandbox"`
	Stealth     bool          `mapstructure:"stealth"       yaml:"stealth"`
	Bin         string        `mapstructure:"bin"           yaml:"bin"`
	UserAgents  []string      `mapstructure:"user_agents"   yaml:"user_agents"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"  yaml:"http_timeout"`
	MaxBodySize int64         `mapstructure:"max_body_size" yaml:"max_body_size"`
}

// NLPConfig selects the entity recognizer.
type NLPConfig struct {
	Provider   string    `mapstructure:"provider"    yaml:"provider"` // prose, llm
	MaxPersons int       `mapstructure:"max_persons" yaml:"max_persons"`
	LLM        LLMConfig `mapstructure:"llm"         yaml:"llm"`
}

// LLMConfig controls the LLM-backed recognizer.
type LLMConfig struct {
	Provider  string        `mapstructure:"provider"   yaml:"provider"` // ollama, openai
	Endpoint  string        `mapstructure:"endpoint"   yaml:"endpoint"`
	Model     string        `mapstructure:"model"      yaml:"model"`
	APIKey    string        `mapstructure:"api_key"    yaml:"api_key"`
	MaxTokens int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"    yaml:"timeout"`
}

// StorageConfig controls where snapshots are written.
type StorageConfig struct {
	Type       string        `mapstructure:"type"        yaml:"type"` // mongodb, memory, json
	MongoURI   string        `mapstructure:"mongo_uri"   yaml:"mongo_uri"`
	Database   string        `mapstructure:"database"    yaml:"database"`
	Collection string        `mapstructure:"collection"  yaml:"collection"`
	OutputPath string        `mapstructure:"output_path" yaml:"output_path"`
	ExportJSON bool          `mapstructure:"export_json" yaml:"export_json"`
	Timeout    time.Duration `mapstructure:"timeout"     yaml:"timeout"`
}

// ScheduleConfig controls the refresh cadence.
type ScheduleConfig struct {
	Enabled    bool          `mapstructure:"enabled"      yaml:"enabled"`
	Interval   time.Duration `mapstructure:"interval"     yaml:"interval"`
	RunOnStart bool          `mapstructure:"run_on_start" yaml:"run_on_start"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Port         int           `mapstructure:"port"          yaml:"port"`
	TriggerRate  time.Duration `mapstructure:"trigger_rate"  yaml:"trigger_rate"`
	TriggerBurst int           `mapstructure:"trigger_burst" yaml:"trigger_burst"`
}

// NotifyConfig controls refresh events.
type NotifyConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Brokers []string `mapstructure:"brokers" yaml:"brokers"`
	Topic   string   `mapstructure:"topic"   yaml:"topic"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with the geo.tv defaults.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			LandingURL:        "https://www.geo.tv/",
			LinkSelector:      types.CSS(".m_c_left ul li a.open-section"),
			LinkAttribute:     "href",
			TitleSelector:     types.CSS("h1"),
			AuthorSelector:    types.CSS("div.author_title_img a"),
			BodySelector:      types.CSS("div.content-area p"),
			DefaultAuthor:     types.DefaultAuthor,
			LandingSettle:     3 * time.Second,
			ArticleSettle:     2 * time.Second,
			NavigationTimeout: 60 * time.Second,
		},
		Browser: BrowserConfig{
			Type:      "browser",
			Headless:  true,
			NoSandbox: true,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
			HTTPTimeout: 30 * time.Second,
			MaxBodySize: 10 * 1024 * 1024, // 10MB
		},
		NLP: NLPConfig{
			Provider:   "prose",
			MaxPersons: 3,
			LLM: LLMConfig{
				Provider:  "ollama",
				Endpoint:  "http://localhost:11434",
				Model:     "llama3",
				MaxTokens: 512,
				Timeout:   120 * time.Second,
			},
		},
		Storage: StorageConfig{
			Type:       "mongodb",
			MongoURI:   "mongodb://localhost:27017",
			Database:   "nap_db",
			Collection: "nap_data",
			OutputPath: "./output/nap_data.json",
			Timeout:    30 * time.Second,
		},
		Schedule: ScheduleConfig{
			Enabled:  true,
			Interval: 30 * time.Minute,
		},
		Server: ServerConfig{
			Port:         5000,
			TriggerRate:  10 * time.Second,
			TriggerBurst: 1,
		},
		Notify: NotifyConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "nap.refreshed",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
