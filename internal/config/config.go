package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // timezone names must resolve in minimal containers

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv     = "DAILY_BRIEFING_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	storageBackendEnv = "BRIEFING_STORAGE_BACKEND"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	geminiAPIKeyEnv   = "GEMINI_API_KEY"
	mlAPIKeyEnv       = "ML_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
)

// Backend enumerates the briefing store variants.
type Backend string

const (
	BackendObjectStore Backend = "object-store"
	BackendKeyedTable  Backend = "keyed-table"
	BackendRemoteAPI   Backend = "remote-api"
	BackendPlaceholder Backend = "placeholder"
)

// Writable reports whether the backend accepts Put.
func (b Backend) Writable() bool {
	return b == BackendObjectStore || b == BackendKeyedTable
}

// Provider enumerates summarization capabilities.
type Provider string

const (
	ProviderNone   Provider = "none"
	ProviderML     Provider = "ml"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// PolicyKind enumerates section selection policies.
type PolicyKind string

const (
	PolicyTopNByScore      PolicyKind = "top_n_by_score"
	PolicyAllChronological PolicyKind = "all_chronological"
	PolicyAllUnordered     PolicyKind = "all_unordered"
)

// Config holds high-level settings required across the application.
type Config struct {
	Timezone      string              `yaml:"timezone"`
	Logging       LoggingConfig       `yaml:"logging"`
	Sources       []SourceConfig      `yaml:"sources" validate:"required,min=1,dive"`
	Sections      []SectionConfig     `yaml:"sections" validate:"required,min=1,dive"`
	Summarization SummarizationConfig `yaml:"summarization"`
	Storage       StorageConfig       `yaml:"storage"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Server        ServerConfig        `yaml:"server"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Notifications NotificationConfig  `yaml:"notifications"`

	location *time.Location
}

// LoggingConfig sets the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SourceConfig describes one external content origin.
type SourceConfig struct {
	ID       string            `yaml:"id" validate:"required"`
	Kind     string            `yaml:"kind" validate:"required,oneof=arxiv hackernews rss"`
	Name     string            `yaml:"name"`
	URL      string            `yaml:"url" validate:"omitempty,url"`
	Timeout  time.Duration     `yaml:"timeout" validate:"gte=0"`
	MaxItems int               `yaml:"maxItems" validate:"gte=0"`
	Options  map[string]string `yaml:"options"`
}

// SectionConfig declares one briefing section in its fixed position.
type SectionConfig struct {
	Name    string       `yaml:"name" validate:"required"`
	Title   string       `yaml:"title"`
	Sources []string     `yaml:"sources" validate:"required,min=1"`
	Policy  PolicyConfig `yaml:"policy"`
}

// PolicyConfig selects items for a section.
type PolicyConfig struct {
	Kind  PolicyKind `yaml:"kind" validate:"required,oneof=top_n_by_score all_chronological all_unordered"`
	Limit int        `yaml:"limit" validate:"gte=0"`
}

// SummarizationConfig owns the length thresholds and capability selection.
type SummarizationConfig struct {
	Provider  Provider      `yaml:"provider" validate:"required,oneof=none ml openai gemini"`
	MaxLength int           `yaml:"maxLength" validate:"gt=0"`
	MinLength int           `yaml:"minLength" validate:"gte=0"`
	Workers   int           `yaml:"workers" validate:"gt=0"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
	ML        MLConfig      `yaml:"ml"`
	OpenAI    ChatGPTConfig `yaml:"openai"`
	Gemini    GeminiConfig  `yaml:"gemini"`
}

// MLConfig describes the inference-service integration parameters.
type MLConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`
}

// ChatGPTConfig defines how to contact an OpenAI-compatible API.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// GeminiConfig selects the Gemini model used for summaries.
type GeminiConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"apiKey"`
}

// StorageConfig selects exactly one backend and its parameters.
type StorageConfig struct {
	Backend       Backend           `yaml:"backend" validate:"required,oneof=object-store keyed-table remote-api placeholder"`
	ObjectStore   ObjectStoreConfig `yaml:"objectStore"`
	KeyedTable    KeyedTableConfig  `yaml:"keyedTable"`
	RemoteAPI     RemoteAPIConfig   `yaml:"remoteApi"`
	WriteAttempts int               `yaml:"writeAttempts" validate:"gt=0,lte=10"`
	WriteBackoff  time.Duration     `yaml:"writeBackoff" validate:"gte=0"`
}

// ObjectStoreConfig points at an S3-compatible bucket.
type ObjectStoreConfig struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"pathStyle"`
}

// KeyedTableConfig describes the Postgres table holding briefing rows.
type KeyedTableConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// RemoteAPIConfig points at an upstream retrieval endpoint.
type RemoteAPIConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// RetrievalConfig bounds the gateway fallback chain.
type RetrievalConfig struct {
	LookbackDays int           `yaml:"lookbackDays" validate:"gte=0"`
	Timeout      time.Duration `yaml:"timeout" validate:"gte=0"`
	Budget       time.Duration `yaml:"budget" validate:"gte=0"`
	Apology      string        `yaml:"apology"`
}

// ServerConfig holds the HTTP listener address.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SchedulerConfig defines when the pipeline should run.
type SchedulerConfig struct {
	Enabled bool   `yaml:"enabled"`
	RunAt   string `yaml:"runAt"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	APIBase  string `yaml:"apiBase"`
}

// Location resolves the configured timezone.
func (c Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// SourceIDs lists every configured source id in declaration order.
func (c Config) SourceIDs() []string {
	ids := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		ids = append(ids, s.ID)
	}
	return ids
}

// SectionNames lists every declared section name in declaration order.
func (c Config) SectionNames() []string {
	names := make([]string, 0, len(c.Sections))
	for _, s := range c.Sections {
		names = append(names, s.Name)
	}
	return names
}

// Load reads YAML configuration over the defaults, applies environment
// overrides and validates the result. An empty path falls back to the
// DAILY_BRIEFING_CONFIG environment variable.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct constraints and cross-field invariants.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.Summarization.MinLength >= c.Summarization.MaxLength {
		return fmt.Errorf("config: summarization.minLength must be below maxLength")
	}

	sources := make(map[string]SourceConfig, len(c.Sources))
	for _, s := range c.Sources {
		if _, dup := sources[s.ID]; dup {
			return fmt.Errorf("config: duplicate source id %q", s.ID)
		}
		if s.Kind == "rss" && s.URL == "" {
			return fmt.Errorf("config: rss source %q requires url", s.ID)
		}
		sources[s.ID] = s
	}

	owner := make(map[string]string, len(c.Sources))
	seenSections := map[string]bool{}
	for _, sec := range c.Sections {
		if seenSections[sec.Name] {
			return fmt.Errorf("config: duplicate section %q", sec.Name)
		}
		seenSections[sec.Name] = true
		for _, id := range sec.Sources {
			if _, ok := sources[id]; !ok {
				return fmt.Errorf("config: section %q references unknown source %q", sec.Name, id)
			}
			if prev, taken := owner[id]; taken {
				return fmt.Errorf("config: source %q belongs to sections %q and %q", id, prev, sec.Name)
			}
			owner[id] = sec.Name
		}
	}
	for _, s := range c.Sources {
		if _, ok := owner[s.ID]; !ok {
			return fmt.Errorf("config: source %q is not part of any section", s.ID)
		}
	}

	switch c.Storage.Backend {
	case BackendObjectStore:
		if c.Storage.ObjectStore.Bucket == "" {
			return fmt.Errorf("config: storage.objectStore.bucket is required")
		}
	case BackendKeyedTable:
		if c.Storage.KeyedTable.DSN == "" || c.Storage.KeyedTable.Table == "" {
			return fmt.Errorf("config: storage.keyedTable.dsn and table are required")
		}
	case BackendRemoteAPI:
		if c.Storage.RemoteAPI.Endpoint == "" {
			return fmt.Errorf("config: storage.remoteApi.endpoint is required")
		}
	}

	if c.Scheduler.Enabled {
		if _, err := time.Parse("15:04", c.Scheduler.RunAt); err != nil {
			return fmt.Errorf("config: scheduler.runAt %q: %w", c.Scheduler.RunAt, err)
		}
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.KeyedTable.DSN = v
	}
	if v := os.Getenv(storageBackendEnv); v != "" {
		c.Storage.Backend = Backend(strings.TrimSpace(v))
	}
	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.Summarization.OpenAI.APIKey = v
	}
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Summarization.Gemini.APIKey = v
	}
	if v := os.Getenv(mlAPIKeyEnv); v != "" {
		c.Summarization.ML.APIKey = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		slog.Warn("config: unknown timezone, reverting", "timezone", tz, "fallback", defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.location = loc
}

// Default returns the built-in configuration: arXiv cs.AI, Hacker News and
// Zen Habits in three sections, served by the placeholder backend.
func Default() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Timezone: defaultTimezone,
		Logging:  LoggingConfig{Level: "info"},
		Sources: []SourceConfig{
			{
				ID:       "arxiv-ai",
				Kind:     "arxiv",
				Name:     "arXiv cs.AI",
				URL:      "http://export.arxiv.org/api/query",
				Timeout:  20 * time.Second,
				MaxItems: 5,
				Options:  map[string]string{"mode": "api", "searchQuery": "cat:cs.AI", "start": "0"},
			},
			{
				ID:       "hacker-news",
				Kind:     "hackernews",
				Name:     "Hacker News",
				URL:      "https://hacker-news.firebaseio.com/v0",
				Timeout:  15 * time.Second,
				MaxItems: 5,
			},
			{
				ID:       "zen-habits",
				Kind:     "rss",
				Name:     "Zen Habits",
				URL:      "https://zenhabits.net/feed/",
				Timeout:  15 * time.Second,
				MaxItems: 3,
			},
		},
		Sections: []SectionConfig{
			{Name: "research", Title: "AI/ML Research Papers", Sources: []string{"arxiv-ai"},
				Policy: PolicyConfig{Kind: PolicyAllChronological, Limit: 5}},
			{Name: "tech-news", Title: "Top Tech Stories", Sources: []string{"hacker-news"},
				Policy: PolicyConfig{Kind: PolicyTopNByScore, Limit: 5}},
			{Name: "personal-development", Title: "Articles & Insights", Sources: []string{"zen-habits"},
				Policy: PolicyConfig{Kind: PolicyAllUnordered, Limit: 3}},
		},
		Summarization: SummarizationConfig{
			Provider:  ProviderNone,
			MaxLength: 600,
			MinLength: 240,
			Workers:   2,
			Timeout:   60 * time.Second,
			ML:        MLConfig{InferenceURL: "http://localhost:8000"},
			OpenAI: ChatGPTConfig{
				Endpoint:     "https://api.openai.com/v1/chat/completions",
				Model:        "gpt-4o-mini",
				SystemPrompt: "You summarize articles for a daily briefing.",
			},
			Gemini: GeminiConfig{Model: "gemini-1.5-flash"},
		},
		Storage: StorageConfig{
			Backend:       BackendPlaceholder,
			ObjectStore:   ObjectStoreConfig{Prefix: "briefings/", Region: "us-east-1"},
			KeyedTable:    KeyedTableConfig{Table: "daily_briefings"},
			RemoteAPI:     RemoteAPIConfig{Timeout: 10 * time.Second},
			WriteAttempts: 3,
			WriteBackoff:  time.Second,
		},
		Retrieval: RetrievalConfig{
			LookbackDays: 7,
			Timeout:      2 * time.Second,
			Budget:       6 * time.Second,
			Apology:      "Sorry, today's briefing isn't available right now. Please check back later.",
		},
		Server:    ServerConfig{Addr: ":5000"},
		Scheduler: SchedulerConfig{Enabled: false, RunAt: "06:00"},
		location:  tz,
	}
}
