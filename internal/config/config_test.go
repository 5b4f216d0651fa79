package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"arxiv-ai", "hacker-news", "zen-habits"}, cfg.SourceIDs())
	assert.Equal(t, []string{"research", "tech-news", "personal-development"}, cfg.SectionNames())
	assert.Equal(t, "UTC", cfg.Location().String())
	assert.False(t, cfg.Storage.Backend.Writable())
}

func TestLoadMergesYAMLOverDefaults(t *testing.T) {
	path := writeConfig(t, `
timezone: Europe/Berlin
summarization:
  provider: ml
  maxLength: 400
  minLength: 100
storage:
  backend: object-store
  objectStore:
    bucket: briefings
    prefix: daily/
  writeBackoff: 250ms
scheduler:
  enabled: true
  runAt: "07:30"
`)
	t.Setenv(configPathEnv, "")
	t.Setenv(storageBackendEnv, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
	assert.Equal(t, ProviderML, cfg.Summarization.Provider)
	assert.Equal(t, 400, cfg.Summarization.MaxLength)
	assert.Equal(t, 2, cfg.Summarization.Workers)
	assert.Equal(t, BackendObjectStore, cfg.Storage.Backend)
	assert.Equal(t, "briefings", cfg.Storage.ObjectStore.Bucket)
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.WriteBackoff)
	assert.Equal(t, 3, cfg.Storage.WriteAttempts)
	assert.Len(t, cfg.Sources, 3)
	assert.True(t, cfg.Storage.Backend.Writable())
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(storageBackendEnv, "keyed-table")
	t.Setenv(databaseDSNEnv, "postgres://briefing@localhost/briefing")
	t.Setenv(telegramTokenEnv, "tok")
	t.Setenv(telegramChatIDEnv, "42")
	t.Setenv(logLevelEnv, "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendKeyedTable, cfg.Storage.Backend)
	assert.Equal(t, "postgres://briefing@localhost/briefing", cfg.Storage.KeyedTable.DSN)
	assert.Equal(t, "tok", cfg.Notifications.Telegram.BotToken)
	assert.Equal(t, "42", cfg.Notifications.Telegram.ChatID)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFallsBackToUTCForUnknownTimezone(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(storageBackendEnv, "")

	cfg, err := Load(writeConfig(t, "timezone: Mars/Olympus_Mons\n"))
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.Location().String())
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*Config){
		"unknown backend":        func(c *Config) { c.Storage.Backend = "s3" },
		"unknown provider":       func(c *Config) { c.Summarization.Provider = "magic" },
		"unknown policy":         func(c *Config) { c.Sections[0].Policy.Kind = "random" },
		"unknown source kind":    func(c *Config) { c.Sources[0].Kind = "reddit" },
		"min not below max":      func(c *Config) { c.Summarization.MinLength = c.Summarization.MaxLength },
		"duplicate source":       func(c *Config) { c.Sources[1].ID = c.Sources[0].ID },
		"rss without url":        func(c *Config) { c.Sources[2].URL = "" },
		"section unknown source": func(c *Config) { c.Sections[0].Sources = []string{"nope"} },
		"orphan source": func(c *Config) {
			c.Sections[2].Sources = []string{"hacker-news"}
			c.Sections[1].Sources = []string{"hacker-news"}
		},
		"bucket missing":            func(c *Config) { c.Storage.Backend = BackendObjectStore },
		"dsn missing":               func(c *Config) { c.Storage.Backend = BackendKeyedTable },
		"endpoint missing":          func(c *Config) { c.Storage.Backend = BackendRemoteAPI },
		"bad run time":              func(c *Config) { c.Scheduler.Enabled = true; c.Scheduler.RunAt = "6am" },
		"no write attempts":         func(c *Config) { c.Storage.WriteAttempts = 0 },
		"too many write attempts":   func(c *Config) { c.Storage.WriteAttempts = 64 },
		"negative retrieval budget": func(c *Config) { c.Retrieval.Budget = -time.Second },
		"no sections at all":        func(c *Config) { c.Sections = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
