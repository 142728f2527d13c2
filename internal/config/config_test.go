package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Storage.Driver)
	assert.Equal(t, "content_library.json", cfg.Storage.Path)
	assert.Equal(t, "openai", cfg.Generator.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Generator.Model)
	assert.Equal(t, "sk-test", cfg.Generator.APIKey)
	assert.Equal(t, 0.7, cfg.Generator.Temperature)
	assert.Equal(t, 0.3, cfg.Generator.KeywordTemperature)
	assert.Equal(t, "en", cfg.Generator.DefaultLanguage)
	assert.Equal(t, "1m", cfg.Scheduler.Interval)
	assert.True(t, cfg.SchedulerEnabled())
	assert.Equal(t, "console", cfg.Publisher.Sink)
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "murmur.yaml")
	content := `
storage:
  path: /tmp/library.json
generator:
  provider: Anthropic
  api_key: sk-ant-test
scheduler:
  interval: 30s
  enabled: false
publisher:
  sink: redis
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/library.json", cfg.Storage.Path)
	assert.Equal(t, "anthropic", cfg.Generator.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Generator.Model)
	assert.Equal(t, "sk-ant-test", cfg.Generator.APIKey)
	assert.Equal(t, "30s", cfg.Scheduler.Interval)
	assert.False(t, cfg.SchedulerEnabled())
	assert.Equal(t, "redis", cfg.Publisher.Sink)
	assert.Equal(t, "murmur:posts", cfg.Publisher.Redis.ChannelPrefix)
}
