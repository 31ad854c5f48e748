package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "openai", cfg.Titles.Provider)
	assert.Equal(t, "replicate", cfg.Image.Provider)
	assert.Equal(t, 5*time.Minute, cfg.Image.MaxWait)
	assert.Equal(t, "Blog Writer", cfg.Author.Name)
	assert.Equal(t, ".secrets", cfg.Credentials.SecretsDir)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestInitReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
server:
  addr: ":9090"
body:
  provider: anthropic
  model: claude-3-5-haiku-latest
image:
  provider: openai
  poll_interval: 2s
author:
  name: Editorial Team
  picture: /team.jpg
wechat:
  app_id: wx123
`), 0o600))
	t.Setenv("BLOGWRITER_LOG_LEVEL", "debug")
	t.Setenv("BLOGWRITER_WECHAT_APP_SECRET", "from-env")

	v := viper.New()
	used, err := Init(v, file)
	require.NoError(t, err)
	assert.Equal(t, file, used)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "anthropic", cfg.Body.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Body.Model)
	assert.Equal(t, "openai", cfg.Titles.Provider, "untouched keys keep defaults")
	assert.Equal(t, 2*time.Second, cfg.Image.PollInterval)
	assert.Equal(t, "Editorial Team", cfg.Author.Name)
	assert.Equal(t, "/team.jpg", cfg.Author.Picture)
	assert.Equal(t, "wx123", cfg.WeChat.AppID)
	assert.Equal(t, "from-env", cfg.WeChat.AppSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitExplicitMissingFile(t *testing.T) {
	_, err := Init(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("author.name", " ")
	_, err := Load(v)
	assert.Error(t, err)

	v = viper.New()
	SetDefaults(v)
	v.Set("log.level", "chatty")
	_, err = Load(v)
	assert.Error(t, err)
}

func TestLoadExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	v := viper.New()
	SetDefaults(v)
	v.Set("credentials.db_path", "~/blog/creds.db")
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "blog", "creds.db"), cfg.Credentials.DBPath)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, "WARN", l.String())
}
