// Package config loads blogwriter settings from a YAML file, BLOGWRITER_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"auto_blog_writer/generator"
	"auto_blog_writer/publisher"
)

const (
	// Name is the config file base name and the directory under ~/.config.
	Name      = "blogwriter"
	EnvPrefix = "BLOGWRITER"
)

// Config is the full application configuration.
type Config struct {
	Server      ServerConfig            `mapstructure:"server" yaml:"server"`
	Titles      generator.LLMSettings   `mapstructure:"titles" yaml:"titles"`
	Body        generator.LLMSettings   `mapstructure:"body" yaml:"body"`
	Image       generator.ImageSettings `mapstructure:"image" yaml:"image"`
	Author      publisher.Author        `mapstructure:"author" yaml:"author"`
	Credentials CredentialsConfig       `mapstructure:"credentials" yaml:"credentials"`
	WeChat      publisher.WeChatConfig  `mapstructure:"wechat" yaml:"wechat"`
	Log         LogConfig               `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// CredentialsConfig locates the two credential stores. Keys saved through
// the API or CLI live in DBPath and take precedence over files in SecretsDir.
// An empty DBPath keeps saved keys in memory only.
type CredentialsConfig struct {
	DBPath     string `mapstructure:"db_path" yaml:"db_path"`
	SecretsDir string `mapstructure:"secrets_dir" yaml:"secrets_dir"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// SetDefaults registers every key so that environment variables can
// override keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("titles.provider", "openai")
	v.SetDefault("titles.model", "gpt-3.5-turbo")
	v.SetDefault("titles.base_url", "")
	v.SetDefault("body.provider", "openai")
	v.SetDefault("body.model", "gpt-3.5-turbo")
	v.SetDefault("body.base_url", "")

	v.SetDefault("image.provider", "replicate")
	v.SetDefault("image.model", "")
	v.SetDefault("image.base_url", "")
	v.SetDefault("image.poll_interval", time.Second)
	v.SetDefault("image.max_wait", 5*time.Minute)

	v.SetDefault("author.name", "Blog Writer")
	v.SetDefault("author.picture", "/assets/blog/authors/default.jpeg")

	v.SetDefault("credentials.db_path", defaultDBPath())
	v.SetDefault("credentials.secrets_dir", ".secrets")

	v.SetDefault("wechat.app_id", "")
	v.SetDefault("wechat.app_secret", "")
	v.SetDefault("wechat.base_url", "")

	v.SetDefault("log.level", "info")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", Name+".db")
	}
	return filepath.Join(home, ".config", Name, "credentials.db")
}

// Init prepares v to read blogwriter.yaml from the current directory or
// ~/.config/blogwriter, or from file when it is non-empty. It reports the
// file that was used, if any. A missing default file is not an error.
func Init(v *viper.Viper, file string) (string, error) {
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Credentials.DBPath = expandHome(cfg.Credentials.DBPath)
	cfg.Credentials.SecretsDir = expandHome(cfg.Credentials.SecretsDir)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

// Validate checks the fields that cannot be defaulted.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Author.Name) == "" {
		return fmt.Errorf("config: author.name must not be empty")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Image.MaxWait < 0 || c.Image.PollInterval < 0 {
		return fmt.Errorf("config: image durations must not be negative")
	}
	return nil
}

// ParseLevel maps a level name onto slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("config: log.level %q: %w", s, err)
	}
	return l, nil
}
