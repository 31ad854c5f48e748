// Package main is the blogwriter CLI: it serves the session API, runs the
// whole writing workflow non-interactively, manages provider credentials
// and publishes exported documents.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"auto_blog_writer/config"
	"auto_blog_writer/credentials"
	"auto_blog_writer/generator"
	"auto_blog_writer/workflow"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "blogwriter",
	Short: "Write blog posts with generated titles, bodies and header images",
	Long: `blogwriter walks a post from a topic to a finished markdown document:
it proposes titles, drafts body versions for the chosen title, generates
header image versions, and exports the selection with front matter.

Run "blogwriter serve" for the HTTP API or "blogwriter write" to run the
whole workflow from the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

var (
	cfg    config.Config
	logger *slog.Logger
)

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./blogwriter.yaml or ~/.config/blogwriter/blogwriter.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logs")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// setup reads the configuration and installs the default logger.
func setup() error {
	file, _ := rootCmd.PersistentFlags().GetString("config")
	used, err := config.Init(viper.GetViper(), file)
	if err != nil {
		return err
	}
	if cfg, err = config.Load(viper.GetViper()); err != nil {
		return err
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if used != "" {
		logger.Debug("using config file", "path", used)
	}
	return nil
}

// openCredentials returns the saved-key store followed by the secrets
// directory, plus a close func for the saved-key store.
func openCredentials() (credentials.Chain, func(), error) {
	dir, err := credentials.LoadDir(cfg.Credentials.SecretsDir, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Credentials.DBPath == "" {
		return credentials.Chain{credentials.NewMemoryStore(nil), dir}, func() {}, nil
	}
	db, err := credentials.OpenSQLite(cfg.Credentials.DBPath)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing credential store", "err", err)
		}
	}
	return credentials.Chain{db, dir}, closeFn, nil
}

// buildGateway wires the configured LLM and image providers.
func buildGateway() (workflow.Gateway, error) {
	titles, err := generator.BuildLLM(cfg.Titles)
	if err != nil {
		return nil, fmt.Errorf("titles: %w", err)
	}
	body, err := generator.BuildLLM(cfg.Body)
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	images, err := generator.BuildImages(cfg.Image, logger)
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}
	return generator.NewAgent(titles, body, images)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if hint := credentialHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
}
