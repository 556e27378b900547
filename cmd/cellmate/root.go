package main

import (
	"io"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spetersoncode/cellmate/config"
)

type rootFlags struct {
	configFile string
	logLevel   string
	logFormat  string
	provider   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	var cfg *config.Config

	cmd := &cobra.Command{
		Use:           "cellmate",
		Short:         "Tool-using chat assistant for notebooks",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional
			_ = godotenv.Load()

			loader := config.NewLoader()
			if flags.configFile != "" {
				loader.WithFile(flags.configFile)
			}
			loaded, err := loader.Load()
			if err != nil {
				return err
			}
			if flags.logLevel != "" {
				loaded.Log.Level = flags.logLevel
			}
			if flags.logFormat != "" {
				loaded.Log.Format = flags.logFormat
			}
			if flags.provider != "" {
				loaded.DefaultProvider = flags.provider
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			*cfg = *loaded
			slog.SetDefault(newLogger(loaded.Log, cmd.ErrOrStderr()))
			return nil
		},
	}
	cfg = config.Default()

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "additional config file read after the user and project files")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&flags.provider, "provider", "", "default provider: anthropic, openai, google, bedrock")

	cmd.AddCommand(
		newServeCmd(cfg),
		newChatCmd(cfg),
		newSkillsCmd(cfg),
		newMCPCmd(cfg),
		newProvidersCmd(cfg),
	)
	return cmd
}

func newLogger(c config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
