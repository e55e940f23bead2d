package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/obiente/translate/whisperkit/internal/config"
	"github.com/obiente/translate/whisperkit/internal/logging"
	"github.com/obiente/translate/whisperkit/internal/whisper"
)

// openFunc loads a model; tests swap in a scripted engine.
type openFunc func(modelPath string, opts ...whisper.Option) (*whisper.Context, error)

type commandContext struct {
	configPath string
	modelPath  string
	logLevel   string
	open       openFunc
}

func newRootCommand() *cobra.Command {
	return newRootCommandWith(whisper.Open)
}

func newRootCommandWith(open openFunc) *cobra.Command {
	ctx := &commandContext{open: open}

	rootCmd := &cobra.Command{
		Use:           "whisperkit",
		Short:         "Transcribe audio with whisper.cpp models",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "YAML configuration file (overrides WHISPER_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&ctx.modelPath, "model", "m", "", "Path to a ggml model (overrides WHISPER_MODEL_PATH)")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(newTranscribeCommand(ctx))
	rootCmd.AddCommand(newLangsCommand())
	rootCmd.AddCommand(newServeCommand(ctx))
	return rootCmd
}

// config loads the layered configuration with command-line flags taking the
// place of their environment variables.
func (c *commandContext) config() (config.Config, error) {
	overrides := map[string]string{
		"WHISPER_CONFIG":     c.configPath,
		"WHISPER_MODEL_PATH": c.modelPath,
		"LOG_LEVEL":          c.logLevel,
	}
	loader := config.Loader{Lookup: func(key string) (string, bool) {
		if v := overrides[key]; v != "" {
			return v, true
		}
		return os.LookupEnv(key)
	}}
	return loader.Load()
}

func (c *commandContext) logger(cmd *cobra.Command, cfg config.Config) zerolog.Logger {
	return logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
}
