package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/obiente/translate/whisperkit/internal/config"
	serverhttp "github.com/obiente/translate/whisperkit/internal/http"
	"github.com/obiente/translate/whisperkit/internal/logging"
	"github.com/obiente/translate/whisperkit/internal/whisper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log.Logger = logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	wctx, err := whisper.Open(cfg.ModelPath, whisper.WithLogger(log.Logger))
	switch {
	case errors.Is(err, whisper.ErrEngineUnavailable):
		log.Warn().Err(err).Msg("serving without a model; transcription endpoints will return 503")
	case err != nil:
		log.Fatal().Err(err).Str("model", cfg.ModelPath).Msg("model load failed")
	default:
		defer wctx.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := serverhttp.Serve(ctx, cfg, wctx, log.Logger); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}
