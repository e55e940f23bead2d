package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/obiente/translate/whisperkit/internal/config"
	"github.com/obiente/translate/whisperkit/internal/whisper"
)

const shutdownTimeout = 10 * time.Second

// Serve listens on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, cfg config.Config, wctx *whisper.Context, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewRouter(cfg, wctx, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Bool("model_loaded", wctx != nil).Msg("whisperkit server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("whisperkit server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
