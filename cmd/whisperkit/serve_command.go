package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	serverhttp "github.com/obiente/translate/whisperkit/internal/http"
	"github.com/obiente/translate/whisperkit/internal/whisper"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket transcription server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			logger := ctx.logger(cmd, cfg)

			wctx, err := ctx.open(cfg.ModelPath, whisper.WithLogger(logger))
			switch {
			case errors.Is(err, whisper.ErrEngineUnavailable):
				logger.Warn().Err(err).Msg("serving without a model; transcription endpoints will return 503")
				wctx = nil
			case err != nil:
				return fmt.Errorf("open model %s: %w", cfg.ModelPath, err)
			default:
				defer wctx.Close()
			}
			return serverhttp.Serve(cmd.Context(), cfg, wctx, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides WHISPER_GO_ADDR)")
	return cmd
}
