package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/obiente/translate/whisperkit/internal/audio"
	"github.com/obiente/translate/whisperkit/internal/config"
	"github.com/obiente/translate/whisperkit/internal/whisper"
	"github.com/obiente/translate/whisperkit/internal/ws"
)

// NewRouter mounts health, language listing, one-shot transcription and the
// streaming WebSocket. wctx may be nil when no model is loaded; transcription
// endpoints then answer 503.
func NewRouter(cfg config.Config, wctx *whisper.Context, logger zerolog.Logger) http.Handler {
	h := &handlers{cfg: cfg, wctx: wctx, log: logger, wss: ws.NewServer(cfg, wctx, logger)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("GET /v1/languages", h.languages)
	mux.HandleFunc("POST /v1/transcribe", h.transcribe)
	// Streaming transcription WebSocket
	mux.HandleFunc("/ws/transcribe", h.wss.Handle)
	return mux
}

type handlers struct {
	cfg  config.Config
	wctx *whisper.Context
	log  zerolog.Logger
	wss  *ws.Server
}

// TranscribeResponse is the body of a successful POST /v1/transcribe.
type TranscribeResponse struct {
	Language  string            `json:"language"`
	LangID    int               `json:"lang_id"`
	Text      string            `json:"text"`
	Segments  []whisper.Segment `json:"segments"`
	ElapsedMs int64             `json:"elapsed_ms"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"ok": true, "model_loaded": h.wctx != nil, "sessions": h.wss.ActiveSessions()}
	if h.wctx != nil {
		body["multilingual"] = h.wctx.Multilingual()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handlers) languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"max_id":    whisper.LangMaxID(),
		"languages": whisper.Languages(),
	})
}

func (h *handlers) transcribe(w http.ResponseWriter, r *http.Request) {
	if h.wctx == nil {
		writeError(w, http.StatusServiceUnavailable, whisper.ErrEngineUnavailable.Error())
		return
	}

	p, err := ParamsFromQuery(h.cfg, r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := h.cfg.MaxUploadBytes
	if limit <= 0 {
		limit = config.DefaultMaxUploadBytes
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "audio exceeds upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, "read body failed")
		return
	}

	var src audio.Source = audio.WAV(raw)
	if isPCM(r.Header.Get("Content-Type")) {
		rate, err := queryInt(r.URL.Query(), "sample_rate")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		pcm := audio.PCM16{Data: raw}
		if rate != nil {
			if *rate <= 0 {
				writeError(w, http.StatusBadRequest, "sample_rate must be positive")
				return
			}
			pcm.Rate = *rate
		}
		src = pcm
	}

	// Transcription time grows with the upload, so the server-wide write
	// timeout must not cut the response off.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.log.Debug().Err(err).Msg("clear write deadline")
	}

	res, err := h.wctx.TranscribeResult(r.Context(), src, p)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, audio.ErrDecode), errors.Is(err, whisper.ErrInvalidArgument):
			status = http.StatusBadRequest
		case errors.Is(err, whisper.ErrEngineUnavailable):
			status = http.StatusServiceUnavailable
		}
		h.log.Warn().Err(err).Int("status", status).Msg("transcribe failed")
		writeError(w, status, err.Error())
		return
	}

	h.log.Info().
		Int("segments", len(res.Segments)).
		Str("language", res.Language).
		Dur("elapsed", res.Elapsed).
		Msg("transcribe completed")
	writeJSON(w, http.StatusOK, TranscribeResponse{
		Language:  res.Language,
		LangID:    res.LangID,
		Text:      res.Text(),
		Segments:  res.Segments,
		ElapsedMs: res.Elapsed.Milliseconds(),
	})
}

// ParamsFromQuery starts from the configured defaults and applies any
// recognised query parameters.
func ParamsFromQuery(cfg config.Config, q url.Values) (*whisper.Params, error) {
	p := cfg.Params()
	var o whisper.Options
	o.Language = queryString(q, "language")
	o.InitialPrompt = queryString(q, "initial_prompt")
	for key, dst := range map[string]**bool{
		"translate":                  &o.Translate,
		"no_context":                 &o.NoContext,
		"single_segment":             &o.SingleSegment,
		"suppress_blank":             &o.SuppressBlank,
		"suppress_non_speech_tokens": &o.SuppressNonSpeechTokens,
		"token_timestamps":           &o.TokenTimestamps,
		"split_on_word":              &o.SplitOnWord,
	} {
		v, err := queryBool(q, key)
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	for key, dst := range map[string]**int{
		"offset_ms":          &o.OffsetMs,
		"duration_ms":        &o.DurationMs,
		"max_text_tokens":    &o.MaxTextTokens,
		"threads":            &o.Threads,
		"max_segment_length": &o.MaxSegmentLength,
		"beam_size":          &o.BeamSize,
	} {
		v, err := queryInt(q, key)
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	if err := o.Apply(p); err != nil {
		return nil, err
	}
	return p, nil
}

func queryString(q url.Values, key string) *string {
	if !q.Has(key) {
		return nil
	}
	v := q.Get(key)
	return &v
}

func queryBool(q url.Values, key string) (*bool, error) {
	if !q.Has(key) {
		return nil, nil
	}
	v := q.Get(key)
	if v == "" {
		b := true
		return &b, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, errors.New("invalid boolean for " + key)
	}
	return &b, nil
}

func queryInt(q url.Values, key string) (*int, error) {
	if !q.Has(key) {
		return nil, nil
	}
	n, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return nil, errors.New("invalid integer for " + key)
	}
	return &n, nil
}

func isPCM(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	return ct == "audio/pcm" || ct == "audio/l16" || ct == "audio/pcm16"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"error": detail})
}
