package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obiente/translate/whisperkit/internal/audio"
	"github.com/obiente/translate/whisperkit/internal/config"
	serverhttp "github.com/obiente/translate/whisperkit/internal/http"
	"github.com/obiente/translate/whisperkit/internal/whisper"
	"github.com/obiente/translate/whisperkit/internal/whisper/whispertest"
)

func newRouter(t *testing.T, cfg config.Config, eng whisper.Engine) http.Handler {
	t.Helper()
	require.NoError(t, cfg.Validate())
	var wctx *whisper.Context
	if eng != nil {
		wctx = whisper.NewContext(eng, whisper.WithLogger(zerolog.Nop()))
	}
	return serverhttp.NewRouter(cfg, wctx, zerolog.Nop())
}

func wavBytes(t *testing.T, seconds float64, rate int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "body.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, audio.EncodeWAV(f, make([]float32, int(seconds*float64(rate))), rate))
	require.NoError(t, f.Close())
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return raw
}

func do(h http.Handler, method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(newRouter(t, config.Config{}, whispertest.New()), http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["model_loaded"])
	assert.Equal(t, false, body["multilingual"])
	assert.EqualValues(t, 0, body["sessions"])
}

func TestLanguages(t *testing.T) {
	rec := do(newRouter(t, config.Config{}, nil), http.MethodGet, "/v1/languages", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		MaxID     int                `json:"max_id"`
		Languages []whisper.Language `json:"languages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, whisper.LangMaxID(), body.MaxID)
	require.Len(t, body.Languages, whisper.LangMaxID()+1)
	assert.Equal(t, whisper.Language{ID: 0, Code: "en", Name: "english"}, body.Languages[0])
}

func TestTranscribeWAV(t *testing.T) {
	eng := whispertest.New(whispertest.JFK()...)
	rec := do(newRouter(t, config.Config{}, eng), http.MethodPost, "/v1/transcribe", "audio/wav", wavBytes(t, 1, audio.SampleRate))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res serverhttp.TranscribeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, 0, res.LangID)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, whispertest.JFKText, res.Segments[0].Text)
	assert.Equal(t, int64(1100), res.Segments[0].T1)
	assert.Contains(t, res.Text, "ask not what your country can do for you")
	assert.Equal(t, audio.SampleRate, eng.LastSamples())
}

func TestTranscribeQueryParams(t *testing.T) {
	eng := whispertest.New(whispertest.JFK()...)
	h := newRouter(t, config.Config{Threads: 2}, eng)
	rec := do(h, http.MethodPost, "/v1/transcribe?language=de&translate&beam_size=3&offset_ms=250", "audio/wav", wavBytes(t, 0.5, audio.SampleRate))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	p := eng.LastParams()
	assert.Equal(t, "de", p.Language())
	assert.True(t, p.Translate())
	assert.Equal(t, 3, p.BeamSize())
	assert.Equal(t, 250, p.Offset())
	assert.Equal(t, 2, p.Threads())

	var res serverhttp.TranscribeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.LangID)
	assert.Equal(t, "de", res.Language)
}

func TestTranscribePCM(t *testing.T) {
	eng := whispertest.New(whispertest.JFK()...)
	body := make([]byte, 2*8000)
	rec := do(newRouter(t, config.Config{}, eng), http.MethodPost, "/v1/transcribe?sample_rate=8000", "audio/pcm; rate=8000", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, audio.SampleRate*2, eng.LastSamples())
}

func TestTranscribeErrors(t *testing.T) {
	wav := wavBytes(t, 0.1, audio.SampleRate)
	cases := []struct {
		name   string
		cfg    config.Config
		eng    whisper.Engine
		target string
		body   []byte
		status int
	}{
		{"no engine", config.Config{}, nil, "/v1/transcribe", wav, http.StatusServiceUnavailable},
		{"unknown language", config.Config{}, whispertest.New(), "/v1/transcribe?language=xx", wav, http.StatusBadRequest},
		{"bad integer", config.Config{}, whispertest.New(), "/v1/transcribe?beam_size=wide", wav, http.StatusBadRequest},
		{"negative integer", config.Config{}, whispertest.New(), "/v1/transcribe?threads=-2", wav, http.StatusBadRequest},
		{"bad boolean", config.Config{}, whispertest.New(), "/v1/transcribe?translate=maybe", wav, http.StatusBadRequest},
		{"invalid wav", config.Config{}, whispertest.New(), "/v1/transcribe", []byte("not audio"), http.StatusBadRequest},
		{"too large", config.Config{MaxUploadBytes: 16}, whispertest.New(), "/v1/transcribe", wav, http.StatusRequestEntityTooLarge},
		{"engine rejects argument", config.Config{}, &whispertest.Engine{Err: fmt.Errorf("%w: language %q", whisper.ErrInvalidArgument, "de")}, "/v1/transcribe", wav, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(newRouter(t, tc.cfg, tc.eng), http.MethodPost, tc.target, "audio/wav", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestTranscribePCMRejectsBadSampleRate(t *testing.T) {
	for _, rate := range []string{"fast", "0", "-8000"} {
		eng := whispertest.New(whispertest.JFK()...)
		rec := do(newRouter(t, config.Config{}, eng), http.MethodPost, "/v1/transcribe?sample_rate="+rate, "audio/pcm", make([]byte, 320))
		assert.Equal(t, http.StatusBadRequest, rec.Code, rate)
		assert.Zero(t, eng.Calls(), rate)
	}
}

func TestTranscribeOutlivesWriteTimeout(t *testing.T) {
	eng := whispertest.New(whispertest.JFK()...)
	eng.Delay = 300 * time.Millisecond
	srv := httptest.NewUnstartedServer(newRouter(t, config.Config{}, eng))
	srv.Config.WriteTimeout = 100 * time.Millisecond
	srv.Start()
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Post(srv.URL+"/v1/transcribe", "audio/wav", bytes.NewReader(wavBytes(t, 0.5, audio.SampleRate)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res serverhttp.TranscribeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Len(t, res.Segments, 1)
	assert.Equal(t, whispertest.JFKText, res.Segments[0].Text)
}

func TestHealthzAnswersDuringTranscription(t *testing.T) {
	eng := whispertest.New(whispertest.JFK()...)
	eng.Delay = time.Second
	srv := httptest.NewServer(newRouter(t, config.Config{}, eng))
	t.Cleanup(srv.Close)

	body := wavBytes(t, 0.5, audio.SampleRate)
	finished := make(chan error, 1)
	go func() {
		resp, err := srv.Client().Post(srv.URL+"/v1/transcribe", "audio/wav", bytes.NewReader(body))
		if err == nil {
			resp.Body.Close()
		}
		finished <- err
	}()
	require.Eventually(t, func() bool { return eng.Calls() == 1 }, 2*time.Second, 10*time.Millisecond)

	client := &http.Client{Timeout: 200 * time.Millisecond}
	resp, err := client.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, <-finished)
}

func TestTranscribeRequiresPost(t *testing.T) {
	rec := do(newRouter(t, config.Config{}, whispertest.New()), http.MethodGet, "/v1/transcribe", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
