package ws

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/obiente/translate/whisperkit/internal/audio"
	"github.com/obiente/translate/whisperkit/internal/config"
	"github.com/obiente/translate/whisperkit/internal/whisper"
)

const (
	readTimeout = 60 * time.Second

	// rolling window: keep at most 90s, dropping at least the oldest 30s when full
	maxBufferSamples = 90 * audio.SampleRate
	trimSamples      = 30 * audio.SampleRate
)

// Server streams transcription results over WebSocket. Each connection is a
// session that buffers audio chunks and transcribes them on flush.
type Server struct {
	cfg      config.Config
	wctx     *whisper.Context
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	id      string
	conn    *websocket.Conn
	log     zerolog.Logger
	params  *whisper.Params
	samples []float32
	flushes int
}

// clientMsg is the union of all client frames; whisper.Options carries the
// parameters of a start frame.
type clientMsg struct {
	Type       string `json:"type"`
	Data       string `json:"data,omitempty"`
	MimeType   string `json:"mime_type,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Sequence   int    `json:"sequence,omitempty"`
	TS         any    `json:"ts,omitempty"`
	whisper.Options
}

func NewServer(cfg config.Config, wctx *whisper.Context, logger zerolog.Logger) *Server {
	return &Server{
		cfg:  cfg,
		wctx: wctx,
		log:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024 * 16,
			WriteBufferSize: 1024 * 16,
		},
		sessions: make(map[string]*session),
	}
}

// ActiveSessions returns the number of open connections.
func (s *Server) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	sess := &session{
		id:     uuid.NewString(),
		conn:   conn,
		params: s.cfg.Params(),
	}
	sess.log = s.log.With().Str("session", sess.id).Logger()
	s.register(sess)
	defer s.unregister(sess)

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(readTimeout)) })

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				sess.log.Warn().Err(err).Msg("ws read error")
			}
			return
		}
		// Bump read deadline on any activity
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		if mt != websocket.TextMessage {
			continue
		}
		var msg clientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			sess.sendError("invalid json")
			continue
		}
		switch msg.Type {
		case "ping":
			_ = conn.WriteJSON(map[string]any{"type": "pong", "ts": msg.TS})
		case "start":
			s.start(sess, msg)
		case "chunk":
			s.chunk(sess, msg)
		case "flush":
			if err := s.flush(r.Context(), sess); err != nil {
				sess.log.Warn().Err(err).Msg("flush aborted")
				return
			}
		case "stop":
			_ = conn.WriteJSON(map[string]any{"type": "stopped", "session_id": sess.id})
			return
		default:
			sess.sendError("unknown message type")
		}
	}
}

func (s *Server) start(sess *session, msg clientMsg) {
	p := s.cfg.Params()
	if err := msg.Options.Apply(p); err != nil {
		sess.sendError(err.Error())
		return
	}
	sess.params = p
	sess.samples = sess.samples[:0]
	sess.log.Info().
		Str("language", p.Language()).
		Bool("translate", p.Translate()).
		Msg("session started with configuration")
	_ = sess.conn.WriteJSON(map[string]any{"type": "started", "session_id": sess.id})
}

func (s *Server) chunk(sess *session, msg clientMsg) {
	if msg.Data == "" {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		sess.sendError("invalid base64 audio")
		return
	}

	var src audio.Source = audio.WAV(raw)
	switch strings.ToLower(msg.MimeType) {
	case "audio/pcm", "audio/l16", "audio/pcm16":
		src = audio.PCM16{Data: raw, Rate: msg.SampleRate}
	}
	pcm, err := src.Samples()
	if err != nil {
		sess.log.Warn().Err(err).Msg("audio decode failed")
		sess.sendError("decode audio failed")
		return
	}

	want := len(sess.samples) + len(pcm)
	sess.samples = appendWindow(sess.samples, pcm)
	if len(sess.samples) < want {
		sess.log.Debug().Int("buffer_samples", len(sess.samples)).Msg("trimmed buffer (rolling 90s window)")
	}
	sess.log.Debug().
		Int("chunk_samples", len(pcm)).
		Int("total_samples", len(sess.samples)).
		Msg("audio chunk received")
	_ = sess.conn.WriteJSON(map[string]any{
		"type":        "chunk_ack",
		"sequence":    msg.Sequence,
		"buffered_ms": len(sess.samples) * 1000 / audio.SampleRate,
	})
}

// flush transcribes the buffered audio, streaming one segment frame per new
// segment followed by a done frame. A returned error means the connection is
// no longer writable.
func (s *Server) flush(ctx context.Context, sess *session) error {
	if s.wctx == nil {
		sess.sendError(whisper.ErrEngineUnavailable.Error())
		return nil
	}
	if len(sess.samples) == 0 {
		sess.sendError("no audio buffered")
		return nil
	}

	sess.flushes++
	p := sess.params.Clone()
	var writeErr error
	p.SetNewSegmentHandler(func(ev whisper.NewSegmentEvent) error {
		n := ev.Context.FullNSegments()
		for i := n - ev.NNew; i < n; i++ {
			seg, err := ev.Context.FullGetSegment(i)
			if err != nil {
				return err
			}
			if err := sess.conn.WriteJSON(segmentMessage(sess.flushes, i, seg)); err != nil {
				writeErr = err
				return err
			}
		}
		return nil
	})

	samples := audio.Float32(sess.samples)
	sess.samples = nil
	res, err := s.wctx.TranscribeResult(ctx, samples, p)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		sess.log.Warn().Err(err).Msg("transcription failed")
		sess.sendError("transcription failed: " + err.Error())
		return nil
	}
	sess.log.Info().
		Int("segments", len(res.Segments)).
		Str("language", res.Language).
		Dur("elapsed", res.Elapsed).
		Msg("flush transcribed")
	return sess.conn.WriteJSON(map[string]any{
		"type":       "done",
		"flush":      sess.flushes,
		"lang_id":    res.LangID,
		"language":   res.Language,
		"n_segments": len(res.Segments),
		"text":       res.Text(),
	})
}

// appendWindow appends pcm to buf and keeps the newest maxBufferSamples. When
// the window overflows it drops at least trimSamples so a steady stream does
// not shift the buffer on every chunk.
func appendWindow(buf, pcm []float32) []float32 {
	buf = append(buf, pcm...)
	if len(buf) <= maxBufferSamples {
		return buf
	}
	drop := max(len(buf)-maxBufferSamples, trimSamples)
	return append(buf[:0], buf[drop:]...)
}

func segmentMessage(flush, index int, seg whisper.Segment) map[string]any {
	return map[string]any{
		"type":              "segment",
		"flush":             flush,
		"index":             index,
		"t0":                seg.T0,
		"t1":                seg.T1,
		"from":              whisper.FormatTimestamp(seg.T0),
		"to":                whisper.FormatTimestamp(seg.T1),
		"text":              seg.Text,
		"speaker_turn_next": seg.SpeakerTurnNext,
	}
}

func (sess *session) sendError(detail string) {
	if err := sess.conn.WriteJSON(map[string]any{"type": "error", "detail": detail}); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		sess.log.Debug().Err(err).Msg("ws error frame not delivered")
	}
}

func (s *Server) register(sess *session) {
	s.mu.Lock()
	s.sessions[sess.id] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	sess.log.Info().Int("active", n).Msg("ws session opened")
}

func (s *Server) unregister(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	n := len(s.sessions)
	s.mu.Unlock()
	sess.log.Info().Int("active", n).Int("flushes", sess.flushes).Msg("ws session closed")
}
