package whisper

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/obiente/translate/whisperkit/internal/audio"
)

// ErrEventsConsumed is yielded when an Events sequence is ranged over twice.
var ErrEventsConsumed = errors.New("whisper: event sequence already consumed")

var errStopEvents = errors.New("whisper: event consumer stopped")

// State describes the run an event belongs to.
type State struct {
	Run      int // 1-based run counter on the owning Context
	Samples  int
	Progress int
	Language string // set once the run has finished
}

// Result is a consistent snapshot of one run.
type Result struct {
	Segments []Segment     `json:"segments"`
	LangID   int           `json:"lang_id"`
	Language string        `json:"language"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// Text joins the segment texts.
func (r *Result) Text() string {
	parts := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger used for run and print_* output.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Context) { c.log = l }
}

// Context binds a loaded model to the segment store of its most recent run.
// Runs on one Context are serialized; store accessors may be called from a
// NewSegmentHandler while a run is in progress.
type Context struct {
	engine Engine
	log    zerolog.Logger

	runMu sync.Mutex

	mu     sync.RWMutex
	store  *SegmentStore
	langID int
	runs   int
}

// Open loads the model at modelPath.
func Open(modelPath string, opts ...Option) (*Context, error) {
	eng, err := NewEngine(modelPath)
	if err != nil {
		return nil, err
	}
	return NewContext(eng, opts...), nil
}

// NewContext wraps an already loaded engine.
func NewContext(engine Engine, opts ...Option) *Context {
	c := &Context{
		engine: engine,
		log:    log.Logger,
		store:  newSegmentStore(),
		langID: -1,
	}
	c.store.freeze()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the engine.
func (c *Context) Close() error {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	return c.engine.Close()
}

// Multilingual reports whether the loaded model supports languages other than English.
func (c *Context) Multilingual() bool { return c.engine.Multilingual() }

// Transcribe runs the engine over src and replaces the segment store with the
// result. The params' NewSegmentHandler, if any, is called inline for every
// finalized batch; its error aborts the run and is returned unchanged.
func (c *Context) Transcribe(ctx context.Context, src audio.Source, p *Params) error {
	_, err := c.run(ctx, src, p)
	return err
}

// TranscribeFunc runs Transcribe and passes the joined transcript to fn.
func (c *Context) TranscribeFunc(ctx context.Context, src audio.Source, p *Params, fn func(text string) error) error {
	res, err := c.run(ctx, src, p)
	if err != nil {
		return err
	}
	return fn(res.Text())
}

// TranscribeResult runs Transcribe and returns a snapshot taken before any
// other run can replace the store. On error the snapshot holds the segments
// produced before the failure, or is nil if the run never started.
func (c *Context) TranscribeResult(ctx context.Context, src audio.Source, p *Params) (*Result, error) {
	return c.run(ctx, src, p)
}

// Events runs a transcription lazily while the returned sequence is ranged
// over, yielding one event per finalized batch. Breaking out of the loop
// aborts the run. A run error is yielded last with a zero event. The sequence
// can be consumed only once.
func (c *Context) Events(ctx context.Context, src audio.Source, p *Params) iter.Seq2[NewSegmentEvent, error] {
	var used atomic.Bool
	return func(yield func(NewSegmentEvent, error) bool) {
		if used.Swap(true) {
			yield(NewSegmentEvent{}, ErrEventsConsumed)
			return
		}
		if p == nil {
			p = NewParams()
		}
		rp := p.Clone()
		stopped := false
		rp.SetNewSegmentHandler(func(ev NewSegmentEvent) error {
			if stopped || !yield(ev, nil) {
				stopped = true
				return errStopEvents
			}
			return nil
		})
		if _, err := c.run(ctx, src, rp); err != nil && !stopped {
			yield(NewSegmentEvent{}, err)
		}
	}
}

func (c *Context) run(ctx context.Context, src audio.Source, p *Params) (*Result, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil audio source", ErrInvalidArgument)
	}
	if p == nil {
		p = NewParams()
	}

	c.runMu.Lock()
	defer c.runMu.Unlock()

	samples, err := src.Samples()
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	store := newSegmentStore()
	c.mu.Lock()
	c.runs++
	state := &State{Run: c.runs, Samples: len(samples)}
	c.store = store
	c.langID = -1
	c.mu.Unlock()

	logger := c.log.With().Int("run", state.Run).Logger()
	logger.Debug().
		Int("samples", len(samples)).
		Float64("seconds", float64(len(samples))/audio.SampleRate).
		Str("language", p.Language()).
		Bool("translate", p.Translate()).
		Msg("whisper: run started")
	started := time.Now()

	handler := p.NewSegmentHandler()
	dispatch := func(batch []Segment) error {
		store.append(batch...)
		if p.PrintRealtime() {
			printSegments(logger, p, batch)
		}
		if handler == nil {
			return nil
		}
		return handler(NewSegmentEvent{
			Context:  c,
			State:    state,
			NNew:     len(batch),
			UserData: p.NewSegmentUserData(),
		})
	}

	var pending []Segment
	onBatch := func(batch []Segment) error {
		batch = applyFilters(batch, p)
		if len(batch) == 0 {
			return nil
		}
		if p.SingleSegment() {
			pending = append(pending, batch...)
			return nil
		}
		return dispatch(batch)
	}
	onProgress := func(pct int) {
		state.Progress = pct
		if p.PrintProgress() {
			logger.Info().Int("progress", pct).Msg("whisper: progress")
		}
		if h := p.ProgressHandler(); h != nil {
			h(ProgressEvent{Context: c, State: state, Progress: pct, UserData: p.ProgressUserData()})
		}
	}

	lang, runErr := c.engine.Full(ctx, Run{
		Samples:    samples,
		Params:     p,
		OnBatch:    onBatch,
		OnProgress: onProgress,
	})
	if runErr == nil && len(pending) > 0 {
		runErr = dispatch([]Segment{mergeSegments(pending)})
	}
	store.freeze()

	langID := resolveLangID(lang, p.Language())
	code := ""
	if langID >= 0 {
		code, _ = LangStr(langID)
	}
	c.mu.Lock()
	c.langID = langID
	state.Language = code
	c.mu.Unlock()

	res := &Result{
		Segments: store.Snapshot(),
		LangID:   langID,
		Language: code,
		Elapsed:  time.Since(started),
	}
	ev := logger.Debug()
	if runErr != nil {
		ev = logger.Warn().Err(runErr)
	}
	ev.Int("segments", len(res.Segments)).
		Str("language", code).
		Dur("elapsed", res.Elapsed).
		Msg("whisper: run finished")
	return res, runErr
}

// resolveLangID prefers the engine-reported language and falls back to the
// requested one unless it is "auto".
func resolveLangID(engineLang, requested string) int {
	for _, code := range []string{engineLang, requested} {
		code = strings.TrimSpace(code)
		if code == "" || strings.EqualFold(code, "auto") {
			continue
		}
		if id, err := LangID(code); err == nil {
			return id
		}
	}
	return -1
}

func printSegments(logger zerolog.Logger, p *Params, batch []Segment) {
	for _, seg := range batch {
		text := seg.Text
		if p.PrintSpecial() && len(seg.Tokens) > 0 {
			var b strings.Builder
			for _, tok := range seg.Tokens {
				b.WriteString(tok.Text)
			}
			text = b.String()
		}
		ev := logger.Info()
		if p.PrintTimestamps() {
			ev = ev.Str("from", FormatTimestamp(seg.T0)).Str("to", FormatTimestamp(seg.T1))
		}
		if seg.SpeakerTurnNext {
			ev = ev.Bool("speaker_turn_next", true)
		}
		ev.Str("text", strings.TrimSpace(text)).Msg("whisper: segment")
	}
}

func (c *Context) currentStore() *SegmentStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

// FullNSegments returns the number of segments of the current or last run.
func (c *Context) FullNSegments() int { return c.currentStore().Len() }

// FullGetSegment returns segment i or ErrOutOfRange.
func (c *Context) FullGetSegment(i int) (Segment, error) { return c.currentStore().At(i) }

// FullGetSegmentT0 returns the start of segment i in TimeUnit.
func (c *Context) FullGetSegmentT0(i int) (int64, error) {
	seg, err := c.FullGetSegment(i)
	return seg.T0, err
}

// FullGetSegmentT1 returns the end of segment i in TimeUnit.
func (c *Context) FullGetSegmentT1(i int) (int64, error) {
	seg, err := c.FullGetSegment(i)
	return seg.T1, err
}

// FullGetSegmentText returns the text of segment i.
func (c *Context) FullGetSegmentText(i int) (string, error) {
	seg, err := c.FullGetSegment(i)
	return seg.Text, err
}

// FullGetSegmentSpeakerTurnNext reports whether a speaker change follows segment i.
func (c *Context) FullGetSegmentSpeakerTurnNext(i int) (bool, error) {
	seg, err := c.FullGetSegment(i)
	return seg.SpeakerTurnNext, err
}

// FullLangID returns the language ID of the last run, or -1 before any run
// or when the engine reported no usable language.
func (c *Context) FullLangID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.langID
}

// Segments iterates over a snapshot of the current store.
func (c *Context) Segments() iter.Seq2[int, Segment] {
	segs := c.currentStore().Snapshot()
	return func(yield func(int, Segment) bool) {
		for i, s := range segs {
			if !yield(i, s) {
				return
			}
		}
	}
}
