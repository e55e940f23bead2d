// Package whispertest provides a scripted whisper.Engine for tests that must
// not depend on the native whisper.cpp library.
package whispertest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/obiente/translate/whisperkit/internal/audio"
	"github.com/obiente/translate/whisperkit/internal/whisper"
)

// JFKText is the transcript of whisper.cpp's samples/jfk.wav.
const JFKText = " And so my fellow Americans, ask not what your country can do for you, ask what you can do for your country."

// JFK returns the single-segment result base.en produces for samples/jfk.wav.
func JFK() [][]whisper.Segment {
	return [][]whisper.Segment{{{T0: 0, T1: 1100, Text: JFKText}}}
}

// Silence returns seconds of 16 kHz silence.
func Silence(seconds float64) audio.Float32 {
	return make(audio.Float32, int(seconds*audio.SampleRate))
}

// Engine replays Batches on every Full call. Err, if set, is returned after
// all batches have been delivered. Delay stalls each call before the first
// batch, returning early if ctx is done.
type Engine struct {
	Batches           [][]whisper.Segment
	Lang              string
	Err               error
	MultilingualModel bool
	Delay             time.Duration

	mu         sync.Mutex
	calls      int
	lastParams *whisper.Params
	lastLen    int
	closed     bool
}

// New returns an Engine replaying batches.
func New(batches ...[]whisper.Segment) *Engine {
	return &Engine{Batches: batches}
}

func (e *Engine) Full(ctx context.Context, run whisper.Run) (string, error) {
	e.mu.Lock()
	e.calls++
	e.lastParams = run.Params
	e.lastLen = len(run.Samples)
	e.mu.Unlock()

	if e.Delay > 0 {
		select {
		case <-time.After(e.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	for i, batch := range e.Batches {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if run.OnProgress != nil {
			run.OnProgress(100 * i / len(e.Batches))
		}
		if run.OnBatch == nil {
			continue
		}
		if err := run.OnBatch(append([]whisper.Segment(nil), batch...)); err != nil {
			return "", err
		}
	}
	if run.OnProgress != nil {
		run.OnProgress(100)
	}
	return e.language(run.Params), e.Err
}

func (e *Engine) language(p *whisper.Params) string {
	if e.Lang != "" {
		return e.Lang
	}
	if p != nil && p.Language() != "" && !strings.EqualFold(p.Language(), "auto") {
		return p.Language()
	}
	return "en"
}

func (e *Engine) Multilingual() bool { return e.MultilingualModel }

func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

// Calls returns the number of Full invocations.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// LastParams returns the params of the most recent Full call.
func (e *Engine) LastParams() *whisper.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastParams
}

// LastSamples returns the sample count of the most recent Full call.
func (e *Engine) LastSamples() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastLen
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
