//go:build whisper_cpp

package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	whispercpp "github.com/ggerganov/whisper.cpp/bindings/go"
	"github.com/rs/zerolog/log"
)

// EngineCPP is the whisper.cpp-backed implementation of Engine.
type EngineCPP struct {
	ctx          *whispercpp.Context
	modelPath    string
	multilingual bool       // fixed at load time, read without mu
	mu           sync.Mutex // serializes access to the native context
}

// NewEngine loads the ggml model at modelPath.
func NewEngine(modelPath string) (Engine, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, fmt.Errorf("%w: model path required", ErrInvalidArgument)
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	wctx := whispercpp.Whisper_init(modelPath)
	if wctx == nil {
		return nil, fmt.Errorf("load model: whisper_init failed for %s", modelPath)
	}
	e := &EngineCPP{
		ctx:          wctx,
		modelPath:    modelPath,
		multilingual: wctx.Whisper_is_multilingual() != 0,
	}
	log.Info().
		Str("model", modelPath).
		Bool("multilingual", e.multilingual).
		Msg("whisper: model loaded successfully")
	return e, nil
}

func (e *EngineCPP) Multilingual() bool { return e.multilingual }

func (e *EngineCPP) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil {
		e.ctx.Whisper_free()
		e.ctx = nil
	}
	return nil
}

// Full runs one whisper_full pass. Each new-segment callback becomes one
// batch covering the n_new segments whisper just finalized; a failing OnBatch
// or a cancelled ctx makes the next encoder-begin callback return false, which
// aborts the native run.
func (e *EngineCPP) Full(ctx context.Context, run Run) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx == nil {
		return "", errors.New("whisper: engine closed")
	}

	params, err := e.params(run.Params)
	if err != nil {
		return "", err
	}

	var stopErr error
	encoderBegin := func() bool {
		return stopErr == nil && ctx.Err() == nil
	}
	newSegment := func(nNew int) {
		if stopErr != nil || run.OnBatch == nil {
			return
		}
		batch := newBatch(e.ctx.Whisper_full_n_segments(), nNew, e.segment)
		if len(batch) == 0 {
			return
		}
		if err := run.OnBatch(batch); err != nil {
			stopErr = err
		}
	}
	var progress func(int)
	if run.OnProgress != nil {
		progress = func(p int) {
			if stopErr == nil {
				run.OnProgress(p)
			}
		}
	}

	if err := e.ctx.Whisper_full(params, run.Samples, encoderBegin, newSegment, progress); err != nil {
		if stopErr != nil {
			return "", stopErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		log.Error().Err(err).Int("samples", len(run.Samples)).Msg("whisper: process failed")
		return "", fmt.Errorf("process audio: %w", err)
	}

	lang := ""
	if id := e.ctx.Whisper_full_lang_id(); id >= 0 {
		lang, _ = LangStr(id)
	}
	if stopErr != nil {
		return lang, stopErr
	}
	return lang, ctx.Err()
}

func (e *EngineCPP) params(p *Params) (whispercpp.Params, error) {
	params := e.ctx.Whisper_full_default_params(whispercpp.SAMPLING_GREEDY)
	if p.BeamSize() > 1 {
		params = e.ctx.Whisper_full_default_params(whispercpp.SAMPLING_BEAM_SEARCH)
		params.SetBeamSize(p.BeamSize())
	}

	// print_* flags are reported through zerolog by Context
	params.SetPrintSpecial(false)
	params.SetPrintProgress(false)
	params.SetPrintRealtime(false)
	params.SetPrintTimestamps(false)

	if p.Threads() > 0 {
		params.SetThreads(p.Threads())
	}

	langID, err := e.languageID(p.Language())
	if err != nil {
		return params, err
	}
	if err := params.SetLanguage(langID); err != nil {
		return params, fmt.Errorf("%w: language %q: %v", ErrInvalidArgument, p.Language(), err)
	}

	params.SetTranslate(p.Translate())
	params.SetSplitOnWord(p.SplitOnWord())
	params.SetTokenTimestamps(p.TokenTimestamps())
	params.SetOffset(p.Offset())
	params.SetDuration(p.Duration())

	maxCtx := p.MaxTextTokens()
	if p.NoContext() {
		maxCtx = 0
	}
	params.SetMaxContext(maxCtx)

	if p.MaxSegmentLength() > 0 {
		params.SetMaxSegmentLength(p.MaxSegmentLength())
	}
	if p.InitialPrompt() != "" {
		params.SetInitialPrompt(p.InitialPrompt())
	}
	return params, nil
}

func (e *EngineCPP) languageID(lang string) (int, error) {
	id, ignored, err := resolveEngineLanguage(lang, e.multilingual)
	if ignored {
		log.Warn().Str("language", lang).Str("model", e.modelPath).Msg("whisper: model is English-only; ignoring language")
	}
	return id, err
}

func (e *EngineCPP) segment(i int) Segment {
	n := e.ctx.Whisper_full_n_tokens(i)
	tokens := make([]Token, 0, n)
	for t := 0; t < n; t++ {
		data := e.ctx.Whisper_full_get_token_data(i, t)
		tokens = append(tokens, Token{
			ID:   int(e.ctx.Whisper_full_get_token_id(i, t)),
			Text: e.ctx.Whisper_full_get_token_text(i, t),
			P:    e.ctx.Whisper_full_get_token_p(i, t),
			T0:   data.T0(),
			T1:   data.T1(),
		})
	}
	return Segment{
		T0:              e.ctx.Whisper_full_get_segment_t0(i),
		T1:              e.ctx.Whisper_full_get_segment_t1(i),
		Text:            e.ctx.Whisper_full_get_segment_text(i),
		SpeakerTurnNext: SpeakerTurnFromTokens(tokens),
		Tokens:          tokens,
	}
}
