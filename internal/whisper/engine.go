package whisper

import (
	"context"
	"strings"
)

// Engine runs full transcription passes over 16 kHz mono float32 samples.
// Implementations may be unavailable (stub) or backed by whisper.cpp (build tag: whisper_cpp).
type Engine interface {
	// Full decodes run.Samples with run.Params and reports finalized segments
	// through run.OnBatch in chronological order. When OnBatch returns an error
	// or ctx is done the engine stops as soon as it can. The returned string is
	// the language code used or detected for the run.
	Full(ctx context.Context, run Run) (string, error)
	// Multilingual reports whether the loaded model supports languages other than English.
	Multilingual() bool
	Close() error
}

// Run carries the inputs of one Engine.Full call.
type Run struct {
	Samples    []float32
	Params     *Params
	OnBatch    func(batch []Segment) error
	OnProgress func(percent int)
}

// newBatch collects the nNew segments that end at index n, the shape of
// whisper's new-segment callback. It returns nil when there is nothing new.
func newBatch(n, nNew int, at func(i int) Segment) []Segment {
	if nNew <= 0 || n <= 0 {
		return nil
	}
	batch := make([]Segment, 0, min(nNew, n))
	for i := max(n-nNew, 0); i < n; i++ {
		batch = append(batch, at(i))
	}
	return batch
}

// resolveEngineLanguage maps a requested language to whisper's ID, -1 meaning
// auto-detect. English-only models always run as English; ignored reports that
// a non-English request was overridden.
func resolveEngineLanguage(lang string, multilingual bool) (id int, ignored bool, err error) {
	lang = strings.TrimSpace(lang)
	if lang == "" || strings.EqualFold(lang, "auto") {
		if multilingual {
			return -1, false, nil
		}
		return 0, false, nil
	}
	id, err = LangID(lang)
	if err != nil {
		return -1, false, err
	}
	if !multilingual && id != 0 {
		return 0, true, nil
	}
	return id, false, nil
}
