package whisper

import (
	"fmt"
	"strings"
)

// Options is the serializable subset of Params accepted by the network and
// CLI surfaces. Nil fields leave the corresponding Params value untouched.
type Options struct {
	Language                *string `json:"language,omitempty"`
	Translate               *bool   `json:"translate,omitempty"`
	OffsetMs                *int    `json:"offset_ms,omitempty"`
	DurationMs              *int    `json:"duration_ms,omitempty"`
	MaxTextTokens           *int    `json:"max_text_tokens,omitempty"`
	Threads                 *int    `json:"threads,omitempty"`
	InitialPrompt           *string `json:"initial_prompt,omitempty"`
	MaxSegmentLength        *int    `json:"max_segment_length,omitempty"`
	BeamSize                *int    `json:"beam_size,omitempty"`
	NoContext               *bool   `json:"no_context,omitempty"`
	SingleSegment           *bool   `json:"single_segment,omitempty"`
	SuppressBlank           *bool   `json:"suppress_blank,omitempty"`
	SuppressNonSpeechTokens *bool   `json:"suppress_non_speech_tokens,omitempty"`
	TokenTimestamps         *bool   `json:"token_timestamps,omitempty"`
	SplitOnWord             *bool   `json:"split_on_word,omitempty"`
}

// Apply validates o and copies every set field onto p. p is unchanged when an
// error is returned.
func (o Options) Apply(p *Params) error {
	if err := o.validate(); err != nil {
		return err
	}
	if o.Language != nil {
		p.SetLanguage(strings.ToLower(strings.TrimSpace(*o.Language)))
	}
	setString(o.InitialPrompt, p.SetInitialPrompt)
	setInt(o.OffsetMs, p.SetOffset)
	setInt(o.DurationMs, p.SetDuration)
	setInt(o.MaxTextTokens, p.SetMaxTextTokens)
	setInt(o.Threads, p.SetThreads)
	setInt(o.MaxSegmentLength, p.SetMaxSegmentLength)
	setInt(o.BeamSize, p.SetBeamSize)
	setBool(o.Translate, p.SetTranslate)
	setBool(o.NoContext, p.SetNoContext)
	setBool(o.SingleSegment, p.SetSingleSegment)
	setBool(o.SuppressBlank, p.SetSuppressBlank)
	setBool(o.SuppressNonSpeechTokens, p.SetSuppressNonSpeechTokens)
	setBool(o.TokenTimestamps, p.SetTokenTimestamps)
	setBool(o.SplitOnWord, p.SetSplitOnWord)
	return nil
}

func (o Options) validate() error {
	if o.Language != nil {
		lang := strings.TrimSpace(*o.Language)
		if !strings.EqualFold(lang, "auto") {
			if _, err := LangID(lang); err != nil {
				return err
			}
		}
	}
	for name, v := range map[string]*int{
		"offset_ms":          o.OffsetMs,
		"duration_ms":        o.DurationMs,
		"max_text_tokens":    o.MaxTextTokens,
		"threads":            o.Threads,
		"max_segment_length": o.MaxSegmentLength,
		"beam_size":          o.BeamSize,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must be >= 0, got %d", ErrInvalidArgument, name, *v)
		}
	}
	return nil
}

func setString(v *string, set func(string)) {
	if v != nil {
		set(*v)
	}
}

func setInt(v *int, set func(int)) {
	if v != nil {
		set(*v)
	}
}

func setBool(v *bool, set func(bool)) {
	if v != nil {
		set(*v)
	}
}
