package whisper

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TimeUnit is the resolution of segment and token timestamps.
const TimeUnit = 10 * time.Millisecond

// speakerTurnToken is emitted by tinydiarize models before a speaker change.
const speakerTurnToken = "[_SOLM_]"

// Token is one decoded token of a segment.
type Token struct {
	ID   int     `json:"id"`
	Text string  `json:"text"`
	P    float32 `json:"p"`
	T0   int64   `json:"t0"`
	T1   int64   `json:"t1"`
}

// Special reports whether the token is a control token such as [_BEG_] or <|endoftext|>.
func (t Token) Special() bool {
	s := strings.TrimSpace(t.Text)
	return (strings.HasPrefix(s, "[_") && strings.HasSuffix(s, "]")) ||
		(strings.HasPrefix(s, "<|") && strings.HasSuffix(s, "|>"))
}

// Segment is one finalized span of transcribed audio. T0 and T1 are in TimeUnit.
type Segment struct {
	T0              int64   `json:"t0"`
	T1              int64   `json:"t1"`
	Text            string  `json:"text"`
	SpeakerTurnNext bool    `json:"speaker_turn_next"`
	Tokens          []Token `json:"tokens,omitempty"`
}

// Start returns T0 as a duration from the beginning of the audio.
func (s Segment) Start() time.Duration { return time.Duration(s.T0) * TimeUnit }

// End returns T1 as a duration from the beginning of the audio.
func (s Segment) End() time.Duration { return time.Duration(s.T1) * TimeUnit }

// SpeakerTurnFromTokens reports whether tokens carry a speaker-turn marker.
func SpeakerTurnFromTokens(tokens []Token) bool {
	for _, tok := range tokens {
		if strings.TrimSpace(tok.Text) == speakerTurnToken {
			return true
		}
	}
	return false
}

// FormatTimestamp renders t (in TimeUnit) as HH:MM:SS.mmm.
func FormatTimestamp(t int64) string {
	ms := t * 10
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

var nonSpeechRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\*[^*]*\*|[♪♫]`)

// isBlankText matches the placeholder text whisper produces for silence.
func isBlankText(text string) bool {
	t := strings.TrimSpace(text)
	return t == "" || strings.EqualFold(t, "[BLANK_AUDIO]")
}

func stripNonSpeech(text string) string {
	return strings.Join(strings.Fields(nonSpeechRe.ReplaceAllString(text, " ")), " ")
}

// applyFilters runs the text post-filters selected by p over batch.
func applyFilters(batch []Segment, p *Params) []Segment {
	if !p.SuppressBlank() && !p.SuppressNonSpeechTokens() {
		return batch
	}
	out := make([]Segment, 0, len(batch))
	for _, seg := range batch {
		if p.SuppressNonSpeechTokens() {
			seg.Text = stripNonSpeech(seg.Text)
		}
		if p.SuppressBlank() && isBlankText(seg.Text) {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// mergeSegments coalesces segs into a single segment spanning all of them.
func mergeSegments(segs []Segment) Segment {
	merged := Segment{T0: segs[0].T0, T1: segs[len(segs)-1].T1}
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
		merged.Tokens = append(merged.Tokens, s.Tokens...)
	}
	merged.Text = " " + strings.Join(parts, " ")
	merged.SpeakerTurnNext = segs[len(segs)-1].SpeakerTurnNext
	return merged
}
