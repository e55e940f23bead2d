package whisper

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsDefaults(t *testing.T) {
	p := NewParams()
	assert.Equal(t, "en", p.Language())
	assert.Equal(t, 0, p.Offset())
	assert.Equal(t, 0, p.Duration())
	assert.Equal(t, 16384, p.MaxTextTokens())
	assert.True(t, p.NoContext())
	assert.True(t, p.PrintProgress())
	assert.True(t, p.PrintTimestamps())
	assert.True(t, p.SuppressBlank())
	assert.False(t, p.Translate())
	assert.False(t, p.SingleSegment())
	assert.False(t, p.SplitOnWord())
	assert.Positive(t, p.Threads())
	assert.Nil(t, p.NewSegmentHandler())
}

func TestParamsLanguageRoundTrip(t *testing.T) {
	p := NewParams()
	for _, v := range []string{"en", "auto", "de"} {
		p.SetLanguage(v)
		assert.Equal(t, v, p.Language())
	}
}

func TestParamsIntRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		set    func(*Params, int)
		get    func(*Params) int
		values []int
	}{
		{"offset", (*Params).SetOffset, (*Params).Offset, []int{10_000, 0}},
		{"duration", (*Params).SetDuration, (*Params).Duration, []int{60_000, 0}},
		{"max_text_tokens", (*Params).SetMaxTextTokens, (*Params).MaxTextTokens, []int{300, 0}},
		{"threads", (*Params).SetThreads, (*Params).Threads, []int{8, 1}},
		{"max_segment_length", (*Params).SetMaxSegmentLength, (*Params).MaxSegmentLength, []int{42, 0}},
		{"beam_size", (*Params).SetBeamSize, (*Params).BeamSize, []int{5, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewParams()
			for _, v := range tc.values {
				tc.set(p, v)
				assert.Equal(t, v, tc.get(p))
			}
		})
	}
}

func TestParamsFlagRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		set  func(*Params, bool)
		get  func(*Params) bool
	}{
		{"translate", (*Params).SetTranslate, (*Params).Translate},
		{"no_context", (*Params).SetNoContext, (*Params).NoContext},
		{"single_segment", (*Params).SetSingleSegment, (*Params).SingleSegment},
		{"print_special", (*Params).SetPrintSpecial, (*Params).PrintSpecial},
		{"print_progress", (*Params).SetPrintProgress, (*Params).PrintProgress},
		{"print_realtime", (*Params).SetPrintRealtime, (*Params).PrintRealtime},
		{"print_timestamps", (*Params).SetPrintTimestamps, (*Params).PrintTimestamps},
		{"suppress_blank", (*Params).SetSuppressBlank, (*Params).SuppressBlank},
		{"suppress_non_speech_tokens", (*Params).SetSuppressNonSpeechTokens, (*Params).SuppressNonSpeechTokens},
		{"token_timestamps", (*Params).SetTokenTimestamps, (*Params).TokenTimestamps},
		{"split_on_word", (*Params).SetSplitOnWord, (*Params).SplitOnWord},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewParams()
			tc.set(p, true)
			assert.True(t, tc.get(p))
			tc.set(p, false)
			assert.False(t, tc.get(p))
		})
	}
}

func TestParamsHandlersAreStoredNotCalled(t *testing.T) {
	p := NewParams()
	called := false
	sentinel := errors.New("boom")
	p.SetNewSegmentHandler(func(NewSegmentEvent) error {
		called = true
		return sentinel
	})
	p.SetNewSegmentUserData("payload")
	p.SetProgressHandler(func(ProgressEvent) { called = true })

	assert.False(t, called)
	require.NotNil(t, p.NewSegmentHandler())
	require.NotNil(t, p.ProgressHandler())
	assert.Equal(t, "payload", p.NewSegmentUserData())
	assert.ErrorIs(t, p.NewSegmentHandler()(NewSegmentEvent{}), sentinel)
	assert.True(t, called)
}

func TestParamsDurations(t *testing.T) {
	p := NewParams()
	p.SetOffset(1500)
	p.SetDuration(2000)
	assert.Equal(t, 1500*time.Millisecond, p.OffsetDuration())
	assert.Equal(t, 2*time.Second, p.DurationLimit())
}

func TestParamsCloneIsIndependent(t *testing.T) {
	p := NewParams()
	cp := p.Clone()
	cp.SetLanguage("fr")
	cp.SetTranslate(true)
	assert.Equal(t, "en", p.Language())
	assert.False(t, p.Translate())
}
