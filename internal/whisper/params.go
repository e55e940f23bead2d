package whisper

import (
	"runtime"
	"time"
)

// NewSegmentEvent is delivered to a NewSegmentHandler once per finalized batch.
// The batch occupies indices [Context.FullNSegments()-NNew, Context.FullNSegments()-1].
type NewSegmentEvent struct {
	Context  *Context
	State    *State
	NNew     int
	UserData any
}

// NewSegmentHandler consumes new-segment events. A non-nil error aborts the
// run and is returned unchanged from Transcribe.
type NewSegmentHandler func(ev NewSegmentEvent) error

// ProgressEvent reports engine progress in percent.
type ProgressEvent struct {
	Context  *Context
	State    *State
	Progress int
	UserData any
}

// ProgressHandler consumes progress events.
type ProgressHandler func(ev ProgressEvent)

// Params configures one transcription run. The zero value is usable but
// NewParams returns whisper's greedy defaults.
type Params struct {
	language         string
	offsetMs         int
	durationMs       int
	maxTextTokens    int
	threads          int
	initialPrompt    string
	maxSegmentLength int
	beamSize         int

	translate               bool
	noContext               bool
	singleSegment           bool
	printSpecial            bool
	printProgress           bool
	printRealtime           bool
	printTimestamps         bool
	suppressBlank           bool
	suppressNonSpeechTokens bool
	tokenTimestamps         bool
	splitOnWord             bool

	newSegmentHandler  NewSegmentHandler
	newSegmentUserData any
	progressHandler    ProgressHandler
	progressUserData   any
}

// NewParams returns the defaults whisper.cpp uses for greedy sampling.
func NewParams() *Params {
	return &Params{
		language:        "en",
		maxTextTokens:   16384,
		threads:         min(4, runtime.NumCPU()),
		noContext:       true,
		printProgress:   true,
		printTimestamps: true,
		suppressBlank:   true,
	}
}

func (p *Params) SetLanguage(v string) { p.language = v }
func (p *Params) Language() string     { return p.language }

// SetOffset sets the start offset in milliseconds.
func (p *Params) SetOffset(ms int) { p.offsetMs = ms }
func (p *Params) Offset() int      { return p.offsetMs }

// SetDuration limits the processed audio in milliseconds; 0 means the whole input.
func (p *Params) SetDuration(ms int) { p.durationMs = ms }
func (p *Params) Duration() int      { return p.durationMs }

// SetMaxTextTokens bounds the text context carried between windows; 0 disables it.
func (p *Params) SetMaxTextTokens(n int) { p.maxTextTokens = n }
func (p *Params) MaxTextTokens() int     { return p.maxTextTokens }

func (p *Params) SetThreads(n int) { p.threads = n }
func (p *Params) Threads() int     { return p.threads }

func (p *Params) SetInitialPrompt(v string) { p.initialPrompt = v }
func (p *Params) InitialPrompt() string     { return p.initialPrompt }

// SetMaxSegmentLength caps segment length in characters; 0 means no limit.
func (p *Params) SetMaxSegmentLength(n int) { p.maxSegmentLength = n }
func (p *Params) MaxSegmentLength() int     { return p.maxSegmentLength }

func (p *Params) SetBeamSize(n int) { p.beamSize = n }
func (p *Params) BeamSize() int     { return p.beamSize }

func (p *Params) SetTranslate(v bool) { p.translate = v }
func (p *Params) Translate() bool     { return p.translate }

func (p *Params) SetNoContext(v bool) { p.noContext = v }
func (p *Params) NoContext() bool     { return p.noContext }

func (p *Params) SetSingleSegment(v bool) { p.singleSegment = v }
func (p *Params) SingleSegment() bool     { return p.singleSegment }

func (p *Params) SetPrintSpecial(v bool) { p.printSpecial = v }
func (p *Params) PrintSpecial() bool     { return p.printSpecial }

func (p *Params) SetPrintProgress(v bool) { p.printProgress = v }
func (p *Params) PrintProgress() bool     { return p.printProgress }

func (p *Params) SetPrintRealtime(v bool) { p.printRealtime = v }
func (p *Params) PrintRealtime() bool     { return p.printRealtime }

func (p *Params) SetPrintTimestamps(v bool) { p.printTimestamps = v }
func (p *Params) PrintTimestamps() bool     { return p.printTimestamps }

func (p *Params) SetSuppressBlank(v bool) { p.suppressBlank = v }
func (p *Params) SuppressBlank() bool     { return p.suppressBlank }

func (p *Params) SetSuppressNonSpeechTokens(v bool) { p.suppressNonSpeechTokens = v }
func (p *Params) SuppressNonSpeechTokens() bool     { return p.suppressNonSpeechTokens }

func (p *Params) SetTokenTimestamps(v bool) { p.tokenTimestamps = v }
func (p *Params) TokenTimestamps() bool     { return p.tokenTimestamps }

func (p *Params) SetSplitOnWord(v bool) { p.splitOnWord = v }
func (p *Params) SplitOnWord() bool     { return p.splitOnWord }

// SetNewSegmentHandler registers h; it is not invoked until a run starts.
func (p *Params) SetNewSegmentHandler(h NewSegmentHandler) { p.newSegmentHandler = h }
func (p *Params) NewSegmentHandler() NewSegmentHandler     { return p.newSegmentHandler }

func (p *Params) SetNewSegmentUserData(v any) { p.newSegmentUserData = v }
func (p *Params) NewSegmentUserData() any     { return p.newSegmentUserData }

func (p *Params) SetProgressHandler(h ProgressHandler) { p.progressHandler = h }
func (p *Params) ProgressHandler() ProgressHandler     { return p.progressHandler }

func (p *Params) SetProgressUserData(v any) { p.progressUserData = v }
func (p *Params) ProgressUserData() any     { return p.progressUserData }

// OffsetDuration returns the offset as a time.Duration.
func (p *Params) OffsetDuration() time.Duration {
	return time.Duration(p.offsetMs) * time.Millisecond
}

// DurationLimit returns the duration limit as a time.Duration.
func (p *Params) DurationLimit() time.Duration {
	return time.Duration(p.durationMs) * time.Millisecond
}

// Clone returns a shallow copy; handler references are shared.
func (p *Params) Clone() *Params {
	cp := *p
	return &cp
}
