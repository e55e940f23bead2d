package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/obiente/translate/whisperkit/internal/audio"
	"github.com/obiente/translate/whisperkit/internal/whisper"
)

type transcribeFlags struct {
	language      string
	prompt        string
	translate     bool
	offsetMs      int
	durationMs    int
	maxContext    int
	maxLen        int
	beamSize      int
	threads       int
	noContext     bool
	singleSegment bool
	suppressBlank bool
	suppressNST   bool
	splitOnWord   bool
	tokenTS       bool
	printRealtime bool
	printSpecial  bool
	jsonOutput    bool
}

// options returns only the flags set on the command line so that
// configuration and whisper defaults apply to the rest.
func (f *transcribeFlags) options(fs *pflag.FlagSet) whisper.Options {
	o := whisper.Options{}
	if fs.Changed("language") {
		o.Language = &f.language
	}
	if fs.Changed("prompt") {
		o.InitialPrompt = &f.prompt
	}
	for name, pair := range map[string]struct {
		src *bool
		dst **bool
	}{
		"translate":      {&f.translate, &o.Translate},
		"no-context":     {&f.noContext, &o.NoContext},
		"single-segment": {&f.singleSegment, &o.SingleSegment},
		"suppress-blank": {&f.suppressBlank, &o.SuppressBlank},
		"suppress-nst":   {&f.suppressNST, &o.SuppressNonSpeechTokens},
		"split-on-word":  {&f.splitOnWord, &o.SplitOnWord},
		"token-ts":       {&f.tokenTS, &o.TokenTimestamps},
	} {
		if fs.Changed(name) {
			*pair.dst = pair.src
		}
	}
	for name, pair := range map[string]struct {
		src *int
		dst **int
	}{
		"offset-ms":   {&f.offsetMs, &o.OffsetMs},
		"duration-ms": {&f.durationMs, &o.DurationMs},
		"max-context": {&f.maxContext, &o.MaxTextTokens},
		"max-len":     {&f.maxLen, &o.MaxSegmentLength},
		"beam-size":   {&f.beamSize, &o.BeamSize},
		"threads":     {&f.threads, &o.Threads},
	} {
		if fs.Changed(name) {
			*pair.dst = pair.src
		}
	}
	return o
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var f transcribeFlags

	cmd := &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Transcribe a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			logger := ctx.logger(cmd, cfg)

			p := cfg.Params()
			if err := f.options(cmd.Flags()).Apply(p); err != nil {
				return err
			}
			p.SetPrintRealtime(f.printRealtime)
			p.SetPrintSpecial(f.printSpecial)

			wctx, err := ctx.open(cfg.ModelPath, whisper.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("open model %s: %w", cfg.ModelPath, err)
			}
			defer wctx.Close()

			res, err := wctx.TranscribeResult(cmd.Context(), audio.File(args[0]), p)
			if err != nil {
				return err
			}
			if f.jsonOutput {
				return writeJSON(cmd, res)
			}

			rows := make([][]string, 0, len(res.Segments))
			for i, seg := range res.Segments {
				turn := ""
				if seg.SpeakerTurnNext {
					turn = "yes"
				}
				rows = append(rows, []string{
					strconv.Itoa(i),
					whisper.FormatTimestamp(seg.T0),
					whisper.FormatTimestamp(seg.T1),
					strings.TrimSpace(seg.Text),
					turn,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(segmentColumns, rows))
			name, _ := whisper.LangStrFull(res.LangID)
			fmt.Fprintf(out, "Language: %s (%s, id %d)  Segments: %d  Elapsed: %s\n",
				res.Language, name, res.LangID, len(res.Segments), res.Elapsed.Round(time.Millisecond))
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.language, "language", "l", "en", `Spoken language code or "auto"`)
	fl.StringVar(&f.prompt, "prompt", "", "Initial prompt")
	fl.BoolVar(&f.translate, "translate", false, "Translate into English")
	fl.IntVar(&f.offsetMs, "offset-ms", 0, "Start offset in milliseconds")
	fl.IntVar(&f.durationMs, "duration-ms", 0, "Duration to process in milliseconds (0 = all)")
	fl.IntVar(&f.maxContext, "max-context", 16384, "Maximum text context tokens")
	fl.IntVar(&f.maxLen, "max-len", 0, "Maximum segment length in characters (0 = unlimited)")
	fl.IntVar(&f.beamSize, "beam-size", 0, "Beam search size (0 = greedy)")
	fl.IntVarP(&f.threads, "threads", "t", 0, "Decoder threads (0 = configured default)")
	fl.BoolVar(&f.noContext, "no-context", true, "Do not carry text context between windows")
	fl.BoolVar(&f.singleSegment, "single-segment", false, "Emit the whole run as one segment")
	fl.BoolVar(&f.suppressBlank, "suppress-blank", true, "Drop blank segments")
	fl.BoolVar(&f.suppressNST, "suppress-nst", false, "Strip non-speech annotations")
	fl.BoolVar(&f.splitOnWord, "split-on-word", false, "Split segments on word boundaries")
	fl.BoolVar(&f.tokenTS, "token-ts", false, "Compute token-level timestamps")
	fl.BoolVar(&f.printRealtime, "print-realtime", false, "Log segments as they are produced")
	fl.BoolVar(&f.printSpecial, "print-special", false, "Include special tokens in realtime output")
	fl.BoolVar(&f.jsonOutput, "json", false, "Write the result as JSON")
	return cmd
}
