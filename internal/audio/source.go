package audio

import (
	"fmt"
	"os"
)

// Source yields 16 kHz mono float32 samples for a transcription run.
type Source interface {
	Samples() ([]float32, error)
}

// File is a path to a WAV file on disk.
type File string

func (f File) Samples() ([]float32, error) {
	fh, err := os.Open(string(f))
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer fh.Close()
	pcm, sr, err := decodeWAV(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", string(f), err)
	}
	return ResampleLinear(pcm, sr, SampleRate), nil
}

func (f File) String() string { return string(f) }

// WAV is an in-memory WAV blob.
type WAV []byte

func (b WAV) Samples() ([]float32, error) {
	pcm, sr, err := DecodeWAVToFloat32(b)
	if err != nil {
		return nil, err
	}
	return ResampleLinear(pcm, sr, SampleRate), nil
}

// PCM16 is raw little-endian 16-bit mono audio at Rate (16 kHz when zero).
type PCM16 struct {
	Data []byte
	Rate int
}

func (p PCM16) Samples() ([]float32, error) {
	pcm, sr, err := DecodePCM16LEToFloat32(p.Data, p.Rate)
	if err != nil {
		return nil, err
	}
	return ResampleLinear(pcm, sr, SampleRate), nil
}

// Float32 is audio that is already 16 kHz mono float PCM.
type Float32 []float32

func (f Float32) Samples() ([]float32, error) { return f, nil }
