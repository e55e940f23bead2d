//go:build !whisper_cpp

package whisper

// NewEngine reports ErrEngineUnavailable so the project builds without the whisper_cpp tag.
func NewEngine(modelPath string) (Engine, error) { return nil, ErrEngineUnavailable }
