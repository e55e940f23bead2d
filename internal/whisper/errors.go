package whisper

import "errors"

var (
	// ErrOutOfRange is returned for segment indices or language IDs outside their valid range.
	ErrOutOfRange = errors.New("whisper: index out of range")
	// ErrInvalidArgument is returned for unknown language codes.
	ErrInvalidArgument = errors.New("whisper: invalid argument")
	// ErrEngineUnavailable is returned when the binary was built without the whisper_cpp tag.
	ErrEngineUnavailable = errors.New("whisper: native engine unavailable (build with -tags whisper_cpp)")
)
