package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions carrying no extra context
var (
	ErrNoModelsAvailable = errors.New("no speech models available")
	ErrCancelled         = errors.New("transcription cancelled")
)

// InputNotFoundError reports a missing input file
type InputNotFoundError struct {
	Path string
}

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("Input file not found: %s", e.Path)
}

// LocaleUnsupportedError reports a locale outside the engine's
// supported set
type LocaleUnsupportedError struct {
	Locale string
	Engine string
}

func (e *LocaleUnsupportedError) Error() string {
	return fmt.Sprintf("locale %q is not supported by the %s engine", e.Locale, e.Engine)
}

// FormatUnavailableError reports an engine that cannot supply a
// compatible audio format
type FormatUnavailableError struct {
	Engine string
}

func (e *FormatUnavailableError) Error() string {
	return fmt.Sprintf("%s engine cannot supply a compatible audio format", e.Engine)
}

// ConversionError wraps a failure in the audio format converter
type ConversionError struct {
	Err error
}

func (e *ConversionError) Error() string {
	if e == nil || e.Err == nil {
		return "audio conversion failed"
	}
	return fmt.Sprintf("audio conversion failed: %v", e.Err)
}

func (e *ConversionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EngineError wraps the engine's own failure
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	if e == nil || e.Err == nil {
		return "engine failure"
	}
	return fmt.Sprintf("engine failure: %v", e.Err)
}

func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsCancelled reports whether err is (or wraps) a cancellation
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
