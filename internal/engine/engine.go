package engine

import (
	"context"
	"fmt"

	"github.com/soundscribe/soundscribe/internal/audio"
)

// Config holds the per-invocation recognizer options
type Config struct {
	Locale string // BCP-47 locale id (e.g., "en-US")
	Fast   bool   // prefer the low-latency model tier over the accurate one
	Redact bool   // mask digit runs in committed text
	APIKey string // cloud engines only
}

// Run is one attributed text run inside a recognition result. Timing and
// confidence are optional: engines that cannot produce them leave the
// pointers nil and downstream output omits the fields.
type Run struct {
	Text       string
	Start      *float64 // seconds from the beginning of the input
	Duration   *float64 // seconds
	Confidence *float64 // 0..1
}

// RecognitionResult is one emission from a recognizer's result stream.
// Volatile results (IsFinal false) are provisional and may be superseded;
// only final results are ever committed to the transcript.
type RecognitionResult struct {
	Text         string
	IsFinal      bool
	Runs         []Run
	Alternatives []string
}

// InstallRequest is the handle returned by RequestInstall and redeemed
// by Download. Engines with nothing to install return a nil request.
type InstallRequest struct {
	Locale    string
	Asset     string
	SizeBytes int64
}

// DownloadProgressFunc reports model download progress
type DownloadProgressFunc func(downloaded, total int64)

// Recognizer is the boundary to a speech-recognition engine. The
// pipeline feeds it converted audio buffers over a bounded channel and
// drains its result stream concurrently.
//
// Lifecycle: Start begins consuming the input channel; the caller closes
// the channel after the last buffer, calls FinishInput, then
// FinalizeAndAwaitCompletion. The engine closes its Results channel once
// the last result has been emitted.
type Recognizer interface {
	Name() string

	// SupportedLocales returns every locale the engine can recognize
	SupportedLocales(ctx context.Context) ([]string, error)

	// InstalledLocales returns the subset of supported locales whose
	// model assets are present on this machine
	InstalledLocales(ctx context.Context) ([]string, error)

	// RequestInstall prepares installation of the model for a locale
	RequestInstall(ctx context.Context, localeID string) (*InstallRequest, error)

	// Download fetches the requested model. Long-running; cancellation is
	// best-effort via ctx.
	Download(ctx context.Context, req *InstallRequest, onProgress DownloadProgressFunc) error

	// BestAudioFormat returns the input format the engine wants, or
	// false if it cannot accept any format for this configuration
	BestAudioFormat() (audio.Format, bool)

	// Start begins consuming buffers from input until it is closed
	Start(ctx context.Context, input <-chan *audio.Buffer) error

	// Results returns the stream of recognition results. Closed by the
	// engine after finalization.
	Results() <-chan RecognitionResult

	// FinishInput signals that no more audio will arrive
	FinishInput()

	// FinalizeAndAwaitCompletion blocks until every pending result has
	// been emitted and the results channel is closed
	FinalizeAndAwaitCompletion(ctx context.Context) error
}

// Engine name constants for config and CLI flags
const (
	EngineWhisperCpp = "whisper-cpp"
	EngineOpenAI     = "openai"
)

// New constructs a recognizer by name
func New(name string, cfg Config) (Recognizer, error) {
	switch name {
	case EngineWhisperCpp:
		return NewWhisperCpp(cfg), nil
	case EngineOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai engine requires an API key")
		}
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported engine: %s", name)
	}
}

// List returns the names of all built-in engines
func List() []string {
	return []string{EngineWhisperCpp, EngineOpenAI}
}
