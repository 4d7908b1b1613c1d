package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soundscribe/soundscribe/internal/audio"
	"github.com/soundscribe/soundscribe/internal/engine"
	"github.com/soundscribe/soundscribe/internal/engine/enginetest"
	"github.com/soundscribe/soundscribe/internal/transcript"
)

func writeWAV(t *testing.T, format audio.Format, frames int) string {
	t.Helper()
	samples := make([]int16, frames*format.Channels)
	for i := range samples {
		samples[i] = int16(i % 100)
	}
	path := filepath.Join(t.TempDir(), "input.wav")
	data := audio.EncodeWAV(&audio.Buffer{Format: format, Samples: samples})
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return path
}

func final(text string) engine.RecognitionResult {
	return engine.RecognitionResult{Text: text, IsFinal: true}
}

func volatileRes(text string) engine.RecognitionResult {
	return engine.RecognitionResult{Text: text, IsFinal: false}
}

func TestRunBatchPlainText(t *testing.T) {
	eng := enginetest.New()
	eng.Script = []engine.RecognitionResult{final("hello"), final(" world")}

	var stdout bytes.Buffer
	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 8192),
		Locale:    "en-US",
		Stdout:    &stdout,
	}, eng)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Text != "hello world" {
		t.Errorf("Text = %q, want %q", result.Text, "hello world")
	}
	if stdout.String() != "hello world\n" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "hello world\n")
	}
	if p.Status() != StatusDone {
		t.Errorf("Status() = %s, want %s", p.Status(), StatusDone)
	}
	if p.Progress() != 1.0 {
		t.Errorf("Progress() = %v, want 1.0", p.Progress())
	}
	if !eng.FinishInputCalled() {
		t.Errorf("engine never told input is finished")
	}
}

func TestRunFeedsEngineFormat(t *testing.T) {
	eng := enginetest.New()
	eng.Format = audio.Format{SampleRate: 16000, Channels: 1}

	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 44100, Channels: 2}, 9000),
		Locale:    "en-US",
		Stdout:    &bytes.Buffer{},
	}, eng)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	buffers := eng.ReceivedBuffers()
	if len(buffers) == 0 {
		t.Fatal("engine received no audio")
	}
	for i, buf := range buffers {
		if buf.Format != eng.Format {
			t.Errorf("buffer %d format = %+v, want %+v", i, buf.Format, eng.Format)
		}
	}
}

func TestRunWindowing(t *testing.T) {
	eng := enginetest.New()

	// 10000 frames at window 4096: expect windows of 4096, 4096, 1808
	p := New(Config{
		InputPath:    writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 10000),
		Locale:       "en-US",
		WindowFrames: 4096,
		Stdout:       &bytes.Buffer{},
	}, eng)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	buffers := eng.ReceivedBuffers()
	if len(buffers) != 3 {
		t.Fatalf("got %d buffers, want 3", len(buffers))
	}
	wantFrames := []int{4096, 4096, 1808}
	for i, buf := range buffers {
		if buf.Frames() != wantFrames[i] {
			t.Errorf("buffer %d frames = %d, want %d", i, buf.Frames(), wantFrames[i])
		}
	}
}

func TestRunEmptyInput(t *testing.T) {
	eng := enginetest.New()

	var stdout bytes.Buffer
	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 0),
		Locale:    "en-US",
		Stdout:    &stdout,
	}, eng)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Text != "" {
		t.Errorf("Text = %q, want empty", result.Text)
	}
	// empty transcript prints nothing, not an empty line
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want no output", stdout.String())
	}
	if p.Progress() != 1.0 {
		t.Errorf("Progress() = %v, want 1.0", p.Progress())
	}
}

func TestRunVolatileResultsNotCommitted(t *testing.T) {
	eng := enginetest.New()
	eng.Script = []engine.RecognitionResult{
		volatileRes("hel"),
		volatileRes("hell"),
		final("hello"),
	}

	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 4096),
		Locale:    "en-US",
		Stdout:    &bytes.Buffer{},
	}, eng)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Text != "hello" {
		t.Errorf("Text = %q, want %q (volatiles must not accumulate)", result.Text, "hello")
	}
}

func TestRunStreamPlain(t *testing.T) {
	eng := enginetest.New()
	eng.Script = []engine.RecognitionResult{
		volatileRes("hel"),
		final("hello"),
	}

	var stdout bytes.Buffer
	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 4096),
		Locale:    "en-US",
		Stream:    true,
		Stdout:    &stdout,
	}, eng)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// volatile overwrites in place, final commits the line; the batch
	// renderer must stay silent in streaming mode
	expected := "\rhel\rhello\n"
	if stdout.String() != expected {
		t.Errorf("stdout = %q, want %q", stdout.String(), expected)
	}
}

func TestRunStreamJSON(t *testing.T) {
	eng := enginetest.New()
	eng.Script = []engine.RecognitionResult{
		volatileRes("hel"),
		final("hello"),
	}

	var stdout bytes.Buffer
	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 4096),
		Locale:    "en-US",
		Stream:    true,
		JSON:      true,
		Stdout:    &stdout,
	}, eng)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d JSON objects, want 2: %q", len(lines), stdout.String())
	}
	if lines[0] != `{"segments":[],"text":"hel"}` {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != `{"segments":[],"text":"hello"}` {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestRunBatchJSON(t *testing.T) {
	start, duration := 0.0, 2.5
	eng := enginetest.New()
	eng.Script = []engine.RecognitionResult{{
		Text:    " hi",
		IsFinal: true,
		Runs:    []engine.Run{{Text: " hi", Start: &start, Duration: &duration}},
	}}

	var stdout bytes.Buffer
	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 4096),
		Locale:    "en-US",
		JSON:      true,
		Stdout:    &stdout,
	}, eng)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	expected := `{"segments":[{"duration":2.5,"start":0,"text":" hi"}],"text":"hi"}` + "\n"
	if stdout.String() != expected {
		t.Errorf("stdout = %q, want %q", stdout.String(), expected)
	}
}

func TestRunOutputFile(t *testing.T) {
	eng := enginetest.New()
	eng.Script = []engine.RecognitionResult{final("saved text")}

	outPath := filepath.Join(t.TempDir(), "out.txt")
	var stdout bytes.Buffer
	p := New(Config{
		InputPath:  writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 4096),
		Locale:     "en-US",
		OutputPath: outPath,
		Stdout:     &stdout,
	}, eng)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output file: %v", err)
	}
	if string(data) != "saved text" {
		t.Errorf("file content = %q, want %q", string(data), "saved text")
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want no output when writing to a file", stdout.String())
	}
}

func TestRunInputNotFound(t *testing.T) {
	p := New(Config{
		InputPath: "/nonexistent/audio.wav",
		Locale:    "en-US",
		Stdout:    &bytes.Buffer{},
	}, enginetest.New())

	_, err := p.Run(context.Background())
	var notFound *InputNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Run() error = %v, want *InputNotFoundError", err)
	}
	if err.Error() != "Input file not found: /nonexistent/audio.wav" {
		t.Errorf("Error() = %q", err.Error())
	}
	if p.Status() != StatusFailed {
		t.Errorf("Status() = %s, want %s", p.Status(), StatusFailed)
	}
}

func TestRunLocaleUnsupported(t *testing.T) {
	eng := enginetest.New() // supports en-US only

	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 128),
		Locale:    "de-DE",
		Stdout:    &bytes.Buffer{},
	}, eng)

	_, err := p.Run(context.Background())
	var unsupported *LocaleUnsupportedError
	if !errors.As(err, &unsupported) {
		t.Fatalf("Run() error = %v, want *LocaleUnsupportedError", err)
	}
	if unsupported.Locale != "de-DE" || unsupported.Engine != "fake" {
		t.Errorf("error fields = %+v", unsupported)
	}
}

func TestRunNoModelsAvailable(t *testing.T) {
	eng := enginetest.New()
	eng.Supported = nil

	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 128),
		Locale:    "en-US",
		Stdout:    &bytes.Buffer{},
	}, eng)

	_, err := p.Run(context.Background())
	if !errors.Is(err, ErrNoModelsAvailable) {
		t.Errorf("Run() error = %v, want ErrNoModelsAvailable", err)
	}
}

func TestRunDownloadsMissingModel(t *testing.T) {
	eng := enginetest.New()
	eng.Installed = nil // supported but not installed

	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 128),
		Locale:    "en-US",
		Stdout:    &bytes.Buffer{},
	}, eng)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	requests := eng.InstallRequests()
	if len(requests) != 1 || requests[0] != "en-US" {
		t.Errorf("install requests = %v, want [en-US]", requests)
	}
}

func TestRunDownloadFailure(t *testing.T) {
	eng := enginetest.New()
	eng.Installed = nil
	eng.DownloadErr = fmt.Errorf("network unreachable")

	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 128),
		Locale:    "en-US",
		Stdout:    &bytes.Buffer{},
	}, eng)

	_, err := p.Run(context.Background())
	var engErr *EngineError
	if !errors.As(err, &engErr) {
		t.Fatalf("Run() error = %v, want *EngineError", err)
	}
	if !strings.Contains(err.Error(), "network unreachable") {
		t.Errorf("Error() = %q, should carry the cause", err.Error())
	}
}

func TestRunEngineStartFailure(t *testing.T) {
	eng := enginetest.New()
	eng.StartErr = fmt.Errorf("engine exploded")

	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 128),
		Locale:    "en-US",
		Stdout:    &bytes.Buffer{},
	}, eng)

	_, err := p.Run(context.Background())
	var engErr *EngineError
	if !errors.As(err, &engErr) {
		t.Fatalf("Run() error = %v, want *EngineError", err)
	}
	if p.Status() != StatusFailed {
		t.Errorf("Status() = %s, want %s", p.Status(), StatusFailed)
	}
}

func TestRunFinalizeFailure(t *testing.T) {
	eng := enginetest.New()
	eng.FinalizeErr = fmt.Errorf("flush failed")

	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 128),
		Locale:    "en-US",
		Stdout:    &bytes.Buffer{},
	}, eng)

	_, err := p.Run(context.Background())
	var engErr *EngineError
	if !errors.As(err, &engErr) {
		t.Fatalf("Run() error = %v, want *EngineError", err)
	}
}

func TestRunFormatUnavailable(t *testing.T) {
	eng := enginetest.New()
	eng.Format = audio.Format{}

	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 128),
		Locale:    "en-US",
		Stdout:    &bytes.Buffer{},
	}, eng)

	_, err := p.Run(context.Background())
	var formatErr *FormatUnavailableError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Run() error = %v, want *FormatUnavailableError", err)
	}
}

func TestRunCancellation(t *testing.T) {
	eng := enginetest.New()

	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 8192),
		Locale:    "en-US",
		Stdout:    &bytes.Buffer{},
	}, eng)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	if !IsCancelled(err) {
		t.Errorf("Run() error = %v, want cancellation", err)
	}
	if p.Status() != StatusFailed {
		t.Errorf("Status() = %s, want %s", p.Status(), StatusFailed)
	}
}

func TestRunConsumerWriteFailure(t *testing.T) {
	eng := enginetest.New()
	eng.Script = []engine.RecognitionResult{final("hello")}

	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 128),
		Locale:    "en-US",
		Stream:    true,
		Stdout:    &failingWriter{},
	}, eng)

	_, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should surface the consumer's write error")
	}
	if !strings.Contains(err.Error(), "write streaming text") {
		t.Errorf("Error() = %q", err.Error())
	}
}

type failingWriter struct{}

func (*failingWriter) Write([]byte) (int, error) {
	return 0, fmt.Errorf("broken pipe")
}

// echoEngine emits one final result per buffer while input is still
// being produced, unlike the scripted fake which replays only after
// the input channel closes.
type echoEngine struct {
	results chan engine.RecognitionResult
	done    chan struct{}
}

func newEchoEngine() *echoEngine {
	return &echoEngine{
		results: make(chan engine.RecognitionResult),
		done:    make(chan struct{}),
	}
}

func (e *echoEngine) Name() string { return "echo" }

func (e *echoEngine) SupportedLocales(ctx context.Context) ([]string, error) {
	return []string{"en-US"}, nil
}

func (e *echoEngine) InstalledLocales(ctx context.Context) ([]string, error) {
	return []string{"en-US"}, nil
}

func (e *echoEngine) RequestInstall(ctx context.Context, localeID string) (*engine.InstallRequest, error) {
	return nil, nil
}

func (e *echoEngine) Download(ctx context.Context, req *engine.InstallRequest, onProgress engine.DownloadProgressFunc) error {
	return nil
}

func (e *echoEngine) BestAudioFormat() (audio.Format, bool) {
	return audio.Format{SampleRate: 16000, Channels: 1}, true
}

func (e *echoEngine) Start(ctx context.Context, input <-chan *audio.Buffer) error {
	go func() {
		defer close(e.done)
		defer close(e.results)
		for range input {
			select {
			case e.results <- final("chunk"):
			case <-ctx.Done():
				// keep draining input so the producer can finish
			}
		}
	}()
	return nil
}

func (e *echoEngine) Results() <-chan engine.RecognitionResult {
	return e.results
}

func (e *echoEngine) FinishInput() {}

func (e *echoEngine) FinalizeAndAwaitCompletion(ctx context.Context) error {
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestRunConsumerFailureMidProduction(t *testing.T) {
	// the consumer fails on the first result while the producer is
	// still feeding windows; the producer then unwinds with a
	// cancellation that must not mask the consumer's error
	p := New(Config{
		InputPath:     writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 64*20),
		Locale:        "en-US",
		Stream:        true,
		WindowFrames:  64,
		ChannelBuffer: 1,
		Stdout:        &failingWriter{},
	}, newEchoEngine())

	_, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should surface the consumer's write error")
	}
	if IsCancelled(err) {
		t.Errorf("Run() error = %v, consumer error masked by cancellation", err)
	}
	if !strings.Contains(err.Error(), "write streaming text") {
		t.Errorf("Error() = %q, want the consumer's write error", err.Error())
	}
}

func TestRunNormalizesLocale(t *testing.T) {
	eng := enginetest.New()
	eng.Script = []engine.RecognitionResult{final("ok")}

	p := New(Config{
		InputPath: writeWAV(t, audio.Format{SampleRate: 16000, Channels: 1}, 128),
		Locale:    "en_us",
		Stdout:    &bytes.Buffer{},
	}, eng)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v (locale should normalize to en-US)", err)
	}
}

func TestAccumulator(t *testing.T) {
	t.Run("concatenates in order", func(t *testing.T) {
		var acc Accumulator
		acc.Append(transcript.Result{Text: "one"})
		acc.Append(transcript.Result{Text: " two"})
		acc.Append(transcript.Result{Text: " three"})

		if got := acc.Final().Text; got != "one two three" {
			t.Errorf("Text = %q, want %q", got, "one two three")
		}
	})

	t.Run("trims aggregate text", func(t *testing.T) {
		var acc Accumulator
		acc.Append(transcript.Result{Text: " padded "})

		if got := acc.Final().Text; got != "padded" {
			t.Errorf("Text = %q, want %q", got, "padded")
		}
	})

	t.Run("empty accumulator", func(t *testing.T) {
		var acc Accumulator
		res := acc.Final()
		if res.Text != "" {
			t.Errorf("Text = %q, want empty", res.Text)
		}
		if res.Segments == nil {
			t.Errorf("Segments should be non-nil for JSON rendering")
		}
		if res.Alternatives != nil {
			t.Errorf("Alternatives should stay absent: %v", res.Alternatives)
		}
	})

	t.Run("collects segments and alternatives", func(t *testing.T) {
		var acc Accumulator
		acc.Append(transcript.Result{
			Text:         "a",
			Segments:     []transcript.Segment{{Text: "a"}},
			Alternatives: []string{"alpha"},
		})
		acc.Append(transcript.Result{
			Text:     " b",
			Segments: []transcript.Segment{{Text: " b"}},
		})

		res := acc.Final()
		if len(res.Segments) != 2 {
			t.Errorf("got %d segments, want 2", len(res.Segments))
		}
		if len(res.Alternatives) != 1 || res.Alternatives[0] != "alpha" {
			t.Errorf("Alternatives = %v", res.Alternatives)
		}
	})
}

func TestProgress(t *testing.T) {
	var p Progress
	if p.Value() != 0 {
		t.Errorf("zero value = %v, want 0", p.Value())
	}
	p.Set(0.5)
	if p.Value() != 0.5 {
		t.Errorf("Value() = %v, want 0.5", p.Value())
	}
}

func TestNewDefaults(t *testing.T) {
	p := New(Config{InputPath: "x.wav", Locale: "en-US"}, enginetest.New())
	if p.cfg.WindowFrames != defaultWindowFrames {
		t.Errorf("WindowFrames = %d, want %d", p.cfg.WindowFrames, defaultWindowFrames)
	}
	if p.cfg.ChannelBuffer != defaultChannelBuffer {
		t.Errorf("ChannelBuffer = %d, want %d", p.cfg.ChannelBuffer, defaultChannelBuffer)
	}
	if p.Status() != StatusIdle {
		t.Errorf("Status() = %s, want %s", p.Status(), StatusIdle)
	}
}

func TestIsCancelled(t *testing.T) {
	if !IsCancelled(fmt.Errorf("wrap: %w", ErrCancelled)) {
		t.Errorf("wrapped ErrCancelled not detected")
	}
	if IsCancelled(fmt.Errorf("other")) {
		t.Errorf("unrelated error reported as cancellation")
	}
	if IsCancelled(nil) {
		t.Errorf("nil reported as cancellation")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")

	var convErr error = &ConversionError{Err: cause}
	if !errors.Is(convErr, cause) {
		t.Errorf("ConversionError does not unwrap to its cause")
	}

	var engErr error = &EngineError{Err: cause}
	if !errors.Is(engErr, cause) {
		t.Errorf("EngineError does not unwrap to its cause")
	}
}
