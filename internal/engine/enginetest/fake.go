// Package enginetest provides a scripted Recognizer for pipeline tests:
// it replays a fixed result stream against a fixed locale catalog,
// decoupling pipeline logic from any real recognition model.
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/soundscribe/soundscribe/internal/audio"
	"github.com/soundscribe/soundscribe/internal/engine"
)

// Fake is a Recognizer that records what it is fed and replays a
// scripted result stream once its input channel closes. The zero value
// is not usable; use New.
type Fake struct {
	Supported []string
	Installed []string
	Script    []engine.RecognitionResult

	// optional failure injection
	StartErr    error
	DownloadErr error
	FinalizeErr error

	Format audio.Format

	mu             sync.Mutex
	received       []*audio.Buffer
	installLocales []string
	finishCalled   bool

	results chan engine.RecognitionResult
	drained chan struct{}
}

func New() *Fake {
	return &Fake{
		Supported: []string{"en-US"},
		Installed: []string{"en-US"},
		Format:    audio.Format{SampleRate: 16000, Channels: 1},
		results:   make(chan engine.RecognitionResult),
		drained:   make(chan struct{}),
	}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) SupportedLocales(ctx context.Context) ([]string, error) {
	return f.Supported, nil
}

func (f *Fake) InstalledLocales(ctx context.Context) ([]string, error) {
	return f.Installed, nil
}

func (f *Fake) RequestInstall(ctx context.Context, localeID string) (*engine.InstallRequest, error) {
	f.mu.Lock()
	f.installLocales = append(f.installLocales, localeID)
	f.mu.Unlock()
	return &engine.InstallRequest{Locale: localeID, Asset: "fake.bin", SizeBytes: 1024}, nil
}

func (f *Fake) Download(ctx context.Context, req *engine.InstallRequest, onProgress engine.DownloadProgressFunc) error {
	if f.DownloadErr != nil {
		return f.DownloadErr
	}
	if req == nil {
		return fmt.Errorf("nil install request")
	}
	if onProgress != nil {
		onProgress(req.SizeBytes, req.SizeBytes)
	}
	f.mu.Lock()
	f.Installed = append(f.Installed, req.Locale)
	f.mu.Unlock()
	return nil
}

func (f *Fake) BestAudioFormat() (audio.Format, bool) {
	if f.Format.SampleRate == 0 {
		return audio.Format{}, false
	}
	return f.Format, true
}

func (f *Fake) Start(ctx context.Context, input <-chan *audio.Buffer) error {
	if f.StartErr != nil {
		return f.StartErr
	}
	go func() {
		defer close(f.drained)
		for buf := range input {
			f.mu.Lock()
			f.received = append(f.received, buf)
			f.mu.Unlock()
		}
		// input finished: replay the script, then end the stream
		defer close(f.results)
		for _, res := range f.Script {
			select {
			case f.results <- res:
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (f *Fake) Results() <-chan engine.RecognitionResult {
	return f.results
}

func (f *Fake) FinishInput() {
	f.mu.Lock()
	f.finishCalled = true
	f.mu.Unlock()
}

func (f *Fake) FinalizeAndAwaitCompletion(ctx context.Context) error {
	select {
	case <-f.drained:
	case <-ctx.Done():
		return ctx.Err()
	}
	return f.FinalizeErr
}

// ReceivedBuffers returns the buffers fed to the engine so far
func (f *Fake) ReceivedBuffers() []*audio.Buffer {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*audio.Buffer, len(f.received))
	copy(out, f.received)
	return out
}

// InstallRequests returns the locales install was requested for
func (f *Fake) InstallRequests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.installLocales))
	copy(out, f.installLocales)
	return out
}

// FinishInputCalled reports whether the pipeline signalled end of input
func (f *Fake) FinishInputCalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finishCalled
}
