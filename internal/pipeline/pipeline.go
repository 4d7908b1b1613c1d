// Package pipeline coordinates the streaming transcription pipeline: an
// audio-feeding producer and a result-consuming reader running
// concurrently over a bounded channel, with progress tracking, result
// accumulation, and cooperative cancellation.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"sync"

	"github.com/soundscribe/soundscribe/internal/audio"
	"github.com/soundscribe/soundscribe/internal/engine"
	"github.com/soundscribe/soundscribe/internal/locale"
	"github.com/soundscribe/soundscribe/internal/transcript"
)

type Status string

const (
	StatusIdle           Status = "idle"
	StatusResolvingModel Status = "resolving-model"
	StatusRunning        Status = "running"
	StatusDraining       Status = "draining"
	StatusDone           Status = "done"
	StatusFailed         Status = "failed"
)

// Config holds the immutable per-invocation pipeline options
type Config struct {
	InputPath string
	Locale    string

	Stream              bool
	JSON                bool
	IncludeConfidence   bool
	IncludeAlternatives bool

	OutputPath string // write plain transcript here instead of stdout

	WindowFrames  int // frames per producer window
	ChannelBuffer int // bounded channel capacity

	Stdout io.Writer
	Stderr io.Writer
}

const (
	defaultWindowFrames  = 4096
	defaultChannelBuffer = 8
)

// Pipeline is one transcription invocation. Not reusable: construct a
// new one per input file.
type Pipeline struct {
	cfg      Config
	eng      engine.Recognizer
	progress *Progress
	acc      *Accumulator

	mu     sync.Mutex
	status Status
}

func New(cfg Config, eng engine.Recognizer) *Pipeline {
	if cfg.WindowFrames <= 0 {
		cfg.WindowFrames = defaultWindowFrames
	}
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = defaultChannelBuffer
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	cfg.Locale = locale.Normalize(cfg.Locale)

	return &Pipeline{
		cfg:      cfg,
		eng:      eng,
		progress: &Progress{},
		acc:      &Accumulator{},
		status:   StatusIdle,
	}
}

func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Pipeline) setStatus(s Status) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

// Progress returns the fraction of input consumed so far
func (p *Pipeline) Progress() float64 {
	return p.progress.Value()
}

// Run executes the pipeline to completion and returns the final
// accumulated result. Any failure at any stage aborts the invocation
// and surfaces the originating error; nothing is retried.
func (p *Pipeline) Run(ctx context.Context) (transcript.Result, error) {
	result, err := p.run(ctx)
	if err != nil {
		p.setStatus(StatusFailed)
		return transcript.Result{}, err
	}
	p.setStatus(StatusDone)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context) (transcript.Result, error) {
	src, err := p.openInput()
	if err != nil {
		return transcript.Result{}, err
	}
	defer src.Close()

	p.setStatus(StatusResolvingModel)
	if err := p.resolveModel(ctx); err != nil {
		return transcript.Result{}, err
	}

	format, ok := p.eng.BestAudioFormat()
	if !ok {
		return transcript.Result{}, &FormatUnavailableError{Engine: p.eng.Name()}
	}

	ch := make(chan *audio.Buffer, p.cfg.ChannelBuffer)
	if err := p.eng.Start(ctx, ch); err != nil {
		// unstarted engine never drains the channel; close it here so
		// nothing is left waiting
		close(ch)
		return transcript.Result{}, &EngineError{Err: err}
	}

	p.setStatus(StatusRunning)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	consumerErr := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.consume(p.eng.Results()); err != nil {
			consumerErr <- err
			cancel()
		}
	}()

	prodErr := p.produce(runCtx, src, format, ch)
	if prodErr != nil {
		cancel()
	}

	// input channel is closed; tell the engine no more audio is coming
	// and wait for it to flush its remaining results
	p.eng.FinishInput()
	finalizeErr := p.eng.FinalizeAndAwaitCompletion(runCtx)

	wg.Wait()

	// a consumer failure cancels the producer; the producer's resulting
	// cancellation must not mask the error that triggered it
	select {
	case err := <-consumerErr:
		if prodErr == nil || IsCancelled(prodErr) {
			return transcript.Result{}, err
		}
		return transcript.Result{}, prodErr
	default:
	}
	if prodErr != nil {
		return transcript.Result{}, prodErr
	}
	if finalizeErr != nil {
		return transcript.Result{}, &EngineError{Err: finalizeErr}
	}

	p.setStatus(StatusDraining)
	result := p.acc.Final()

	if err := p.render(result); err != nil {
		return transcript.Result{}, err
	}
	return result, nil
}

func (p *Pipeline) openInput() (*audio.Reader, error) {
	if _, err := os.Stat(p.cfg.InputPath); os.IsNotExist(err) {
		return nil, &InputNotFoundError{Path: p.cfg.InputPath}
	}
	src, err := audio.Open(p.cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return src, nil
}

// resolveModel checks the requested locale against the engine's
// supported and installed sets, downloading the model if needed. The
// download is long-running and only best-effort cancellable.
func (p *Pipeline) resolveModel(ctx context.Context) error {
	supported, err := p.eng.SupportedLocales(ctx)
	if err != nil {
		return &EngineError{Err: err}
	}
	if len(supported) == 0 {
		return ErrNoModelsAvailable
	}
	if !slices.Contains(supported, p.cfg.Locale) {
		return &LocaleUnsupportedError{Locale: p.cfg.Locale, Engine: p.eng.Name()}
	}

	installed, err := p.eng.InstalledLocales(ctx)
	if err != nil {
		return &EngineError{Err: err}
	}
	if slices.Contains(installed, p.cfg.Locale) {
		return nil
	}

	log.Printf("pipeline: model for %s not installed, downloading", p.cfg.Locale)
	req, err := p.eng.RequestInstall(ctx, p.cfg.Locale)
	if err != nil {
		return &EngineError{Err: err}
	}

	lastReported := -1
	onProgress := func(downloaded, total int64) {
		if total <= 0 {
			return
		}
		pct := int(downloaded * 100 / total)
		if pct%10 == 0 && pct != lastReported {
			log.Printf("pipeline: downloading model %d%%", pct)
			lastReported = pct
		}
	}
	if err := p.eng.Download(ctx, req, onProgress); err != nil {
		return &EngineError{Err: err}
	}
	log.Printf("pipeline: model for %s installed", p.cfg.Locale)
	return nil
}

// render writes the final result per config. Streaming modes already
// emitted everything; plain mode prints the bare transcript (or writes
// it to the output file), JSON mode prints one sorted-key object.
func (p *Pipeline) render(result transcript.Result) error {
	switch {
	case p.cfg.Stream:
		return nil
	case p.cfg.JSON:
		return transcript.EncodeJSON(p.cfg.Stdout, result)
	case p.cfg.OutputPath != "":
		if err := os.WriteFile(p.cfg.OutputPath, []byte(result.Text), 0644); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
		return nil
	default:
		if result.Text == "" {
			return nil
		}
		if _, err := fmt.Fprintln(p.cfg.Stdout, result.Text); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
		return nil
	}
}
