package engine

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/soundscribe/soundscribe/internal/audio"
	"github.com/soundscribe/soundscribe/internal/locale"
)

// OpenAI is the cloud fallback engine backed by the Whisper API. Like
// the local engine it recognizes in one shot at finalization; segment
// timing comes from the verbose JSON response and confidence is derived
// from the segment's average log probability.
type OpenAI struct {
	cfg     Config
	client  *openai.Client
	results chan RecognitionResult

	mu      sync.Mutex
	samples []int16
	format  audio.Format

	wg sync.WaitGroup
}

func NewOpenAI(cfg Config) *OpenAI {
	return &OpenAI{
		cfg:     cfg,
		client:  openai.NewClient(cfg.APIKey),
		results: make(chan RecognitionResult, 16),
	}
}

func (e *OpenAI) Name() string { return EngineOpenAI }

func (e *OpenAI) SupportedLocales(ctx context.Context) ([]string, error) {
	// the API recognizes every catalog language; no per-locale assets
	return locale.IDs(), nil
}

func (e *OpenAI) InstalledLocales(ctx context.Context) ([]string, error) {
	// nothing to install for a cloud engine
	return locale.IDs(), nil
}

func (e *OpenAI) RequestInstall(ctx context.Context, localeID string) (*InstallRequest, error) {
	return nil, fmt.Errorf("openai engine has no installable models")
}

func (e *OpenAI) Download(ctx context.Context, req *InstallRequest, onProgress DownloadProgressFunc) error {
	return fmt.Errorf("openai engine has no installable models")
}

func (e *OpenAI) BestAudioFormat() (audio.Format, bool) {
	return audio.Format{SampleRate: 16000, Channels: 1}, true
}

func (e *OpenAI) Start(ctx context.Context, input <-chan *audio.Buffer) error {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for buf := range input {
			e.mu.Lock()
			e.format = buf.Format
			e.samples = append(e.samples, buf.Samples...)
			e.mu.Unlock()
		}
	}()
	return nil
}

func (e *OpenAI) Results() <-chan RecognitionResult {
	return e.results
}

func (e *OpenAI) FinishInput() {}

func (e *OpenAI) FinalizeAndAwaitCompletion(ctx context.Context) error {
	e.wg.Wait()
	defer close(e.results)

	e.mu.Lock()
	samples := e.samples
	format := e.format
	e.mu.Unlock()

	if len(samples) == 0 {
		return nil
	}

	wavData := audio.EncodeWAV(&audio.Buffer{Format: format, Samples: samples})

	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(wavData),
		FilePath: "audio.wav",
		Language: locale.LanguageCode(e.cfg.Locale),
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	start := time.Now()
	resp, err := e.client.CreateTranscription(ctx, req)
	if err != nil {
		log.Printf("openai: API call failed after %v: %v", time.Since(start), err)
		return fmt.Errorf("openai transcription: %w", err)
	}
	log.Printf("openai: transcribed %d bytes in %v", len(wavData), time.Since(start))

	for _, res := range shapeOpenAIResponse(resp) {
		if e.cfg.Redact {
			res = redactResult(res)
		}
		select {
		case e.results <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// shapeOpenAIResponse maps verbose-JSON segments onto final results,
// one per segment so the consumer sees the same cadence as a streaming
// engine. A response without segments becomes a single untimed result.
func shapeOpenAIResponse(resp openai.AudioResponse) []RecognitionResult {
	if len(resp.Segments) == 0 {
		if resp.Text == "" {
			return nil
		}
		return []RecognitionResult{{
			Text:    resp.Text,
			IsFinal: true,
			Runs:    []Run{{Text: resp.Text}},
		}}
	}

	results := make([]RecognitionResult, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		start := seg.Start
		duration := seg.End - seg.Start
		confidence := math.Exp(seg.AvgLogprob)
		if confidence > 1 {
			confidence = 1
		}
		results = append(results, RecognitionResult{
			Text:    seg.Text,
			IsFinal: true,
			Runs: []Run{{
				Text:       seg.Text,
				Start:      &start,
				Duration:   &duration,
				Confidence: &confidence,
			}},
		})
	}
	return results
}
