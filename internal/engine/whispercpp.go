package engine

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/soundscribe/soundscribe/internal/audio"
	"github.com/soundscribe/soundscribe/internal/locale"
	"github.com/soundscribe/soundscribe/internal/models/speech"
)

// WhisperCpp is the on-device engine backed by a local whisper.cpp
// install. Audio is collected from the input channel and handed to
// whisper-cli in one shot at finalization, so every result it emits is
// final; there are no volatile partials.
type WhisperCpp struct {
	cfg     Config
	results chan RecognitionResult

	mu      sync.Mutex
	samples []int16
	format  audio.Format

	wg sync.WaitGroup
}

func NewWhisperCpp(cfg Config) *WhisperCpp {
	return &WhisperCpp{
		cfg:     cfg,
		results: make(chan RecognitionResult, 16),
	}
}

func (e *WhisperCpp) Name() string { return EngineWhisperCpp }

func (e *WhisperCpp) SupportedLocales(ctx context.Context) ([]string, error) {
	return speech.SupportedLocales(), nil
}

func (e *WhisperCpp) InstalledLocales(ctx context.Context) ([]string, error) {
	return speech.InstalledLocales(e.cfg.Fast), nil
}

func (e *WhisperCpp) RequestInstall(ctx context.Context, localeID string) (*InstallRequest, error) {
	info := speech.ModelForLocale(localeID)
	if info == nil {
		return nil, fmt.Errorf("no model for locale: %s", localeID)
	}
	name := info.Filename
	size := info.SizeBytes
	if e.cfg.Fast {
		name = info.FastFilename
		size = info.FastSizeBytes
	}
	return &InstallRequest{Locale: localeID, Asset: name, SizeBytes: size}, nil
}

func (e *WhisperCpp) Download(ctx context.Context, req *InstallRequest, onProgress DownloadProgressFunc) error {
	if req == nil {
		return fmt.Errorf("nil install request")
	}
	return speech.Download(ctx, req.Locale, e.cfg.Fast, speech.ProgressFunc(onProgress))
}

func (e *WhisperCpp) BestAudioFormat() (audio.Format, bool) {
	// whisper models are trained on 16 kHz mono
	return audio.Format{SampleRate: 16000, Channels: 1}, true
}

func (e *WhisperCpp) Start(ctx context.Context, input <-chan *audio.Buffer) error {
	if _, err := exec.LookPath("whisper-cli"); err != nil {
		return fmt.Errorf("whisper-cli not found: %w (install whisper.cpp)", err)
	}

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

func (e *WhisperCpp) Results() <-chan RecognitionResult {
	return e.results
}

// FinishInput is a no-op: end of input is signalled by closing the
// input channel, which ends the collector goroutine.
func (e *WhisperCpp) FinishInput() {}

func (e *WhisperCpp) FinalizeAndAwaitCompletion(ctx context.Context) error {
	// input channel must be closed by now; wait for the collector
	e.wg.Wait()
	defer close(e.results)

	e.mu.Lock()
	samples := e.samples
	format := e.format
	e.mu.Unlock()

	if len(samples) == 0 {
		return nil
	}

	text, err := e.runWhisperCli(ctx, samples, format)
	if err != nil {
		return err
	}

	for _, res := range parseWhisperOutput(text) {
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

func (e *WhisperCpp) runWhisperCli(ctx context.Context, samples []int16, format audio.Format) (string, error) {
	modelPath := speech.PathFor(e.cfg.Locale, e.cfg.Fast)
	if modelPath == "" {
		return "", fmt.Errorf("no model for locale: %s", e.cfg.Locale)
	}
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return "", fmt.Errorf("model file not found: %s", modelPath)
	}

	wavData := audio.EncodeWAV(&audio.Buffer{Format: format, Samples: samples})
	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("soundscribe-%d.wav", time.Now().UnixNano()))
	if err := os.WriteFile(tmpFile, wavData, 0600); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	defer os.Remove(tmpFile)

	args := []string{
		"-m", modelPath,
		"-l", locale.LanguageCode(e.cfg.Locale),
		"-np", // no progress
		"-f", tmpFile,
	}

	cmd := exec.CommandContext(ctx, "whisper-cli", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Printf("whisper-cpp: command failed after %v: %v\nstderr: %s", duration, err, stderr.String())
		return "", fmt.Errorf("whisper-cli failed: %w", err)
	}

	log.Printf("whisper-cpp: recognized %d frames in %v", len(samples)/format.Channels, duration)
	return stdout.String(), nil
}

// whisper-cli line format: [00:00:00.000 --> 00:00:02.560]   text
var whisperLineRe = regexp.MustCompile(`^\[(\d{2}):(\d{2}):(\d{2})\.(\d{3}) --> (\d{2}):(\d{2}):(\d{2})\.(\d{3})\]\s{2}(.*)$`)

// parseWhisperOutput turns whisper-cli stdout into one final result per
// timestamped line. Lines without timestamps are folded into a single
// untimed result.
func parseWhisperOutput(out string) []RecognitionResult {
	var results []RecognitionResult
	var untimed []string

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		m := whisperLineRe.FindStringSubmatch(line)
		if m == nil {
			untimed = append(untimed, strings.TrimSpace(line))
			continue
		}

		start := timestampSeconds(m[1], m[2], m[3], m[4])
		end := timestampSeconds(m[5], m[6], m[7], m[8])
		duration := end - start

		// keep whisper's leading space so concatenated finals stay word-separated
		text := " " + strings.TrimSpace(m[9])
		results = append(results, RecognitionResult{
			Text:    text,
			IsFinal: true,
			Runs: []Run{{
				Text:     text,
				Start:    &start,
				Duration: &duration,
			}},
		})
	}

	if len(untimed) > 0 {
		text := strings.Join(untimed, " ")
		results = append(results, RecognitionResult{
			Text:    text,
			IsFinal: true,
			Runs:    []Run{{Text: text}},
		})
	}
	return results
}

func timestampSeconds(h, m, s, ms string) float64 {
	hi, _ := strconv.Atoi(h)
	mi, _ := strconv.Atoi(m)
	si, _ := strconv.Atoi(s)
	msi, _ := strconv.Atoi(ms)
	return float64(hi*3600+mi*60+si) + float64(msi)/1000
}

var digitRunRe = regexp.MustCompile(`\d[\d\s\-.,]{2,}\d|\d+`)

// redactResult masks digit runs, keeping spans like card and phone
// numbers out of committed transcripts
func redactResult(res RecognitionResult) RecognitionResult {
	mask := func(s string) string {
		return digitRunRe.ReplaceAllStringFunc(s, func(m string) string {
			return strings.Repeat("#", len(m))
		})
	}
	res.Text = mask(res.Text)
	for i := range res.Runs {
		res.Runs[i].Text = mask(res.Runs[i].Text)
	}
	for i := range res.Alternatives {
		res.Alternatives[i] = mask(res.Alternatives[i])
	}
	return res
}
