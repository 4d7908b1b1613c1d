// Package transcript holds the structured transcription output: timed
// segments, alternative readings, and the deterministic JSON rendering
// downstream callers parse byte-for-byte.
package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/soundscribe/soundscribe/internal/engine"
)

// Segment is one committed, non-empty run of transcript text. Optional
// fields are omitted from JSON when absent. Struct fields are declared
// in sorted key order so encoding/json emits sorted, byte-stable keys.
type Segment struct {
	Confidence *float64 `json:"confidence,omitempty"`
	Duration   *float64 `json:"duration,omitempty"`
	Start      *float64 `json:"start,omitempty"`
	Text       string   `json:"text"`
}

// Result is the aggregate transcription output, or one fragment of it
// when shaped from a single recognition result. Field order follows the
// sorted-keys contract, same as Segment.
type Result struct {
	Alternatives []string  `json:"alternatives,omitempty"`
	Segments     []Segment `json:"segments"`
	Text         string    `json:"text"`
}

// Options controls which attributes result shaping extracts
type Options struct {
	Segments     bool // build the segment list from the result's runs
	Confidence   bool // carry per-run confidence when present
	Alternatives bool // carry alternative readings
}

// Shape converts one recognition result into a Result fragment.
// Whitespace-only runs never become segments.
func Shape(res engine.RecognitionResult, opts Options) Result {
	frag := Result{Text: res.Text}

	if opts.Segments {
		for _, run := range res.Runs {
			if strings.TrimSpace(run.Text) == "" {
				continue
			}
			seg := Segment{
				Text:     run.Text,
				Start:    run.Start,
				Duration: run.Duration,
			}
			if opts.Confidence {
				seg.Confidence = run.Confidence
			}
			frag.Segments = append(frag.Segments, seg)
		}
	}

	if opts.Alternatives && len(res.Alternatives) > 0 {
		frag.Alternatives = append([]string(nil), res.Alternatives...)
	}

	return frag
}

// EncodeJSON writes the result as a single JSON object followed by a
// newline. Keys arrive sorted via field declaration order, so two runs
// over the same input produce byte-identical output.
func EncodeJSON(w io.Writer, r Result) error {
	if r.Segments == nil {
		r.Segments = []Segment{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
