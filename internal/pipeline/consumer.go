package pipeline

import (
	"fmt"

	"github.com/soundscribe/soundscribe/internal/engine"
	"github.com/soundscribe/soundscribe/internal/transcript"
)

// consume drains the engine's result stream until it closes. Volatile
// results may be rendered as a streaming view but are never committed;
// a final result is shaped and appended to the accumulator. The only
// coupling to the producer is the shared channel's backpressure.
func (p *Pipeline) consume(results <-chan engine.RecognitionResult) error {
	opts := transcript.Options{
		Segments:     p.cfg.JSON,
		Confidence:   p.cfg.IncludeConfidence,
		Alternatives: p.cfg.IncludeAlternatives,
	}

	for res := range results {
		if p.cfg.Stream {
			if err := p.emitStreaming(res, opts); err != nil {
				return err
			}
		}

		if !res.IsFinal {
			continue
		}
		p.acc.Append(transcript.Shape(res, opts))
	}
	return nil
}

// emitStreaming renders one result as it arrives: a standalone JSON
// object per emission, or plain text with carriage-return overwrite
// until a final result commits the line.
func (p *Pipeline) emitStreaming(res engine.RecognitionResult, opts transcript.Options) error {
	if p.cfg.JSON {
		return transcript.EncodeJSON(p.cfg.Stdout, transcript.Shape(res, opts))
	}

	if _, err := fmt.Fprintf(p.cfg.Stdout, "\r%s", res.Text); err != nil {
		return fmt.Errorf("write streaming text: %w", err)
	}
	if res.IsFinal {
		if _, err := fmt.Fprintln(p.cfg.Stdout); err != nil {
			return fmt.Errorf("write streaming text: %w", err)
		}
	}
	return nil
}
