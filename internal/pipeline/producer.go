package pipeline

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/soundscribe/soundscribe/internal/audio"
)

// produce reads the input file in fixed-size frame windows, converts
// each window to the engine's format, and publishes it to the bounded
// channel. It owns the channel's close: completion is signalled exactly
// once, on every exit path, after the last published chunk.
//
// Cancellation is checked at the top of every iteration and surfaces as
// ErrCancelled. A conversion failure aborts the current chunk and the
// whole pipeline; there is no retry.
func (p *Pipeline) produce(ctx context.Context, src *audio.Reader, target audio.Format, out chan<- *audio.Buffer) error {
	defer close(out)

	conv := audio.NewConverter()
	total := src.TotalFrames()
	if total == 0 {
		p.progress.Set(1.0)
		return nil
	}

	window := int64(p.cfg.WindowFrames)
	lastReported := -1

	for src.FramesRead() < total {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}

		n := window
		if remaining := total - src.FramesRead(); remaining < n {
			n = remaining
		}

		buf, err := src.ReadFrames(int(n))
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}

		converted, err := conv.Convert(buf, target)
		if err != nil {
			return &ConversionError{Err: err}
		}

		select {
		case out <- converted:
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}

		fraction := float64(src.FramesRead()) / float64(total)
		p.progress.Set(fraction)

		// throttled reporting: only whole multiples of 10 percent, each
		// at most once. Cosmetic; the tracked value above is exact.
		pct := int(math.Round(fraction * 100))
		if pct%10 == 0 && pct != lastReported {
			log.Printf("pipeline: transcribing %d%%", pct)
			lastReported = pct
		}
	}

	return nil
}
