package audio

import (
	"errors"
	"fmt"
)

// inputStatus is what a feed callback reports to the resampler.
type inputStatus int

const (
	statusHaveData inputStatus = iota
	statusEndOfStream
)

// feedFunc supplies source audio to the resampler on demand. It must
// return statusHaveData with a buffer exactly once and statusEndOfStream
// on every later invocation within the same convert call; a feed that
// keeps reporting data makes the pull loop spin forever.
type feedFunc func() (*Buffer, inputStatus)

var errConverterStalled = errors.New("converter stalled: feed callback never signalled end of stream")

// resampler converts audio between two fixed formats: channel downmix or
// upmix first, then linear-interpolation rate conversion.
type resampler struct {
	src Format
	dst Format
}

func newResampler(src, dst Format) *resampler {
	return &resampler{src: src, dst: dst}
}

// convert pulls source audio through feed and produces at most outFrames
// frames in the destination format. It stops pulling as soon as it has
// enough input to fill the requested output, so a correctly sized request
// triggers a single data-supplying pull.
func (r *resampler) convert(outFrames int, feed feedFunc) (*Buffer, error) {
	needInput := int64(outFrames) * int64(r.src.SampleRate) / int64(r.dst.SampleRate)

	var src []int16
	for int64(len(src))/int64(r.src.Channels) < needInput {
		buf, status := feed()
		if status == statusEndOfStream {
			break
		}
		if buf == nil {
			return nil, errConverterStalled
		}
		if buf.Format != r.src {
			return nil, fmt.Errorf("feed supplied %dHz/%dch, converter expects %dHz/%dch",
				buf.Format.SampleRate, buf.Format.Channels, r.src.SampleRate, r.src.Channels)
		}
		src = append(src, buf.Samples...)
	}

	mono := downmix(src, r.src.Channels)
	out := resampleLinear(mono, r.src.SampleRate, r.dst.SampleRate, outFrames)

	samples := upmix(out, r.dst.Channels)
	return &Buffer{Format: r.dst, Samples: samples}, nil
}

// downmix averages interleaved channels into mono
func downmix(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += int(samples[i*channels+c])
		}
		out[i] = int16(sum / channels)
	}
	return out
}

// upmix replicates mono samples across the requested channel count
func upmix(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	out := make([]int16, len(samples)*channels)
	for i, s := range samples {
		for c := 0; c < channels; c++ {
			out[i*channels+c] = s
		}
	}
	return out
}

// resampleLinear rate-converts mono samples with linear interpolation,
// producing at most maxFrames output frames.
func resampleLinear(src []int16, srcRate, dstRate, maxFrames int) []int16 {
	if srcRate == dstRate {
		if len(src) > maxFrames {
			return src[:maxFrames]
		}
		return src
	}
	if len(src) == 0 {
		return nil
	}

	outFrames := int(int64(len(src))*int64(dstRate)+int64(srcRate)-1) / srcRate
	if outFrames > maxFrames {
		outFrames = maxFrames
	}

	step := float64(srcRate) / float64(dstRate)
	out := make([]int16, outFrames)
	for i := range out {
		pos := float64(i) * step
		i0 := int(pos)
		if i0 >= len(src)-1 {
			out[i] = src[len(src)-1]
			continue
		}
		frac := pos - float64(i0)
		a, b := float64(src[i0]), float64(src[i0+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}

// Converter reformats buffers to a target format, lazily building and
// caching the underlying resampler. The cache is keyed by the output
// format and rebuilt whenever the target (or the source format of the
// incoming buffer) changes between calls.
type Converter struct {
	rs     *resampler
	src    Format
	target Format
}

func NewConverter() *Converter {
	return &Converter{}
}

// Convert resamples/reformats one buffer to the target format. A buffer
// already in the target format is returned unchanged. The whole input is
// consumed in exactly one pull: the feed callback supplies the buffer on
// its first invocation and reports end-of-stream on any subsequent one.
func (c *Converter) Convert(buf *Buffer, target Format) (*Buffer, error) {
	if buf.Format == target {
		return buf, nil
	}
	if target.SampleRate <= 0 || target.Channels <= 0 {
		return nil, fmt.Errorf("invalid target format %dHz/%dch", target.SampleRate, target.Channels)
	}

	if c.rs == nil || c.target != target || c.src != buf.Format {
		c.rs = newResampler(buf.Format, target)
		c.src = buf.Format
		c.target = target
	}

	// ceil(inFrames * outRate / inRate)
	inFrames := int64(buf.Frames())
	outCap := int((inFrames*int64(target.SampleRate) + int64(buf.Format.SampleRate) - 1) /
		int64(buf.Format.SampleRate))

	fed := false
	feed := func() (*Buffer, inputStatus) {
		if fed {
			return nil, statusEndOfStream
		}
		fed = true
		return buf, statusHaveData
	}

	out, err := c.rs.convert(outCap, feed)
	if err != nil {
		return nil, fmt.Errorf("convert %d frames: %w", buf.Frames(), err)
	}
	return out, nil
}
