package audio

import "time"

// Format describes the shape of PCM audio: sample rate in Hz and
// interleaved channel count. Samples are always signed 16-bit.
type Format struct {
	SampleRate int
	Channels   int
}

// Buffer holds one windowed slice of PCM audio in a given format.
// Samples are interleaved when Channels > 1.
type Buffer struct {
	Format  Format
	Samples []int16
}

// Frames returns the number of sample frames in the buffer
func (b *Buffer) Frames() int {
	if b == nil || b.Format.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the play time of the buffer
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.Format.SampleRate)
}
