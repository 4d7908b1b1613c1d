package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Reader streams sample frames out of a PCM WAV file. Only 16-bit PCM
// is supported; mono and stereo are both accepted and surfaced as-is,
// format conversion is the converter's job.
type Reader struct {
	f           *os.File
	format      Format
	totalFrames int64
	framesRead  int64
}

// Open opens a WAV file for frame-wise reading. The returned reader is
// positioned at the first sample frame.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := &Reader{f: f}
	if err := r.readHeader(); err != nil {
		f.Close()
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return r, nil
}

// readHeader parses the RIFF container up to the start of the data
// chunk, skipping any chunks between "fmt " and "data".
func (r *Reader) readHeader() error {
	var riff [12]byte
	if _, err := io.ReadFull(r.f, riff[:]); err != nil {
		return fmt.Errorf("read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return errors.New("not a WAV file")
	}

	var haveFmt bool
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r.f, chunk[:]); err != nil {
			return fmt.Errorf("read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r.f, body); err != nil {
				return fmt.Errorf("read fmt chunk: %w", err)
			}
			if len(body) < 16 {
				return errors.New("fmt chunk too short")
			}
			audioFormat := binary.LittleEndian.Uint16(body[0:2])
			channels := binary.LittleEndian.Uint16(body[2:4])
			sampleRate := binary.LittleEndian.Uint32(body[4:8])
			bitsPerSample := binary.LittleEndian.Uint16(body[14:16])

			if audioFormat != 1 {
				return fmt.Errorf("unsupported audio format %d (PCM only)", audioFormat)
			}
			if bitsPerSample != 16 {
				return fmt.Errorf("unsupported bit depth %d (16-bit only)", bitsPerSample)
			}
			if channels == 0 || channels > 2 {
				return fmt.Errorf("unsupported channel count %d", channels)
			}
			r.format = Format{SampleRate: int(sampleRate), Channels: int(channels)}
			haveFmt = true

		case "data":
			if !haveFmt {
				return errors.New("data chunk before fmt chunk")
			}
			bytesPerFrame := int64(2 * r.format.Channels)
			r.totalFrames = size / bytesPerFrame
			return nil

		default:
			// skip unknown chunks (LIST, fact, ...)
			if _, err := r.f.Seek(size+size%2, io.SeekCurrent); err != nil {
				return fmt.Errorf("skip %q chunk: %w", id, err)
			}
		}
	}
}

// Format returns the file's native sample format
func (r *Reader) Format() Format {
	return r.format
}

// TotalFrames returns the number of sample frames in the data chunk
func (r *Reader) TotalFrames() int64 {
	return r.totalFrames
}

// FramesRead returns the number of frames consumed so far
func (r *Reader) FramesRead() int64 {
	return r.framesRead
}

// ReadFrames reads up to n frames into a fresh buffer. Reading past the
// end of the data chunk returns io.EOF with a nil buffer.
func (r *Reader) ReadFrames(n int) (*Buffer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid frame count %d", n)
	}
	remaining := r.totalFrames - r.framesRead
	if remaining <= 0 {
		return nil, io.EOF
	}
	if int64(n) > remaining {
		n = int(remaining)
	}

	raw := make([]byte, n*2*r.format.Channels)
	read, err := io.ReadFull(r.f, raw)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read frames: %w", err)
	}

	frames := read / (2 * r.format.Channels)
	if frames == 0 {
		return nil, io.EOF
	}

	samples := make([]int16, frames*r.format.Channels)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
	}

	r.framesRead += int64(frames)
	return &Buffer{Format: r.format, Samples: samples}, nil
}

// Close closes the underlying file
func (r *Reader) Close() error {
	return r.f.Close()
}

// EncodeWAV renders a buffer as a complete WAV file in memory. Used by
// engines that hand audio to an external recognizer as a file.
func EncodeWAV(buf *Buffer) []byte {
	var out bytes.Buffer

	channels := buf.Format.Channels
	sampleRate := buf.Format.SampleRate
	const bitsPerSample = 16
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	dataSize := len(buf.Samples) * 2
	fileSize := 36 + dataSize

	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(fileSize))
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	binary.Write(&out, binary.LittleEndian, uint32(16))
	binary.Write(&out, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&out, binary.LittleEndian, uint16(channels))
	binary.Write(&out, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&out, binary.LittleEndian, uint32(byteRate))
	binary.Write(&out, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&out, binary.LittleEndian, uint16(bitsPerSample))

	out.WriteString("data")
	binary.Write(&out, binary.LittleEndian, uint32(dataSize))
	binary.Write(&out, binary.LittleEndian, buf.Samples)

	return out.Bytes()
}
