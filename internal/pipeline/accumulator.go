package pipeline

import (
	"strings"
	"sync"

	"github.com/soundscribe/soundscribe/internal/transcript"
)

// Accumulator builds the aggregate transcription result from committed
// fragments. The consumer is the only writer while the pipeline runs;
// Final is read after both producer and consumer have joined.
type Accumulator struct {
	mu           sync.Mutex
	text         strings.Builder
	segments     []transcript.Segment
	alternatives []string
}

// Append commits one fragment: text is concatenated in arrival order,
// segments and alternatives are appended to their running sequences.
func (a *Accumulator) Append(frag transcript.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.text.WriteString(frag.Text)
	a.segments = append(a.segments, frag.Segments...)
	a.alternatives = append(a.alternatives, frag.Alternatives...)
}

// Final returns a snapshot of the accumulated result. Alternatives stay
// absent if none were ever appended; the segment list is always
// non-nil so JSON renders an array.
func (a *Accumulator) Final() transcript.Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	segments := make([]transcript.Segment, len(a.segments))
	copy(segments, a.segments)

	res := transcript.Result{
		Text:     strings.TrimSpace(a.text.String()),
		Segments: segments,
	}
	if len(a.alternatives) > 0 {
		res.Alternatives = append([]string(nil), a.alternatives...)
	}
	return res
}
