package pipeline

import "sync"

// Progress holds the fraction of input consumed, in [0,1]. The producer
// is the only writer; monotonicity is the producer's contract, not
// enforced here.
type Progress struct {
	mu    sync.Mutex
	value float64
}

func (p *Progress) Set(v float64) {
	p.mu.Lock()
	p.value = v
	p.mu.Unlock()
}

func (p *Progress) Value() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}
