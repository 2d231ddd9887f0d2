package trainer

import (
	"math"
	"sync"
)

// Progress is the live state of a run, safe for concurrent readers.
type Progress struct {
	mu        sync.RWMutex
	epoch     int
	total     int
	monitor   Monitor
	best      float64
	bestEpoch int
	metrics   map[string]float64
}

// ProgressSnapshot is a point-in-time copy of Progress.
type ProgressSnapshot struct {
	Epoch     int                `json:"epoch"`
	Epochs    int                `json:"epochs"`
	Monitor   string             `json:"monitor"`
	Best      *float64           `json:"best,omitempty"`
	BestEpoch int                `json:"best_epoch,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// NewProgress creates an empty progress tracker.
func NewProgress() *Progress {
	return &Progress{monitor: MonitorOff}
}

func (p *Progress) start(total int, m Monitor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.monitor = m
}

func (p *Progress) update(epoch int, metrics map[string]float64, m Monitor, best float64, bestEpoch int) {
	copied := make(map[string]float64, len(metrics))
	for k, v := range metrics {
		copied[k] = v
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.epoch = epoch
	p.monitor = m
	p.metrics = copied
	p.best = best
	p.bestEpoch = bestEpoch
}

// Snapshot returns a copy of the current state. Best is nil until the
// monitored metric has been seen.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := ProgressSnapshot{
		Epoch:     p.epoch,
		Epochs:    p.total,
		Monitor:   p.monitor.String(),
		BestEpoch: p.bestEpoch,
	}
	if p.bestEpoch > 0 && !math.IsInf(p.best, 0) {
		best := p.best
		s.Best = &best
	}
	if len(p.metrics) > 0 {
		s.Metrics = make(map[string]float64, len(p.metrics))
		for k, v := range p.metrics {
			s.Metrics[k] = v
		}
	}
	return s
}
