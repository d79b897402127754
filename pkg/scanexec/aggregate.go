package scanexec

import (
	"slices"
	"time"

	"github.com/Mohammed-el-Amine/check-port/pkg/scan"
)

const (
	// progressThreshold is the port count above which periodic snapshots
	// are produced.
	progressThreshold = 1000
	minProgressStep   = 100
	progressSteps     = 20
)

// Snapshot is a point-in-time view of scan progress.
type Snapshot struct {
	Scanned int           `json:"scanned"`
	Total   int           `json:"total"`
	Percent float64       `json:"percent"`
	Rate    float64       `json:"rate"`
	ETA     time.Duration `json:"eta"`
	Elapsed time.Duration `json:"elapsed"`
}

// Aggregator counts completed probes and collects open ports. It only
// observes results and never alters them.
type Aggregator struct {
	total    int
	scanned  int
	interval int
	start    time.Time
	now      func() time.Time
	open     []scan.Result
}

// NewAggregator prepares aggregation for total ports, starting the clock now.
func NewAggregator(total int) *Aggregator {
	return newAggregator(total, time.Now)
}

func newAggregator(total int, now func() time.Time) *Aggregator {
	return &Aggregator{
		total:    total,
		interval: max(minProgressStep, total/progressSteps),
		start:    now(),
		now:      now,
	}
}

// Add records one result. It returns a snapshot when a progress line is due:
// the scan covers more than 1000 ports and the scanned count reached a
// multiple of max(100, total/20).
func (a *Aggregator) Add(r scan.Result) (Snapshot, bool) {
	if a.scanned < a.total {
		a.scanned++
	}
	if r.Status == scan.StatusOpen {
		a.open = append(a.open, r)
	}
	if a.total <= progressThreshold || a.scanned%a.interval != 0 {
		return Snapshot{}, false
	}
	return a.Snapshot(), true
}

// Snapshot reports current progress.
func (a *Aggregator) Snapshot() Snapshot {
	elapsed := a.now().Sub(a.start)
	s := Snapshot{
		Scanned: a.scanned,
		Total:   a.total,
		Elapsed: elapsed,
	}
	if a.total > 0 {
		s.Percent = float64(a.scanned) / float64(a.total) * 100
	}
	if secs := elapsed.Seconds(); secs > 0 {
		s.Rate = float64(a.scanned) / secs
	}
	if s.Rate > 0 {
		s.ETA = time.Duration(float64(a.total-a.scanned) / s.Rate * float64(time.Second))
	}
	return s
}

// Scanned returns the number of results recorded so far.
func (a *Aggregator) Scanned() int { return a.scanned }

// Open returns the open results sorted by port.
func (a *Aggregator) Open() []scan.Result {
	out := slices.Clone(a.open)
	slices.SortFunc(out, func(x, y scan.Result) int { return int(x.Port) - int(y.Port) })
	return out
}
