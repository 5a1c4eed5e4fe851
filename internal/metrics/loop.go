// Frame loop counters
package metrics

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/atomic"
)

// LoopStats counts frame loop activity. Safe for concurrent use.
type LoopStats struct {
	ticks     atomic.Uint64
	published atomic.Uint64
	missed    atomic.Uint64
	lastTick  atomic.Duration
	started   atomic.Time
}

// Snapshot is a point-in-time copy of LoopStats
type Snapshot struct {
	Ticks     uint64
	Published uint64
	Missed    uint64
	LastTick  time.Duration
	Uptime    time.Duration
}

func NewLoopStats() *LoopStats {
	s := &LoopStats{}
	s.started.Store(time.Now())
	return s
}

// Tick records one loop iteration
func (s *LoopStats) Tick() {
	s.ticks.Inc()
}

// Published records a frame handed to the display sink and how long the tick took
func (s *LoopStats) Published(took time.Duration) {
	s.published.Inc()
	s.lastTick.Store(took)
}

// Missed records a tick with no frame available
func (s *LoopStats) Missed() {
	s.missed.Inc()
}

// Reset zeroes the counters and restarts the uptime clock
func (s *LoopStats) Reset() {
	s.ticks.Store(0)
	s.published.Store(0)
	s.missed.Store(0)
	s.lastTick.Store(0)
	s.started.Store(time.Now())
}

func (s *LoopStats) Snapshot() Snapshot {
	return Snapshot{
		Ticks:     s.ticks.Load(),
		Published: s.published.Load(),
		Missed:    s.missed.Load(),
		LastTick:  s.lastTick.Load(),
		Uptime:    time.Since(s.started.Load()),
	}
}

// FPS is the average published frame rate since the last reset
func (s Snapshot) FPS() float64 {
	if s.Uptime <= 0 {
		return 0
	}
	return float64(s.Published) / s.Uptime.Seconds()
}

func (s Snapshot) String() string {
	return fmt.Sprintf("%s frames published, %s missed, %.1f fps",
		humanize.Comma(int64(s.Published)), humanize.Comma(int64(s.Missed)), s.FPS())
}
