// Package detect holds the anomaly detectors that run over a normalized
// record batch: burst detection (temporally dense ERROR clusters) and
// recurrence detection (ERROR messages spread across calendar days).
// Both are read-only over their input and independent of each other.
package detect

import (
	"sort"
	"time"

	"github.com/armash/log-analyzer/internal/types"
)

const (
	// BurstWindow is the number of consecutive ERROR timestamps in one window.
	BurstWindow = 5
	// BurstSpan is the maximum span between the first and last timestamp
	// of a window for it to count as a burst.
	BurstSpan = 60 * time.Second
)

// Window is one detected burst: BurstWindow chronologically sorted ERROR
// timestamps whose span is at most BurstSpan. Overlapping windows are
// reported as-is, one per valid starting position; they are not merged
// into incident spans.
type Window struct {
	Times []time.Time `json:"times"`
}

// Start returns the first timestamp of the window.
func (w Window) Start() time.Time {
	return w.Times[0]
}

// End returns the last timestamp of the window.
func (w Window) End() time.Time {
	return w.Times[len(w.Times)-1]
}

// Span returns the time covered by the window.
func (w Window) Span() time.Duration {
	return w.End().Sub(w.Start())
}

// Bursts finds dense ERROR clusters: it sorts all ERROR timestamps
// ascending and slides a fixed window of BurstWindow timestamps across
// them, emitting every window whose span is at most BurstSpan. Fewer than
// BurstWindow ERROR records yield no bursts. Detection is global across
// the input; pre-filter by service or host for scoped results.
func Bursts(records []types.Record) []Window {
	times := make([]time.Time, 0)
	for _, r := range records {
		if r.Level == types.LevelError {
			times = append(times, r.Timestamp)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	var windows []Window
	for i := 0; i+BurstWindow <= len(times); i++ {
		if times[i+BurstWindow-1].Sub(times[i]) <= BurstSpan {
			w := Window{Times: append([]time.Time(nil), times[i:i+BurstWindow]...)}
			windows = append(windows, w)
		}
	}
	return windows
}
