package playback

import "time"

// latencyWindowSize caps the moving-average window for command
// round-trip latency samples.
const latencyWindowSize = 50

// latencyWindow is a fixed-size circular sample buffer. The average is
// an equal-weight mean over whatever samples remain in the window.
type latencyWindow struct {
	samples [latencyWindowSize]float64
	start   int
	n       int
}

func (w *latencyWindow) add(ms float64) {
	if w.n < latencyWindowSize {
		w.samples[(w.start+w.n)%latencyWindowSize] = ms
		w.n++
		return
	}
	w.samples[w.start] = ms
	w.start = (w.start + 1) % latencyWindowSize
}

func (w *latencyWindow) average() float64 {
	if w.n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < w.n; i++ {
		sum += w.samples[(w.start+i)%latencyWindowSize]
	}
	return sum / float64(w.n)
}

// Counters aggregates one session's player-integration stats. They are
// never persisted and die with the session.
type Counters struct {
	CommandsIssued    int64     `json:"commandsIssued"`
	CommandsConfirmed int64     `json:"commandsConfirmed"`
	CommandsFailed    int64     `json:"commandsFailed"`
	DesyncCount       int64     `json:"desyncCount"`
	AverageLatencyMs  float64   `json:"averageLatencyMs"`
	LastCommandAt     time.Time `json:"lastCommandAt"`
}
