package playback

import "time"

// Origin tags which event produced a snapshot.
type Origin string

const (
	OriginCommandIssued     Origin = "command-issued"
	OriginCommandDispatched Origin = "command-dispatched"
	OriginPlayerCallback    Origin = "player-callback"
)

// Snapshot is an immutable record of the paused-state at one transition,
// kept for diagnostics only.
type Snapshot struct {
	At             time.Time `json:"at"`
	IntendedPaused bool      `json:"intendedPaused"`
	PlayerPaused   bool      `json:"playerPaused"`
	PlayerReady    bool      `json:"playerReady"`
	Origin         Origin    `json:"origin"`
}

// historyCap bounds the diagnostic trail; older entries are dropped.
const historyCap = 20

// history is a fixed-capacity circular buffer with O(1) append.
type history struct {
	buf   [historyCap]Snapshot
	start int
	n     int
}

func (h *history) append(s Snapshot) {
	if h.n < historyCap {
		h.buf[(h.start+h.n)%historyCap] = s
		h.n++
		return
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % historyCap
}

// list returns the retained snapshots oldest-first.
func (h *history) list() []Snapshot {
	out := make([]Snapshot, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.start+i)%historyCap]
	}
	return out
}
