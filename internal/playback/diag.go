package playback

import (
	"context"
	"log"
	"time"
)

// Diagnostics is the development-only surface over one session. It is
// constructed explicitly and handed to the debug router; nothing here is
// registered globally and none of it is mounted in production builds.
type Diagnostics struct {
	s *Session
}

func NewDiagnostics(s *Session) *Diagnostics {
	return &Diagnostics{s: s}
}

func (d *Diagnostics) Counters() Counters { return d.s.Counters() }

func (d *Diagnostics) History() []Snapshot { return d.s.History() }

func (d *Diagnostics) Validate(ctx context.Context) Report { return d.s.Validate(ctx) }

// SimulateFooterButtonPress toggles the paused state exactly the way the
// footer play/pause button does.
func (d *Diagnostics) SimulateFooterButtonPress(ctx context.Context) {
	d.s.SetPaused(ctx, !d.s.State().Paused)
}

const (
	stressMaxCount    = 1000
	stressMinInterval = 10 * time.Millisecond
)

// StressTestPlayPause toggles play/pause count times at the given
// interval in the background, to shake out desyncs between the believed
// state and the player. Returns immediately.
func (d *Diagnostics) StressTestPlayPause(ctx context.Context, count int, interval time.Duration) {
	if count <= 0 {
		return
	}
	if count > stressMaxCount {
		count = stressMaxCount
	}
	if interval < stressMinInterval {
		interval = stressMinInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for i := 0; i < count; i++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.SimulateFooterButtonPress(ctx)
			}
		}
		log.Printf("playback: stress test done: %d toggles (session %s)", count, d.s.ID())
	}()
}
