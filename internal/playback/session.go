package playback

import (
	"context"
	"log"
	"sync"
	"time"
)

// staleAfter is the sanity ceiling for a command round-trip. Feedback
// arriving later than this cannot be attributed to the pending command.
const staleAfter = 10 * time.Second

// Session owns the authoritative playback state for one attached player.
// The source of truth for the paused flag is the player's own reports;
// commands update the state optimistically and the player's feedback
// reconciles it. A session is touched by HTTP handlers and by the
// websocket reader goroutine, so all state is guarded by one mutex.
type Session struct {
	id string

	mu     sync.Mutex
	now    func() time.Time
	handle Handle

	pause        PauseState
	cmdStartedAt time.Time // zero when no command is in flight

	history  history
	window   latencyWindow
	counters Counters

	ready      bool
	ended      bool
	position   float64
	duration   float64
	lastError  string
	lastActive time.Time
}

func NewSession(id string, h Handle) *Session {
	s := &Session{
		id:     id,
		now:    time.Now,
		handle: h,
	}
	s.lastActive = s.now()
	return s
}

func (s *Session) ID() string { return s.id }

// SetPaused applies the user's play/pause intent. The rendered state is
// updated optimistically before the command is dispatched; a dispatch
// failure is logged and counted but does not revert the optimistic value,
// which stands until the next real player event.
func (s *Session) SetPaused(ctx context.Context, target bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.cmdStartedAt = now
	s.lastActive = now
	s.counters.CommandsIssued++
	s.counters.LastCommandAt = now

	s.recordLocked(OriginCommandIssued, target)
	s.pause.SetOptimistic(target)

	if s.handle == nil {
		s.counters.CommandsFailed++
		log.Printf("playback: set paused: no player handle (session %s)", s.id)
		return
	}

	var err error
	if target {
		err = s.handle.Pause(ctx)
	} else {
		err = s.handle.Play(ctx)
	}
	if err != nil {
		s.counters.CommandsFailed++
		log.Printf("playback: dispatch paused=%v: %v (session %s)", target, err, s.id)
		return
	}

	s.recordLocked(OriginCommandDispatched, target)
}

// OnPlayerPausedChanged reconciles the player's self-reported state. The
// player may change state on its own (buffering, end of media, remote
// control), not only in response to a command.
func (s *Session) OnPlayerPausedChanged(playerPaused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.lastActive = now

	if !s.cmdStartedAt.IsZero() {
		elapsed := now.Sub(s.cmdStartedAt)
		if elapsed < staleAfter {
			s.window.add(float64(elapsed) / float64(time.Millisecond))
			s.counters.AverageLatencyMs = s.window.average()
			s.counters.CommandsConfirmed++
		}
	}

	if s.pause.Optimistic() && s.pause.Value() != playerPaused {
		s.counters.DesyncCount++
	}

	s.pause.SetConfirmed(playerPaused)
	s.recordLocked(OriginPlayerCallback, playerPaused)

	// Cleared regardless of whether the sample was usable.
	s.cmdStartedAt = time.Time{}
}

// AttachHandle binds a (re)connected player to the session.
func (s *Session) AttachHandle(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = h
	s.lastActive = s.now()
}

// DetachHandle drops the player reference after a disconnect. Commands
// issued while detached fail locally; the session itself survives so its
// diagnostics stay inspectable until the reaper drops it. The caller
// passes its own handle: a stale connection dying after a newer player
// has reattached must not detach the live one.
func (s *Session) DetachHandle(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != h {
		return
	}
	s.handle = nil
	s.ready = false
	s.lastActive = s.now()
}

// OnReady marks the player initialized.
func (s *Session) OnReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.lastActive = s.now()
}

// OnError records the player's last error message.
func (s *Session) OnError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
	s.lastActive = s.now()
	log.Printf("playback: player error: %s (session %s)", msg, s.id)
}

// OnTimeUpdate tracks playback position in seconds.
func (s *Session) OnTimeUpdate(currentTime, duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = currentTime
	s.duration = duration
	s.ended = false
	s.lastActive = s.now()
}

// OnVideoEnd marks the current video finished.
func (s *Session) OnVideoEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
	s.lastActive = s.now()
}

// Report is the result of a pull-based consistency audit.
type Report struct {
	Synced              bool `json:"synced"`
	PlayerReady         bool `json:"playerReady"`
	PlayerInternalValid bool `json:"playerInternalValid"`
	Valid               bool `json:"valid"`
}

// Validate compares the believed paused flag against the state the
// player self-reports when asked directly. Read-only: it mutates no
// counters and no history. A missing or non-answering handle yields
// false defaults rather than an error.
func (s *Session) Validate(ctx context.Context) Report {
	s.mu.Lock()
	believed := s.pause.Value()
	h := s.handle
	s.mu.Unlock()

	if h == nil {
		return Report{}
	}

	rep := Report{PlayerReady: h.Ready()}
	res, ok := h.StateSync(ctx)
	if !ok {
		return rep
	}
	rep.Synced = believed == res.InternalPaused
	rep.PlayerInternalValid = res.IsValid
	rep.Valid = rep.PlayerReady && rep.Synced && rep.PlayerInternalValid
	return rep
}

// State is the session view returned to clients.
type State struct {
	SessionID   string  `json:"sessionId"`
	Paused      bool    `json:"paused"`
	Optimistic  bool    `json:"optimistic"`
	PlayerReady bool    `json:"playerReady"`
	Ended       bool    `json:"ended"`
	Position    float64 `json:"position"`
	Duration    float64 `json:"duration"`
	LastError   string  `json:"lastError,omitempty"`
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		SessionID:   s.id,
		Paused:      s.pause.Value(),
		Optimistic:  s.pause.Optimistic(),
		PlayerReady: s.ready,
		Ended:       s.ended,
		Position:    s.position,
		Duration:    s.duration,
		LastError:   s.lastError,
	}
}

// History returns the retained snapshots oldest-first.
func (s *Session) History() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.list()
}

func (s *Session) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// LastActive is used by the registry reaper to drop idle sessions.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) recordLocked(origin Origin, paused bool) {
	s.history.append(Snapshot{
		At:             s.now(),
		IntendedPaused: paused,
		PlayerPaused:   paused,
		PlayerReady:    s.ready,
		Origin:         origin,
	})
}
