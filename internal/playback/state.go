package playback

// PauseState tracks the paused flag as a two-phase value: an optimistic
// phase entered when a command is issued (what the UI renders right away)
// and a confirmed phase entered when the player itself reports a state.
// Rendering reads Value(); anything correctness-sensitive must read
// Confirmed() and ignore unconfirmed values.
type PauseState struct {
	value        bool
	confirmed    bool
	hasConfirmed bool
	optimistic   bool
}

// SetOptimistic records a locally requested target before the player has
// acknowledged it. Last write wins.
func (p *PauseState) SetOptimistic(target bool) {
	p.value = target
	p.optimistic = true
}

// SetConfirmed records a player-reported value. The player always wins:
// the rendered value is overwritten even if an optimistic write is newer.
func (p *PauseState) SetConfirmed(v bool) {
	p.value = v
	p.confirmed = v
	p.hasConfirmed = true
	p.optimistic = false
}

// Value is the paused flag the UI should render.
func (p PauseState) Value() bool { return p.value }

// Confirmed returns the last player-confirmed value; ok is false until
// the player has reported at least once.
func (p PauseState) Confirmed() (v bool, ok bool) {
	return p.confirmed, p.hasConfirmed
}

// Optimistic reports whether the rendered value is still awaiting
// confirmation from the player.
func (p PauseState) Optimistic() bool { return p.optimistic }
