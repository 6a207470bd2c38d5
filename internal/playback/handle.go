package playback

import "context"

// StateSyncResult is the player's answer to a direct state query.
type StateSyncResult struct {
	InternalPaused bool `json:"internalPaused"`
	IsValid        bool `json:"isValid"`
}

// Handle is the imperative reference used to command the embedded video
// player component. Play and Pause are fire-and-forget: a nil error means
// the command left the service, not that the player acted on it. The
// player's actual state comes back later through the session callbacks.
type Handle interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error

	// Ready reports whether the player has announced itself initialized.
	Ready() bool

	// StateSync asks the player to self-report its internal state.
	// ok is false when the player does not support the query or did not
	// answer in time.
	StateSync(ctx context.Context) (StateSyncResult, bool)
}
