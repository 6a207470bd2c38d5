package realtime

// playerMessage is the wire format spoken with an attached embedded
// player. Outbound commands: "play", "pause", "statesync" (query, echoed
// back with the same seq). Inbound reports: "ready", "playstate",
// "timeupdate", "ended", "error", "statesync".
type playerMessage struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq,omitempty"`

	Paused         *bool   `json:"paused,omitempty"`
	CurrentTime    float64 `json:"currentTime,omitempty"`
	Duration       float64 `json:"duration,omitempty"`
	Message        string  `json:"message,omitempty"`
	InternalPaused *bool   `json:"internalPaused,omitempty"`
	IsValid        *bool   `json:"isValid,omitempty"`
}

const (
	msgPlay       = "play"
	msgPause      = "pause"
	msgStateSync  = "statesync"
	msgReady      = "ready"
	msgPlayState  = "playstate"
	msgTimeUpdate = "timeupdate"
	msgEnded      = "ended"
	msgError      = "error"
	msgWelcome    = "welcome"
)
