package playlist

import (
	"time"

	"github.com/nacnacnacnac/naberlamusic-sub000/internal/vimeo"
)

// Playlist holds metadata only; videos are modelled separately.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"isPublic"`
	EditMode    string    `json:"editMode"` // "everyone" | "invited"
	CreatedAt   time.Time `json:"createdAt"`
}

// Video is one entry in a playlist, ordered by Position (0-based). The
// video identity is always the canonical VideoRef; the raw client
// records are normalized at the handler boundary.
type Video struct {
	ID         string    `json:"id"`
	PlaylistID string    `json:"playlistId"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`

	vimeo.VideoRef
}

// PlaylistInvite represents a member invited to a private playlist.
type PlaylistInvite struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ShareCode is the response when a share link is created. The secret is
// shown once; only its bcrypt hash is stored.
type ShareCode struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

const (
	editModeEveryone = "everyone"
	editModeInvited  = "invited"
)
