package vimeo

// VideoRef is the canonical identity for a hosted video. Every external
// record (playlist rows, share payloads, API responses) is normalized
// into this once, at the boundary; nothing downstream deals with the
// optional-field soup again.
type VideoRef struct {
	VimeoID      string `json:"vimeoId"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	DurationMs   int    `json:"durationMs,omitempty"`
}

// RawVideo mirrors the loosely-typed records the mobile/web client sends:
// the id may arrive as vimeo_id or id, the title as title or name, the
// thumbnail under two keys, and the duration in ms or in seconds.
type RawVideo struct {
	VimeoID      string `json:"vimeo_id"`
	ID           string `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url"`
	Thumbnail    string `json:"thumbnail"`
	DurationMs   int    `json:"duration_ms"`
	Duration     int    `json:"duration"` // seconds
}
