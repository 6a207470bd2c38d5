package vimeo

import (
	"errors"
	"strings"
)

var ErrMissingVideoID = errors.New("vimeo: record has neither vimeo_id nor id")

// NormalizeRef collapses a heterogeneous external record into a
// VideoRef. Precedence: vimeo_id over id, title over name, thumbnail_url
// over thumbnail, duration_ms over duration (seconds).
func NormalizeRef(raw RawVideo) (VideoRef, error) {
	id := strings.TrimSpace(raw.VimeoID)
	if id == "" {
		id = strings.TrimSpace(raw.ID)
	}
	if id == "" {
		return VideoRef{}, ErrMissingVideoID
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = strings.TrimSpace(raw.Name)
	}

	thumb := raw.ThumbnailURL
	if thumb == "" {
		thumb = raw.Thumbnail
	}

	durationMs := raw.DurationMs
	if durationMs == 0 && raw.Duration > 0 {
		durationMs = raw.Duration * 1000
	}

	return VideoRef{
		VimeoID:      id,
		Title:        title,
		ThumbnailURL: thumb,
		DurationMs:   durationMs,
	}, nil
}
