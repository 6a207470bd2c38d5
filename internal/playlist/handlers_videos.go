package playlist

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/nacnacnacnac/naberlamusic-sub000/internal/vimeo"
)

// handleAddVideo appends a video to the end of a playlist. The client may
// send either the canonical field names or the legacy aliases; both go
// through NormalizeRef. Missing metadata is filled from the Vimeo API
// when a lookup client is configured.
func (s *Server) handleAddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")

	playlistID := chi.URLParam(r, "id")
	if playlistID == "" {
		writeError(w, http.StatusBadRequest, "missing playlist id")
		return
	}

	ownerID, _, editMode, err := s.getPlaylistAccessInfo(ctx, playlistID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		log.Printf("playlist: add video fetch playlist: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	member, err := s.userIsMember(ctx, playlistID, userID)
	if err != nil {
		log.Printf("playlist: add video member check: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !canEdit(userID, ownerID, editMode, member) {
		writeError(w, http.StatusForbidden, "you cannot add videos to this playlist")
		return
	}

	var raw vimeo.RawVideo
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ref, err := vimeo.NormalizeRef(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if (ref.Title == "" || ref.ThumbnailURL == "" || ref.DurationMs == 0) && s.videos != nil {
		if full, err := s.videos.GetVideo(ctx, ref.VimeoID); err == nil {
			if ref.Title == "" {
				ref.Title = full.Title
			}
			if ref.ThumbnailURL == "" {
				ref.ThumbnailURL = full.ThumbnailURL
			}
			if ref.DurationMs == 0 {
				ref.DurationMs = full.DurationMs
			}
		} else if !errors.Is(err, vimeo.ErrVideoNotFound) {
			log.Printf("playlist: add video lookup %s: %v", ref.VimeoID, err)
		}
	}

	var v Video
	err = s.db.QueryRow(ctx, `
		INSERT INTO playlist_videos (playlist_id, vimeo_id, title, thumbnail_url, duration_ms, position)
		VALUES ($1,$2,$3,$4,$5,
			(SELECT COALESCE(MAX(position)+1, 0) FROM playlist_videos WHERE playlist_id = $1))
		RETURNING id, playlist_id, vimeo_id, title, thumbnail_url, duration_ms, position, created_at
	`, playlistID, ref.VimeoID, ref.Title, ref.ThumbnailURL, ref.DurationMs).Scan(
		&v.ID,
		&v.PlaylistID,
		&v.VimeoID,
		&v.Title,
		&v.ThumbnailURL,
		&v.DurationMs,
		&v.Position,
		&v.CreatedAt,
	)
	if err != nil {
		log.Printf("playlist: add video insert: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, "video.added", map[string]any{
		"playlistId": playlistID,
		"video":      v,
	})

	writeJSON(w, http.StatusCreated, v)
}

// handleMoveVideo moves a video to a new position, shifting the entries
// in between. Runs in one transaction so concurrent moves cannot leave
// duplicate positions.
func (s *Server) handleMoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")

	playlistID := chi.URLParam(r, "id")
	videoID := chi.URLParam(r, "videoId")
	if playlistID == "" || videoID == "" {
		writeError(w, http.StatusBadRequest, "missing playlist or video id")
		return
	}

	var body struct {
		Position int `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Position < 0 {
		writeError(w, http.StatusBadRequest, "position must be >= 0")
		return
	}

	ownerID, _, editMode, err := s.getPlaylistAccessInfo(ctx, playlistID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		log.Printf("playlist: move video fetch playlist: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	member, err := s.userIsMember(ctx, playlistID, userID)
	if err != nil {
		log.Printf("playlist: move video member check: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !canEdit(userID, ownerID, editMode, member) {
		writeError(w, http.StatusForbidden, "you cannot reorder this playlist")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("playlist: begin tx: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	var oldPos int
	err = tx.QueryRow(ctx, `
		SELECT position FROM playlist_videos
		WHERE id = $1 AND playlist_id = $2
	`, videoID, playlistID).Scan(&oldPos)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "video not found in playlist")
		return
	}
	if err != nil {
		log.Printf("playlist: move video fetch position: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	var count int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM playlist_videos WHERE playlist_id = $1
	`, playlistID).Scan(&count); err != nil {
		log.Printf("playlist: move video count: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	newPos := body.Position
	if newPos > count-1 {
		newPos = count - 1
	}

	if newPos != oldPos {
		if newPos < oldPos {
			_, err = tx.Exec(ctx, `
				UPDATE playlist_videos SET position = position + 1
				WHERE playlist_id = $1 AND position >= $2 AND position < $3
			`, playlistID, newPos, oldPos)
		} else {
			_, err = tx.Exec(ctx, `
				UPDATE playlist_videos SET position = position - 1
				WHERE playlist_id = $1 AND position > $2 AND position <= $3
			`, playlistID, oldPos, newPos)
		}
		if err != nil {
			log.Printf("playlist: move video shift: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}

		if _, err := tx.Exec(ctx, `
			UPDATE playlist_videos SET position = $3
			WHERE id = $1 AND playlist_id = $2
		`, videoID, playlistID, newPos); err != nil {
			log.Printf("playlist: move video set position: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("playlist: commit tx: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, "video.moved", map[string]any{
		"playlistId": playlistID,
		"videoId":    videoID,
		"position":   newPos,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"videoId":  videoID,
		"position": newPos,
	})
}

// handleDeleteVideo removes one entry and closes the position gap it
// leaves behind.
func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")

	playlistID := chi.URLParam(r, "id")
	videoID := chi.URLParam(r, "videoId")
	if playlistID == "" || videoID == "" {
		writeError(w, http.StatusBadRequest, "missing playlist or video id")
		return
	}

	ownerID, _, editMode, err := s.getPlaylistAccessInfo(ctx, playlistID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		log.Printf("playlist: delete video fetch playlist: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	member, err := s.userIsMember(ctx, playlistID, userID)
	if err != nil {
		log.Printf("playlist: delete video member check: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !canEdit(userID, ownerID, editMode, member) {
		writeError(w, http.StatusForbidden, "you cannot remove videos from this playlist")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("playlist: begin tx: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	var pos int
	err = tx.QueryRow(ctx, `
		DELETE FROM playlist_videos
		WHERE id = $1 AND playlist_id = $2
		RETURNING position
	`, videoID, playlistID).Scan(&pos)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "video not found in playlist")
		return
	}
	if err != nil {
		log.Printf("playlist: delete video: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if _, err := tx.Exec(ctx, `
		UPDATE playlist_videos SET position = position - 1
		WHERE playlist_id = $1 AND position > $2
	`, playlistID, pos); err != nil {
		log.Printf("playlist: delete video compact: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("playlist: commit tx: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, "video.removed", map[string]any{
		"playlistId": playlistID,
		"videoId":    videoID,
	})

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// handleGetVideoMeta resolves metadata for a single video id.
func (s *Server) handleGetVideoMeta(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vimeoID := chi.URLParam(r, "vimeoId")
	if vimeoID == "" {
		writeError(w, http.StatusBadRequest, "missing video id")
		return
	}
	if s.videos == nil {
		writeError(w, http.StatusServiceUnavailable, "video lookup is not configured")
		return
	}

	ref, err := s.videos.GetVideo(ctx, vimeoID)
	if errors.Is(err, vimeo.ErrVideoNotFound) {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}
	if err != nil {
		log.Printf("playlist: video meta %s: %v", vimeoID, err)
		writeError(w, http.StatusBadGateway, "video provider error")
		return
	}

	writeJSON(w, http.StatusOK, ref)
}
