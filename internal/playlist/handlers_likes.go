package playlist

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// handleToggleLike flips the liked state of a video for the current
// user and returns the new state plus the total like count.
func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	vimeoID := chi.URLParam(r, "vimeoId")
	if vimeoID == "" {
		writeError(w, http.StatusBadRequest, "missing video id")
		return
	}

	tag, err := s.db.Exec(ctx, `
		DELETE FROM video_likes WHERE user_id = $1 AND vimeo_id = $2
	`, userID, vimeoID)
	if err != nil {
		log.Printf("playlist: toggle like delete: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	liked := false
	if tag.RowsAffected() == 0 {
		if _, err := s.db.Exec(ctx, `
			INSERT INTO video_likes (user_id, vimeo_id)
			VALUES ($1,$2)
			ON CONFLICT (user_id, vimeo_id) DO NOTHING
		`, userID, vimeoID); err != nil {
			log.Printf("playlist: toggle like insert: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		liked = true
	}

	var total int
	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM video_likes WHERE vimeo_id = $1
	`, vimeoID).Scan(&total); err != nil {
		log.Printf("playlist: toggle like count: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, "video.like_toggled", map[string]any{
		"vimeoId": vimeoID,
		"userId":  userID,
		"liked":   liked,
		"likes":   total,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"vimeoId": vimeoID,
		"liked":   liked,
		"likes":   total,
	})
}

// handleListLikes returns the videos the current user has liked, most
// recent first.
func (s *Server) handleListLikes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	rows, err := s.db.Query(ctx, `
		SELECT vimeo_id, created_at
		FROM video_likes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		log.Printf("playlist: list likes: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	type likedVideo struct {
		VimeoID string    `json:"vimeoId"`
		LikedAt time.Time `json:"likedAt"`
	}

	likes := []likedVideo{}
	for rows.Next() {
		var lv likedVideo
		if err := rows.Scan(&lv.VimeoID, &lv.LikedAt); err != nil {
			log.Printf("playlist: list likes scan: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		likes = append(likes, lv)
	}
	if err := rows.Err(); err != nil {
		log.Printf("playlist: list likes rows: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, likes)
}
