package playlist

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")

	cacheKey := ""
	if s.rdb != nil {
		cacheKey = s.listCacheKey(ctx, userID)
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(cached))
			return
		}
	}

	// Public playlists OR playlists I own OR playlists I'm a member of.
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.owner_id, p.name, p.description, p.is_public, p.edit_mode, p.created_at
		FROM playlists p
		LEFT JOIN playlist_members pm ON p.id = pm.playlist_id AND pm.user_id = $1
		WHERE p.is_public = TRUE
		   OR ($1 <> '' AND p.owner_id = $1)
		   OR ($1 <> '' AND pm.user_id IS NOT NULL)
		ORDER BY p.created_at DESC
		LIMIT 200
	`, userID)
	if err != nil {
		log.Printf("playlist: list playlists: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	playlists := []Playlist{}
	for rows.Next() {
		var pl Playlist
		if err := rows.Scan(
			&pl.ID,
			&pl.OwnerID,
			&pl.Name,
			&pl.Description,
			&pl.IsPublic,
			&pl.EditMode,
			&pl.CreatedAt,
		); err != nil {
			log.Printf("playlist: list playlists scan: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		playlists = append(playlists, pl)
	}
	if err := rows.Err(); err != nil {
		log.Printf("playlist: list playlists rows: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if cacheKey != "" {
		if b, err := json.Marshal(playlists); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, b, listCacheTTL).Err(); err != nil {
				log.Printf("playlist: cache set: %v", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, playlists)
}

// handleCreatePlaylist creates a new playlist owned by the current user.
func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := r.Header.Get("X-User-Id")
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var body struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		IsPublic    *bool   `json:"isPublic"`
		EditMode    *string `json:"editMode"` // optional, default "everyone"
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.Name = strings.TrimSpace(body.Name)
	body.Description = strings.TrimSpace(body.Description)

	if body.Name == "" || len(body.Name) > 200 {
		writeError(w, http.StatusBadRequest, "name must be between 1 and 200 characters")
		return
	}
	if len(body.Description) > 1000 {
		writeError(w, http.StatusBadRequest, "description is too long")
		return
	}

	isPublic := true
	if body.IsPublic != nil {
		isPublic = *body.IsPublic
	}

	editMode := editModeEveryone
	if body.EditMode != nil {
		em := strings.ToLower(strings.TrimSpace(*body.EditMode))
		if em != editModeEveryone && em != editModeInvited {
			writeError(w, http.StatusBadRequest, `invalid editMode (must be "everyone" or "invited")`)
			return
		}
		editMode = em
	}

	var pl Playlist
	err := s.db.QueryRow(ctx, `
		INSERT INTO playlists (owner_id, name, description, is_public, edit_mode)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, owner_id, name, description, is_public, edit_mode, created_at
	`, ownerID, body.Name, body.Description, isPublic, editMode).Scan(
		&pl.ID,
		&pl.OwnerID,
		&pl.Name,
		&pl.Description,
		&pl.IsPublic,
		&pl.EditMode,
		&pl.CreatedAt,
	)
	if err != nil {
		log.Printf("playlist: create playlist: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.invalidateListCache(ctx)
	s.publishEvent(ctx, "playlist.created", map[string]any{"playlist": pl})

	writeJSON(w, http.StatusCreated, pl)
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")

	playlistID := chi.URLParam(r, "id")
	if playlistID == "" {
		writeError(w, http.StatusBadRequest, "missing playlist id")
		return
	}

	var pl Playlist
	err := s.db.QueryRow(ctx, `
		SELECT id, owner_id, name, description, is_public, edit_mode, created_at
		FROM playlists
		WHERE id = $1
	`, playlistID).Scan(
		&pl.ID,
		&pl.OwnerID,
		&pl.Name,
		&pl.Description,
		&pl.IsPublic,
		&pl.EditMode,
		&pl.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		log.Printf("playlist: get playlist: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if !pl.IsPublic && userID != pl.OwnerID {
		member, err := s.userIsMember(ctx, playlistID, userID)
		if err != nil {
			log.Printf("playlist: get playlist member check: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		if !member {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, playlist_id, vimeo_id, title, thumbnail_url, duration_ms, position, created_at
		FROM playlist_videos
		WHERE playlist_id = $1
		ORDER BY position ASC
	`, playlistID)
	if err != nil {
		log.Printf("playlist: get playlist videos: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	videos := []Video{}
	for rows.Next() {
		var v Video
		if err := rows.Scan(
			&v.ID,
			&v.PlaylistID,
			&v.VimeoID,
			&v.Title,
			&v.ThumbnailURL,
			&v.DurationMs,
			&v.Position,
			&v.CreatedAt,
		); err != nil {
			log.Printf("playlist: get playlist scan video: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		log.Printf("playlist: get playlist rows: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"playlist": pl,
		"videos":   videos,
	})
}

// handlePatchPlaylist updates playlist metadata. Only the owner can update.
func (s *Server) handlePatchPlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	playlistID := chi.URLParam(r, "id")
	if playlistID == "" {
		writeError(w, http.StatusBadRequest, "missing playlist id")
		return
	}

	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsPublic    *bool   `json:"isPublic"`
		EditMode    *string `json:"editMode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("playlist: begin tx: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	var existing Playlist
	err = tx.QueryRow(ctx, `
		SELECT id, owner_id, name, description, is_public, edit_mode, created_at
		FROM playlists
		WHERE id = $1
	`, playlistID).Scan(
		&existing.ID,
		&existing.OwnerID,
		&existing.Name,
		&existing.Description,
		&existing.IsPublic,
		&existing.EditMode,
		&existing.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		log.Printf("playlist: fetch playlist: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if existing.OwnerID != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" || len(name) > 200 {
			writeError(w, http.StatusBadRequest, "name must be between 1 and 200 characters")
			return
		}
		existing.Name = name
	}
	if body.Description != nil {
		desc := strings.TrimSpace(*body.Description)
		if len(desc) > 1000 {
			writeError(w, http.StatusBadRequest, "description is too long")
			return
		}
		existing.Description = desc
	}
	if body.IsPublic != nil {
		existing.IsPublic = *body.IsPublic
	}
	if body.EditMode != nil {
		em := strings.ToLower(strings.TrimSpace(*body.EditMode))
		if em != editModeEveryone && em != editModeInvited {
			writeError(w, http.StatusBadRequest, `invalid editMode (must be "everyone" or "invited")`)
			return
		}
		existing.EditMode = em
	}

	_, err = tx.Exec(ctx, `
		UPDATE playlists
		SET name = $2,
			description = $3,
			is_public = $4,
			edit_mode = $5
		WHERE id = $1
	`, existing.ID, existing.Name, existing.Description, existing.IsPublic, existing.EditMode)
	if err != nil {
		log.Printf("playlist: update playlist: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("playlist: commit tx: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.invalidateListCache(ctx)
	s.publishEvent(ctx, "playlist.updated", map[string]any{"playlist": existing})

	writeJSON(w, http.StatusOK, existing)
}

// handleDeletePlaylist removes a playlist and its videos. Owner only.
func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	playlistID := chi.URLParam(r, "id")
	if playlistID == "" {
		writeError(w, http.StatusBadRequest, "missing playlist id")
		return
	}

	ownerID, _, _, err := s.getPlaylistAccessInfo(ctx, playlistID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		log.Printf("playlist: delete playlist fetch: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if ownerID != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, playlistID); err != nil {
		log.Printf("playlist: delete playlist: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.invalidateListCache(ctx)
	s.publishEvent(ctx, "playlist.deleted", map[string]any{"playlistId": playlistID})

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
