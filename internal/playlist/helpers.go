package playlist

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

func (s *Server) getPlaylistAccessInfo(ctx context.Context, playlistID string) (ownerID string, isPublic bool, editMode string, err error) {
	err = s.db.QueryRow(ctx, `
		SELECT owner_id, is_public, edit_mode
		FROM playlists
		WHERE id = $1
	`, playlistID).Scan(&ownerID, &isPublic, &editMode)
	return
}

func (s *Server) userIsMember(ctx context.Context, playlistID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var uid string
	err := s.db.QueryRow(ctx, `
		SELECT user_id
		FROM playlist_members
		WHERE playlist_id = $1 AND user_id = $2
	`, playlistID, userID).Scan(&uid)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// canEdit applies the playlist write-access rules: the owner always may,
// otherwise edit_mode decides whether any visitor or only members may.
func canEdit(userID, ownerID, editMode string, member bool) bool {
	switch {
	case userID == "":
		return false
	case userID == ownerID:
		return true
	case editMode == editModeEveryone:
		return true
	case editMode == editModeInvited && member:
		return true
	}
	return false
}

func (s *Server) publishEvent(ctx context.Context, eventType string, payload any) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(map[string]any{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		log.Printf("playlist: marshal event: %v", err)
		return
	}
	if err := s.rdb.Publish(ctx, "broadcast", string(data)).Err(); err != nil {
		log.Printf("playlist: publish event: %v", err)
	}
}

// Playlist listings are cached per user under a generation counter;
// bumping the generation on any mutation invalidates every cached view
// at once. Stale keys just expire.
const listCacheTTL = 60 * time.Second

func (s *Server) listCacheKey(ctx context.Context, userID string) string {
	if userID == "" {
		userID = "anon"
	}
	gen := "0"
	if v, err := s.rdb.Get(ctx, "playlists:gen").Result(); err == nil {
		gen = v
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("playlist: cache gen get: %v", err)
	}
	return "playlists:view:" + gen + ":" + userID
}

func (s *Server) invalidateListCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Incr(ctx, "playlists:gen").Err(); err != nil {
		log.Printf("playlist: cache invalidate: %v", err)
	}
}
