package playlist

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const shareCodeTTL = 7 * 24 * time.Hour

// handleCreateShareCode mints an invite code for a playlist. Owner only.
// The code is "<id>.<secret>"; only the bcrypt hash of the secret is
// stored, so a leaked database cannot be replayed into memberships.
func (s *Server) handleCreateShareCode(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("playlist: share code fetch playlist: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if ownerID != userID {
		writeError(w, http.StatusForbidden, "only the owner can share this playlist")
		return
	}

	codeID := uuid.NewString()
	secret := uuid.NewString()

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("playlist: share code hash: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	expiresAt := time.Now().Add(shareCodeTTL)
	if _, err := s.db.Exec(ctx, `
		INSERT INTO share_codes (id, playlist_id, secret_hash, expires_at)
		VALUES ($1,$2,$3,$4)
	`, codeID, playlistID, string(hash), expiresAt); err != nil {
		log.Printf("playlist: share code insert: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusCreated, ShareCode{
		Code:      codeID + "." + secret,
		ExpiresAt: expiresAt,
	})
}

// handleRedeemShareCode exchanges a share code for membership in the
// playlist it was minted for.
func (s *Server) handleRedeemShareCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	codeID, secret, ok := strings.Cut(strings.TrimSpace(body.Code), ".")
	if !ok || codeID == "" || secret == "" {
		writeError(w, http.StatusBadRequest, "invalid share code")
		return
	}

	var (
		playlistID string
		secretHash string
		expiresAt  time.Time
	)
	err := s.db.QueryRow(ctx, `
		SELECT playlist_id, secret_hash, expires_at
		FROM share_codes
		WHERE id = $1
	`, codeID).Scan(&playlistID, &secretHash, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "share code not found")
		return
	}
	if err != nil {
		log.Printf("playlist: redeem share code fetch: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if time.Now().After(expiresAt) {
		writeError(w, http.StatusGone, "share code expired")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(secret)) != nil {
		writeError(w, http.StatusForbidden, "invalid share code")
		return
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO playlist_members (playlist_id, user_id)
		VALUES ($1,$2)
		ON CONFLICT (playlist_id, user_id) DO NOTHING
	`, playlistID, userID); err != nil {
		log.Printf("playlist: redeem share code insert member: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, "playlist.member_joined", map[string]any{
		"playlistId": playlistID,
		"userId":     userID,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"playlistId": playlistID,
		"joined":     true,
	})
}

// handleListInvites lists the members of a playlist. Owner only.
func (s *Server) handleListInvites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	playlistID := chi.URLParam(r, "id")
	ownerID, _, _, err := s.getPlaylistAccessInfo(ctx, playlistID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		log.Printf("playlist: list invites fetch playlist: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if ownerID != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	rows, err := s.db.Query(ctx, `
		SELECT user_id, created_at
		FROM playlist_members
		WHERE playlist_id = $1
		ORDER BY created_at ASC
	`, playlistID)
	if err != nil {
		log.Printf("playlist: list invites: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	invites := []PlaylistInvite{}
	for rows.Next() {
		var inv PlaylistInvite
		if err := rows.Scan(&inv.UserID, &inv.CreatedAt); err != nil {
			log.Printf("playlist: list invites scan: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		log.Printf("playlist: list invites rows: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, invites)
}

// handleDeleteInvite revokes a member's access. Owner only.
func (s *Server) handleDeleteInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	playlistID := chi.URLParam(r, "id")
	memberID := chi.URLParam(r, "userId")

	ownerID, _, _, err := s.getPlaylistAccessInfo(ctx, playlistID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		log.Printf("playlist: delete invite fetch playlist: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if ownerID != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	tag, err := s.db.Exec(ctx, `
		DELETE FROM playlist_members
		WHERE playlist_id = $1 AND user_id = $2
	`, playlistID, memberID)
	if err != nil {
		log.Printf("playlist: delete invite: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if tag.RowsAffected() == 0 {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	s.publishEvent(ctx, "playlist.member_removed", map[string]any{
		"playlistId": playlistID,
		"userId":     memberID,
	})

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
