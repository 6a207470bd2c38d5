package playlist

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func AutoMigrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlists (
          id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          owner_id    TEXT NOT NULL,
          name        TEXT NOT NULL,
          description TEXT NOT NULL DEFAULT '',
          is_public   BOOLEAN NOT NULL DEFAULT TRUE,
          edit_mode   TEXT NOT NULL DEFAULT 'everyone',
          created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `)
	if err != nil {
		log.Printf("playlist: migrate playlists: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlist_videos (
          id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          playlist_id   uuid NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
          vimeo_id      TEXT NOT NULL,
          title         TEXT NOT NULL DEFAULT '',
          thumbnail_url TEXT NOT NULL DEFAULT '',
          duration_ms   INT NOT NULL DEFAULT 0,
          position      INT NOT NULL,
          created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		log.Printf("playlist: migrate playlist_videos: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlist_members (
          playlist_id uuid NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
          user_id     TEXT NOT NULL,
          created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
          PRIMARY KEY (playlist_id, user_id)
      )
    `); err != nil {
		log.Printf("playlist: migrate playlist_members: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS video_likes (
          user_id    TEXT NOT NULL,
          vimeo_id   TEXT NOT NULL,
          created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
          PRIMARY KEY (user_id, vimeo_id)
      )
    `); err != nil {
		log.Printf("playlist: migrate video_likes: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS share_codes (
          id          uuid PRIMARY KEY,
          playlist_id uuid NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
          secret_hash TEXT NOT NULL,
          expires_at  TIMESTAMPTZ NOT NULL,
          created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		log.Printf("playlist: migrate share_codes: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_playlist_videos_playlist ON playlist_videos (playlist_id, position);
		CREATE INDEX IF NOT EXISTS idx_video_likes_vimeo ON video_likes (vimeo_id);
	`); err != nil {
		log.Printf("playlist: migrate indexes: %v", err)
		return err
	}

	return nil
}
