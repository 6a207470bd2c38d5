package playlist

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/nacnacnacnac/naberlamusic-sub000/internal/vimeo"
)

// DB is the pgx pool surface the handlers need; satisfied by
// *pgxpool.Pool and by the test doubles.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// VideoLookup resolves video metadata from the hosting platform;
// implemented by *vimeo.Client.
type VideoLookup interface {
	GetVideo(ctx context.Context, id string) (vimeo.VideoRef, error)
}

type Server struct {
	db     DB
	rdb    *redis.Client
	videos VideoLookup
}

func NewServer(db DB, rdb *redis.Client, videos VideoLookup) *Server {
	return &Server{
		db:     db,
		rdb:    rdb,
		videos: videos,
	}
}

// Router serves the playlist CRUD surface. Listing is reachable
// anonymously; mutating handlers require the user context headers set by
// the auth middleware.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)

	r.Get("/", s.handleListPlaylists)
	r.Post("/", s.handleCreatePlaylist)
	r.Get("/{id}", s.handleGetPlaylist)
	r.Patch("/{id}", s.handlePatchPlaylist)
	r.Delete("/{id}", s.handleDeletePlaylist)

	r.Post("/{id}/videos", s.handleAddVideo)
	r.Patch("/{id}/videos/{videoId}", s.handleMoveVideo)
	r.Delete("/{id}/videos/{videoId}", s.handleDeleteVideo)

	r.Get("/{id}/invites", s.handleListInvites)
	r.Delete("/{id}/invites/{userId}", s.handleDeleteInvite)

	r.Post("/{id}/share", s.handleCreateShareCode)
	r.Post("/share/redeem", s.handleRedeemShareCode)

	return r
}

// VideosRouter serves video metadata and the liked-song toggle.
func (s *Server) VideosRouter(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/{vimeoId}", s.handleGetVideoMeta)
	r.Post("/{vimeoId}/like", s.handleToggleLike)

	return r
}

// MeRouter serves the per-user surfaces; mount behind required auth.
func (s *Server) MeRouter(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/likes", s.handleListLikes)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "playlist",
	})
}
