package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nacnacnacnac/naberlamusic-sub000/internal/auth"
	"github.com/nacnacnacnac/naberlamusic-sub000/internal/devtools"
	"github.com/nacnacnacnac/naberlamusic-sub000/internal/playlist"
	"github.com/nacnacnacnac/naberlamusic-sub000/internal/realtime"
	"github.com/nacnacnacnac/naberlamusic-sub000/internal/vimeo"
)

func main() {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("naberla: pg: %v", err)
	}
	defer pool.Close()
	if err := playlist.AutoMigrate(ctx, pool); err != nil {
		log.Fatalf("naberla: migrate: %v", err)
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("naberla: redis: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	var lookup playlist.VideoLookup
	if cfg.VimeoToken != "" {
		lookup = vimeo.NewClient(cfg.VimeoToken, cfg.VimeoBaseURL, rdb)
	} else {
		log.Printf("naberla: VIMEO_TOKEN not set, video metadata lookup disabled")
	}

	registry := realtime.NewRegistry()
	registry.StartReaper(ctx, cfg.SessionReapInterval, cfg.SessionIdleAfter)

	hub := realtime.NewHub()
	go hub.Run()

	rtSrv := realtime.NewServer(registry, hub, rdb)
	go rtSrv.RunRedisSubscriber(ctx)

	plSrv := playlist.NewServer(pool, rdb, lookup)

	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Use(bodySizeLimitMiddleware(cfg.MaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"naberla"}`))
	})

	r.Mount("/api/playlists", plSrv.Router(auth.Optional(cfg.JWTSecret)))
	r.Mount("/api/videos", plSrv.VideosRouter(auth.Optional(cfg.JWTSecret)))
	r.Mount("/api/me", plSrv.MeRouter(auth.Middleware(cfg.JWTSecret)))
	r.Mount("/api/player", rtSrv.Router())

	if cfg.DevMode {
		log.Printf("naberla: DEV_MODE on, mounting /debug")
		r.Mount("/debug", devtools.NewServer(registry, cfg.WSURL).Router())
	}

	log.Printf("naberla on :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
