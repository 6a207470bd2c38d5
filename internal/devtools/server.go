package devtools

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nacnacnacnac/naberlamusic-sub000/internal/playback"
	"github.com/nacnacnacnac/naberlamusic-sub000/internal/realtime"
)

//go:embed templates/*.gohtml
var tplFS embed.FS

// Server is the development-only debug surface. Mount it behind the
// DEV_MODE flag; it exposes per-session counters and simulation hooks
// that have no place in production.
type Server struct {
	registry *realtime.Registry
	wsURL    string
}

func NewServer(registry *realtime.Registry, wsURL string) *Server {
	return &Server{registry: registry, wsURL: wsURL}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/", s.handleHarness)
	r.Get("/sessions", s.handleListSessions)
	r.Get("/sessions/{id}/counters", s.withDiag(s.handleCounters))
	r.Get("/sessions/{id}/history", s.withDiag(s.handleHistory))
	r.Get("/sessions/{id}/validate", s.withDiag(s.handleValidate))
	r.Post("/sessions/{id}/footer-press", s.withDiag(s.handleFooterPress))
	r.Post("/sessions/{id}/stress", s.withDiag(s.handleStress))

	return r
}

// handleHarness serves a minimal page that connects a fake player over
// the websocket, so the command path can be exercised without a device.
func (s *Server) handleHarness(w http.ResponseWriter, r *http.Request) {
	tpl, err := template.ParseFS(tplFS, "templates/harness.gohtml")
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	data := map[string]any{
		"WS":       s.wsURL,
		"Sessions": s.registry.List(),
	}
	if err := tpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	type sessionInfo struct {
		ID         string            `json:"id"`
		State      playback.State    `json:"state"`
		Counters   playback.Counters `json:"counters"`
		LastActive time.Time         `json:"lastActive"`
	}

	infos := []sessionInfo{}
	for _, id := range s.registry.List() {
		sess, ok := s.registry.Get(id)
		if !ok {
			continue
		}
		infos = append(infos, sessionInfo{
			ID:         id,
			State:      sess.State(),
			Counters:   sess.Counters(),
			LastActive: sess.LastActive(),
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

// withDiag resolves the session id and hands the handler a diagnostics
// wrapper, so the individual handlers stay one-liners.
func (s *Server) withDiag(h func(http.ResponseWriter, *http.Request, *playback.Diagnostics)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.registry.Get(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h(w, r, playback.NewDiagnostics(sess))
	}
}

func (s *Server) handleCounters(w http.ResponseWriter, r *http.Request, d *playback.Diagnostics) {
	writeJSON(w, http.StatusOK, d.Counters())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, d *playback.Diagnostics) {
	writeJSON(w, http.StatusOK, d.History())
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request, d *playback.Diagnostics) {
	writeJSON(w, http.StatusOK, d.Validate(r.Context()))
}

func (s *Server) handleFooterPress(w http.ResponseWriter, r *http.Request, d *playback.Diagnostics) {
	d.SimulateFooterButtonPress(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"pressed": true})
}

func (s *Server) handleStress(w http.ResponseWriter, r *http.Request, d *playback.Diagnostics) {
	var body struct {
		Count      int `json:"count"`
		IntervalMs int `json:"intervalMs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Count <= 0 {
		writeError(w, http.StatusBadRequest, "count must be > 0")
		return
	}

	// Detached from the request context so the toggles outlive it.
	d.StressTestPlayPause(context.Background(), body.Count, time.Duration(body.IntervalMs)*time.Millisecond)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"started": true,
		"count":   body.Count,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
