package playlist

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

func TestHandleCreateShareCode(t *testing.T) {
	mockDB := &MockDB{}
	srv := NewServer(mockDB, nil, nil)
	r := chi.NewRouter()
	r.Post("/playlists/{id}/share", srv.handleCreateShareCode)

	var storedHash string
	mockDB.QueryRowFunc = func(ctx context.Context, sql string, args ...any) pgx.Row {
		return accessInfoRow("owner-123", false, "invited")
	}
	mockDB.ExecFunc = func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		if strings.Contains(sql, "INSERT INTO share_codes") {
			storedHash = args[2].(string)
		}
		return pgconn.CommandTag{}, nil
	}

	// Non-owner is rejected.
	req := httptest.NewRequest("POST", "/playlists/pl-001/share", nil)
	req.Header.Set("X-User-Id", "outsider")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 Forbidden, got %d", w.Code)
	}

	req = httptest.NewRequest("POST", "/playlists/pl-001/share", nil)
	req.Header.Set("X-User-Id", "owner-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 Created, got %d: %s", w.Code, w.Body.String())
	}

	var sc ShareCode
	json.NewDecoder(w.Body).Decode(&sc)
	_, secret, ok := strings.Cut(sc.Code, ".")
	if !ok || secret == "" {
		t.Fatalf("Expected code in id.secret form, got %q", sc.Code)
	}
	if sc.ExpiresAt.Before(time.Now()) {
		t.Errorf("Expected future expiry, got %v", sc.ExpiresAt)
	}

	// Only the hash hits the database, and it must verify the secret.
	if storedHash == "" || storedHash == secret {
		t.Fatalf("Expected bcrypt hash stored, got %q", storedHash)
	}
	if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(secret)) != nil {
		t.Error("Stored hash does not match the issued secret")
	}
}

func TestHandleRedeemShareCode(t *testing.T) {
	secret := "super-secret"
	hash, _ := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)

	newServer := func(expiresAt time.Time, joined *bool) *Server {
		mockDB := &MockDB{}
		mockDB.QueryRowFunc = func(ctx context.Context, sql string, args ...any) pgx.Row {
			if !strings.Contains(sql, "FROM share_codes") {
				t.Errorf("unexpected query: %s", sql)
			}
			return &MockRow{
				ScanFunc: func(dest ...any) error {
					*dest[0].(*string) = "pl-001"
					*dest[1].(*string) = string(hash)
					*dest[2].(*time.Time) = expiresAt
					return nil
				},
			}
		}
		mockDB.ExecFunc = func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			if strings.Contains(sql, "INSERT INTO playlist_members") && joined != nil {
				*joined = true
			}
			return pgconn.CommandTag{}, nil
		}
		return NewServer(mockDB, nil, nil)
	}

	redeem := func(srv *Server, code string) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		r.Post("/share/redeem", srv.handleRedeemShareCode)
		body, _ := json.Marshal(map[string]string{"code": code})
		req := httptest.NewRequest("POST", "/share/redeem", bytes.NewReader(body))
		req.Header.Set("X-User-Id", "new-member")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("valid code joins the playlist", func(t *testing.T) {
		joined := false
		srv := newServer(time.Now().Add(time.Hour), &joined)
		w := redeem(srv, "code-1."+secret)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200 OK, got %d: %s", w.Code, w.Body.String())
		}
		if !joined {
			t.Error("Expected membership insert")
		}
	})

	t.Run("expired code", func(t *testing.T) {
		srv := newServer(time.Now().Add(-time.Minute), nil)
		w := redeem(srv, "code-1."+secret)
		if w.Code != http.StatusGone {
			t.Errorf("Expected 410 Gone, got %d", w.Code)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		srv := newServer(time.Now().Add(time.Hour), nil)
		w := redeem(srv, "code-1.guessed")
		if w.Code != http.StatusForbidden {
			t.Errorf("Expected 403 Forbidden, got %d", w.Code)
		}
	})

	t.Run("malformed code", func(t *testing.T) {
		srv := newServer(time.Now().Add(time.Hour), nil)
		w := redeem(srv, "no-separator")
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestHandleToggleLike(t *testing.T) {
	mockDB := &MockDB{}
	srv := NewServer(mockDB, nil, nil)
	r := chi.NewRouter()
	r.Post("/videos/{vimeoId}/like", srv.handleToggleLike)

	// No existing like: the delete affects zero rows, so the handler
	// inserts and reports liked=true.
	inserted := false
	mockDB.ExecFunc = func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		if strings.Contains(sql, "DELETE FROM video_likes") {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		if strings.Contains(sql, "INSERT INTO video_likes") {
			inserted = true
		}
		return pgconn.CommandTag{}, nil
	}
	mockDB.QueryRowFunc = func(ctx context.Context, sql string, args ...any) pgx.Row {
		return &MockRow{ScanFunc: func(dest ...any) error {
			*dest[0].(*int) = 7
			return nil
		}}
	}

	req := httptest.NewRequest("POST", "/videos/42/like", nil)
	req.Header.Set("X-User-Id", "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", w.Code)
	}
	if !inserted {
		t.Error("Expected like insert")
	}

	var resp struct {
		Liked bool `json:"liked"`
		Likes int  `json:"likes"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.Liked || resp.Likes != 7 {
		t.Errorf("unexpected response: %+v", resp)
	}

	// Existing like: the delete removes it and reports liked=false.
	mockDB.ExecFunc = func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		if strings.Contains(sql, "DELETE FROM video_likes") {
			return pgconn.NewCommandTag("DELETE 1"), nil
		}
		t.Errorf("unexpected exec: %s", sql)
		return pgconn.CommandTag{}, nil
	}

	req = httptest.NewRequest("POST", "/videos/42/like", nil)
	req.Header.Set("X-User-Id", "user-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", w.Code)
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Liked {
		t.Error("Expected liked=false after removing the like")
	}
}

func TestHandleListLikes_RequiresUser(t *testing.T) {
	srv := NewServer(&MockDB{}, nil, nil)
	r := chi.NewRouter()
	r.Get("/me/likes", srv.handleListLikes)

	req := httptest.NewRequest("GET", "/me/likes", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}
