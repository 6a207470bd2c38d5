package playlist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestHandleListPlaylists_Success(t *testing.T) {
	mockDB := &MockDB{}
	srv := NewServer(mockDB, nil, nil)
	r := chi.NewRouter()
	r.Get("/playlists", srv.handleListPlaylists)

	mockDB.QueryFunc = func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
		if strings.Contains(sql, "FROM playlists") && strings.Contains(sql, "is_public = TRUE") {
			return newMockRows([][]any{
				{"pl-1", "user-1", "Road Trip", "Videos for the drive", true, "everyone", time.Now()},
				{"pl-2", "user-2", "Late Night", "", true, "invited", time.Now()},
			}), nil
		}
		return nil, errors.New("unexpected query: " + sql)
	}

	req := httptest.NewRequest("GET", "/playlists", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 OK, got %d", w.Code)
	}

	var playlists []Playlist
	json.NewDecoder(w.Body).Decode(&playlists)
	if len(playlists) != 2 {
		t.Fatalf("Expected 2 playlists, got %d", len(playlists))
	}
	if playlists[0].ID != "pl-1" {
		t.Errorf("Expected pl-1, got %s", playlists[0].ID)
	}
}

func TestHandleCreatePlaylist_Success(t *testing.T) {
	mockDB := &MockDB{}
	srv := NewServer(mockDB, nil, nil)
	r := chi.NewRouter()
	r.Post("/playlists", srv.handleCreatePlaylist)

	mockDB.QueryRowFunc = func(ctx context.Context, sql string, args ...any) pgx.Row {
		if !strings.Contains(sql, "INSERT INTO playlists") {
			t.Errorf("unexpected query: %s", sql)
		}
		return &MockRow{
			ScanFunc: func(dest ...any) error {
				*dest[0].(*string) = "pl-new"
				*dest[1].(*string) = args[0].(string)
				*dest[2].(*string) = args[1].(string)
				*dest[3].(*string) = args[2].(string)
				*dest[4].(*bool) = args[3].(bool)
				*dest[5].(*string) = args[4].(string)
				*dest[6].(*time.Time) = time.Now()
				return nil
			},
		}
	}

	body, _ := json.Marshal(map[string]any{"name": "Morning Mix", "isPublic": false})
	req := httptest.NewRequest("POST", "/playlists", bytes.NewReader(body))
	req.Header.Set("X-User-Id", "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 Created, got %d: %s", w.Code, w.Body.String())
	}

	var pl Playlist
	json.NewDecoder(w.Body).Decode(&pl)
	if pl.ID != "pl-new" || pl.Name != "Morning Mix" || pl.IsPublic {
		t.Errorf("unexpected playlist: %+v", pl)
	}
	if pl.EditMode != "everyone" {
		t.Errorf("Expected default editMode everyone, got %s", pl.EditMode)
	}
}

func TestHandleCreatePlaylist_Errors(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		body     map[string]any
		wantCode int
	}{
		{"missing user", "", map[string]any{"name": "X"}, http.StatusUnauthorized},
		{"empty name", "user-1", map[string]any{"name": "   "}, http.StatusBadRequest},
		{"name too long", "user-1", map[string]any{"name": strings.Repeat("a", 201)}, http.StatusBadRequest},
		{"bad edit mode", "user-1", map[string]any{"name": "X", "editMode": "owners-only"}, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := NewServer(&MockDB{}, nil, nil)
			r := chi.NewRouter()
			r.Post("/playlists", srv.handleCreatePlaylist)

			body, _ := json.Marshal(tc.body)
			req := httptest.NewRequest("POST", "/playlists", bytes.NewReader(body))
			if tc.userID != "" {
				req.Header.Set("X-User-Id", tc.userID)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Errorf("Expected %d, got %d", tc.wantCode, w.Code)
			}
		})
	}
}

func TestHandlePatchPlaylist_Success(t *testing.T) {
	mockDB := &MockDB{}
	srv := NewServer(mockDB, nil, nil)
	r := chi.NewRouter()
	r.Patch("/playlists/{id}", srv.handlePatchPlaylist)

	userID := "owner-123"
	playlistID := "pl-001"

	mockDB.BeginTxFunc = func(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
		return &MockTx{
			QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
				return &MockRow{
					ScanFunc: func(dest ...any) error {
						*dest[0].(*string) = playlistID
						*dest[1].(*string) = userID
						*dest[2].(*string) = "Old Name"
						*dest[3].(*string) = "Old Desc"
						*dest[4].(*bool) = false
						*dest[5].(*string) = "invited"
						*dest[6].(*time.Time) = time.Now()
						return nil
					},
				}
			},
			ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				if strings.Contains(sql, "UPDATE playlists") {
					return pgconn.CommandTag{}, nil
				}
				return pgconn.CommandTag{}, errors.New("unexpected exec")
			},
		}, nil
	}

	body, _ := json.Marshal(map[string]any{"name": "New Name"})
	req := httptest.NewRequest("PATCH", fmt.Sprintf("/playlists/%s", playlistID), bytes.NewReader(body))
	req.Header.Set("X-User-Id", userID)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}

	var pl Playlist
	json.NewDecoder(w.Body).Decode(&pl)
	if pl.Name != "New Name" {
		t.Errorf("Expected New Name, got %s", pl.Name)
	}
	if pl.Description != "Old Desc" {
		t.Errorf("Untouched fields must survive the patch, got %+v", pl)
	}
}

func TestHandlePatchPlaylist_Forbidden(t *testing.T) {
	mockDB := &MockDB{}
	srv := NewServer(mockDB, nil, nil)
	r := chi.NewRouter()
	r.Patch("/playlists/{id}", srv.handlePatchPlaylist)

	mockDB.BeginTxFunc = func(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
		return &MockTx{
			QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
				return &MockRow{
					ScanFunc: func(dest ...any) error {
						*dest[0].(*string) = "pl-001"
						*dest[1].(*string) = "someone-else"
						*dest[2].(*string) = "Name"
						*dest[3].(*string) = ""
						*dest[4].(*bool) = true
						*dest[5].(*string) = "everyone"
						*dest[6].(*time.Time) = time.Now()
						return nil
					},
				}
			},
		}, nil
	}

	body, _ := json.Marshal(map[string]any{"name": "Hijacked"})
	req := httptest.NewRequest("PATCH", "/playlists/pl-001", bytes.NewReader(body))
	req.Header.Set("X-User-Id", "attacker")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 Forbidden, got %d", w.Code)
	}
}

func TestHandleDeletePlaylist_OwnerOnly(t *testing.T) {
	mockDB := &MockDB{}
	srv := NewServer(mockDB, nil, nil)
	r := chi.NewRouter()
	r.Delete("/playlists/{id}", srv.handleDeletePlaylist)

	mockDB.QueryRowFunc = func(ctx context.Context, sql string, args ...any) pgx.Row {
		return &MockRow{
			ScanFunc: func(dest ...any) error {
				*dest[0].(*string) = "owner-123"
				*dest[1].(*bool) = true
				*dest[2].(*string) = "everyone"
				return nil
			},
		}
	}

	req := httptest.NewRequest("DELETE", "/playlists/pl-001", nil)
	req.Header.Set("X-User-Id", "not-the-owner")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 Forbidden, got %d", w.Code)
	}

	deleted := false
	mockDB.ExecFunc = func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		if strings.Contains(sql, "DELETE FROM playlists") {
			deleted = true
		}
		return pgconn.CommandTag{}, nil
	}

	req = httptest.NewRequest("DELETE", "/playlists/pl-001", nil)
	req.Header.Set("X-User-Id", "owner-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 OK, got %d", w.Code)
	}
	if !deleted {
		t.Error("Expected DELETE FROM playlists to run")
	}
}

func TestHandleGetPlaylist_NotFound(t *testing.T) {
	mockDB := &MockDB{}
	srv := NewServer(mockDB, nil, nil)
	r := chi.NewRouter()
	r.Get("/playlists/{id}", srv.handleGetPlaylist)

	mockDB.QueryRowFunc = func(ctx context.Context, sql string, args ...any) pgx.Row {
		return &MockRow{ScanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	}

	req := httptest.NewRequest("GET", "/playlists/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestHandleGetPlaylist_PrivateRequiresMembership(t *testing.T) {
	mockDB := &MockDB{}
	srv := NewServer(mockDB, nil, nil)
	r := chi.NewRouter()
	r.Get("/playlists/{id}", srv.handleGetPlaylist)

	mockDB.QueryRowFunc = func(ctx context.Context, sql string, args ...any) pgx.Row {
		if strings.Contains(sql, "FROM playlist_members") {
			return &MockRow{ScanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
		}
		return &MockRow{
			ScanFunc: func(dest ...any) error {
				*dest[0].(*string) = "pl-001"
				*dest[1].(*string) = "owner-123"
				*dest[2].(*string) = "Secret"
				*dest[3].(*string) = ""
				*dest[4].(*bool) = false
				*dest[5].(*string) = "invited"
				*dest[6].(*time.Time) = time.Now()
				return nil
			},
		}
	}

	req := httptest.NewRequest("GET", "/playlists/pl-001", nil)
	req.Header.Set("X-User-Id", "outsider")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 Forbidden, got %d", w.Code)
	}
}
