package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangashelf/pkg/database"
	"mangashelf/pkg/utils"
)

type app struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func newApp(t *testing.T, libraryRoot string, opts ...func(*utils.Config)) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := utils.Config{
		Database: database.Config{Path: filepath.Join(t.TempDir(), "app.db")},
		Auth: utils.AuthConfig{
			JWTSecret:   "integration-secret",
			JWTIssuer:   "mangashelf",
			JWTDuration: time.Hour,
		},
		Library: utils.LibraryConfig{DefaultDirectory: libraryRoot},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	db, err := database.Open(cfg.Database)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	return &app{t: t, router: newRouter(cfg, db)}
}

func (a *app) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}
	a.router.ServeHTTP(w, req)
	return w
}

func (a *app) login() {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/register", `{"username":"reader","email":"reader@example.com","password":"pages!"}`)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/auth/login", `{"username":"reader","password":"pages!"}`)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" {
			a.cookie = c
		}
	}
	require.NotNil(a.t, a.cookie)
}

func writeManga(t *testing.T, root, name string, files ...string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("img "+f), 0o644))
	}
}

func TestGating(t *testing.T) {
	a := newApp(t, t.TempDir())

	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/login", "").Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/static/app.js", "").Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/mangas/list", "").Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/api/refresh-library", "").Code)

	w := a.do(http.MethodGet, "/read/1", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/login"))

	w = a.do(http.MethodGet, "/manga/one-piece/1.jpg", "")
	assert.Equal(t, http.StatusFound, w.Code)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestReadingFlow(t *testing.T) {
	root := t.TempDir()
	writeManga(t, root, "One Piece", "page10.jpg", "page2.jpg", "page1.jpg")
	writeManga(t, root, "Empty")
	a := newApp(t, root)
	a.login()

	w := a.do(http.MethodPost, "/api/refresh-library", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/api/mangas/list", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []struct {
			ID        int64  `json:"id"`
			MangaID   string `json:"manga_id"`
			PageCount int    `json:"page_count"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	item := list.Items[0]
	assert.Equal(t, "one-piece", item.MangaID)
	assert.Equal(t, 3, item.PageCount)
	id := strconv.FormatInt(item.ID, 10)

	w = a.do(http.MethodGet, "/api/mangas/"+id+"/images", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/manga/one-piece/page10.jpg")

	w = a.do(http.MethodGet, "/manga/one-piece/page2.jpg", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "img page2.jpg", w.Body.String())

	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/read/"+id, "").Code)

	w = a.do(http.MethodPost, "/api/mangas/"+id+"/favorite", "")
	require.Equal(t, http.StatusOK, w.Code)

	// rename keeps the slug, so the favorite and the file route still work after refresh
	require.NoError(t, os.Rename(filepath.Join(root, "One Piece"), filepath.Join(root, "one piece")))
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/refresh-library", "").Code)

	w = a.do(http.MethodGet, "/api/favorites", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"manga_id":"one-piece"`)

	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/manga/one-piece/page1.jpg", "").Code)
}

func TestSettingsDriveTheLibraryRoot(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeManga(t, second, "Naruto", "1.jpg")
	a := newApp(t, first)
	a.login()

	w := a.do(http.MethodPost, "/api/refresh-library", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_mangas":0`)

	payload, _ := json.Marshal(map[string]string{"manga_directory": second})
	w = a.do(http.MethodPost, "/api/settings", string(payload))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/refresh-library", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_mangas":1`)
}

func withCSRF(cfg *utils.Config) {
	cfg.Auth.CSRFEnabled = true
	cfg.Auth.CSRFSecret = "0123456789abcdef0123456789abcdef"
}

func TestCSRFEnabled_JSONClientsCanSignIn(t *testing.T) {
	root := t.TempDir()
	writeManga(t, root, "One Piece", "1.jpg")
	a := newApp(t, root, withCSRF)

	// register and login carry no session yet and must not need a CSRF token
	a.login()

	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/mangas/list", "").Code)

	// a cookie alone is not enough for a state-changing request
	w := a.do(http.MethodPost, "/api/refresh-library", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "CSRF")

	// header-token clients are not exposed to cross-site forgery
	req, _ := http.NewRequest(http.MethodPost, "/api/refresh-library", nil)
	req.Header.Set("x-access-token", a.cookie.Value)
	w = httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"total_mangas":1`)
}
