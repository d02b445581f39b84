// Package web serves the browser pages. Each page is a thin HTML shell; the
// data is fetched by the browser from the JSON API.
package web

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mangashelf/internal/auth"
	"mangashelf/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates parses the embedded page templates for gin's HTML renderer.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// Assets serves the page scripts under /static.
func Assets() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// MangaLookup finds catalog entries by row id.
type MangaLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Manga, error)
}

type Handler struct {
	Mangas MangaLookup
}

func NewHandler(mangas MangaLookup) *Handler {
	return &Handler{Mangas: mangas}
}

type pageData struct {
	Page      string
	Title     string
	Username  string
	MangaID   int64
	Next      string
	Message   string
	CSRFToken string
}

// RegisterPublic mounts the pages reachable without a session.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/login", h.login)
	rg.GET("/register", h.register)
}

// RegisterPages mounts the session-gated pages.
func (h *Handler) RegisterPages(rg *gin.RouterGroup) {
	rg.GET("/", h.index)
	rg.GET("/manga/:id", h.detail)
	rg.GET("/read/:id", h.reader)
	rg.GET("/settings", h.settings)
}

func (h *Handler) login(c *gin.Context) {
	next := c.Query("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		next = ""
	}
	h.render(c, http.StatusOK, pageData{Page: "login", Title: "Log in", Next: next})
}

func (h *Handler) register(c *gin.Context) {
	h.render(c, http.StatusOK, pageData{Page: "register", Title: "Register"})
}

func (h *Handler) index(c *gin.Context) {
	h.render(c, http.StatusOK, pageData{Page: "index", Title: "Library"})
}

func (h *Handler) settings(c *gin.Context) {
	h.render(c, http.StatusOK, pageData{Page: "settings", Title: "Settings"})
}

func (h *Handler) detail(c *gin.Context) {
	m, ok := h.lookup(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, pageData{Page: "detail", Title: m.Title, MangaID: m.ID})
}

func (h *Handler) reader(c *gin.Context) {
	m, ok := h.lookup(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, pageData{Page: "reader", Title: m.Title, MangaID: m.ID})
}

func (h *Handler) lookup(c *gin.Context) (*models.Manga, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.render(c, http.StatusNotFound, pageData{Page: "error", Title: "Not found", Message: "Unknown manga."})
		return nil, false
	}
	m, err := h.Mangas.GetByID(c.Request.Context(), id)
	if err != nil {
		h.render(c, http.StatusInternalServerError, pageData{Page: "error", Title: "Error", Message: "Could not load manga."})
		return nil, false
	}
	if m == nil {
		h.render(c, http.StatusNotFound, pageData{Page: "error", Title: "Not found", Message: "Unknown manga."})
		return nil, false
	}
	return m, true
}

func (h *Handler) render(c *gin.Context, status int, data pageData) {
	if claims := auth.MustGetClaims(c); claims != nil {
		data.Username = claims.Username
	}
	data.CSRFToken = auth.CSRFToken(c)
	c.HTML(status, "page", data)
}
