package favorites

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mangashelf/internal/auth"
	"mangashelf/pkg/models"
)

// MangaLookup finds catalog entries by row id.
type MangaLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Manga, error)
}

type Handler struct {
	Repo   *Repo
	Mangas MangaLookup
}

func NewHandler(repo *Repo, mangas MangaLookup) *Handler {
	return &Handler{Repo: repo, Mangas: mangas}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/favorites", h.list)
	rg.GET("/mangas/:id/favorite", h.status)
	rg.POST("/mangas/:id/favorite", h.add)
	rg.DELETE("/mangas/:id/favorite", h.remove)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(items), "items": items})
}

func (h *Handler) status(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	m, ok := h.lookup(c)
	if !ok {
		return
	}

	fav, err := h.Repo.Has(c.Request.Context(), claims.UserID, m.Slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"manga_id": m.Slug, "favorite": fav})
}

func (h *Handler) add(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	m, ok := h.lookup(c)
	if !ok {
		return
	}

	if err := h.Repo.Add(c.Request.Context(), claims.UserID, m.Slug); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "manga_id": m.Slug, "favorite": true})
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	m, ok := h.lookup(c)
	if !ok {
		return
	}

	removed, err := h.Repo.Remove(c.Request.Context(), claims.UserID, m.Slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "manga_id": m.Slug, "favorite": false})
}

func (h *Handler) lookup(c *gin.Context) (*models.Manga, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid manga id"})
		return nil, false
	}
	m, err := h.Mangas.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return nil, false
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "manga not found"})
		return nil, false
	}
	return m, true
}
