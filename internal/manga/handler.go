package manga

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"mangashelf/internal/library"
)

// RootSource yields the library root in effect for the current request.
type RootSource interface {
	LibraryRoot(ctx context.Context) (string, error)
}

type Handler struct {
	Repo       *Repo
	Roots      RootSource
	Reconciler *library.Reconciler

	// refreshing keeps refreshes from overlapping; the engine assumes one at a time.
	refreshing sync.Mutex
}

func NewHandler(repo *Repo, roots RootSource) *Handler {
	return &Handler{
		Repo:       repo,
		Roots:      roots,
		Reconciler: library.NewReconciler(repo),
	}
}

// RegisterRoutes mounts the JSON API on an API-authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/mangas/list", h.list)
	rg.GET("/mangas/:id", h.getByID)
	rg.POST("/mangas/:id/view", h.view)
	rg.GET("/mangas/:id/images", h.images)
	rg.POST("/refresh-library", h.refresh)
}

// RegisterFileRoutes mounts page image serving on a page-authenticated group.
func (h *Handler) RegisterFileRoutes(rg *gin.RouterGroup) {
	rg.GET("/manga/:id/:filename", h.serveFile)
}

func (h *Handler) list(c *gin.Context) {
	search := c.Query("search")
	if search == "" {
		search = c.Query("q")
	}
	q := ListQuery{
		Search: search,
		Status: c.Query("status"),
		Limit:  parseInt(c.Query("limit"), 0),
		Offset: parseInt(c.Query("offset"), 0),
	}

	total, err := h.Repo.Count(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	m, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "manga not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) view(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	m, err := h.Repo.IncrementViews(c.Request.Context(), id, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update views failed"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "manga not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

type imageItem struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

func (h *Handler) images(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	m, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "manga not found"})
		return
	}

	root, err := h.Roots.LibraryRoot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "library root unavailable"})
		return
	}

	dir, err := library.Resolve(root, m.Slug)
	if err != nil {
		c.JSON(libraryStatus(err), gin.H{"error": "manga directory not found"})
		return
	}

	names, err := library.ListImages(dir)
	if err != nil {
		if errors.Is(err, library.ErrPermissionDenied) {
			c.JSON(http.StatusForbidden, gin.H{"error": "no permission to read the manga directory"})
			return
		}
		c.JSON(libraryStatus(err), gin.H{"error": "list images failed"})
		return
	}

	items := make([]imageItem, 0, len(names))
	for _, n := range names {
		items = append(items, imageItem{Filename: n, URL: library.PageURL(m.Slug, n)})
	}
	c.JSON(http.StatusOK, gin.H{
		"images":     items,
		"totalPages": len(items),
	})
}

func (h *Handler) serveFile(c *gin.Context) {
	root, err := h.Roots.LibraryRoot(c.Request.Context())
	if err != nil {
		c.String(http.StatusInternalServerError, "library root unavailable")
		return
	}
	p, err := library.ResolveFile(root, c.Param("id"), c.Param("filename"))
	if err != nil {
		if errors.Is(err, library.ErrPermissionDenied) {
			c.String(http.StatusForbidden, "forbidden")
			return
		}
		c.String(http.StatusNotFound, "file not found")
		return
	}
	c.File(p)
}

type skippedItem struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func (h *Handler) refresh(c *gin.Context) {
	if !h.refreshing.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "a library refresh is already running"})
		return
	}
	defer h.refreshing.Unlock()

	ctx := c.Request.Context()
	root, err := h.Roots.LibraryRoot(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "library root unavailable"})
		return
	}

	res, err := h.Reconciler.Reconcile(ctx, root)
	if err != nil {
		log.Printf("[refresh] %s: %v", root, err)
		c.JSON(libraryStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}

	total, err := h.Repo.Total(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "count failed"})
		return
	}

	skipped := make([]skippedItem, 0, len(res.Skipped))
	for _, s := range res.Skipped {
		skipped = append(skipped, skippedItem{Name: s.Name, Reason: s.Reason})
	}
	log.Printf("[refresh] %s: %d written, %d skipped", root, res.Written, len(skipped))

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      fmt.Sprintf("Library refreshed. Total mangas: %d", total),
		"total_mangas": total,
		"written":      res.Written,
		"skipped":      skipped,
		"collisions":   res.Collisions,
	})
}

// libraryStatus maps an engine error kind to an HTTP status.
func libraryStatus(err error) int {
	switch {
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, library.ErrInvalidConfiguration):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid manga id"})
		return 0, false
	}
	return id, true
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
