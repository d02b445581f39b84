package settings

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"mangashelf/internal/library"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings", h.list)
	rg.POST("/settings", h.update)
	rg.POST("/settings/validate-directory", h.validateDirectory)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list settings failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": items})
}

func (h *Handler) update(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil || len(req) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "expected a JSON object of string settings"})
		return
	}

	// validate before writing anything so a bad directory never half-applies
	if dir, ok := req[KeyMangaDirectory]; ok {
		root, err := library.ValidateRoot(dir)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": library.Reason(err)})
			return
		}
		req[KeyMangaDirectory] = root
	}

	if err := h.Repo.SetMany(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "save settings failed"})
		return
	}

	keys := make([]string, 0, len(req))
	for k := range req {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message":          "Settings updated: " + strings.Join(keys, ", "),
		"updated_settings": keys,
	})
}

type validateReq struct {
	Directory string `json:"directory"`
}

func (h *Handler) validateDirectory(c *gin.Context) {
	var req validateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Directory) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "directory is empty"})
		return
	}

	stats, err := library.Inspect(req.Directory)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": library.Reason(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"directory":     stats.Directory,
		"manga_folders": stats.MangaFolders,
		"image_count":   stats.ImageCount,
		"message": fmt.Sprintf("Valid directory with %d manga folders and %d images",
			stats.MangaFolders, stats.ImageCount),
	})
}
