package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mangashelf/internal/auth"
	"mangashelf/internal/favorites"
	"mangashelf/internal/manga"
	"mangashelf/internal/settings"
	"mangashelf/internal/web"
	"mangashelf/pkg/database"
	"mangashelf/pkg/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	db := database.MustOpen(cfg.Database)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	settingsRepo := settings.NewRepo(db, cfg.Library.DefaultDirectory)
	if err := settingsRepo.EnsureDefaults(context.Background()); err != nil {
		log.Fatalf("default settings failed: %v", err)
	}

	router := newRouter(cfg, db)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s (db %s)", cfg.HTTP.Addr, cfg.Database.Path)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}

func newRouter(cfg utils.Config, db *sql.DB) *gin.Engine {
	router := gin.Default()
	if err := router.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Printf("trusted proxies: %v", err)
	}
	router.SetHTMLTemplate(web.Templates())
	router.Use(auth.SecurityHeadersMiddleware(), auth.StrictTransportSecurityMiddleware())

	tokenSvc := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc, cfg.Auth.SecureCookies)
	authn := authHandler.Auth

	if cfg.Auth.CSRFEnabled {
		router.Use(auth.CSRFMiddleware([]byte(cfg.Auth.CSRFSecret), cfg.Auth.SecureCookies, authn,
			"/api/auth/register", "/api/auth/login"))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db_error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "db": "ok"})
	})

	settingsRepo := settings.NewRepo(db, cfg.Library.DefaultDirectory)
	mangaRepo := manga.NewRepo(db)
	mangaHandler := manga.NewHandler(mangaRepo, settingsRepo)
	webHandler := web.NewHandler(mangaRepo)

	authHandler.RegisterRoutes(router.Group("/api/auth"))

	api := router.Group("/api", authn.RequireAPI())
	mangaHandler.RegisterRoutes(api)
	settings.NewHandler(settingsRepo).RegisterRoutes(api)
	favorites.NewHandler(favorites.NewRepo(db), mangaRepo).RegisterRoutes(api)

	router.StaticFS("/static", web.Assets())
	webHandler.RegisterPublic(router.Group(""))
	pages := router.Group("", authn.RequirePage())
	webHandler.RegisterPages(pages)
	mangaHandler.RegisterFileRoutes(pages)

	return router
}
