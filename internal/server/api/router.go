package api

import (
	"fmt"

	"gallery/internal/server/auth"
	"gallery/internal/server/config"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes and middleware.
func SetupRouter(handler *Handler, guard *auth.Guard, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(RequestLogger())

	// Upload and login share one per-IP limiter
	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	requireAdmin := RequireAdmin(guard)

	e.GET("/health", handler.HandleHealth)

	// Public gallery
	e.GET("/api/files", handler.HandleListFiles)
	uploadMiddleware := []echo.MiddlewareFunc{limiter.Middleware()}
	if cfg.MaxFileSize > 0 {
		uploadMiddleware = append(uploadMiddleware, middleware.BodyLimit(uploadBodyLimit(cfg.MaxFileSize)))
	}
	e.POST("/api/upload", handler.HandleUpload, uploadMiddleware...)
	e.GET("/uploads/:name", handler.HandleServeMedia)

	// Session management
	manage := e.Group("/api/manage")
	manage.POST("/login", handler.HandleLogin, limiter.Middleware())
	manage.POST("/logout", handler.HandleLogout)
	manage.GET("/status", handler.HandleStatus)

	// Admin only
	manage.POST("/hide", handler.HandleHide, requireAdmin)
	manage.DELETE("/file", handler.HandleDelete, requireAdmin)
	manage.GET("/media/:name", handler.HandleServeAnyMedia, requireAdmin)

	return e
}

// multipartSlack covers multipart boundaries and part headers.
const multipartSlack = 64 << 10

// uploadBodyLimit bounds the raw upload request so multipart parsing
// never spools much more than one file of maxFileSize bytes.
func uploadBodyLimit(maxFileSize int64) string {
	return fmt.Sprintf("%dB", maxFileSize+multipartSlack)
}
