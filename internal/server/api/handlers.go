package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"gallery/internal/server/auth"
	"gallery/internal/server/media"
	"gallery/internal/server/service"

	"github.com/labstack/echo/v4"
)

// Handler contains the HTTP handlers for the gallery API.
type Handler struct {
	svc         *service.GalleryService
	guard       *auth.Guard
	cookie      auth.CookieOptions
	storageRoot string
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(svc *service.GalleryService, guard *auth.Guard, cookie auth.CookieOptions, storageRoot string) *Handler {
	return &Handler{
		svc:         svc,
		guard:       guard,
		cookie:      cookie,
		storageRoot: storageRoot,
	}
}

// assetResponse is the wire shape of an asset. Hidden is only present when
// the listing included hidden assets.
type assetResponse struct {
	Name    string     `json:"name"`
	Size    int64      `json:"size"`
	Created time.Time  `json:"created"`
	Type    media.Kind `json:"type"`
	Hidden  *bool      `json:"hidden,omitempty"`
}

func newAssetResponse(a media.Asset, withVisibility bool) assetResponse {
	resp := assetResponse{
		Name:    a.Name,
		Size:    a.Size,
		Created: a.CreatedAt,
		Type:    a.Kind,
	}
	if withVisibility {
		hidden := a.Visibility == media.Hidden
		resp.Hidden = &hidden
	}
	return resp
}

type loginRequest struct {
	Password string `json:"password"`
}

type hideRequest struct {
	Filename string `json:"filename"`
	Hide     bool   `json:"hide"`
}

type deleteRequest struct {
	Filename string `json:"filename"`
}

// HandleListFiles handles GET /api/files.
// Hidden assets are included when the includeHidden query param is "true".
func (h *Handler) HandleListFiles(c echo.Context) error {
	includeHidden := c.QueryParam("includeHidden") == "true"

	assets, err := h.svc.List(c.Request().Context(), includeHidden)
	if err != nil {
		slog.Error("failed to list files", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list files"})
	}

	files := make([]assetResponse, 0, len(assets))
	for _, a := range assets {
		files = append(files, newAssetResponse(a, includeHidden))
	}
	return c.JSON(http.StatusOK, echo.Map{"files": files})
}

// HandleUpload handles POST /api/upload.
// Accepts a multipart form with a "file" field.
func (h *Handler) HandleUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "file is required (use form field 'file')",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to read uploaded file",
		})
	}
	defer src.Close()

	asset, err := h.svc.Upload(c.Request().Context(), fileHeader.Filename, src, fileHeader.Size)
	if err != nil {
		return mapServiceError(c, err, "failed to store upload")
	}

	return c.JSON(http.StatusCreated, newAssetResponse(*asset, false))
}

// HandleServeMedia handles GET /uploads/:name. Only visible assets are served.
func (h *Handler) HandleServeMedia(c echo.Context) error {
	path, err := h.svc.MediaPath(c.Request().Context(), c.Param("name"), false)
	if err != nil {
		return mapServiceError(c, err, "failed to read file")
	}
	return c.File(path)
}

// HandleServeAnyMedia handles GET /api/manage/media/:name and serves an
// asset from either partition.
func (h *Handler) HandleServeAnyMedia(c echo.Context) error {
	path, err := h.svc.MediaPath(c.Request().Context(), c.Param("name"), true)
	if err != nil {
		return mapServiceError(c, err, "failed to read file")
	}
	return c.File(path)
}

// HandleLogin handles POST /api/manage/login.
func (h *Handler) HandleLogin(c echo.Context) error {
	var req loginRequest
	if err := decodeJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	s, err := h.guard.Login(c.Request().Context(), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			slog.Warn("admin login rejected", "ip", c.RealIP())
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
		}
		slog.Error("login failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	c.SetCookie(auth.NewSessionCookie(s, h.cookie))
	slog.Info("admin logged in", "ip", c.RealIP(), "expires_at", s.ExpiresAt)
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// HandleLogout handles POST /api/manage/logout.
// The cookie is cleared even if the session store could not be updated.
func (h *Handler) HandleLogout(c echo.Context) error {
	if err := h.guard.Logout(c.Request().Context(), sessionToken(c)); err != nil {
		slog.Error("logout failed", "error", err)
	}
	c.SetCookie(auth.ClearSessionCookie(h.cookie))
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// HandleStatus handles GET /api/manage/status.
func (h *Handler) HandleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"authenticated": h.guard.Status(c.Request().Context(), sessionToken(c)),
	})
}

// HandleHide handles POST /api/manage/hide.
func (h *Handler) HandleHide(c echo.Context) error {
	var req hideRequest
	if err := decodeJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	v, err := h.svc.SetHidden(c.Request().Context(), req.Filename, req.Hide)
	if err != nil {
		return mapServiceError(c, err, "failed to process hide/unhide")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"ok":     true,
		"hidden": v == media.Hidden,
	})
}

// HandleDelete handles DELETE /api/manage/file.
func (h *Handler) HandleDelete(c echo.Context) error {
	var req deleteRequest
	if err := decodeJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if err := h.svc.Delete(c.Request().Context(), req.Filename); err != nil {
		return mapServiceError(c, err, "failed to delete")
	}

	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// HandleHealth handles GET /health.
// Reports whether the storage root is reachable.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	storageStatus := "ok"

	if _, err := os.Stat(h.storageRoot); err != nil {
		status = "degraded"
		storageStatus = "unavailable"
		slog.Warn("storage root unavailable", "path", h.storageRoot, "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  status,
		"storage": storageStatus,
	})
}

// mapServiceError translates service-layer errors into appropriate HTTP
// responses. Unexpected errors are logged and reported with fallback only.
func mapServiceError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
	case errors.Is(err, service.ErrMissingFilename):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing filename"})
	case errors.Is(err, service.ErrInvalidFilename):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid filename"})
	case errors.Is(err, service.ErrUnsupportedType):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": service.ErrUnsupportedType.Error()})
	case errors.Is(err, service.ErrAlreadyExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "a file with that name already exists"})
	case errors.Is(err, service.ErrFileTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{
			"error": "file exceeds maximum allowed size",
		})
	default:
		slog.Error(fallback, "error", err, "path", c.Request().URL.Path)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
	}
}

// maxJSONBody caps management request bodies.
const maxJSONBody = 64 << 10

// decodeJSON reads a JSON body into v. An empty body leaves v zeroed.
func decodeJSON(c echo.Context, v any) error {
	err := json.NewDecoder(io.LimitReader(c.Request().Body, maxJSONBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// sessionToken returns the presented session marker, or "".
func sessionToken(c echo.Context) string {
	cookie, err := c.Cookie(auth.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
