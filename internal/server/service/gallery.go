package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gallery/internal/server/media"
	"gallery/internal/server/storage"
)

// Sentinel errors for the service layer.
var (
	ErrNotFound        = errors.New("asset not found")
	ErrMissingFilename = errors.New("missing filename")
	ErrInvalidFilename = errors.New("invalid filename")
	ErrAlreadyExists   = errors.New("asset already exists")
	ErrUnsupportedType = errors.New("only images and videos can be uploaded")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
)

// GalleryService owns asset visibility and deletion. It does not check
// authentication; callers gate mutating calls before reaching it.
type GalleryService struct {
	store       storage.Store
	maxFileSize int64
}

// NewGalleryService creates a new gallery service.
// A non-positive maxFileSize disables the upload size check.
func NewGalleryService(store storage.Store, maxFileSize int64) *GalleryService {
	return &GalleryService{
		store:       store,
		maxFileSize: maxFileSize,
	}
}

// List returns visible assets, plus hidden ones when includeHidden is set,
// newest first.
func (s *GalleryService) List(ctx context.Context, includeHidden bool) ([]media.Asset, error) {
	assets, err := s.store.List(ctx, includeHidden)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

// SetHidden moves the named asset into the hidden partition (hide=true) or
// back into the visible one. The asset must currently be in the opposite
// partition: hiding an already-hidden asset fails with ErrNotFound.
func (s *GalleryService) SetHidden(ctx context.Context, filename string, hide bool) (media.Visibility, error) {
	name, err := resolveName(filename)
	if err != nil {
		return 0, err
	}

	from, to := media.Hidden, media.Visible
	if hide {
		from, to = media.Visible, media.Hidden
	}

	if err := s.store.Move(name, from, to); err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return 0, fmt.Errorf("%w: %s is not %s", ErrNotFound, name, from)
		case errors.Is(err, fs.ErrExist):
			return 0, fmt.Errorf("%w: %s is already %s", ErrAlreadyExists, name, to)
		default:
			return 0, err
		}
	}

	slog.Info("asset visibility changed", "name", name, "visibility", to.String())
	return to, nil
}

// Delete permanently removes the named asset from whichever partition
// holds it, trying the visible partition first.
func (s *GalleryService) Delete(ctx context.Context, filename string) error {
	name, err := resolveName(filename)
	if err != nil {
		return err
	}

	for _, v := range []media.Visibility{media.Visible, media.Hidden} {
		err := s.store.Delete(name, v)
		if err == nil {
			slog.Info("asset deleted", "name", name, "visibility", v.String())
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Upload stores a new asset in the visible partition. Only images and
// videos are accepted, and a name held by any asset is refused.
func (s *GalleryService) Upload(ctx context.Context, filename string, data io.Reader, size int64) (*media.Asset, error) {
	if s.maxFileSize > 0 && size > s.maxFileSize {
		return nil, ErrFileTooLarge
	}

	name, err := resolveName(filename)
	if err != nil {
		return nil, err
	}
	if media.Classify(name) == media.KindUnknown {
		return nil, ErrUnsupportedType
	}

	if s.maxFileSize > 0 {
		data = io.LimitReader(data, s.maxFileSize+1)
	}

	asset, err := s.store.Save(name, data)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
		}
		return nil, err
	}

	if s.maxFileSize > 0 && asset.Size > s.maxFileSize {
		// Declared size understated the body.
		if err := s.store.Delete(name, media.Visible); err != nil {
			slog.Error("failed to remove oversized upload", "name", name, "error", err)
		}
		return nil, ErrFileTooLarge
	}

	slog.Info("asset uploaded",
		"name", asset.Name,
		"size", asset.Size,
		"type", string(asset.Kind),
	)
	return &asset, nil
}

// MediaPath returns the on-disk path of the named asset for serving.
// Hidden assets are only resolved when includeHidden is set.
func (s *GalleryService) MediaPath(ctx context.Context, filename string, includeHidden bool) (string, error) {
	name, err := resolveName(filename)
	if err != nil {
		return "", err
	}

	v := media.Visible
	if includeHidden {
		asset, err := s.store.Locate(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("%w: %s", ErrNotFound, name)
			}
			return "", err
		}
		v = asset.Visibility
	}

	path, err := s.store.GetPath(name, v)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", err
	}
	return path, nil
}

// --- Helpers ---

// resolveName sanitizes a caller-supplied filename and rejects names that
// can never refer to an asset.
func resolveName(filename string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", ErrMissingFilename
	}
	name := sanitizeFilename(filename)
	if name == "" || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return name, nil
}

const (
	maxNameBytes = 255
	maxExtBytes  = 16
)

// sanitizeFilename strips directory components and limits length.
func sanitizeFilename(name string) string {
	// Normalize Windows-style backslashes to forward slashes before
	// calling filepath.Base, which is platform-specific.
	name = strings.ReplaceAll(name, "\\", "/")

	// Take only the base name
	name = filepath.Base(name)

	// Limit length, keeping a short extension and whole runes
	if len(name) > maxNameBytes {
		ext := filepath.Ext(name)
		if len(ext) > maxExtBytes {
			ext = ""
		}
		name = truncateUTF8(name[:len(name)-len(ext)], maxNameBytes-len(ext)) + ext
	}

	if name == "/" || name == "." {
		return ""
	}
	return name
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
