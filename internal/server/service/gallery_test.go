package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"gallery/internal/server/media"
	"gallery/internal/server/storage"
)

func newTestService(t *testing.T) (*GalleryService, string) {
	t.Helper()
	dir := t.TempDir()
	return NewGalleryService(storage.NewFileSystemStore(dir), 1024), dir
}

func seed(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("image bytes"), 0644); err != nil {
		t.Fatalf("failed to seed %s: %v", name, err)
	}
}

func listNames(t *testing.T, svc *GalleryService, includeHidden bool) map[string]media.Asset {
	t.Helper()
	assets, err := svc.List(context.Background(), includeHidden)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	out := make(map[string]media.Asset, len(assets))
	for _, a := range assets {
		out[a.Name] = a
	}
	return out
}

func TestGalleryService_SetHidden(t *testing.T) {
	ctx := context.Background()

	t.Run("hide removes asset from default listing", func(t *testing.T) {
		svc, dir := newTestService(t)
		seed(t, dir, "sunset.jpg")

		v, err := svc.SetHidden(ctx, "sunset.jpg", true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != media.Hidden {
			t.Errorf("expected hidden, got %s", v)
		}

		if _, ok := listNames(t, svc, false)["sunset.jpg"]; ok {
			t.Error("hidden asset should not appear in default listing")
		}
		a, ok := listNames(t, svc, true)["sunset.jpg"]
		if !ok || a.Visibility != media.Hidden {
			t.Errorf("expected hidden asset in full listing, got %+v", a)
		}
	})

	t.Run("round trip preserves metadata", func(t *testing.T) {
		svc, dir := newTestService(t)
		seed(t, dir, "sunset.jpg")
		before := listNames(t, svc, false)["sunset.jpg"]

		if _, err := svc.SetHidden(ctx, "sunset.jpg", true); err != nil {
			t.Fatalf("hide failed: %v", err)
		}
		v, err := svc.SetHidden(ctx, "sunset.jpg", false)
		if err != nil {
			t.Fatalf("unhide failed: %v", err)
		}
		if v != media.Visible {
			t.Errorf("expected visible, got %s", v)
		}

		after, ok := listNames(t, svc, false)["sunset.jpg"]
		if !ok {
			t.Fatal("expected asset back in default listing")
		}
		if after.Size != before.Size || !after.CreatedAt.Equal(before.CreatedAt) || after.Kind != before.Kind {
			t.Errorf("metadata changed: before %+v, after %+v", before, after)
		}
	})

	t.Run("hiding a hidden asset is not found", func(t *testing.T) {
		svc, dir := newTestService(t)
		seed(t, dir, "sunset.jpg")
		svc.SetHidden(ctx, "sunset.jpg", true)

		if _, err := svc.SetHidden(ctx, "sunset.jpg", true); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("hiding an absent asset is not found", func(t *testing.T) {
		svc, _ := newTestService(t)

		if _, err := svc.SetHidden(ctx, "missing.png", true); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("unhiding a visible asset is not found", func(t *testing.T) {
		svc, dir := newTestService(t)
		seed(t, dir, "sunset.jpg")

		if _, err := svc.SetHidden(ctx, "sunset.jpg", false); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("path components are stripped", func(t *testing.T) {
		svc, dir := newTestService(t)
		seed(t, dir, "sunset.jpg")

		if _, err := svc.SetHidden(ctx, "../../etc/sunset.jpg", true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, storage.HiddenDir, "sunset.jpg")); err != nil {
			t.Errorf("expected sanitized name to be hidden: %v", err)
		}
	})

	t.Run("missing filename", func(t *testing.T) {
		svc, _ := newTestService(t)

		if _, err := svc.SetHidden(ctx, "", true); !errors.Is(err, ErrMissingFilename) {
			t.Errorf("expected ErrMissingFilename, got %v", err)
		}
	})

	t.Run("reserved name is rejected", func(t *testing.T) {
		svc, dir := newTestService(t)
		os.MkdirAll(filepath.Join(dir, storage.HiddenDir), 0755)

		if _, err := svc.SetHidden(ctx, ".hidden", true); !errors.Is(err, ErrInvalidFilename) {
			t.Errorf("expected ErrInvalidFilename, got %v", err)
		}
	})
}

func TestGalleryService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes visible asset then reports not found", func(t *testing.T) {
		svc, dir := newTestService(t)
		seed(t, dir, "a.png")

		if err := svc.Delete(ctx, "a.png"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(listNames(t, svc, true)) != 0 {
			t.Error("expected store to be empty")
		}
		if err := svc.Delete(ctx, "a.png"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("deletes hidden asset", func(t *testing.T) {
		svc, dir := newTestService(t)
		seed(t, dir, "a.png")
		svc.SetHidden(ctx, "a.png", true)

		if err := svc.Delete(ctx, "a.png"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, storage.HiddenDir, "a.png")); !os.IsNotExist(err) {
			t.Error("expected hidden asset to be removed")
		}
	})

	t.Run("absent asset is not found", func(t *testing.T) {
		svc, _ := newTestService(t)

		if err := svc.Delete(ctx, "missing.png"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("cannot escape the storage root", func(t *testing.T) {
		root := t.TempDir()
		dir := filepath.Join(root, "uploads")
		os.MkdirAll(dir, 0755)
		svc := NewGalleryService(storage.NewFileSystemStore(dir), 0)
		seed(t, root, "outside.png")

		if err := svc.Delete(ctx, "../outside.png"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(root, "outside.png")); err != nil {
			t.Error("file outside the root must survive")
		}
	})
}

func TestGalleryService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("stores image in visible partition", func(t *testing.T) {
		svc, dir := newTestService(t)

		asset, err := svc.Upload(ctx, `C:\photos\sunset.jpg`, strings.NewReader("jpeg"), 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if asset.Name != "sunset.jpg" || asset.Kind != media.KindImage || asset.Visibility != media.Visible {
			t.Errorf("unexpected asset: %+v", asset)
		}
		if _, err := os.Stat(filepath.Join(dir, "sunset.jpg")); err != nil {
			t.Errorf("expected file on disk: %v", err)
		}
	})

	t.Run("rejects unknown media type", func(t *testing.T) {
		svc, _ := newTestService(t)

		if _, err := svc.Upload(ctx, "notes.txt", strings.NewReader("x"), 1); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("expected ErrUnsupportedType, got %v", err)
		}
	})

	t.Run("rejects declared size over limit", func(t *testing.T) {
		svc, _ := newTestService(t)

		if _, err := svc.Upload(ctx, "big.mp4", strings.NewReader("x"), 4096); !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("expected ErrFileTooLarge, got %v", err)
		}
	})

	t.Run("rejects understated body over limit", func(t *testing.T) {
		svc, dir := newTestService(t)

		body := strings.Repeat("x", 2048)
		if _, err := svc.Upload(ctx, "big.mp4", strings.NewReader(body), 10); !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("expected ErrFileTooLarge, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "big.mp4")); !os.IsNotExist(err) {
			t.Error("oversized upload should be removed")
		}
	})

	t.Run("rejects name held by hidden asset", func(t *testing.T) {
		svc, dir := newTestService(t)
		seed(t, dir, "a.png")
		svc.SetHidden(ctx, "a.png", true)

		if _, err := svc.Upload(ctx, "a.png", strings.NewReader("x"), 1); !errors.Is(err, ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestGalleryService_MediaPath(t *testing.T) {
	ctx := context.Background()
	svc, dir := newTestService(t)
	seed(t, dir, "shown.png")
	seed(t, dir, "secret.png")
	svc.SetHidden(ctx, "secret.png", true)

	if _, err := svc.MediaPath(ctx, "shown.png", false); err != nil {
		t.Errorf("expected visible asset path, got %v", err)
	}
	if _, err := svc.MediaPath(ctx, "secret.png", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("hidden asset must not resolve publicly, got %v", err)
	}
	path, err := svc.MediaPath(ctx, "secret.png", true)
	if err != nil {
		t.Fatalf("expected hidden asset path, got %v", err)
	}
	if path != filepath.Join(dir, storage.HiddenDir, "secret.png") {
		t.Errorf("unexpected path %s", path)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "file.jpg", "file.jpg"},
		{"strips directory", "/path/to/file.jpg", "file.jpg"},
		{"strips windows path", "C:\\Users\\test\\file.jpg", "file.jpg"},
		{"strips traversal", "../../etc/passwd", "passwd"},
		{"empty name", "", ""},
		{"dot name", ".", ""},
		{"root", "/", ""},
		{"replaces slashes", "a/b/c.jpg", "c.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSanitizeFilename_LimitsLength(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantExt string
	}{
		{"keeps extension", strings.Repeat("a", 300) + ".jpg", ".jpg"},
		{"oversized extension", "a." + strings.Repeat("b", 300), ""},
		{"extension alone too long", "." + strings.Repeat("b", 300), ""},
		{"multibyte runes", strings.Repeat("é", 200) + ".png", ".png"},
		{"multibyte extension", "a." + strings.Repeat("é", 200), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeFilename(tt.input)
			if len(got) == 0 || len(got) > 255 {
				t.Fatalf("expected 1..255 bytes, got %d", len(got))
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncation split a rune: %q", got[len(got)-4:])
			}
			if tt.wantExt != "" && !strings.HasSuffix(got, tt.wantExt) {
				t.Errorf("expected extension %s to be kept, got %q", tt.wantExt, got[len(got)-8:])
			}
		})
	}
}

func TestGalleryService_LongNames(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	long := "a." + strings.Repeat("b", 300)

	if err := svc.Delete(ctx, long); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.SetHidden(ctx, long, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("hide: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Upload(ctx, long, strings.NewReader("x"), 1); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("upload: expected ErrUnsupportedType, got %v", err)
	}
}
