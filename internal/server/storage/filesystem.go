package storage

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gallery/internal/server/media"

	"golang.org/x/sync/errgroup"
)

const (
	// HiddenDir is the reserved subdirectory of the storage root that holds
	// hidden assets.
	HiddenDir = ".hidden"

	// reservedPrefix marks entries that are never listed as assets.
	reservedPrefix = "."

	tempPrefix = ".upload-"
	tempSuffix = ".tmp"
)

// ErrInvalidName is returned for names that are not a bare, non-reserved filename.
var ErrInvalidName = errors.New("invalid asset name")

// Store defines the interface for asset storage backends. Visibility is
// expressed as partition membership: an asset is hidden exactly when its
// backing object lives in the hidden partition.
type Store interface {
	EnsureDir() error
	List(ctx context.Context, includeHidden bool) ([]media.Asset, error)
	Stat(name string, v media.Visibility) (media.Asset, error)
	Locate(name string) (media.Asset, error)
	Save(name string, data io.Reader) (media.Asset, error)
	Move(name string, from, to media.Visibility) error
	Delete(name string, v media.Visibility) error
	GetPath(name string, v media.Visibility) (string, error)
	PurgeTemp(olderThan time.Duration) (int, error)
}

// FileSystemStore keeps visible assets directly under basePath and hidden
// assets under basePath/.hidden.
type FileSystemStore struct {
	basePath string
}

// NewFileSystemStore creates a new filesystem storage backend.
func NewFileSystemStore(basePath string) *FileSystemStore {
	return &FileSystemStore{basePath: basePath}
}

// Root returns the storage root, which is also the visible partition.
func (s *FileSystemStore) Root() string {
	return s.basePath
}

// EnsureDir creates both partitions if they don't exist.
func (s *FileSystemStore) EnsureDir() error {
	dir := s.dir(media.Hidden)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return nil
}

// List enumerates the visible partition and, when includeHidden is set, the
// hidden partition. The two partitions are read concurrently. Results are
// ordered newest first, ties broken by name.
func (s *FileSystemStore) List(ctx context.Context, includeHidden bool) ([]media.Asset, error) {
	var visible, hidden []media.Asset

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		visible, err = s.scan(ctx, media.Visible)
		return err
	})
	if includeHidden {
		g.Go(func() error {
			var err error
			hidden, err = s.scan(ctx, media.Hidden)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	assets := make([]media.Asset, 0, len(visible)+len(hidden))
	assets = append(assets, visible...)
	assets = append(assets, hidden...)
	SortNewestFirst(assets)
	return assets, nil
}

func (s *FileSystemStore) scan(ctx context.Context, v media.Visibility) ([]media.Asset, error) {
	dir := s.dir(v)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s partition: %w", v, err)
	}

	var assets []media.Asset
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.HasPrefix(entry.Name(), reservedPrefix) || !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Moved or deleted between ReadDir and Info.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		assets = append(assets, newAsset(filepath.Join(dir, entry.Name()), info, v))
	}
	return assets, nil
}

// Stat reads the asset named name from partition v.
func (s *FileSystemStore) Stat(name string, v media.Visibility) (media.Asset, error) {
	if err := validateName(name); err != nil {
		return media.Asset{}, err
	}
	path := s.filePath(name, v)
	info, err := os.Stat(path)
	if err != nil {
		return media.Asset{}, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return media.Asset{}, fmt.Errorf("%s is not a regular file: %w", name, fs.ErrNotExist)
	}
	return newAsset(path, info, v), nil
}

// Locate resolves the partition currently holding name, checking the
// visible partition first.
func (s *FileSystemStore) Locate(name string) (media.Asset, error) {
	asset, err := s.Stat(name, media.Visible)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return asset, err
	}
	return s.Stat(name, media.Hidden)
}

// Save writes data into the visible partition under name. The object is
// written to a temp file first and then linked into place, so a partial
// upload is never listed and an existing object is never replaced.
func (s *FileSystemStore) Save(name string, data io.Reader) (media.Asset, error) {
	if err := validateName(name); err != nil {
		return media.Asset{}, err
	}
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return media.Asset{}, fmt.Errorf("failed to create storage directory %s: %w", s.basePath, err)
	}
	if _, err := os.Lstat(s.filePath(name, media.Hidden)); err == nil {
		return media.Asset{}, fmt.Errorf("asset %s is hidden: %w", name, fs.ErrExist)
	}

	tmp, err := os.CreateTemp(s.basePath, tempPrefix+"*"+tempSuffix)
	if err != nil {
		return media.Asset{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, werr := io.Copy(tmp, data)
	cerr := tmp.Close()
	if werr != nil {
		return media.Asset{}, fmt.Errorf("failed to write file: %w", werr)
	}
	if cerr != nil {
		return media.Asset{}, fmt.Errorf("failed to flush file: %w", cerr)
	}

	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return media.Asset{}, fmt.Errorf("failed to set permissions: %w", err)
	}
	dst := s.filePath(name, media.Visible)
	if err := os.Link(tmp.Name(), dst); err != nil {
		return media.Asset{}, fmt.Errorf("failed to store %s: %w", name, err)
	}
	// A hide that ran during the copy vacated the visible slot. Once dst
	// exists an unhide cannot land, so one check here is enough.
	if _, err := os.Lstat(s.filePath(name, media.Hidden)); err == nil {
		if err := os.Remove(dst); err != nil {
			return media.Asset{}, fmt.Errorf("failed to undo store of %s: %w", name, err)
		}
		return media.Asset{}, fmt.Errorf("asset %s is hidden: %w", name, fs.ErrExist)
	}

	return s.Stat(name, media.Visible)
}

// Move transfers the backing object for name from one partition to the
// other with a single rename that refuses to overwrite. A missing source
// surfaces as fs.ErrNotExist.
func (s *FileSystemStore) Move(name string, from, to media.Visibility) error {
	if err := validateName(name); err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("asset %s is already %s", name, to)
	}

	src := s.filePath(name, from)
	if _, err := os.Lstat(src); err != nil {
		return fmt.Errorf("failed to move %s: %w", name, err)
	}
	if to == media.Hidden {
		if err := os.MkdirAll(s.dir(media.Hidden), 0755); err != nil {
			return fmt.Errorf("failed to create hidden partition: %w", err)
		}
	}

	if err := renameNoReplace(src, s.filePath(name, to)); err != nil {
		return fmt.Errorf("failed to move %s: %w", name, err)
	}
	return nil
}

// Delete removes the backing object for name from partition v.
// A missing object surfaces as fs.ErrNotExist.
func (s *FileSystemStore) Delete(name string, v media.Visibility) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.filePath(name, v)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// GetPath returns the path to a stored asset.
// Returns an error if the file does not exist in partition v.
func (s *FileSystemStore) GetPath(name string, v media.Visibility) (string, error) {
	if _, err := s.Stat(name, v); err != nil {
		return "", err
	}
	return s.filePath(name, v), nil
}

// PurgeTemp removes abandoned upload temp files older than olderThan and
// returns how many were removed.
func (s *FileSystemStore) PurgeTemp(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read storage root: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	var removed int
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, tempPrefix) || !strings.HasSuffix(name, tempSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.basePath, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("failed to remove temp file %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// SortNewestFirst orders assets by descending creation time, then by name.
func SortNewestFirst(assets []media.Asset) {
	slices.SortFunc(assets, func(a, b media.Asset) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

func (s *FileSystemStore) dir(v media.Visibility) string {
	if v == media.Hidden {
		return filepath.Join(s.basePath, HiddenDir)
	}
	return s.basePath
}

func (s *FileSystemStore) filePath(name string, v media.Visibility) string {
	return filepath.Join(s.dir(v), name)
}

func newAsset(path string, info fs.FileInfo, v media.Visibility) media.Asset {
	return media.Asset{
		Name:       info.Name(),
		Size:       info.Size(),
		CreatedAt:  createdAt(path, info).UTC(),
		Kind:       media.Classify(info.Name()),
		Visibility: v,
	}
}

// validateName accepts only bare filenames outside the reserved namespace.
func validateName(name string) error {
	if name == "" ||
		name != filepath.Base(name) ||
		strings.ContainsAny(name, `/\`) ||
		strings.HasPrefix(name, reservedPrefix) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// renameChecked refuses to overwrite dst, then renames. The check and the
// rename are not atomic; it backs renameNoReplace where the platform has no
// native no-replace rename.
func renameChecked(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: fs.ErrExist}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(src, dst)
}
