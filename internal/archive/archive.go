package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"gallery/internal/server/media"
	"gallery/internal/server/storage"
)

// HiddenPrefix is the archive directory holding hidden assets.
const HiddenPrefix = "hidden"

// Stats summarizes a written archive.
type Stats struct {
	Files int
	Bytes int64
}

// WriteZip writes assets as a zip archive to w. Visible assets sit at the
// archive root and hidden ones under HiddenPrefix. Assets removed after
// listing are skipped.
func WriteZip(ctx context.Context, w io.Writer, store storage.Store, assets []media.Asset) (Stats, error) {
	var stats Stats
	zw := zip.NewWriter(w)

	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return stats, err
		}

		src, err := store.GetPath(a.Name, a.Visibility)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			zw.Close()
			return stats, err
		}

		n, err := addFileToZip(zw, src, entryName(a))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			zw.Close()
			return stats, err
		}
		stats.Files++
		stats.Bytes += n
	}

	if err := zw.Close(); err != nil {
		return stats, fmt.Errorf("failed to close zip writer: %w", err)
	}
	return stats, nil
}

func entryName(a media.Asset) string {
	if a.Visibility == media.Hidden {
		return path.Join(HiddenPrefix, a.Name)
	}
	return a.Name
}

func addFileToZip(zw *zip.Writer, srcPath, archivePath string) (int64, error) {
	file, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open file %s: %w", srcPath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, fmt.Errorf("failed to create zip header: %w", err)
	}
	header.Name = archivePath
	// Images and videos are already compressed
	header.Method = zip.Store

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return 0, fmt.Errorf("failed to create zip entry: %w", err)
	}

	n, err := io.Copy(writer, file)
	if err != nil {
		return n, fmt.Errorf("failed to write file to zip: %w", err)
	}
	return n, nil
}
