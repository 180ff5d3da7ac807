//go:build !linux

package storage

import (
	"io/fs"
	"time"
)

// createdAt falls back to the modification time. Assets are never rewritten
// in place, so it matches the creation time for anything the store wrote.
func createdAt(_ string, info fs.FileInfo) time.Time { return info.ModTime() }

func renameNoReplace(src, dst string) error { return renameChecked(src, dst) }
