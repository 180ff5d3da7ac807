package media

import (
	"path/filepath"
	"strings"
	"time"
)

// Kind is the broad media classification of an asset.
type Kind string

const (
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindUnknown Kind = "unknown"
)

// Visibility is derived from the partition that holds an asset. It is never stored.
type Visibility int

const (
	Visible Visibility = iota
	Hidden
)

func (v Visibility) String() string {
	if v == Hidden {
		return "hidden"
	}
	return "visible"
}

var kindsByExt = map[string]Kind{
	".jpg":       KindImage,
	".jpeg":      KindImage,
	".png":       KindImage,
	".gif":       KindImage,
	".webp":      KindImage,
	".mp4":       KindVideo,
	".webm":      KindVideo,
	".mov":       KindVideo,
	".quicktime": KindVideo,
}

// Classify maps a filename to its media kind using the lowercased extension.
func Classify(name string) Kind {
	if kind, ok := kindsByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return kind
	}
	return KindUnknown
}

// Asset is one uploaded media object. Every field is recomputed from the
// backing object each time it is read.
type Asset struct {
	Name       string
	Size       int64
	CreatedAt  time.Time
	Kind       Kind
	Visibility Visibility
}
