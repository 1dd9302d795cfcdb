// Package scan finds playable files in a directory and its subdirectories
package scan

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// MediaKind classifies a file by what the slideshow can do with it.
type MediaKind int

const (
	KindOther MediaKind = iota
	KindImage
	KindVideo
)

func (k MediaKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "other"
	}
}

// FileItem is a playable file found by Run.
type FileItem struct {
	Path string
	Kind MediaKind
	Info os.FileInfo
}

// FileItems is a slice of FileItem
type FileItems []FileItem

// NewFileItem creates a new FileItem, classifying it by extension.
func NewFileItem(p string, info os.FileInfo) FileItem {
	return FileItem{
		Path: p,
		Kind: Kind(p),
		Info: info,
	}
}

// Kind classifies a path by its extension.
func Kind(n string) MediaKind {
	switch strings.ToLower(filepath.Ext(n)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return KindImage
	case ".mp4", ".webm", ".mov", ".m4v":
		return KindVideo
	default:
		return KindOther
	}
}

// IsImage checks if a file is an image
func IsImage(n string) bool { return Kind(n) == KindImage }

// IsVideo checks if a file is a video clip
func IsVideo(n string) bool { return Kind(n) == KindVideo }

// Run walks dir in the background and sends every non-empty image or video
// it finds, with an absolute path. The channel is closed when the walk is
// complete. Unreadable entries are logged and skipped.
func Run(dir string, logger LoggerFunc) <-chan FileItem {
	if logger == nil {
		logger = func(msg string) { log.Print(msg) }
	}
	out := make(chan FileItem, 64)

	go func() {
		defer close(out)

		root, err := filepath.Abs(dir)
		if err != nil {
			logger(fmt.Sprintf("scan: cannot resolve %s: %v", dir, err))
			return
		}

		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				logger(fmt.Sprintf("scan: skipping %s: %v", p, err))
				if d != nil && d.IsDir() && p != root {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || Kind(p) == KindOther {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				logger(fmt.Sprintf("scan: skipping %s: %v", p, err))
				return nil
			}
			if !info.Mode().IsRegular() || info.Size() == 0 {
				return nil
			}
			out <- NewFileItem(p, info)
			return nil
		})
		if err != nil {
			logger(fmt.Sprintf("scan: walking %s: %v", root, err))
		}
	}()

	return out
}

// DirScanner scans the filesystem with Run.
type DirScanner struct{}

// Run implements the scanner interface consumed by the service layer.
func (DirScanner) Run(dir string, logger LoggerFunc) <-chan FileItem {
	return Run(dir, logger)
}

// Collect drains Run into a slice.
func Collect(dir string, logger LoggerFunc) FileItems {
	var items FileItems
	for item := range Run(dir, logger) {
		items = append(items, item)
	}
	return items
}
