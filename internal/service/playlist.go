package service

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"stories/internal/clock"
	"stories/internal/config"
	"stories/internal/player"
	"stories/internal/scan"
	"stories/internal/slideshow"
)

// ErrEmptyPlaylist is returned when a directory yields nothing to show.
var ErrEmptyPlaylist = errors.New("no playable items found")

// PlaylistOptions select and order the items of a playlist.
type PlaylistOptions struct {
	Tag     string // only items carrying this tag
	Order   string // config.OrderName or config.OrderCaptured
	Shuffle bool
	Seed    int64
}

// Entry is one playlist position.
type Entry struct {
	Path     string
	Kind     scan.MediaKind
	Captured time.Time
	Duration time.Duration // override from the catalog, zero when unset
}

// LoadPlaylist scans dir and returns the entries to show, filtered by tag,
// ordered and optionally shuffled, with duration overrides applied.
func (s *Service) LoadPlaylist(dir string, opts PlaylistOptions) ([]Entry, error) {
	items := s.scanItems(dir)

	if opts.Tag != "" {
		tagged, err := s.Catalog.GetItems(opts.Tag)
		if err != nil {
			return nil, fmt.Errorf("items for tag '%s': %w", opts.Tag, err)
		}
		keep := make(map[string]bool, len(tagged))
		for _, p := range tagged {
			keep[p] = true
		}
		filtered := items[:0]
		for _, item := range items {
			if keep[item.Path] {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrEmptyPlaylist)
	}

	entries := make([]Entry, len(items))
	for i, item := range items {
		entries[i] = Entry{Path: item.Path, Kind: item.Kind}
		if opts.Order == config.OrderCaptured {
			entries[i].Captured = s.captureTime(item)
		}
		d, ok, err := s.Catalog.GetDuration(item.Path)
		if err != nil {
			s.logf("LoadPlaylist: %v", err)
		} else if ok {
			entries[i].Duration = d
		}
	}

	switch opts.Order {
	case "", config.OrderName:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	case config.OrderCaptured:
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Captured.Equal(entries[j].Captured) {
				return entries[i].Path < entries[j].Path
			}
			return entries[i].Captured.Before(entries[j].Captured)
		})
	default:
		return nil, fmt.Errorf("unknown order %q", opts.Order)
	}

	if opts.Shuffle {
		entries = shuffle(entries, opts.Seed)
	}
	return entries, nil
}

func (s *Service) scanItems(dir string) scan.FileItems {
	var items scan.FileItems
	for item := range s.Scanner.Run(dir, func(msg string) { s.logf("LoadPlaylist: %s", msg) }) {
		items = append(items, item)
	}
	return items
}

func (s *Service) captureTime(item scan.FileItem) time.Time {
	if item.Kind == scan.KindImage {
		if t, err := s.Images.CaptureTime(item.Path); err == nil {
			return t
		}
	}
	if item.Info != nil {
		return item.Info.ModTime()
	}
	return time.Time{}
}

func shuffle(entries []Entry, seed int64) []Entry {
	files := make(scan.FileItems, len(entries))
	byPath := make(map[string]Entry, len(entries))
	for i, e := range entries {
		files[i] = scan.FileItem{Path: e.Path, Kind: e.Kind}
		byPath[e.Path] = e
	}
	perm := scan.NewPermutation(files, seed)

	out := make([]Entry, 0, len(entries))
	for _, f := range perm.Items() {
		out = append(out, byPath[f.Path])
	}
	return out
}

// BuildItems turns entries into slideshow items. Images become stills,
// or clips of the override length when one is set. Videos become clips
// whose length is learned on first play; a missing video file yields a
// clip that fails to play.
func BuildItems(entries []Entry, c clock.Clock, onChange player.ChangeFunc) []slideshow.Item {
	items := make([]slideshow.Item, 0, len(entries))
	for _, e := range entries {
		switch {
		case e.Kind == scan.KindVideo:
			_, statErr := os.Stat(e.Path)
			items = append(items, player.NewClip(e.Path, e.Duration, e.Duration > 0, c, player.ClipOptions{
				Broken:   statErr != nil,
				OnChange: onChange,
			}))
		case e.Duration > 0:
			items = append(items, player.NewClip(e.Path, e.Duration, true, c, player.ClipOptions{OnChange: onChange}))
		default:
			items = append(items, player.NewStill(e.Path, onChange))
		}
	}
	return items
}
