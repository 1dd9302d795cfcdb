package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stories/internal/catalog"
	"stories/internal/clock"
	"stories/internal/config"
	"stories/internal/player"
	"stories/internal/scan"
	"stories/internal/slideshow"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cat, err := catalog.Open(t.TempDir(), func(msg string) { t.Log(msg) })
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	return NewService(cat, scan.DirScanner{}, func(msg string) { t.Log(msg) })
}

// writeFiles creates non-empty files and sets their modification times in
// the given order, one minute apart.
func writeFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	paths := make([]string, len(names))
	for i, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("data"), 0o644))
		mod := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, mod, mod))
		abs, err := filepath.Abs(p)
		require.NoError(t, err)
		paths[i] = abs
	}
	return paths
}

func entryPaths(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestTagOperations(t *testing.T) {
	s := newTestService(t)

	require.NoError(t, s.AddTagsToItem("/p/a.jpg", []string{"sea", "sun"}))
	require.NoError(t, s.AddTagsToItem("/p/b.jpg", []string{"sea"}))
	assert.Error(t, s.AddTagsToItem("", []string{"x"}))
	assert.Error(t, s.RemoveTagsFromItem("/p/a.jpg", nil))

	tags, err := s.ListTagsForItem("/p/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"sea", "sun"}, tags)

	require.NoError(t, s.ReplaceTag("sea", "ocean"))
	items, err := s.ListItemsForTag("ocean")
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/a.jpg", "/p/b.jpg"}, items)

	all, err := s.ListAllTags()
	require.NoError(t, err)
	assert.Equal(t, []catalog.TagWithCount{{Name: "ocean", Count: 2}, {Name: "sun", Count: 1}}, all)

	assert.Error(t, s.ReplaceTag("ocean", "ocean"))

	require.NoError(t, s.RemoveTagsFromItem("/p/a.jpg", []string{"sun"}))
	tags, err = s.ListTagsForItem("/p/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"ocean"}, tags)
}

func TestCleanDatabase(t *testing.T) {
	s := newTestService(t)
	dir := t.TempDir()
	paths := writeFiles(t, dir, "kept.jpg")
	gone := filepath.Join(dir, "gone.jpg")

	require.NoError(t, s.AddTagsToItem(paths[0], []string{"keep"}))
	require.NoError(t, s.AddTagsToItem(gone, []string{"lost"}))
	require.NoError(t, s.SetItemDuration(filepath.Join(dir, "gone.mp4"), time.Second))

	files, tags, err := s.CleanDatabase()
	require.NoError(t, err)
	assert.Equal(t, 2, files)
	assert.Zero(t, tags)

	all, err := s.ListAllTags()
	require.NoError(t, err)
	assert.Equal(t, []catalog.TagWithCount{{Name: "keep", Count: 1}}, all)
}

func TestItemDurations(t *testing.T) {
	s := newTestService(t)

	require.NoError(t, s.SetItemDuration("/p/a.jpg", 2*time.Second))
	d, ok, err := s.ItemDuration("/p/a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, d)

	require.NoError(t, s.ClearItemDuration("/p/a.jpg"))
	_, ok, err = s.ItemDuration("/p/a.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadPlaylistByName(t *testing.T) {
	s := newTestService(t)
	dir := t.TempDir()
	paths := writeFiles(t, dir, "c.png", "a.jpg", "sub/b.mp4", "notes.txt")

	entries, err := s.LoadPlaylist(dir, PlaylistOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{paths[1], paths[0], paths[2]}, entryPaths(entries))
	assert.Equal(t, scan.KindVideo, entries[2].Kind)
}

func TestLoadPlaylistByCaptureTime(t *testing.T) {
	s := newTestService(t)
	dir := t.TempDir()
	// Files carry no EXIF data, so the modification time decides.
	paths := writeFiles(t, dir, "z.jpg", "y.png", "x.mp4")

	entries, err := s.LoadPlaylist(dir, PlaylistOptions{Order: config.OrderCaptured})
	require.NoError(t, err)
	assert.Equal(t, paths, entryPaths(entries))
	assert.True(t, entries[0].Captured.Before(entries[1].Captured))
}

func TestLoadPlaylistFiltersAndOverrides(t *testing.T) {
	s := newTestService(t)
	dir := t.TempDir()
	paths := writeFiles(t, dir, "a.jpg", "b.jpg", "c.jpg")

	require.NoError(t, s.AddTagsToItem(paths[0], []string{"fav"}))
	require.NoError(t, s.AddTagsToItem(paths[2], []string{"fav"}))
	require.NoError(t, s.SetItemDuration(paths[2], 9*time.Second))

	entries, err := s.LoadPlaylist(dir, PlaylistOptions{Tag: "fav"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, paths[0], entries[0].Path)
	assert.Zero(t, entries[0].Duration)
	assert.Equal(t, 9*time.Second, entries[1].Duration)

	_, err = s.LoadPlaylist(dir, PlaylistOptions{Tag: "nothing"})
	assert.ErrorIs(t, err, ErrEmptyPlaylist)
}

func TestLoadPlaylistShuffleIsSeeded(t *testing.T) {
	s := newTestService(t)
	dir := t.TempDir()
	writeFiles(t, dir, "a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg", "f.jpg")

	first, err := s.LoadPlaylist(dir, PlaylistOptions{Shuffle: true, Seed: 7})
	require.NoError(t, err)
	second, err := s.LoadPlaylist(dir, PlaylistOptions{Shuffle: true, Seed: 7})
	require.NoError(t, err)
	ordered, err := s.LoadPlaylist(dir, PlaylistOptions{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.ElementsMatch(t, ordered, first)
}

func TestLoadPlaylistErrors(t *testing.T) {
	s := newTestService(t)

	_, err := s.LoadPlaylist(t.TempDir(), PlaylistOptions{})
	assert.ErrorIs(t, err, ErrEmptyPlaylist)

	dir := t.TempDir()
	writeFiles(t, dir, "a.jpg")
	_, err = s.LoadPlaylist(dir, PlaylistOptions{Order: "size"})
	assert.Error(t, err)
}

func TestBuildItems(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, dir, "a.jpg", "b.mp4")

	entries := []Entry{
		{Path: paths[0], Kind: scan.KindImage},
		{Path: paths[0], Kind: scan.KindImage, Duration: 3 * time.Second},
		{Path: paths[1], Kind: scan.KindVideo},
		{Path: filepath.Join(dir, "missing.mp4"), Kind: scan.KindVideo, Duration: time.Second},
	}
	c := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	items := BuildItems(entries, c, nil)
	require.Len(t, items, 4)

	assert.IsType(t, &player.Still{}, items[0])
	assert.Equal(t, slideshow.KindTimed, items[0].Kind())

	timed, ok := items[1].(*player.Clip)
	require.True(t, ok)
	d, known := timed.Duration()
	assert.True(t, known)
	assert.Equal(t, 3*time.Second, d)

	video := items[2].(*player.Clip)
	_, known = video.Duration()
	assert.False(t, known)

	var playErr error
	items[3].(*player.Clip).Play(func(err error) { playErr = err })
	c.Advance(0)
	assert.ErrorIs(t, playErr, player.ErrUnplayable)
}
