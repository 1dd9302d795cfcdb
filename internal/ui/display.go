package ui

import (
	"fmt"
	"image/color"
	"path/filepath"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"stories/internal/scan"
	"stories/internal/service"
	"stories/internal/slideshow"
)

// stripSize is the number of thumbnails shown, the active item included.
const stripSize = 7

// UI holds the widgets of the main window.
type UI struct {
	MainWin fyne.Window

	surface        *holdSurface
	controls       *controlBar
	progress       *progressTracker
	statusLabel    *widget.Label
	infoText       *widget.RichText
	infoPanel      fyne.CanvasObject
	thumbnailStrip *fyne.Container
}

func (a *App) buildMainUI() fyne.CanvasObject {
	a.UI.surface = newHoldSurface()
	a.UI.controls = newControlBar(a.togglePlay)
	a.UI.progress = newProgressTracker()
	a.UI.statusLabel = widget.NewLabel("")
	a.UI.statusLabel.Truncation = fyne.TextTruncateEllipsis
	a.UI.infoText = widget.NewRichTextFromMarkdown("## Info")
	a.UI.infoText.Wrapping = fyne.TextWrapWord
	a.UI.thumbnailStrip = container.NewHBox()

	a.UI.infoPanel = container.NewVScroll(a.UI.infoText)
	a.UI.infoPanel.Resize(fyne.NewSize(240, 0))
	a.UI.infoPanel.Hide()

	logBar := container.NewBorder(nil, nil, nil,
		container.NewHBox(a.logUIManager.upBtn, a.logUIManager.downBtn),
		a.logUIManager.label)

	top := a.UI.progress.bar
	bottom := container.NewVBox(
		container.NewHScroll(a.UI.thumbnailStrip),
		a.UI.controls.object(),
		widget.NewSeparator(),
		a.UI.statusLabel,
		logBar,
	)
	return container.NewBorder(top, bottom, nil, a.UI.infoPanel, a.UI.surface)
}

func (a *App) toggleInfo() {
	if a.UI.infoPanel.Visible() {
		a.UI.infoPanel.Hide()
	} else {
		a.UI.infoPanel.Show()
	}
}

func (a *App) entryFor(path string) (service.Entry, bool) {
	for _, e := range a.entries {
		if e.Path == path {
			return e, true
		}
	}
	return service.Entry{}, false
}

// onItemChange is told by every item when it becomes active or inactive.
func (a *App) onItemChange(path string, active bool) {
	if !active {
		if a.current == path {
			a.current = ""
		}
		return
	}
	a.current = path
	a.UI.MainWin.SetTitle("Stories - " + filepath.Base(path))

	if e, ok := a.entryFor(path); ok && e.Kind == scan.KindVideo {
		a.UI.surface.SetPlaceholder(theme.MediaVideoIcon(), filepath.Base(path))
		a.updateInfoText(path, nil)
		return
	}

	go func() {
		info, img, err := a.ImageService.GetImageInfo(path)
		fyne.Do(func() {
			if a.current != path {
				return
			}
			if err != nil {
				a.UI.surface.SetPlaceholder(theme.BrokenImageIcon(), filepath.Base(path))
				a.logUIManager.AddLogMessage(fmt.Sprintf("Error loading %s: %v", filepath.Base(path), err))
				a.updateInfoText(path, nil)
				return
			}
			a.UI.surface.SetImage(img)
			a.updateInfoText(path, info)
		})
	}()
}

// updateStatusBar shows the position, path and playback state.
func (a *App) updateStatusBar() {
	if a.UI.statusLabel == nil {
		return
	}
	status := "Ready"
	if a.current != "" {
		status = fmt.Sprintf("%d / %d  |  %s", a.index+1, len(a.entries), a.current)
	}
	paused, holding := false, false
	if a.show != nil {
		paused, holding = a.show.Paused(), a.show.Holding()
	}
	switch {
	case holding:
		status += "  |  Holding"
	case paused:
		status += "  |  Paused"
	default:
		status += "  |  Playing"
	}
	if *tagFlag != "" {
		status += fmt.Sprintf("  |  Tag: %s", *tagFlag)
	}
	a.UI.statusLabel.SetText(status)
	a.UI.controls.setPaused(paused, holding)
}

// updateInfoText renders file details, tags and EXIF data of path.
func (a *App) updateInfoText(path string, info *service.ImageInfo) {
	tags, err := a.Service.ListTagsForItem(path)
	tagsString := "(none)"
	if err == nil && len(tags) > 0 {
		tagsString = strings.Join(tags, ", ")
	}

	durationString := "(default)"
	if d, ok, err := a.Service.ItemDuration(path); err == nil && ok {
		durationString = d.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", filepath.Base(path))
	fmt.Fprintf(&b, "**Duration:** %s\n\n", durationString)
	if info != nil {
		fmt.Fprintf(&b, "**Size:** %s bytes\n\n", formatNumberWithCommas(info.Size))
		fmt.Fprintf(&b, "**Dimensions:** %d x %d px\n\n", info.Width, info.Height)
		fmt.Fprintf(&b, "**Modified:** %s\n\n", info.ModTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "---\n## Tags\n%s\n\n", tagsString)

	if info != nil && len(info.EXIFData) > 0 {
		keys := make([]string, 0, len(info.EXIFData))
		for k := range info.EXIFData {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("---\n## EXIF\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- **%s**: %s\n", k, info.EXIFData[k])
		}
	}
	a.UI.infoText.ParseMarkdown(b.String())
}

// stripIndexes returns the playlist positions shown in the thumbnail strip
// for the active index: the active item followed by the ones after it.
func stripIndexes(active, n, size int) []int {
	if size > n {
		size = n
	}
	out := make([]int, 0, size)
	for k := 0; k < size; k++ {
		out = append(out, slideshow.Normalize(active+k, n))
	}
	return out
}

// refreshThumbnails rebuilds the strip of upcoming items.
func (a *App) refreshThumbnails(active int) {
	if a.UI.thumbnailStrip == nil {
		return
	}
	a.UI.thumbnailStrip.RemoveAll()
	a.UI.thumbnailStrip.Add(layout.NewSpacer())

	for k, i := range stripIndexes(active, len(a.entries), stripSize) {
		e := a.entries[i]
		index := i
		t := newThumb(a.thumbnails.Size(), func() {
			if a.show != nil && index != a.show.Index() {
				a.show.Show(index)
			}
		})
		if e.Kind == scan.KindVideo {
			t.SetResource(theme.MediaVideoIcon())
		} else {
			t.SetResource(a.thumbnails.GetThumbnail(e.Path, t.SetResource))
		}

		cell := container.NewStack(t)
		if k == 0 {
			border := canvas.NewRectangle(color.Transparent)
			border.StrokeColor = theme.Color(theme.ColorNamePrimary)
			border.StrokeWidth = 3
			cell.Add(border)
		}
		a.UI.thumbnailStrip.Add(cell)
	}
	a.UI.thumbnailStrip.Add(layout.NewSpacer())
	a.UI.thumbnailStrip.Refresh()
}

// formatNumberWithCommas takes an integer and returns a string representation
// with commas as thousands separators.
func formatNumberWithCommas(n int64) string {
	s := fmt.Sprintf("%d", n)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}
