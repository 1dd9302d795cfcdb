package ui

import (
	"bytes"
	"image"
	"image/png"
	"path/filepath"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/nfnt/resize"

	"stories/internal/service"
)

// ThumbnailManager generates and caches thumbnails of playlist images.
type ThumbnailManager struct {
	mu     sync.RWMutex
	cache  map[string]fyne.Resource
	size   int
	images *service.ImageService
	logger func(string)
}

// NewThumbnailManager creates a thumbnail manager producing images that fit
// a size x size square.
func NewThumbnailManager(images *service.ImageService, size int, logger func(string)) *ThumbnailManager {
	if size <= 0 {
		size = 96
	}
	return &ThumbnailManager{
		cache:  make(map[string]fyne.Resource),
		size:   size,
		images: images,
		logger: logger,
	}
}

// Size returns the edge length of a thumbnail.
func (tm *ThumbnailManager) Size() float32 { return float32(tm.size) }

func encodePNG(img image.Image) []byte {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

// GetThumbnail returns the cached thumbnail of path, or a placeholder while
// it is generated in the background. onComplete then receives the thumbnail
// on the UI goroutine.
func (tm *ThumbnailManager) GetThumbnail(path string, onComplete func(fyne.Resource)) fyne.Resource {
	tm.mu.RLock()
	res, ok := tm.cache[path]
	tm.mu.RUnlock()
	if ok {
		return res
	}

	go func() {
		_, img, err := tm.images.GetImageInfo(path)
		if err != nil {
			if tm.logger != nil {
				tm.logger("Thumbnail error for " + filepath.Base(path) + ": " + err.Error())
			}
			return
		}
		data := encodePNG(resize.Thumbnail(uint(tm.size), uint(tm.size), img, resize.Lanczos3))
		if data == nil {
			return
		}
		res := fyne.NewStaticResource(path, data)

		tm.mu.Lock()
		tm.cache[path] = res
		tm.mu.Unlock()

		fyne.Do(func() { onComplete(res) })
	}()
	return theme.FileImageIcon()
}

// thumb is a tappable thumbnail in the strip.
type thumb struct {
	widget.BaseWidget
	image *canvas.Image
	onTap func()
}

var _ fyne.Tappable = (*thumb)(nil)

func newThumb(size float32, onTap func()) *thumb {
	t := &thumb{image: canvas.NewImageFromResource(theme.FileImageIcon()), onTap: onTap}
	t.image.FillMode = canvas.ImageFillContain
	t.image.SetMinSize(fyne.NewSize(size, size))
	t.ExtendBaseWidget(t)
	return t
}

// SetResource replaces the displayed image.
func (t *thumb) SetResource(res fyne.Resource) {
	t.image.Resource = res
	t.image.Refresh()
}

func (t *thumb) Tapped(*fyne.PointEvent) {
	if t.onTap != nil {
		t.onTap()
	}
}

func (t *thumb) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.image)
}
