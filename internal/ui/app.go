// Package ui is the desktop host of the stories slideshow.
package ui

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"stories/internal/catalog"
	"stories/internal/clock"
	"stories/internal/config"
	"stories/internal/remote"
	"stories/internal/scan"
	"stories/internal/service"
	"stories/internal/slideshow"
)

var (
	configFlag    = flag.String("config", config.DefaultPath, "Path to the settings file.")
	durationFlag  = flag.Duration("duration", 0, "Display time of items without their own length (overrides the settings file).")
	holdDelayFlag = flag.Duration("hold-delay", 0, "Press length that counts as a hold (overrides the settings file).")
	shuffleFlag   = flag.Bool("shuffle", false, "Shuffle the playlist.")
	tagFlag       = flag.String("tag", "", "Only show items carrying this tag.")
	dbFlag        = flag.String("db", "", "Directory of the catalog database.")
	remoteFlag    = flag.Bool("remote", false, "Serve the remote control API on the configured listen address.")
)

// progressInterval is how often the progress bar is redrawn.
const progressInterval = 100 * time.Millisecond

// App represents the whole application with all its windows, widgets and functions
type App struct {
	app fyne.App
	UI  UI

	cfg     config.Config
	dir     string
	entries []service.Entry
	show    *slideshow.Slideshow

	catalog      *catalog.Catalog
	Service      *service.Service
	ImageService *service.ImageService
	thumbnails   *ThumbnailManager
	logUIManager *LogUIManager

	hub          *remote.Hub
	advert       *remote.Advertisement
	stopRemote   context.CancelFunc
	stopProgress chan struct{}

	index   int
	current string // path of the active item
	keyHeld bool

	logMu   sync.Mutex
	started bool
	early   []string // messages logged before the app started
}

// fyneExecutor runs remote commands on the fyne main goroutine, which owns
// the slideshow.
type fyneExecutor struct{}

func (fyneExecutor) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	fyne.Do(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// addLogMessage reports a message in the status bar. It may be called from
// any goroutine.
func (a *App) addLogMessage(message string) {
	a.logMu.Lock()
	if !a.started {
		a.early = append(a.early, message)
		a.logMu.Unlock()
		return
	}
	a.logMu.Unlock()
	fyne.Do(func() { a.logUIManager.AddLogMessage(message) })
}

// flushEarlyLog runs on the UI goroutine once the app has started.
func (a *App) flushEarlyLog() {
	a.logMu.Lock()
	a.started = true
	early := a.early
	a.early = nil
	a.logMu.Unlock()
	for _, msg := range early {
		a.logUIManager.AddLogMessage(msg)
	}
}

func (a *App) settings() (config.Config, error) {
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return cfg, err
	}
	if *durationFlag > 0 {
		cfg.Duration = *durationFlag
	}
	if *holdDelayFlag > 0 {
		cfg.HoldDelay = *holdDelayFlag
	}
	if *shuffleFlag {
		cfg.Shuffle = true
	}
	if *dbFlag != "" {
		cfg.DBDir = *dbFlag
	}
	return cfg, nil
}

func mediaDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if flag.NArg() > 0 {
		dir = flag.Arg(0)
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return filepath.Abs(dir)
}

// CreateApplication parses the command line, loads the playlist and runs the
// slideshow window until it is closed.
func CreateApplication() {
	flag.Parse()

	a := &App{app: app.NewWithID("com.github.stories")}
	a.app.Settings().SetTheme(NewStoriesTheme(a.app.Settings().Theme()))

	var err error
	if a.dir, err = mediaDir(); err != nil {
		log.Fatalf("Cannot open media directory: %v", err)
	}
	if a.cfg, err = a.settings(); err != nil {
		log.Fatalf("Cannot load settings: %v", err)
	}

	a.logUIManager = NewLogUIManager(DefaultMaxLogMessages)
	a.app.Lifecycle().SetOnStarted(a.flushEarlyLog)
	logger := a.addLogMessage

	a.catalog, err = catalog.Open(a.cfg.DBDir, logger)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	a.Service = service.NewService(a.catalog, scan.DirScanner{}, logger)
	a.ImageService = a.Service.Images
	a.thumbnails = NewThumbnailManager(a.ImageService, a.cfg.ThumbnailSize, logger)

	a.entries, err = a.Service.LoadPlaylist(a.dir, service.PlaylistOptions{
		Tag:     *tagFlag,
		Order:   a.cfg.Order,
		Shuffle: a.cfg.Shuffle,
		Seed:    time.Now().UnixNano(),
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyPlaylist) {
			log.Fatalf("Nothing to show in %s", a.dir)
		}
		log.Fatalf("Failed to load playlist: %v", err)
	}

	a.UI.MainWin = a.app.NewWindow("Stories")
	a.UI.MainWin.SetContent(a.buildMainUI())
	a.UI.MainWin.SetCloseIntercept(a.shutdown)
	a.buildKeyboardShortcuts()

	hooks := a.hooks()
	if *remoteFlag {
		a.hub = remote.NewHub(logger)
		hooks = hooks.Then(a.hub.Hooks())
	}

	a.show, err = slideshow.New(slideshow.Config{
		Items:     service.BuildItems(a.entries, clock.NewSystem(fyne.Do), a.onItemChange),
		Container: a.UI.surface,
		Controls:  a.UI.controls,
		Duration:  a.cfg.Duration,
		HoldDelay: a.cfg.HoldDelay,
		Clock:     clock.NewSystem(fyne.Do),
		Hooks:     hooks,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to start slideshow: %v", err)
	}
	if a.hub != nil {
		a.startRemote()
	}
	a.stopProgress = make(chan struct{})
	go a.trackProgress(a.stopProgress)

	a.UI.MainWin.Resize(fyne.NewSize(900, 700))
	a.UI.MainWin.CenterOnScreen()
	a.UI.MainWin.ShowAndRun()
}

func (a *App) startRemote() {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopRemote = cancel
	srv := remote.NewServer(fyneExecutor{}, a.show, a.hub, a.addLogMessage)
	go func() {
		if err := srv.ListenAndServe(ctx, a.cfg.Listen); err != nil {
			a.addLogMessage(fmt.Sprintf("Remote control stopped: %v", err))
		}
	}()
	a.addLogMessage(fmt.Sprintf("Remote control listening on %s", a.cfg.Listen))

	host, _ := os.Hostname()
	ad, err := remote.Advertise(strings.TrimSpace("Stories "+host), a.cfg.Listen)
	if err != nil {
		a.addLogMessage(fmt.Sprintf("mDNS announcement failed: %v", err))
		return
	}
	a.advert = ad
}

func (a *App) trackProgress(stop <-chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			fyne.Do(func() {
				if a.show != nil {
					a.UI.progress.update(a.show.Remaining())
				}
			})
		}
	}
}

func (a *App) shutdown() {
	if a.show != nil {
		a.show.Stop()
	}
	if a.stopProgress != nil {
		close(a.stopProgress)
		a.stopProgress = nil
	}
	if a.stopRemote != nil {
		a.advert.Shutdown()
		a.stopRemote()
		a.hub.Close()
	}
	log.Println("Closing catalog...")
	if err := a.catalog.Close(); err != nil {
		log.Printf("Error closing catalog: %v", err)
	}
	a.UI.MainWin.Close()
}

func (a *App) hooks() slideshow.Hooks {
	return slideshow.Hooks{
		OnActivate: func(i int, _ slideshow.Item) {
			a.index = i
			a.UI.progress.reset(0)
			a.refreshThumbnails(i)
			a.updateStatusBar()
		},
		OnAutoplayDurationSet: func(_ int, d time.Duration) {
			a.UI.progress.reset(d)
		},
		OnPause:  a.updateStatusBar,
		OnResume: a.updateStatusBar,
	}
}

func (a *App) togglePlay() {
	if a.show == nil || a.show.Holding() {
		return
	}
	a.show.TogglePlayPause()
	if a.show.Paused() {
		a.addLogMessage("Slideshow paused.")
	} else {
		a.addLogMessage("Slideshow resumed.")
	}
}
