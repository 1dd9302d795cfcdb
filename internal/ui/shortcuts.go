package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"stories/internal/slideshow"
)

// holdKey presses and holds the slideshow from the keyboard.
const holdKey = fyne.KeyH

func (a *App) buildKeyboardShortcuts() {
	canvas := a.UI.MainWin.Canvas()

	canvas.AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyQ,
		Modifier: fyne.KeyModifierShortcutDefault,
	}, func(_ fyne.Shortcut) { a.app.Quit() })

	canvas.SetOnTypedKey(func(key *fyne.KeyEvent) {
		if a.show == nil {
			return
		}
		switch key.Name {
		case fyne.KeyRight:
			a.show.OnNavigateNext()
		case fyne.KeyLeft:
			a.show.OnNavigatePrev()
		case fyne.KeyP, fyne.KeySpace:
			a.togglePlay()
		case fyne.KeyT:
			a.editItem()
		case fyne.KeyI:
			a.toggleInfo()
		case fyne.KeyF1:
			a.showShortcuts()
		case fyne.KeyQ:
			a.app.Quit()
		case fyne.KeyEscape:
			if top := canvas.Overlays().Top(); top != nil {
				top.Hide()
			}
		}
	})

	dc, ok := canvas.(desktop.Canvas)
	if !ok {
		return
	}
	dc.SetOnKeyDown(func(key *fyne.KeyEvent) {
		if key.Name != holdKey || a.keyHeld || a.show == nil {
			return
		}
		a.keyHeld = true
		a.show.OnHoldStart()
		a.updateStatusBar()
	})
	dc.SetOnKeyUp(func(key *fyne.KeyEvent) {
		if key.Name != holdKey || !a.keyHeld || a.show == nil {
			return
		}
		a.keyHeld = false
		a.show.OnHoldEnd(slideshow.None)
		a.updateStatusBar()
	})
}

var shortcutHelp = [][2]string{
	{"Right / Left", "Next / previous item"},
	{"Space or P", "Pause / resume"},
	{"H (hold)", "Hold the current item"},
	{"T", "Edit tags and duration"},
	{"I", "Show / hide item info"},
	{"Esc", "Close dialogs"},
	{"Q or Ctrl+Q", "Quit"},
	{"Click", "Left third goes back, elsewhere forward"},
	{"Press and hold", "Hold the current item"},
}

func (a *App) showShortcuts() {
	win := a.app.NewWindow("Keyboard Shortcuts")
	table := widget.NewTable(
		func() (int, int) { return len(shortcutHelp) + 1, 2 },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			if id.Row == 0 {
				label.SetText([]string{"Shortcut", "Action"}[id.Col])
				label.TextStyle.Bold = true
				return
			}
			label.SetText(shortcutHelp[id.Row-1][id.Col])
			label.TextStyle.Bold = false
		},
	)
	table.SetColumnWidth(0, 160)
	table.SetColumnWidth(1, 300)
	win.SetContent(table)
	win.Resize(fyne.NewSize(480, 360))
	win.Show()
}
