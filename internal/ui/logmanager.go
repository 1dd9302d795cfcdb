package ui

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// DefaultMaxLogMessages bounds the status log history.
const DefaultMaxLogMessages = 100

// LogUIManager shows log messages one at a time in the status bar and lets
// the user page back through recent ones.
type LogUIManager struct {
	messages []string
	current  int
	max      int

	label   *widget.Label
	upBtn   *widget.Button
	downBtn *widget.Button
}

// NewLogUIManager builds the status log widgets.
func NewLogUIManager(maxMessages int) *LogUIManager {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxLogMessages
	}
	lm := &LogUIManager{
		messages: make([]string, 0, maxMessages),
		current:  -1,
		max:      maxMessages,
		label:    widget.NewLabel(""),
	}
	lm.label.Truncation = fyne.TextTruncateEllipsis
	lm.upBtn = widget.NewButton("<", lm.ShowPrevious)
	lm.downBtn = widget.NewButton(">", lm.ShowNext)
	lm.refresh()
	return lm
}

// AddLogMessage appends a message and shows it. It must run on the UI
// goroutine.
func (lm *LogUIManager) AddLogMessage(message string) {
	log.Printf("[stories] %s", message)
	lm.messages = append(lm.messages, message)
	if len(lm.messages) > lm.max {
		lm.messages = lm.messages[len(lm.messages)-lm.max:]
	}
	lm.current = len(lm.messages) - 1
	lm.refresh()
}

// ShowPrevious steps back through the history.
func (lm *LogUIManager) ShowPrevious() {
	if lm.current <= 0 {
		return
	}
	lm.current--
	lm.refresh()
}

// ShowNext steps forward through the history.
func (lm *LogUIManager) ShowNext() {
	if lm.current >= len(lm.messages)-1 {
		return
	}
	lm.current++
	lm.refresh()
}

// Current returns the message on display.
func (lm *LogUIManager) Current() string {
	if lm.current < 0 || lm.current >= len(lm.messages) {
		return ""
	}
	return lm.messages[lm.current]
}

func (lm *LogUIManager) refresh() {
	if len(lm.messages) == 0 {
		lm.label.SetText("")
		lm.upBtn.Disable()
		lm.downBtn.Disable()
		return
	}
	lm.label.SetText(fmt.Sprintf("[%d/%d] %s", lm.current+1, len(lm.messages), lm.messages[lm.current]))
	if lm.current <= 0 {
		lm.upBtn.Disable()
	} else {
		lm.upBtn.Enable()
	}
	if lm.current >= len(lm.messages)-1 {
		lm.downBtn.Disable()
	} else {
		lm.downBtn.Enable()
	}
}
