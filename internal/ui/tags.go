package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// parseTags splits comma separated input into unique lowercase tags.
func parseTags(input string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(input, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag != "" && !seen[tag] {
			tags = append(tags, tag)
			seen[tag] = true
		}
	}
	return tags
}

// parseOverride reads the duration field of the edit dialog. Empty input
// keeps the current value; "default" or "0" clears the override.
func parseOverride(input string) (d time.Duration, set, reset bool, err error) {
	input = strings.TrimSpace(input)
	switch input {
	case "":
		return 0, false, false, nil
	case "default", "0":
		return 0, false, true, nil
	}
	d, err = time.ParseDuration(input)
	if err != nil {
		return 0, false, false, err
	}
	if d <= 0 {
		return 0, false, false, fmt.Errorf("duration must be positive: %s", input)
	}
	return d, true, false, nil
}

// editItem opens a dialog to change the tags and the duration override of
// the active item. The slideshow stays paused while it is open.
func (a *App) editItem() {
	path := a.current
	if path == "" || a.show == nil {
		dialog.ShowInformation("Edit Item", "No item on screen.", a.UI.MainWin)
		return
	}

	resume := false
	if !a.show.Paused() {
		a.togglePlay()
		resume = true
	}
	done := func() {
		if resume && a.show.Paused() {
			a.togglePlay()
		}
	}

	currentTags, err := a.Service.ListTagsForItem(path)
	if err != nil {
		done()
		dialog.ShowError(fmt.Errorf("failed to get current tags: %w", err), a.UI.MainWin)
		return
	}
	current := "(none)"
	if len(currentTags) > 0 {
		current = strings.Join(currentTags, ", ")
	}

	addEntry := widget.NewEntry()
	addEntry.SetPlaceHolder("tags to add, comma separated")
	removeEntry := widget.NewEntry()
	removeEntry.SetPlaceHolder("tags to remove, comma separated")
	durationEntry := widget.NewEntry()
	durationEntry.SetPlaceHolder("e.g. 8s, or default")

	items := []*widget.FormItem{
		widget.NewFormItem("Current", widget.NewLabel(current)),
		widget.NewFormItem("Add", addEntry),
		widget.NewFormItem("Remove", removeEntry),
		widget.NewFormItem("Duration", durationEntry),
	}

	dialog.ShowForm("Edit "+filepath.Base(path), "Apply", "Cancel", items, func(confirm bool) {
		defer done()
		if !confirm {
			return
		}
		if err := a.applyEdit(path, addEntry.Text, removeEntry.Text, durationEntry.Text); err != nil {
			dialog.ShowError(err, a.UI.MainWin)
			return
		}
		a.updateInfoText(path, nil)
	}, a.UI.MainWin)
}

func (a *App) applyEdit(path, add, remove, duration string) error {
	d, set, reset, err := parseOverride(duration)
	if err != nil {
		return err
	}
	if tags := parseTags(add); len(tags) > 0 {
		if err := a.Service.AddTagsToItem(path, tags); err != nil {
			return err
		}
		a.addLogMessage(fmt.Sprintf("Tagged %s with %s", filepath.Base(path), strings.Join(tags, ", ")))
	}
	if tags := parseTags(remove); len(tags) > 0 {
		if err := a.Service.RemoveTagsFromItem(path, tags); err != nil {
			return err
		}
		a.addLogMessage(fmt.Sprintf("Removed %s from %s", strings.Join(tags, ", "), filepath.Base(path)))
	}
	switch {
	case set:
		if err := a.Service.SetItemDuration(path, d); err != nil {
			return err
		}
		a.addLogMessage(fmt.Sprintf("%s will show for %s from the next start", filepath.Base(path), d))
	case reset:
		if err := a.Service.ClearItemDuration(path); err != nil {
			return err
		}
		a.addLogMessage(fmt.Sprintf("%s uses the default duration from the next start", filepath.Base(path)))
	}
	return nil
}
