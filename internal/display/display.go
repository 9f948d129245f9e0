// Package display defines the command surface the engine drives the user
// interface through, plus a terminal implementation of it.
package display

import "velvetdown/internal/entity"

// Display receives UI commands from the engine. Implementations are only
// invoked from the engine's event loop, one call at a time, and must not
// block meaningfully.
type Display interface {
	ShowLoading(message string)
	ShowError(message string)
	ShowFormats(c entity.Catalog)
	UpdateProgress(percent int, status string)
	SetURLInputEnabled(enabled bool)
	SetCancelVisible(visible bool)
	SetOpenFileVisible(visible bool, label string)
	Notify(message string)
}
