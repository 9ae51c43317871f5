package screens

import (
	"context"

	"github.com/YungFritz/kyys-letters/pkg/services"
)

// SwitchScreenMsg asks the root screen to show another screen. Data carries
// the series id for "details".
type SwitchScreenMsg struct {
	Screen string
	Data   any
}

// ImportFinishedMsg is sent when an import started from the search screen
// returns.
type ImportFinishedMsg struct {
	Title  string
	Report services.ImportReport
	Err    error
}

type epubGeneratedMsg struct {
	path string
	err  error
}

// Exporter writes a series to an EPub file and returns its path.
type Exporter func(ctx context.Context, slug string) (string, error)
